package gormstore

import (
	"errors"
	"strings"

	mysqldrv "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/jsamuelsen/mnemosyne/internal/domain"
)

const mysqlDuplicateEntry = 1062

// translateError maps driver errors onto domain errors.
// Unknown errors are returned unchanged.
func translateError(err error, entity, id string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.NewNotFoundError(entity, id)
	case isUniqueViolation(err):
		return domain.NewConflictError(entity, "already exists")
	default:
		return err
	}
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		case sqlite3.SQLITE_CONSTRAINT:
			return strings.Contains(sqliteErr.Error(), "UNIQUE constraint failed")
		}

		return false
	}

	var mysqlErr *mysqldrv.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == mysqlDuplicateEntry
	}

	return false
}

// violatedColumn reports which of the candidate columns a unique violation
// names. Both drivers mention the column or index name in the message.
func violatedColumn(err error, candidates ...string) string {
	msg := strings.ToLower(err.Error())

	for _, c := range candidates {
		if strings.Contains(msg, c) {
			return c
		}
	}

	return ""
}

// likeEscaper escapes LIKE wildcards; queries use ESCAPE '!'.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// containsPattern builds a substring pattern for the folded key columns.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(foldKey(s)) + "%"
}

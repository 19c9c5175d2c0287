// Package flags evaluates feature flags from configuration.
//
// A flag value is either a plain value or a targeting rule of the form
//
//	quote-import:
//	  default: false
//	  users:
//	    alice: true
//	    3f1c...: true
//
// where entries under users, keyed by user ID or username, override the
// default for the caller carried in the request context.
package flags

import (
	"context"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/jsamuelsen/mnemosyne/internal/ports"
)

// Static implements ports.FeatureFlags over a fixed set of values.
type Static struct {
	mu    sync.RWMutex
	flags map[string]any
}

var _ ports.FeatureFlags = (*Static)(nil)

// NewStatic creates flags from a config map. Flag names are case-insensitive.
func NewStatic(values map[string]any) *Static {
	s := &Static{}
	s.Replace(values)

	return s
}

// Replace swaps the flag set, e.g. after a configuration reload.
func (s *Static) Replace(values map[string]any) {
	flags := make(map[string]any, len(values))
	for k, v := range values {
		flags[strings.ToLower(k)] = v
	}

	s.mu.Lock()
	s.flags = flags
	s.mu.Unlock()
}

// IsEnabled accepts booleans and strconv.ParseBool strings.
func (s *Static) IsEnabled(ctx context.Context, flag string, def bool) bool {
	switch v := s.value(ctx, flag).(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}

	return def
}

// GetInt accepts integers, whole floats as decoded from YAML or JSON, and
// numeric strings.
func (s *Static) GetInt(ctx context.Context, flag string, def int) int {
	switch v := s.value(ctx, flag).(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		if v == math.Trunc(v) {
			return int(v)
		}
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}

	return def
}

// value resolves a flag for the subject in ctx, or nil when unset.
func (s *Static) value(ctx context.Context, flag string) any {
	s.mu.RLock()
	v := s.flags[strings.ToLower(flag)]
	s.mu.RUnlock()

	rule, ok := v.(map[string]any)
	if !ok || !isRule(rule) {
		return v
	}

	if subject := ports.FlagSubjectFrom(ctx); !subject.Anonymous() {
		users, _ := rule["users"].(map[string]any)
		for _, key := range []string{subject.UserID, subject.Username} {
			if uv, ok := users[key]; ok && key != "" {
				return uv
			}
		}
	}

	return rule["default"]
}

func isRule(m map[string]any) bool {
	_, hasDefault := m["default"]
	_, hasUsers := m["users"]

	return hasDefault || hasUsers
}

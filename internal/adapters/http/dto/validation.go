package dto

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// validate checks request DTOs. Field errors are named after the json tag,
// or the form tag for query-only fields, so details match what clients sent.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, key := range []string{"json", "form"} {
			name, _, _ := strings.Cut(f.Tag.Get(key), ",")
			switch name {
			case "-":
				return ""
			case "":
				continue
			default:
				return name
			}
		}

		return f.Name
	})

	// notempty rejects strings that are blank after trimming.
	_ = v.RegisterValidation("notempty", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	return v
}

// Bind decodes the JSON body into v and validates it. On failure it writes
// a 400 envelope and returns false.
func Bind(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		return rejectMalformed(c)
	}

	return check(c, v)
}

// BindQuery decodes query parameters into v and validates them. On failure
// it writes a 400 envelope and returns false.
func BindQuery(c *gin.Context, v any) bool {
	if err := c.ShouldBindQuery(v); err != nil {
		return rejectMalformed(c)
	}

	return check(c, v)
}

func check(c *gin.Context, v any) bool {
	err := validate.Struct(v)
	if err == nil {
		return true
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return rejectMalformed(c)
	}

	details := make([]FieldDetail, len(fieldErrs))
	for i, fe := range fieldErrs {
		details[i] = FieldDetail{Field: fe.Field(), Message: describe(fe)}
	}

	resp := NewValidationResponse(details)
	resp.TraceID = GetTraceID(c)
	c.AbortWithStatusJSON(http.StatusBadRequest, resp)

	return false
}

func rejectMalformed(c *gin.Context) bool {
	AbortWithCode(c, ErrorCodeBadRequest, "malformed request")
	return false
}

// describe renders a field error as a short sentence for API clients.
func describe(fe validator.FieldError) string {
	p := fe.Param()

	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "notempty":
		return "must not be empty"
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "uuid":
		return "must be a valid UUID"
	case "oneof":
		return "must be one of: " + p
	case "gte":
		return "must be greater than or equal to " + p
	case "lte":
		return "must be less than or equal to " + p
	case "gt":
		return "must be greater than " + p
	case "lt":
		return "must be less than " + p
	case "min":
		return "must be at least " + p + lengthUnit(fe.Kind())
	case "max":
		return "must be at most " + p + lengthUnit(fe.Kind())
	default:
		return "failed validation: " + fe.Tag()
	}
}

// lengthUnit qualifies min and max for strings, where they bound length.
func lengthUnit(k reflect.Kind) string {
	if k == reflect.String {
		return " characters"
	}

	return ""
}

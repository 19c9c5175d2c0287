package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// placeholderSecretMarker appears in the built-in development secrets.
const placeholderSecretMarker = "change-me"

var validate = newValidator()

// newValidator reports fields by their koanf key, so messages name the
// setting an operator would change: "rate_limit.requests", not "RateLimit.Requests".
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("koanf"), ",")
		if name == "" || name == "-" {
			return f.Name
		}

		return name
	})

	return v
}

// Validate checks field constraints and the rules that span several
// settings. All problems are reported at once.
func (c *Config) Validate() error {
	var problems []string

	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("config validation failed: %w", err)
		}

		for _, fe := range fieldErrs {
			problems = append(problems, describe(fe))
		}
	}

	problems = append(problems, c.crossFieldProblems()...)

	if len(problems) == 0 {
		return nil
	}

	return fmt.Errorf("config validation failed:\n  %s", strings.Join(problems, "\n  "))
}

func (c *Config) crossFieldProblems() []string {
	var out []string

	if c.Auth.RefreshTTL > 0 && c.Auth.RefreshTTL <= c.Auth.AccessTTL {
		out = append(out, "auth.refresh_ttl must be longer than auth.access_ttl")
	}

	if c.Database.MaxOpenConns > 0 && c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		out = append(out, "database.max_idle_conns must not exceed database.max_open_conns")
	}

	if r := c.Client.Retry; r.MaxInterval > 0 && r.MaxInterval < r.InitialInterval {
		out = append(out, "client.retry.max_interval must not be below client.retry.initial_interval")
	}

	if !c.IsLocal() {
		if strings.Contains(c.Auth.AccessSecret, placeholderSecretMarker) ||
			strings.Contains(c.Auth.RefreshSecret, placeholderSecretMarker) {
			out = append(out, fmt.Sprintf("auth secrets must be set explicitly outside local environments (got the %q placeholder)", placeholderSecretMarker))
		}
	}

	return out
}

// describe renders a validator error as "<key> <problem>".
func describe(fe validator.FieldError) string {
	key := keyPath(fe.Namespace())

	switch fe.Tag() {
	case "required":
		return key + " is required"
	case "required_if":
		return fmt.Sprintf("%s is required when %s", key, strings.ToLower(fe.Param()))
	case "min":
		return fmt.Sprintf("%s must be at least %s", key, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", key, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", key, fe.Param())
	case "url":
		return key + " must be a valid URL"
	case "startswith":
		return fmt.Sprintf("%s must start with %q", key, fe.Param())
	case "nefield":
		return fmt.Sprintf("%s must differ from %s", key, fe.Param())
	default:
		return fmt.Sprintf("%s failed %q", key, fe.Tag())
	}
}

// keyPath drops the root struct from a validator namespace: "Config.auth.cookie.path"
// becomes "auth.cookie.path".
func keyPath(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}

	return strings.ToLower(namespace)
}

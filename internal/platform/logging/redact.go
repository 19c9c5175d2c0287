package logging

import (
	"log/slog"
	"regexp"

	"github.com/m-mizutani/masq"
)

// sensitiveFields are struct fields and attribute keys whose values are never logged.
var sensitiveFields = []string{
	"password", "Password",
	"passwordHash", "password_hash", "PasswordHash",
	"accessToken", "access_token", "AccessToken",
	"refreshToken", "refresh_token", "RefreshToken",
	"token", "Token", "TokenHash",
	"secret", "accessSecret", "refreshSecret",
	"authorization", "Authorization",
	"cookie", "Cookie", "Set-Cookie",
	"dsn", "DSN",
	"apiKey", "api_key",
}

// sensitivePrefixes match keys such as secretKey or privateKey.
var sensitivePrefixes = []string{"secret", "Secret", "private", "Private"}

var sensitiveValues = []*regexp.Regexp{
	// JWT: three base64url segments
	regexp.MustCompile(`^eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*$`),
	regexp.MustCompile(`(?i)^(bearer|basic)\s+\S+`),
	// bcrypt hashes
	regexp.MustCompile(`^\$2[abxy]?\$\d{2}\$`),
}

// RedactOptions returns the masq options that keep credentials, tokens,
// cookies and connection strings out of log output.
func RedactOptions() []masq.Option {
	opts := make([]masq.Option, 0, len(sensitiveFields)+len(sensitivePrefixes)+len(sensitiveValues))

	for _, name := range sensitiveFields {
		opts = append(opts, masq.WithFieldName(name))
	}

	for _, prefix := range sensitivePrefixes {
		opts = append(opts, masq.WithFieldPrefix(prefix))
	}

	for _, re := range sensitiveValues {
		opts = append(opts, masq.WithRegex(re))
	}

	return opts
}

// NewReplaceAttr returns a slog ReplaceAttr func applying RedactOptions plus extra.
func NewReplaceAttr(extra ...masq.Option) func(groups []string, a slog.Attr) slog.Attr {
	return masq.New(append(RedactOptions(), extra...)...)
}

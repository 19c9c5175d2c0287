package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// inDir runs Load from a scratch directory holding the given configs/ files.
func inDir(t *testing.T, files map[string]string) {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "configs"), 0o755))

	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "configs", name), []byte(body), 0o600))
	}

	t.Chdir(dir)
}

func TestLoad_Defaults(t *testing.T) {
	inDir(t, nil)

	cfg, err := Load("")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "mnemosyne", cfg.App.Name)
	assert.Equal(t, "local", cfg.App.Environment)
	assert.True(t, cfg.IsLocal())

	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.EqualValues(t, DefaultMaxRequestSize, cfg.Server.MaxRequestSize)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Log.File.Enabled)
	assert.Equal(t, 100, cfg.Log.File.MaxSizeMB)

	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.RefreshTTL)
	assert.Equal(t, DefaultBcryptCost, cfg.Auth.BcryptCost)
	assert.Equal(t, "refreshToken", cfg.Auth.Cookie.Name)
	assert.Equal(t, "/api/auth", cfg.Auth.Cookie.Path)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Contains(t, cfg.Database.DSN, "mnemosyne.db")
	assert.True(t, cfg.Database.AutoMigrate)
	assert.Equal(t, 200*time.Millisecond, cfg.Database.SlowThreshold)

	assert.False(t, cfg.Redis.Enabled)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 20, cfg.RateLimit.Requests)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORS.AllowedOrigins)

	assert.Equal(t, 3, cfg.Client.Retry.MaxAttempts)
	assert.Equal(t, 100*time.Millisecond, cfg.Client.Retry.InitialInterval)
	assert.Equal(t, 3, cfg.Client.CircuitBreaker.HalfOpenLimit)
	assert.Equal(t, 90*time.Second, cfg.Client.Transport.IdleConnTimeout)
	assert.Equal(t, "https://api.quotable.io", cfg.Services.Quote.BaseURL)

	assert.Equal(t, true, cfg.Features["quote-import"])
	assert.EqualValues(t, DefaultActivityFeedLimit, cfg.Features["activity-feed-default-limit"])
}

func TestLoad_Precedence(t *testing.T) {
	inDir(t, map[string]string{
		"base.yaml": `
server:
  port: 8000
log:
  level: debug
rate_limit:
  enabled: true
  requests: 10
`,
		"qa.yaml": `
app:
  environment: qa
server:
  port: 8100
`,
	})
	t.Setenv("APP_SERVER_PORT", "8200")

	cfg, err := Load("qa")
	require.NoError(t, err)

	assert.Equal(t, 8200, cfg.Server.Port, "env beats profile")
	assert.Equal(t, "qa", cfg.App.Environment, "profile beats base")
	assert.Equal(t, "debug", cfg.Log.Level, "base beats defaults")
	assert.Equal(t, 10, cfg.RateLimit.Requests)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window, "defaults fill the rest")
}

func TestLoad_MissingProfileIsIgnored(t *testing.T) {
	inDir(t, map[string]string{"base.yaml": "log:\n  format: text\n"})

	cfg, err := Load("nonexistent")
	require.NoError(t, err)

	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoad_MalformedProfile(t *testing.T) {
	inDir(t, map[string]string{"broken.yaml": "server: [port\n"})

	_, err := Load("broken")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `loading profile config "broken"`)
}

func TestLoad_EnvOverrides(t *testing.T) {
	inDir(t, nil)

	env := map[string]string{
		"APP_SERVER_PORT":                    "9090",
		"APP_LOG_LEVEL":                      "warn",
		"APP_TELEMETRY_ENABLED":              "true",
		"APP_AUTH_ACCESS_SECRET":             "env-access-secret-0123456789abcdefghij",
		"APP_AUTH_REFRESH_TTL":               "72h",
		"APP_AUTH_COOKIE_SECURE":             "true",
		"APP_DATABASE_MAX_OPEN_CONNS":        "40",
		"APP_RATE_LIMIT_REQUESTS":            "7",
		"APP_CLIENT_CIRCUIT_BREAKER_TIMEOUT": "45s",
		"APP_SERVICES_QUOTE_BASE_URL":        "http://quotes.internal",
	}
	for k, v := range env {
		t.Setenv(k, v)
	}

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.True(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "env-access-secret-0123456789abcdefghij", cfg.Auth.AccessSecret)
	assert.Equal(t, 72*time.Hour, cfg.Auth.RefreshTTL)
	assert.True(t, cfg.Auth.Cookie.Secure)
	assert.Equal(t, 40, cfg.Database.MaxOpenConns)
	assert.Equal(t, 7, cfg.RateLimit.Requests)
	assert.Equal(t, 45*time.Second, cfg.Client.CircuitBreaker.Timeout)
	assert.Equal(t, "http://quotes.internal", cfg.Services.Quote.BaseURL)
}

func TestEnvKeyMapper(t *testing.T) {
	mapKey := envKeyMapper([]string{
		"auth.access_secret",
		"rate_limit.requests",
		"client.circuit_breaker.half_open_limit",
		"server.port",
	})

	for in, want := range map[string]string{
		"APP_AUTH_ACCESS_SECRET":                     "auth.access_secret",
		"APP_RATE_LIMIT_REQUESTS":                    "rate_limit.requests",
		"APP_CLIENT_CIRCUIT_BREAKER_HALF_OPEN_LIMIT": "client.circuit_breaker.half_open_limit",
		"APP_SERVER_PORT":                            "server.port",
		"APP_FEATURES_NEW_FEED":                      "features.new.feed",
	} {
		assert.Equal(t, want, mapKey(in), in)
	}
}

func TestConfig_Environments(t *testing.T) {
	tests := []struct {
		env          string
		local, other bool
	}{
		{"local", true, true},
		{"test", true, true},
		{"dev", false, true},
		{"qa", false, false},
		{"prod", false, false},
	}

	for _, tt := range tests {
		cfg := &Config{App: AppConfig{Environment: tt.env}}
		assert.Equal(t, tt.local, cfg.IsLocal(), tt.env)
		assert.Equal(t, tt.other, cfg.ExposeErrors(), tt.env)
	}
}

package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/mnemosyne/internal/adapters/http/dto"
	"github.com/jsamuelsen/mnemosyne/internal/ports"
)

// captureLogger returns a debug level JSON logger writing into the returned buffer.
func captureLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

func logLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var lines []map[string]any

	for _, raw := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		if len(raw) == 0 {
			continue
		}

		var line map[string]any
		require.NoError(t, json.Unmarshal(raw, &line))
		lines = append(lines, line)
	}

	return lines
}

func TestLogging(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		target    string
		status    int
		wantLevel string
		wantLog   bool
	}{
		{name: "success", target: "/api/quotes/q1?page=2", status: http.StatusOK, wantLevel: "INFO", wantLog: true},
		{name: "client error", target: "/api/quotes/q1", status: http.StatusNotFound, wantLevel: "WARN", wantLog: true},
		{name: "server error", target: "/api/quotes/q1", status: http.StatusServiceUnavailable, wantLevel: "ERROR", wantLog: true},
		{name: "probe", target: "/-/live", status: http.StatusOK},
		{name: "skipped path", target: "/metrics", status: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			logger, buf := captureLogger()

			router := gin.New()
			router.Use(Logging(logger, "/metrics"))
			handler := func(c *gin.Context) { c.String(tt.status, "ok") }
			router.GET("/api/quotes/:id", handler)
			router.GET("/-/live", handler)
			router.GET("/metrics", handler)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.target, nil))
			require.Equal(t, tt.status, w.Code)

			lines := logLines(t, buf)
			if !tt.wantLog {
				assert.Empty(t, lines)
				return
			}

			require.Len(t, lines, 1)
			line := lines[0]
			assert.Equal(t, "request completed", line["msg"])
			assert.Equal(t, tt.wantLevel, line["level"])
			assert.Equal(t, "/api/quotes/q1", line["path"])
			assert.Equal(t, "/api/quotes/:id", line["route"])
			assert.InDelta(t, float64(tt.status), line["status"], 0)
		})
	}
}

func TestLogging_IncludesQueryAndUser(t *testing.T) {
	t.Parallel()

	logger, buf := captureLogger()
	tokens := testTokens(t)

	router := gin.New()
	router.Use(Logging(logger), OptionalAuth(tokens))
	router.GET("/api/feed", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/api/feed?limit=5", nil)
	req.Header.Set("Authorization", "Bearer "+issue(t, tokens, ports.AccessToken))

	router.ServeHTTP(httptest.NewRecorder(), req)

	lines := logLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "limit=5", lines[0]["query"])
	assert.Equal(t, "user-1", lines[0]["user_id"])
}

func TestRecovery(t *testing.T) {
	t.Parallel()

	logger, buf := captureLogger()

	router := gin.New()
	router.Use(Recovery(logger))
	router.GET("/panic", func(*gin.Context) { panic("boom") })
	router.GET("/late", func(c *gin.Context) {
		c.String(http.StatusAccepted, "partial")
		panic("after write")
	})

	t.Run("writes the failure envelope", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

		require.Equal(t, http.StatusInternalServerError, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		assert.Equal(t, dto.ErrorCodeInternal, resp.Code)
		assert.NotContains(t, w.Body.String(), "boom")
	})

	t.Run("keeps a response already written", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/late", nil))

		assert.Equal(t, http.StatusAccepted, w.Code)
		assert.Equal(t, "partial", w.Body.String())
	})

	assert.Contains(t, buf.String(), "panic recovered")
	assert.Contains(t, buf.String(), "boom")
	assert.Contains(t, buf.String(), "stack")
}

func TestTimeout(t *testing.T) {
	t.Parallel()

	router := gin.New()
	router.Use(Timeout(20 * time.Millisecond))
	router.GET("/deadline", func(c *gin.Context) {
		_, ok := c.Request.Context().Deadline()
		c.JSON(http.StatusOK, gin.H{"deadline": ok})
	})
	router.GET("/slow", func(c *gin.Context) {
		<-c.Request.Context().Done()
	})
	router.GET("/slow-but-answers", func(c *gin.Context) {
		<-c.Request.Context().Done()
		c.String(http.StatusOK, "late")
	})

	t.Run("sets a deadline", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/deadline", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"deadline":true}`, w.Body.String())
	})

	t.Run("answers for a silent handler", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/slow", nil))

		require.Equal(t, http.StatusGatewayTimeout, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, dto.ErrorCodeTimeout, resp.Code)
	})

	t.Run("does not overwrite a response", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/slow-but-answers", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "late", w.Body.String())
	})
}

func TestTimeout_Disabled(t *testing.T) {
	t.Parallel()

	router := gin.New()
	router.Use(Timeout(0))
	router.GET("/", func(c *gin.Context) {
		_, ok := c.Request.Context().Deadline()
		c.JSON(http.StatusOK, gin.H{"deadline": ok})
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.JSONEq(t, `{"deadline":false}`, w.Body.String())
}

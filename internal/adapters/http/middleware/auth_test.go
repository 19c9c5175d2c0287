package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/mnemosyne/internal/adapters/security"
	"github.com/jsamuelsen/mnemosyne/internal/domain"
	"github.com/jsamuelsen/mnemosyne/internal/ports"
)

func testTokens(t *testing.T) *security.JWTIssuer {
	t.Helper()

	issuer, err := security.NewJWTIssuer(security.JWTConfig{
		AccessSecret:  "middleware-access-secret-0123456789",
		RefreshSecret: "middleware-refresh-secret-0123456789",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    time.Hour,
		Issuer:        "mnemosyne",
	})
	require.NoError(t, err)

	return issuer
}

func issue(t *testing.T, tokens *security.JWTIssuer, kind ports.TokenKind) string {
	t.Helper()

	tok, err := tokens.Issue(&domain.User{ID: "user-1", Username: "alice"}, kind)
	require.NoError(t, err)

	return tok.Value
}

// authRouter echoes the caller id and feature flag identity.
func authRouter(mw gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(mw)
	router.GET("/test", func(c *gin.Context) {
		anonymous := ports.FlagSubjectFrom(c.Request.Context()).Anonymous()
		c.JSON(http.StatusOK, gin.H{"userId": UserID(c), "anonymous": anonymous})
	})

	return router
}

func TestRequireAuth(t *testing.T) {
	t.Parallel()

	tokens := testTokens(t)
	router := authRouter(RequireAuth(tokens))

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "valid access token",
			header:     "Bearer " + issue(t, tokens, ports.AccessToken),
			wantStatus: http.StatusOK,
			wantBody:   `{"userId":"user-1","anonymous":false}`,
		},
		{
			name:       "scheme is case-insensitive",
			header:     "bearer " + issue(t, tokens, ports.AccessToken),
			wantStatus: http.StatusOK,
			wantBody:   `{"userId":"user-1","anonymous":false}`,
		},
		{name: "missing header", header: "", wantStatus: http.StatusUnauthorized},
		{name: "basic scheme", header: "Basic dXNlcjpwYXNz", wantStatus: http.StatusUnauthorized},
		{name: "empty token", header: "Bearer ", wantStatus: http.StatusUnauthorized},
		{name: "garbage token", header: "Bearer not-a-jwt", wantStatus: http.StatusUnauthorized},
		{
			name:       "refresh token is not an access token",
			header:     "Bearer " + issue(t, tokens, ports.RefreshToken),
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)

			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, w.Body.String())
			} else {
				assert.Contains(t, w.Body.String(), `"code":"UNAUTHORIZED"`)
				assert.Contains(t, w.Body.String(), `"success":false`)
			}
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	t.Parallel()

	tokens := testTokens(t)
	router := authRouter(OptionalAuth(tokens))

	tests := []struct {
		name     string
		header   string
		wantBody string
	}{
		{
			name:     "valid token identifies caller",
			header:   "Bearer " + issue(t, tokens, ports.AccessToken),
			wantBody: `{"userId":"user-1","anonymous":false}`,
		},
		{name: "no token is anonymous", wantBody: `{"userId":"","anonymous":true}`},
		{name: "invalid token is anonymous", header: "Bearer nope", wantBody: `{"userId":"","anonymous":true}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.JSONEq(t, tt.wantBody, w.Body.String())
		})
	}
}

func TestGetClaims(t *testing.T) {
	t.Parallel()

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Nil(t, GetClaims(c))
	assert.Empty(t, UserID(c))

	c.Set(ContextKeyClaims, "not claims")
	assert.Nil(t, GetClaims(c))

	c.Set(ContextKeyClaims, &ports.TokenClaims{UserID: "u1"})
	assert.Equal(t, "u1", UserID(c))
}

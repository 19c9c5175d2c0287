package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/mnemosyne/internal/adapters/http/dto"
	"github.com/jsamuelsen/mnemosyne/internal/platform/logging"
	"github.com/jsamuelsen/mnemosyne/internal/ports"
)

// ContextKeyClaims is the gin context key for storing verified access token claims.
const ContextKeyClaims = "claims"

const bearerScheme = "bearer"

// GetClaims retrieves the caller's claims from the gin context.
// Returns nil for anonymous requests.
func GetClaims(c *gin.Context) *ports.TokenClaims {
	if claims, exists := c.Get(ContextKeyClaims); exists {
		if cl, ok := claims.(*ports.TokenClaims); ok {
			return cl
		}
	}

	return nil
}

// UserID returns the authenticated caller's id, or "" for anonymous requests.
func UserID(c *gin.Context) string {
	if claims := GetClaims(c); claims != nil {
		return claims.UserID
	}

	return ""
}

// RequireAuth returns middleware that rejects requests without a valid access token.
func RequireAuth(tokens ports.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c)
		if !ok {
			dto.AbortWithCode(c, dto.ErrorCodeUnauthorized, "authentication required")
			return
		}

		claims, err := tokens.Parse(raw, ports.AccessToken)
		if err != nil {
			dto.AbortWithError(c, err)
			return
		}

		authenticate(c, claims)
		c.Next()
	}
}

// OptionalAuth returns middleware that identifies the caller when a valid access
// token is present. Missing or invalid tokens leave the request anonymous.
func OptionalAuth(tokens ports.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw, ok := bearerToken(c); ok {
			if claims, err := tokens.Parse(raw, ports.AccessToken); err == nil {
				authenticate(c, claims)
				c.Next()

				return
			}
		}

		c.Request = c.Request.WithContext(ports.WithFlagSubject(c.Request.Context(), ports.FlagSubject{}))
		c.Next()
	}
}

func authenticate(c *gin.Context, claims *ports.TokenClaims) {
	c.Set(ContextKeyClaims, claims)

	ctx := logging.WithUserID(c.Request.Context(), claims.UserID)
	ctx = ports.WithFlagSubject(ctx, ports.FlagSubject{UserID: claims.UserID, Username: claims.Username})
	c.Request = c.Request.WithContext(ctx)
}

// bearerToken extracts the token of an "Authorization: Bearer <token>" header.
func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")

	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, bearerScheme) {
		return "", false
	}

	token = strings.TrimSpace(token)

	return token, token != ""
}

package middleware

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/mnemosyne/internal/adapters/http/dto"
	"github.com/jsamuelsen/mnemosyne/internal/platform/logging"
	"github.com/jsamuelsen/mnemosyne/internal/platform/metrics"
	"github.com/jsamuelsen/mnemosyne/internal/ports"
)

// RateLimit returns middleware that limits requests per client IP within scope.
// Requests are allowed when the limiter itself fails. A nil limiter disables limiting.
func RateLimit(limiter ports.RateLimiter, recorder *metrics.Recorder, scope string) gin.HandlerFunc {
	if limiter == nil {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()

		allowed, retryAfter, err := limiter.Allow(ctx, scope+":"+c.ClientIP())
		if err != nil {
			logging.FromContext(ctx).WarnContext(ctx, "rate limiter unavailable, allowing request",
				slog.String("scope", scope),
				slog.String("error", err.Error()),
			)
			c.Next()

			return
		}

		if !allowed {
			recorder.RequestRateLimited(scope)
			dto.AbortRateLimited(c, retryAfter)

			return
		}

		c.Next()
	}
}

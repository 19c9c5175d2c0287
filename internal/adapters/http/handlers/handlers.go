package handlers

import (
	"github.com/gin-gonic/gin"
)

// Guards are the per-route middleware handlers attach to their routes.
type Guards struct {
	// Required rejects anonymous requests.
	Required gin.HandlerFunc

	// Optional identifies the caller when a valid token is present.
	Optional gin.HandlerFunc

	// RateLimit limits credential endpoints per client.
	RateLimit gin.HandlerFunc
}

func (g Guards) rateLimit() gin.HandlerFunc {
	if g.RateLimit == nil {
		return func(c *gin.Context) { c.Next() }
	}

	return g.RateLimit
}

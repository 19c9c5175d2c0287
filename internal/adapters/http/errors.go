package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/mnemosyne/internal/adapters/http/dto"
)

// NoRoute answers requests for unknown paths with the error envelope.
func NoRoute(c *gin.Context) {
	dto.AbortWithCode(c, dto.ErrorCodeNotFound, "route "+c.Request.Method+" "+c.Request.URL.Path+" not found")
}

// NoMethod answers requests whose path exists under another method.
func NoMethod(c *gin.Context) {
	resp := dto.NewErrorResponse("METHOD_NOT_ALLOWED", "method "+c.Request.Method+" not allowed")
	resp.TraceID = dto.GetTraceID(c)

	c.AbortWithStatusJSON(http.StatusMethodNotAllowed, resp)
}

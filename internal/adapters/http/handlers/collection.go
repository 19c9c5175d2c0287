package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/mnemosyne/internal/adapters/http/dto"
	"github.com/jsamuelsen/mnemosyne/internal/adapters/http/middleware"
	"github.com/jsamuelsen/mnemosyne/internal/app"
)

// CollectionHandler serves the caller's own collections.
// Every route requires authentication.
type CollectionHandler struct {
	service *app.CollectionService
}

// NewCollectionHandler creates a new collection handler.
func NewCollectionHandler(service *app.CollectionService) *CollectionHandler {
	return &CollectionHandler{service: service}
}

// ListCollections handles GET /api/collections.
func (h *CollectionHandler) ListCollections(c *gin.Context) {
	var q dto.PageQuery
	if !dto.BindQuery(c, &q) {
		return
	}

	result, err := h.service.ListCollections(c.Request.Context(), middleware.UserID(c), q.ToPage())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	dto.Paged(c, dto.MapItems(result.Items, dto.NewCollectionResponse), dto.NewPagination(result))
}

// CreateCollection handles POST /api/collections.
func (h *CollectionHandler) CreateCollection(c *gin.Context) {
	var req dto.CreateCollectionRequest
	if !dto.Bind(c, &req) {
		return
	}

	col, err := h.service.CreateCollection(c.Request.Context(), middleware.UserID(c), req.ToDraft())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	dto.Created(c, dto.NewCollectionResponse(col))
}

// GetCollection handles GET /api/collections/:id.
func (h *CollectionHandler) GetCollection(c *gin.Context) {
	col, err := h.service.GetCollection(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	dto.OK(c, dto.NewCollectionResponse(col))
}

// UpdateCollection handles PATCH /api/collections/:id.
func (h *CollectionHandler) UpdateCollection(c *gin.Context) {
	var req dto.UpdateCollectionRequest
	if !dto.Bind(c, &req) {
		return
	}

	col, err := h.service.UpdateCollection(c.Request.Context(), middleware.UserID(c), c.Param("id"), req.ToPatch())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	dto.OK(c, dto.NewCollectionResponse(col))
}

// DeleteCollection handles DELETE /api/collections/:id.
func (h *CollectionHandler) DeleteCollection(c *gin.Context) {
	if err := h.service.DeleteCollection(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		dto.HandleError(c, err)
		return
	}

	dto.Message(c, "Collection deleted")
}

// ListQuotes handles GET /api/collections/:id/quotes.
func (h *CollectionHandler) ListQuotes(c *gin.Context) {
	var q dto.PageQuery
	if !dto.BindQuery(c, &q) {
		return
	}

	result, err := h.service.ListCollectionQuotes(c.Request.Context(), middleware.UserID(c), c.Param("id"), q.ToPage())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	dto.Paged(c, dto.MapItems(result.Items, dto.NewCollectionQuoteResponse), dto.NewPagination(result))
}

// AddQuote handles POST /api/collections/:id/quotes.
func (h *CollectionHandler) AddQuote(c *gin.Context) {
	var req dto.AddCollectionQuoteRequest
	if !dto.Bind(c, &req) {
		return
	}

	col, err := h.service.AddQuote(c.Request.Context(), middleware.UserID(c), c.Param("id"), req.QuoteID)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	dto.Created(c, dto.NewCollectionResponse(col))
}

// RemoveQuote handles DELETE /api/collections/:id/quotes/:quoteId.
func (h *CollectionHandler) RemoveQuote(c *gin.Context) {
	err := h.service.RemoveQuote(c.Request.Context(), middleware.UserID(c), c.Param("id"), c.Param("quoteId"))
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	dto.Message(c, "Quote removed from collection")
}

// RegisterRoutes registers collection routes on the given router group.
func (h *CollectionHandler) RegisterRoutes(rg *gin.RouterGroup, g Guards) {
	collections := rg.Group("/collections", g.Required)
	collections.GET("", h.ListCollections)
	collections.POST("", h.CreateCollection)
	collections.GET("/:id", h.GetCollection)
	collections.PATCH("/:id", h.UpdateCollection)
	collections.DELETE("/:id", h.DeleteCollection)
	collections.GET("/:id/quotes", h.ListQuotes)
	collections.POST("/:id/quotes", h.AddQuote)
	collections.DELETE("/:id/quotes/:quoteId", h.RemoveQuote)
}

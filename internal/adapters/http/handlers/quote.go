package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/mnemosyne/internal/adapters/http/dto"
	"github.com/jsamuelsen/mnemosyne/internal/adapters/http/middleware"
	"github.com/jsamuelsen/mnemosyne/internal/app"
)

// QuoteHandler handles quote-related HTTP endpoints.
type QuoteHandler struct {
	quotes *app.QuoteService
	likes  *app.LikeService
}

// NewQuoteHandler creates a new quote handler.
func NewQuoteHandler(quotes *app.QuoteService, likes *app.LikeService) *QuoteHandler {
	return &QuoteHandler{
		quotes: quotes,
		likes:  likes,
	}
}

// ListQuotes handles GET /api/quotes
// Returns one page of quotes matching the filters.
//
// @Summary List quotes
// @Description Filters by category, author, tags, search text, visibility and the caller's likes
// @Tags quotes
// @Produce json
// @Param page query int false "Page number (1-indexed)"
// @Param limit query int false "Page size (1-100)"
// @Param sortBy query string false "createdAt, updatedAt, author or text"
// @Param order query string false "asc or desc"
// @Success 200 {object} dto.Response{data=[]dto.QuoteResponse}
// @Failure 400 {object} dto.Response
// @Failure 401 {object} dto.Response
// @Router /api/quotes [get]
func (h *QuoteHandler) ListQuotes(c *gin.Context) {
	var q dto.ListQuotesQuery
	if !dto.BindQuery(c, &q) {
		return
	}

	result, err := h.quotes.ListQuotes(c.Request.Context(), middleware.UserID(c), q.ToQuery())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	dto.Paged(c, dto.MapItems(result.Items, dto.NewQuoteResponse), dto.NewPagination(result))
}

// GetRandomQuote handles GET /api/quotes/random
//
// @Summary Get a random quote
// @Tags quotes
// @Produce json
// @Success 200 {object} dto.Response{data=dto.QuoteResponse}
// @Failure 404 {object} dto.Response
// @Router /api/quotes/random [get]
func (h *QuoteHandler) GetRandomQuote(c *gin.Context) {
	quote, err := h.quotes.GetRandomQuote(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	dto.OK(c, dto.NewQuoteResponse(quote))
}

// GetQuote handles GET /api/quotes/:id
//
// @Summary Get a quote by ID
// @Tags quotes
// @Produce json
// @Param id path string true "Quote ID"
// @Success 200 {object} dto.Response{data=dto.QuoteResponse}
// @Failure 404 {object} dto.Response
// @Router /api/quotes/{id} [get]
func (h *QuoteHandler) GetQuote(c *gin.Context) {
	quote, err := h.quotes.GetQuote(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	dto.OK(c, dto.NewQuoteResponse(quote))
}

// CreateQuote handles POST /api/quotes
func (h *QuoteHandler) CreateQuote(c *gin.Context) {
	var req dto.CreateQuoteRequest
	if !dto.Bind(c, &req) {
		return
	}

	quote, err := h.quotes.CreateQuote(c.Request.Context(), middleware.UserID(c), req.ToDraft())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	dto.Created(c, dto.NewQuoteResponse(quote))
}

// UpdateQuote handles PUT /api/quotes/:id
func (h *QuoteHandler) UpdateQuote(c *gin.Context) {
	var req dto.UpdateQuoteRequest
	if !dto.Bind(c, &req) {
		return
	}

	quote, err := h.quotes.UpdateQuote(c.Request.Context(), middleware.UserID(c), c.Param("id"), req.ToPatch())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	dto.OK(c, dto.NewQuoteResponse(quote))
}

// DeleteQuote handles DELETE /api/quotes/:id
func (h *QuoteHandler) DeleteQuote(c *gin.Context) {
	if err := h.quotes.DeleteQuote(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		dto.HandleError(c, err)
		return
	}

	dto.Message(c, "Quote deleted")
}

// ImportQuotes handles POST /api/quotes/import
// Pulls random quotes from the upstream provider and stores the new ones.
//
// @Summary Import quotes from the upstream provider
// @Tags quotes
// @Accept json
// @Produce json
// @Success 201 {object} dto.Response{data=dto.ImportQuotesResponse}
// @Failure 403 {object} dto.Response "import disabled"
// @Failure 503 {object} dto.Response "provider unavailable"
// @Router /api/quotes/import [post]
func (h *QuoteHandler) ImportQuotes(c *gin.Context) {
	var req dto.ImportQuotesRequest
	if !dto.Bind(c, &req) {
		return
	}

	result, err := h.quotes.ImportQuotes(c.Request.Context(), middleware.UserID(c), req.Count)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	dto.Created(c, dto.NewImportQuotesResponse(result))
}

// LikeQuote handles POST /api/quotes/:id/like
func (h *QuoteHandler) LikeQuote(c *gin.Context) {
	status, err := h.likes.Like(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	dto.OK(c, dto.NewLikeStatusResponse(status))
}

// UnlikeQuote handles DELETE /api/quotes/:id/like
func (h *QuoteHandler) UnlikeQuote(c *gin.Context) {
	status, err := h.likes.Unlike(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	dto.OK(c, dto.NewLikeStatusResponse(status))
}

// RegisterRoutes registers quote routes on the given router group.
func (h *QuoteHandler) RegisterRoutes(rg *gin.RouterGroup, g Guards) {
	quotes := rg.Group("/quotes")
	quotes.GET("", g.Optional, h.ListQuotes)
	quotes.GET("/random", g.Optional, h.GetRandomQuote)
	quotes.GET("/:id", g.Optional, h.GetQuote)

	quotes.POST("", g.Required, h.CreateQuote)
	quotes.POST("/import", g.Required, h.ImportQuotes)
	quotes.PUT("/:id", g.Required, h.UpdateQuote)
	quotes.DELETE("/:id", g.Required, h.DeleteQuote)
	quotes.POST("/:id/like", g.Required, h.LikeQuote)
	quotes.DELETE("/:id/like", g.Required, h.UnlikeQuote)
}

package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/mnemosyne/internal/adapters/http/dto"
	"github.com/jsamuelsen/mnemosyne/internal/app"
)

// CategoryHandler serves the quote taxonomy.
type CategoryHandler struct {
	service *app.CategoryService
}

// NewCategoryHandler creates a new category handler.
func NewCategoryHandler(service *app.CategoryService) *CategoryHandler {
	return &CategoryHandler{service: service}
}

// ListCategories handles GET /api/categories.
func (h *CategoryHandler) ListCategories(c *gin.Context) {
	categories, err := h.service.ListCategories(c.Request.Context())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	dto.OK(c, dto.MapItems(categories, dto.NewCategoryResponse))
}

// GetCategory handles GET /api/categories/:id.
func (h *CategoryHandler) GetCategory(c *gin.Context) {
	category, err := h.service.GetCategory(c.Request.Context(), c.Param("id"))
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	dto.OK(c, dto.NewCategoryResponse(category))
}

// RegisterRoutes mounts the public category routes; they take no guards.
func (h *CategoryHandler) RegisterRoutes(rg *gin.RouterGroup, _ Guards) {
	categories := rg.Group("/categories")
	categories.GET("", h.ListCategories)
	categories.GET("/:id", h.GetCategory)
}

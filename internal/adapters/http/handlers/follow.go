package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/mnemosyne/internal/adapters/http/dto"
	"github.com/jsamuelsen/mnemosyne/internal/adapters/http/middleware"
	"github.com/jsamuelsen/mnemosyne/internal/app"
	"github.com/jsamuelsen/mnemosyne/internal/domain"
)

// FollowHandler handles follow relationships between users.
type FollowHandler struct {
	service *app.FollowService
}

// NewFollowHandler creates a new follow handler.
func NewFollowHandler(service *app.FollowService) *FollowHandler {
	return &FollowHandler{service: service}
}

// Follow handles POST /api/follows/:userId.
func (h *FollowHandler) Follow(c *gin.Context) {
	if err := h.service.Follow(c.Request.Context(), middleware.UserID(c), c.Param("userId")); err != nil {
		dto.HandleError(c, err)
		return
	}

	dto.Created(c, dto.FollowStatusResponse{IsFollowing: true})
}

// Unfollow handles DELETE /api/follows/:userId.
func (h *FollowHandler) Unfollow(c *gin.Context) {
	if err := h.service.Unfollow(c.Request.Context(), middleware.UserID(c), c.Param("userId")); err != nil {
		dto.HandleError(c, err)
		return
	}

	dto.OK(c, dto.FollowStatusResponse{IsFollowing: false})
}

// ListFollowers handles GET /api/follows/:userId/followers.
func (h *FollowHandler) ListFollowers(c *gin.Context) {
	h.list(c, h.service.ListFollowers)
}

// ListFollowing handles GET /api/follows/:userId/following.
func (h *FollowHandler) ListFollowing(c *gin.Context) {
	h.list(c, h.service.ListFollowing)
}

type followLister func(ctx context.Context, userID string, page domain.Page) (domain.PageResult[domain.FollowEntry], error)

func (h *FollowHandler) list(c *gin.Context, fetch followLister) {
	var q dto.PageQuery
	if !dto.BindQuery(c, &q) {
		return
	}

	result, err := fetch(c.Request.Context(), c.Param("userId"), q.ToPage())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	dto.Paged(c, dto.MapItems(result.Items, dto.NewFollowEntryResponse), dto.NewPagination(result))
}

// CheckStatus handles GET /api/follows/check/:userId.
// Anonymous callers follow nobody.
func (h *FollowHandler) CheckStatus(c *gin.Context) {
	following, err := h.service.IsFollowing(c.Request.Context(), middleware.UserID(c), c.Param("userId"))
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	dto.OK(c, dto.FollowStatusResponse{IsFollowing: following})
}

// RegisterRoutes registers follow routes on the given router group.
func (h *FollowHandler) RegisterRoutes(rg *gin.RouterGroup, g Guards) {
	follows := rg.Group("/follows")
	follows.GET("/check/:userId", g.Optional, h.CheckStatus)
	follows.GET("/:userId/followers", h.ListFollowers)
	follows.GET("/:userId/following", h.ListFollowing)
	follows.POST("/:userId", g.Required, h.Follow)
	follows.DELETE("/:userId", g.Required, h.Unfollow)
}

package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/mnemosyne/internal/adapters/http/dto"
	"github.com/jsamuelsen/mnemosyne/internal/adapters/http/middleware"
	"github.com/jsamuelsen/mnemosyne/internal/app"
	"github.com/jsamuelsen/mnemosyne/internal/domain"
)

// ActivityHandler serves activity feeds, newest first.
type ActivityHandler struct {
	service *app.ActivityService
}

// NewActivityHandler creates a new activity handler.
func NewActivityHandler(service *app.ActivityService) *ActivityHandler {
	return &ActivityHandler{service: service}
}

// GlobalFeed handles GET /api/activity/feed.
func (h *ActivityHandler) GlobalFeed(c *gin.Context) {
	h.feed(c, func(c *gin.Context, limit int) ([]domain.FeedItem, error) {
		return h.service.GlobalFeed(c.Request.Context(), middleware.UserID(c), limit)
	})
}

// FollowingFeed handles GET /api/activity/following.
func (h *ActivityHandler) FollowingFeed(c *gin.Context) {
	h.feed(c, func(c *gin.Context, limit int) ([]domain.FeedItem, error) {
		return h.service.FollowingFeed(c.Request.Context(), middleware.UserID(c), limit)
	})
}

// MyFeed handles GET /api/activity/me.
func (h *ActivityHandler) MyFeed(c *gin.Context) {
	h.feed(c, func(c *gin.Context, limit int) ([]domain.FeedItem, error) {
		return h.service.MyFeed(c.Request.Context(), middleware.UserID(c), limit)
	})
}

// UserFeed handles GET /api/activity/user/:userId.
func (h *ActivityHandler) UserFeed(c *gin.Context) {
	h.feed(c, func(c *gin.Context, limit int) ([]domain.FeedItem, error) {
		return h.service.UserFeed(c.Request.Context(), middleware.UserID(c), c.Param("userId"), limit)
	})
}

func (h *ActivityHandler) feed(c *gin.Context, load func(*gin.Context, int) ([]domain.FeedItem, error)) {
	var q dto.FeedQuery
	if !dto.BindQuery(c, &q) {
		return
	}

	items, err := load(c, q.Limit)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	dto.OK(c, dto.MapItems(items, dto.NewFeedItemResponse))
}

// RegisterRoutes registers activity routes on the given router group.
func (h *ActivityHandler) RegisterRoutes(rg *gin.RouterGroup, g Guards) {
	activity := rg.Group("/activity")
	activity.GET("/feed", g.Optional, h.GlobalFeed)
	activity.GET("/following", g.Required, h.FollowingFeed)
	activity.GET("/me", g.Required, h.MyFeed)
	activity.GET("/user/:userId", g.Optional, h.UserFeed)
}

package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/mnemosyne/internal/adapters/http/dto"
	"github.com/jsamuelsen/mnemosyne/internal/adapters/http/middleware"
	"github.com/jsamuelsen/mnemosyne/internal/app"
)

// UserHandler serves public profiles, profile edits and liked-quote lists.
type UserHandler struct {
	auth  *app.AuthService
	likes *app.LikeService
}

// NewUserHandler creates a new user handler.
func NewUserHandler(auth *app.AuthService, likes *app.LikeService) *UserHandler {
	return &UserHandler{auth: auth, likes: likes}
}

// GetProfile handles GET /api/users/:userId.
// The caller's own profile includes the email address.
func (h *UserHandler) GetProfile(c *gin.Context) {
	userID := c.Param("userId")

	profile, err := h.auth.GetUserProfile(c.Request.Context(), userID)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	if middleware.UserID(c) == userID {
		dto.OK(c, dto.NewOwnProfileResponse(profile))
		return
	}

	dto.OK(c, dto.NewPublicProfileResponse(profile))
}

// UpdateProfile handles PATCH /api/users/me.
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req dto.UpdateProfileRequest
	if !dto.Bind(c, &req) {
		return
	}

	profile, err := h.auth.UpdateProfile(c.Request.Context(), middleware.UserID(c), req.ToUpdate())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	dto.OK(c, dto.NewOwnProfileResponse(profile))
}

// ListLikes handles GET /api/users/:userId/likes.
func (h *UserHandler) ListLikes(c *gin.Context) {
	var q dto.PageQuery
	if !dto.BindQuery(c, &q) {
		return
	}

	result, err := h.likes.ListUserLikes(c.Request.Context(), middleware.UserID(c), c.Param("userId"), q.ToPage())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	dto.Paged(c, dto.MapItems(result.Items, dto.NewQuoteResponse), dto.NewPagination(result))
}

// RegisterRoutes registers user routes on the given router group.
func (h *UserHandler) RegisterRoutes(rg *gin.RouterGroup, g Guards) {
	users := rg.Group("/users")
	users.PATCH("/me", g.Required, h.UpdateProfile)
	users.GET("/:userId", g.Optional, h.GetProfile)
	users.GET("/:userId/likes", g.Optional, h.ListLikes)
}

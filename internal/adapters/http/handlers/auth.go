package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/mnemosyne/internal/adapters/http/dto"
	"github.com/jsamuelsen/mnemosyne/internal/adapters/http/middleware"
	"github.com/jsamuelsen/mnemosyne/internal/app"
	"github.com/jsamuelsen/mnemosyne/internal/domain"
	"github.com/jsamuelsen/mnemosyne/internal/platform/config"
)

// AuthHandler handles registration, login and token endpoints.
// Refresh tokens travel only in an httpOnly cookie.
type AuthHandler struct {
	service    *app.AuthService
	cookie     config.CookieConfig
	refreshTTL time.Duration
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(service *app.AuthService, cookie config.CookieConfig, refreshTTL time.Duration) *AuthHandler {
	return &AuthHandler{
		service:    service,
		cookie:     cookie,
		refreshTTL: refreshTTL,
	}
}

// Register handles POST /api/auth/register.
//
// @Summary Register an account
// @Tags auth
// @Accept json
// @Produce json
// @Success 201 {object} dto.Response{data=dto.AuthResponse}
// @Failure 400 {object} dto.Response
// @Failure 429 {object} dto.Response
// @Router /api/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if !dto.Bind(c, &req) {
		return
	}

	session, err := h.service.Register(c.Request.Context(), req.ToRegistration())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	h.setRefreshCookie(c, session.RefreshToken.Value, int(h.refreshTTL.Seconds()))
	dto.Created(c, dto.NewAuthResponse(session))
}

// Login handles POST /api/auth/login.
//
// @Summary Log in
// @Tags auth
// @Accept json
// @Produce json
// @Success 200 {object} dto.Response{data=dto.AuthResponse}
// @Failure 401 {object} dto.Response
// @Router /api/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !dto.Bind(c, &req) {
		return
	}

	session, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	h.setRefreshCookie(c, session.RefreshToken.Value, int(h.refreshTTL.Seconds()))
	dto.OK(c, dto.NewAuthResponse(session))
}

// Refresh handles POST /api/auth/refresh.
// It issues a new access token from the refresh cookie.
func (h *AuthHandler) Refresh(c *gin.Context) {
	token, _ := c.Cookie(h.cookie.Name)

	access, user, err := h.service.Refresh(c.Request.Context(), token)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	dto.OK(c, dto.RefreshResponse{
		User:        dto.NewUserSummaryResponse(user.Summary()),
		AccessToken: access.Value,
		ExpiresAt:   access.ExpiresAt,
	})
}

// Logout handles POST /api/auth/logout. It always succeeds.
func (h *AuthHandler) Logout(c *gin.Context) {
	token, _ := c.Cookie(h.cookie.Name)

	h.service.Logout(c.Request.Context(), token)
	h.setRefreshCookie(c, "", -1)

	dto.Message(c, "Logged out")
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(c *gin.Context) {
	profile, err := h.service.Me(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		if domain.IsNotFound(err) {
			err = domain.ErrInvalidToken
		}

		dto.HandleError(c, err)

		return
	}

	dto.OK(c, dto.NewOwnProfileResponse(profile))
}

// setRefreshCookie writes the refresh cookie. A negative maxAge deletes it.
func (h *AuthHandler) setRefreshCookie(c *gin.Context, value string, maxAge int) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    value,
		Path:     h.cookie.Path,
		Domain:   h.cookie.Domain,
		MaxAge:   maxAge,
		Secure:   h.cookie.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// RegisterRoutes registers auth routes on the given router group.
func (h *AuthHandler) RegisterRoutes(rg *gin.RouterGroup, g Guards) {
	auth := rg.Group("/auth")
	auth.POST("/register", g.rateLimit(), h.Register)
	auth.POST("/login", g.rateLimit(), h.Login)
	auth.POST("/refresh", g.rateLimit(), h.Refresh)
	auth.POST("/logout", h.Logout)
	auth.GET("/me", g.Required, h.Me)
}

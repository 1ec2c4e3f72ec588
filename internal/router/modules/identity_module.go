package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rifqiokta/socialhub/internal/container"
	handlers "github.com/rifqiokta/socialhub/internal/interface/http"
	"github.com/rifqiokta/socialhub/internal/interface/middleware"
)

// IdentityModule serves the auth surface:
// Public: POST /api/auth/register, /login, /refresh-token, /logout, /forgot-password
// Refresh and logout take the opaque refresh token in the body, so they stay
// public; possession of the token is the credential.
type IdentityModule struct {
	Handler *handlers.IdentityHandler
}

func NewIdentityModule(h *handlers.IdentityHandler) *IdentityModule {
	return &IdentityModule{Handler: h}
}

func (m *IdentityModule) Register(rg *gin.RouterGroup) {
	registerLimiter := middleware.RateLimit(container.GetRedis(), 10, time.Minute, middleware.KeyByIPAndPath(), nil)
	loginLimiter := middleware.RateLimit(container.GetRedis(), 10, time.Minute, middleware.KeyByIP(), nil)
	refreshLimiter := middleware.RateLimit(container.GetRedis(), 60, time.Minute, middleware.KeyByIP(), nil)
	forgotLimiter := middleware.RateLimit(container.GetRedis(), 5, time.Minute, middleware.KeyByIPAndPath(), nil)

	auth := rg.Group("/auth")
	auth.POST("/register", registerLimiter, m.Handler.Register)
	auth.POST("/login", loginLimiter, m.Handler.Login)
	auth.POST("/refresh-token", refreshLimiter, m.Handler.Refresh)
	auth.POST("/logout", m.Handler.Logout)
	auth.POST("/forgot-password", forgotLimiter, m.Handler.ForgotPassword)
}

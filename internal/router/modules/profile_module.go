package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rifqiokta/socialhub/internal/container"
	handlers "github.com/rifqiokta/socialhub/internal/interface/http"
	"github.com/rifqiokta/socialhub/internal/interface/middleware"
)

type ProfileModule struct {
	Handler *handlers.ProfileHandler
}

func NewProfileModule(h *handlers.ProfileHandler) *ProfileModule {
	return &ProfileModule{Handler: h}
}

func (m *ProfileModule) Register(rg *gin.RouterGroup) {
	profile := rg.Group("/profile")
	profile.Use(middleware.Auth(container.GetJWT()))
	profile.Use(middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByUserID(), nil))
	{
		profile.GET("", m.Handler.Get)
		profile.PUT("", m.Handler.Update)
	}
}

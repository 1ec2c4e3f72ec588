package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rifqiokta/socialhub/internal/container"
	handlers "github.com/rifqiokta/socialhub/internal/interface/http"
	"github.com/rifqiokta/socialhub/internal/interface/middleware"
)

type MediaModule struct {
	Handler *handlers.MediaHandler
}

func NewMediaModule(h *handlers.MediaHandler) *MediaModule {
	return &MediaModule{Handler: h}
}

func (m *MediaModule) Register(rg *gin.RouterGroup) {
	media := rg.Group("/media")
	media.Use(middleware.Auth(container.GetJWT()))
	media.Use(middleware.RateLimit(container.GetRedis(), 30, time.Minute, middleware.KeyByUserID(), nil))
	{
		media.POST("/upload", m.Handler.Upload)
		media.GET("", m.Handler.List)
	}
}

package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rifqiokta/socialhub/internal/container"
	handlers "github.com/rifqiokta/socialhub/internal/interface/http"
	"github.com/rifqiokta/socialhub/internal/interface/middleware"
)

type PostModule struct {
	Handler *handlers.PostHandler
}

func NewPostModule(h *handlers.PostHandler) *PostModule {
	return &PostModule{Handler: h}
}

func (m *PostModule) Register(rg *gin.RouterGroup) {
	posts := rg.Group("/posts")
	posts.Use(middleware.Auth(container.GetJWT()))
	posts.Use(middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByUserID(), nil))
	{
		posts.POST("", m.Handler.Create)
		posts.GET("", m.Handler.List)
		posts.GET("/:id", m.Handler.Get)
		posts.DELETE("/:id", m.Handler.Delete)
	}
}

package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rifqiokta/socialhub/internal/container"
	handlers "github.com/rifqiokta/socialhub/internal/interface/http"
	"github.com/rifqiokta/socialhub/internal/interface/middleware"
)

type SearchModule struct {
	Handler *handlers.SearchHandler
}

func NewSearchModule(h *handlers.SearchHandler) *SearchModule {
	return &SearchModule{Handler: h}
}

func (m *SearchModule) Register(rg *gin.RouterGroup) {
	search := rg.Group("/search")
	search.Use(middleware.Auth(container.GetJWT()))
	search.Use(middleware.RateLimit(container.GetRedis(), 60, time.Minute, middleware.KeyByUserID(), nil))
	{
		search.GET("/posts", m.Handler.Posts)
	}
}

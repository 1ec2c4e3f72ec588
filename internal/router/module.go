package router

import "github.com/gin-gonic/gin"

// Module is one feature surface (auth, posts, profile, search, media) that
// knows how to mount its routes on the shared API group.
type Module interface {
	Register(rg *gin.RouterGroup)
}

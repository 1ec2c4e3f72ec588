package router

import (
	"github.com/rifqiokta/socialhub/internal/application"
	"github.com/rifqiokta/socialhub/internal/container"
	pginfra "github.com/rifqiokta/socialhub/internal/infrastructure/postgres"
	essearch "github.com/rifqiokta/socialhub/internal/infrastructure/search"
	handlers "github.com/rifqiokta/socialhub/internal/interface/http"
	"github.com/rifqiokta/socialhub/internal/router/modules"
)

// Per-service dependency builders. Each service binary calls exactly one of
// these; the returned service is also what the binary subscribes to bus topics.

type IdentityDeps struct {
	Tokens  *application.TokenService
	Service *application.IdentityService
	Handler *handlers.IdentityHandler
}

func BuildIdentity() IdentityDeps {
	cfg := container.GetConfig()
	users := pginfra.NewUserRepository(container.GetPGPool())
	sessions := pginfra.NewSessionRepository(container.GetPGPool())

	tokens := application.NewTokenService(sessions, container.GetJWT(), cfg.RefreshTTL, container.GetLogger())
	service := application.NewIdentityService(
		users,
		tokens,
		container.GetCacheCoordinator(),
		container.GetBus(),
		container.GetEmailQueue(),
		container.GetLogger(),
	)
	handler := handlers.NewIdentityHandler(service, container.GetLogger())
	return IdentityDeps{Tokens: tokens, Service: service, Handler: handler}
}

func InitIdentity(r *Registry) IdentityDeps {
	deps := BuildIdentity()
	r.Add(modules.NewIdentityModule(deps.Handler))
	return deps
}

type PostDeps struct {
	Service *application.PostService
	Handler *handlers.PostHandler
}

func InitPost(r *Registry) PostDeps {
	posts := pginfra.NewPostRepository(container.GetPGPool())
	service := application.NewPostService(
		posts,
		container.GetCacheCoordinator(),
		container.GetBus(),
		container.GetLogger(),
	)
	handler := handlers.NewPostHandler(service, container.GetLogger())
	r.Add(modules.NewPostModule(handler))
	return PostDeps{Service: service, Handler: handler}
}

type ProfileDeps struct {
	Service *application.ProfileService
	Handler *handlers.ProfileHandler
}

func InitProfile(r *Registry) ProfileDeps {
	users := pginfra.NewUserRepository(container.GetPGPool())
	service := application.NewProfileService(
		users,
		container.GetCacheCoordinator(),
		container.GetBus(),
		container.GetLogger(),
	)
	handler := handlers.NewProfileHandler(service, container.GetLogger())
	r.Add(modules.NewProfileModule(handler))
	return ProfileDeps{Service: service, Handler: handler}
}

type SearchDeps struct {
	Service *application.SearchService
	Handler *handlers.SearchHandler
}

func InitSearch(r *Registry) SearchDeps {
	cfg := container.GetConfig()
	index := essearch.NewESPostIndex(container.GetES(), cfg.ESPostsIndex)
	service := application.NewSearchService(index, container.GetLogger())
	handler := handlers.NewSearchHandler(service, container.GetLogger())
	r.Add(modules.NewSearchModule(handler))
	return SearchDeps{Service: service, Handler: handler}
}

type MediaDeps struct {
	Service *application.MediaService
	Handler *handlers.MediaHandler
}

func InitMedia(r *Registry) MediaDeps {
	cfg := container.GetConfig()
	media := pginfra.NewMediaRepository(container.GetPGPool())
	service := application.NewMediaService(media, container.GetGCS(), cfg.GCSBucket, container.GetLogger())
	handler := handlers.NewMediaHandler(service, container.GetLogger())
	r.Add(modules.NewMediaModule(handler))
	return MediaDeps{Service: service, Handler: handler}
}

package main

import (
	"log"

	"github.com/rifqiokta/socialhub/internal/container"
	"github.com/rifqiokta/socialhub/internal/router"
	"github.com/rifqiokta/socialhub/internal/server"
	"github.com/rifqiokta/socialhub/pkg/eventbus"
)

// Profile service: serves cached profile reads and invalidates its cache
// entries when another service announces a user change.
func main() {
	app, err := server.Bootstrap("socialhub-profile", server.Needs{
		Postgres: true,
		Bus:      true,
	})
	if err != nil {
		log.Fatalf("bootstrap: %v", err)
	}

	reg := router.NewRegistry(app.Engine)
	deps := router.InitProfile(reg)
	reg.RegisterAll()

	if err := container.GetBus().Subscribe(eventbus.TopicUserUpdated, deps.Service.HandleUserUpdated); err != nil {
		log.Fatalf("subscribe %s: %v", eventbus.TopicUserUpdated, err)
	}

	if err := app.Run(); err != nil {
		log.Fatalf("serve: %v", err)
	}
}

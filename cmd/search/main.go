package main

import (
	"log"

	"github.com/rifqiokta/socialhub/internal/container"
	"github.com/rifqiokta/socialhub/internal/router"
	"github.com/rifqiokta/socialhub/internal/server"
	"github.com/rifqiokta/socialhub/pkg/eventbus"
)

// Search service: keeps the Elasticsearch posts index in sync from post
// events and serves full-text queries. No Postgres; the index is the store.
func main() {
	app, err := server.Bootstrap("socialhub-search", server.Needs{
		Bus: true,
		ES:  true,
	})
	if err != nil {
		log.Fatalf("bootstrap: %v", err)
	}

	reg := router.NewRegistry(app.Engine)
	deps := router.InitSearch(reg)
	reg.RegisterAll()

	bus := container.GetBus()
	if err := bus.Subscribe(eventbus.TopicPostCreated, deps.Service.HandlePostCreated); err != nil {
		log.Fatalf("subscribe %s: %v", eventbus.TopicPostCreated, err)
	}
	if err := bus.Subscribe(eventbus.TopicPostDeleted, deps.Service.HandlePostDeleted); err != nil {
		log.Fatalf("subscribe %s: %v", eventbus.TopicPostDeleted, err)
	}

	if err := app.Run(); err != nil {
		log.Fatalf("serve: %v", err)
	}
}

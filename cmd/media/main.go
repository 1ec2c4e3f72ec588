package main

import (
	"log"

	"github.com/rifqiokta/socialhub/internal/container"
	"github.com/rifqiokta/socialhub/internal/router"
	"github.com/rifqiokta/socialhub/internal/server"
	"github.com/rifqiokta/socialhub/pkg/eventbus"
)

// Media service: multipart uploads into GCS plus the media table, and
// event-driven attach/cleanup of media rows as posts come and go.
func main() {
	app, err := server.Bootstrap("socialhub-media", server.Needs{
		Postgres: true,
		Bus:      true,
		GCS:      true,
	})
	if err != nil {
		log.Fatalf("bootstrap: %v", err)
	}

	reg := router.NewRegistry(app.Engine)
	deps := router.InitMedia(reg)
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

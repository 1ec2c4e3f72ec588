package main

import (
	"log"

	"github.com/rifqiokta/socialhub/internal/router"
	"github.com/rifqiokta/socialhub/internal/server"
)

// Post service: post CRUD with read-through caching. Publishes post.created
// and post.deleted for the search and media subscribers.
func main() {
	app, err := server.Bootstrap("socialhub-post", server.Needs{
		Postgres: true,
		Bus:      true,
	})
	if err != nil {
		log.Fatalf("bootstrap: %v", err)
	}

	reg := router.NewRegistry(app.Engine)
	router.InitPost(reg)
	reg.RegisterAll()

	if err := app.Run(); err != nil {
		log.Fatalf("serve: %v", err)
	}
}

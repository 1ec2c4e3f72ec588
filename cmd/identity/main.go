package main

import (
	"log"

	"github.com/rifqiokta/socialhub/internal/router"
	"github.com/rifqiokta/socialhub/internal/server"
)

// Identity service: registration, login, refresh-token rotation, logout, and
// password reset. Owns the schema, so it runs migrations on startup.
func main() {
	app, err := server.Bootstrap("socialhub-identity", server.Needs{
		Postgres:   true,
		Migrations: true,
		Bus:        true,
		EmailQueue: true,
	})
	if err != nil {
		log.Fatalf("bootstrap: %v", err)
	}

	reg := router.NewRegistry(app.Engine)
	router.InitIdentity(reg)
	reg.RegisterAll()

	if err := app.Run(); err != nil {
		log.Fatalf("serve: %v", err)
	}
}

package main

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/rifqiokta/socialhub/config"
	"github.com/rifqiokta/socialhub/pkg/helpers"
)

// Seeds a demo account and a few posts for local development.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	username := "demoUser"
	email := "demo@socialhub.dev"
	password := "password123"
	hash, err := helpers.HashPassword(password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	var userID string
	err = db.QueryRow(`
		INSERT INTO users (username, email, password_hash, avatar_url)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (email) DO UPDATE SET username = EXCLUDED.username
		RETURNING id
	`, username, email, hash, "").Scan(&userID)
	if err != nil {
		log.Fatalf("failed to seed user: %v", err)
	}
	fmt.Printf("seeded user: id=%s email=%s username=%s password=%s\n", userID, email, username, password)

	for i, content := range []string{
		"hello socialhub",
		"second post, now with more content",
		"third time's the charm",
	} {
		var postID string
		err = db.QueryRow(`
			INSERT INTO posts (user_id, content)
			VALUES ($1, $2)
			RETURNING id
		`, userID, content).Scan(&postID)
		if err != nil {
			log.Fatalf("failed to seed post %d: %v", i, err)
		}
		fmt.Printf("seeded post: id=%s\n", postID)
	}
}

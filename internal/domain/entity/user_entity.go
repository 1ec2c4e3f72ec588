package entity

import (
	"time"
)

// User is the aggregate root for the identity domain. Passwords are stored
// as bcrypt hashes in PasswordHash; the email is case-normalized before it
// reaches the store.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	AvatarURL    string    `json:"avatarUrl"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

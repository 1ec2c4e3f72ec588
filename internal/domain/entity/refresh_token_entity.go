package entity

import "time"

// RefreshToken is a single-use, server-side-tracked session credential.
// The record is deleted when the token is rotated, revoked, or found expired;
// a deleted record is never re-created under the same token value.
type RefreshToken struct {
	ID        string
	Token     string // opaque random value, unique
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

func (t *RefreshToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

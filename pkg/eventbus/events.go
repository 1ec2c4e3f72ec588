package eventbus

import "time"

// Routing keys on the social.events topic exchange.
const (
	TopicPostCreated = "post.created"
	TopicPostDeleted = "post.deleted"
	TopicUserUpdated = "user.updated"
)

// PostCreated is published by the post service after a post is persisted.
type PostCreated struct {
	PostID    string    `json:"postId"`
	UserID    string    `json:"userId"`
	Content   string    `json:"content"`
	MediaIDs  []string  `json:"mediaIds,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// PostDeleted is published after a post row is removed. Subscribers delete
// derived copies keyed by PostID; redelivery must be a no-op.
type PostDeleted struct {
	PostID string `json:"postId"`
	UserID string `json:"userId"`
}

// UserUpdated is published when a user record changes so that other
// instances drop their cached profile snapshot.
type UserUpdated struct {
	UserID string `json:"userId"`
}

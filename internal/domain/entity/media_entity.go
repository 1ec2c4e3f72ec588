package entity

import "time"

// Media records ownership of an uploaded blob. PostID is empty until the
// media is attached to a post; rows referencing a deleted post are removed
// by the media service's post.deleted subscriber.
type Media struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	PostID       string    `json:"postId,omitempty"`
	OriginalName string    `json:"originalName"`
	MimeType     string    `json:"mimeType"`
	URL          string    `json:"url"`
	CreatedAt    time.Time `json:"createdAt"`
}

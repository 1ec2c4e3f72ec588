package repository

import (
	"context"

	"github.com/rifqiokta/socialhub/internal/domain/entity"
)

// MediaRepository defines media-ownership persistence.
type MediaRepository interface {
	Create(ctx context.Context, m *entity.Media) error
	ListByUser(ctx context.Context, userID string) ([]*entity.Media, error)
	// AttachToPost marks the given media rows as belonging to a post.
	AttachToPost(ctx context.Context, postID string, mediaIDs []string) error
	// DeleteByPostID removes all rows referencing the post. Zero rows removed
	// is not an error; redelivered post.deleted events must be no-ops.
	DeleteByPostID(ctx context.Context, postID string) (int64, error)
}

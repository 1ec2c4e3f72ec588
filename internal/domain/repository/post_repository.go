package repository

import (
	"context"

	"github.com/rifqiokta/socialhub/internal/domain/entity"
)

// PostRepository defines post persistence against the primary store.
type PostRepository interface {
	Create(ctx context.Context, p *entity.Post) error
	GetByID(ctx context.Context, id string) (*entity.Post, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*entity.Post, error)
	// Delete removes the post only when it is owned by userID and reports
	// ErrNotFound otherwise.
	Delete(ctx context.Context, id, userID string) (*entity.Post, error)
}

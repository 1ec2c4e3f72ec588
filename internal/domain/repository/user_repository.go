package repository

import (
	"context"

	"github.com/rifqiokta/socialhub/internal/domain/entity"
)

// UserRepository defines user persistence against the primary store.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	GetByEmailOrUsername(ctx context.Context, email, username string) (*entity.User, error)
	Update(ctx context.Context, u *entity.User) error
}

package repository

import (
	"context"

	"github.com/rifqiokta/socialhub/internal/domain/entity"
)

// SessionRepository persists refresh-token records.
//
// Swap is the rotation primitive: it deletes the old token and inserts its
// replacement as one atomic operation. When the old token is already gone
// (expired, revoked, or consumed by a concurrent rotation) Swap returns
// ErrNotFound and the replacement is NOT inserted, so at most one of any
// set of concurrent rotations of the same token can succeed.
type SessionRepository interface {
	Get(ctx context.Context, token string) (*entity.RefreshToken, error)
	Insert(ctx context.Context, rec *entity.RefreshToken) error
	DeleteByToken(ctx context.Context, token string) error
	DeleteByID(ctx context.Context, id string) error
	Swap(ctx context.Context, oldToken string, rec *entity.RefreshToken) error
}

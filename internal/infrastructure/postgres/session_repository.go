package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rifqiokta/socialhub/internal/domain/entity"
	"github.com/rifqiokta/socialhub/internal/domain/repository"
)

// SessionRepository stores refresh-token records in Postgres. Rotation goes
// through Swap so that the delete of the old token and the insert of its
// replacement commit together.
type SessionRepository struct {
	pool *pgxpool.Pool
}

func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

func (r *SessionRepository) Get(ctx context.Context, token string) (*entity.RefreshToken, error) {
	rec := &entity.RefreshToken{}
	row := r.pool.QueryRow(ctx, `
		SELECT id, token, user_id, expires_at, created_at
		FROM refresh_tokens
		WHERE token = $1
	`, token)

	if err := row.Scan(&rec.ID, &rec.Token, &rec.UserID, &rec.ExpiresAt, &rec.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

func (r *SessionRepository) Insert(ctx context.Context, rec *entity.RefreshToken) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO refresh_tokens (token, user_id, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, rec.Token, rec.UserID, rec.ExpiresAt)
	return row.Scan(&rec.ID, &rec.CreatedAt)
}

// DeleteByToken is idempotent: deleting an absent token is not an error.
func (r *SessionRepository) DeleteByToken(ctx context.Context, token string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE token = $1`, token)
	return err
}

func (r *SessionRepository) DeleteByID(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE id = $1`, id)
	return err
}

// Swap atomically consumes oldToken and inserts rec in one transaction.
//
// Under READ COMMITTED, concurrent deletes of the same row serialize on the
// row lock: the transaction that loses re-evaluates after the winner commits,
// sees no row, and reports zero rows affected. Checking RowsAffected before
// the insert therefore guarantees that exactly one concurrent Swap of a
// given token succeeds; every other caller gets ErrNotFound and no child
// token is persisted for them.
func (r *SessionRepository) Swap(ctx context.Context, oldToken string, rec *entity.RefreshToken) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	res, err := tx.Exec(ctx, `DELETE FROM refresh_tokens WHERE token = $1`, oldToken)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO refresh_tokens (token, user_id, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, rec.Token, rec.UserID, rec.ExpiresAt)
	if err := row.Scan(&rec.ID, &rec.CreatedAt); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

var _ repository.SessionRepository = (*SessionRepository)(nil)

package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rifqiokta/socialhub/internal/domain/entity"
	"github.com/rifqiokta/socialhub/internal/domain/repository"
)

type MediaRepository struct {
	pool *pgxpool.Pool
}

func NewMediaRepository(pool *pgxpool.Pool) *MediaRepository {
	return &MediaRepository{pool: pool}
}

func (r *MediaRepository) Create(ctx context.Context, m *entity.Media) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO media (user_id, post_id, original_name, mime_type, url)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5)
		RETURNING id, created_at
	`, m.UserID, m.PostID, m.OriginalName, m.MimeType, m.URL)
	return row.Scan(&m.ID, &m.CreatedAt)
}

func (r *MediaRepository) ListByUser(ctx context.Context, userID string) ([]*entity.Media, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, COALESCE(post_id::text, ''), original_name, mime_type, url, created_at
		FROM media
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*entity.Media
	for rows.Next() {
		m := &entity.Media{}
		if err := rows.Scan(&m.ID, &m.UserID, &m.PostID, &m.OriginalName, &m.MimeType, &m.URL, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *MediaRepository) AttachToPost(ctx context.Context, postID string, mediaIDs []string) error {
	if len(mediaIDs) == 0 {
		return nil
	}
	_, err := r.pool.Exec(ctx, `
		UPDATE media SET post_id = $1 WHERE id = ANY($2)
	`, postID, mediaIDs)
	return err
}

// DeleteByPostID removes every media row referencing the post. A second
// delivery of the same post.deleted event finds nothing and removes nothing.
func (r *MediaRepository) DeleteByPostID(ctx context.Context, postID string) (int64, error) {
	res, err := r.pool.Exec(ctx, `DELETE FROM media WHERE post_id = $1`, postID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected(), nil
}

var _ repository.MediaRepository = (*MediaRepository)(nil)

package application

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/rifqiokta/socialhub/internal/domain/entity"
	"github.com/rifqiokta/socialhub/internal/domain/repository"
	"github.com/rifqiokta/socialhub/pkg/eventbus"
	"github.com/rifqiokta/socialhub/pkg/helpers"
)

// MediaService stores blobs in GCS and ownership rows in Postgres, and keeps
// ownership consistent with posts through the bus: post.created attaches the
// referenced media rows, post.deleted removes them.
type MediaService struct {
	Repo   repository.MediaRepository
	GCS    *storage.Client
	Bucket string
	Logger *logrus.Logger
}

func NewMediaService(repo repository.MediaRepository, gcs *storage.Client, bucket string, logger *logrus.Logger) *MediaService {
	return &MediaService{Repo: repo, GCS: gcs, Bucket: bucket, Logger: logger}
}

// Upload streams the file into GCS and records ownership.
func (s *MediaService) Upload(ctx context.Context, userID string, r io.Reader, filename, contentType string) (*entity.Media, error) {
	if s.GCS == nil || s.Bucket == "" {
		return nil, errors.New("media storage not configured")
	}
	id := uuid.NewString()
	ext := strings.ToLower(filepath.Ext(filename))
	objectPath := filepath.ToSlash(filepath.Join("media", userID, id+ext))

	url, err := helpers.UploadObject(ctx, s.GCS, s.Bucket, objectPath, contentType, r)
	if err != nil {
		return nil, err
	}

	m := &entity.Media{
		UserID:       userID,
		OriginalName: filename,
		MimeType:     contentType,
		URL:          url,
	}
	if err := s.Repo.Create(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *MediaService) ListByUser(ctx context.Context, userID string) ([]*entity.Media, error) {
	return s.Repo.ListByUser(ctx, userID)
}

// HandlePostCreated attaches the event's media rows to the post. The update
// sets the same post id on the same rows every time, so redelivery is a no-op.
func (s *MediaService) HandlePostCreated(ctx context.Context, payload []byte) error {
	var ev eventbus.PostCreated
	if err := json.Unmarshal(payload, &ev); err != nil {
		return err
	}
	if ev.PostID == "" {
		return errors.New("post.created event without postId")
	}
	return s.Repo.AttachToPost(ctx, ev.PostID, ev.MediaIDs)
}

// HandlePostDeleted removes media ownership rows for the deleted post.
func (s *MediaService) HandlePostDeleted(ctx context.Context, payload []byte) error {
	var ev eventbus.PostDeleted
	if err := json.Unmarshal(payload, &ev); err != nil {
		return err
	}
	if ev.PostID == "" {
		return errors.New("post.deleted event without postId")
	}
	n, err := s.Repo.DeleteByPostID(ctx, ev.PostID)
	if err != nil {
		return err
	}
	if s.Logger != nil {
		s.Logger.WithFields(logrus.Fields{"post_id": ev.PostID, "removed": n}).Debug("media ownership cleaned")
	}
	return nil
}

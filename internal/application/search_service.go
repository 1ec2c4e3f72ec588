package application

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rifqiokta/socialhub/pkg/eventbus"
)

// PostDocument is the searchable copy of a post.
type PostDocument struct {
	PostID    string    `json:"postId"`
	UserID    string    `json:"userId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// PostIndex is the search backend. Index must upsert by post id and Remove
// must treat an absent document as already removed.
type PostIndex interface {
	Index(ctx context.Context, doc PostDocument) error
	Remove(ctx context.Context, postID string) error
	Search(ctx context.Context, q string, size int) ([]PostDocument, error)
}

// SearchService keeps the post index in sync with post.created/post.deleted
// events and serves queries. Both event handlers are idempotent; the bus may
// redeliver either of them after a crash mid-handler.
type SearchService struct {
	Index  PostIndex
	Logger *logrus.Logger
}

func NewSearchService(index PostIndex, logger *logrus.Logger) *SearchService {
	return &SearchService{Index: index, Logger: logger}
}

func (s *SearchService) SearchPosts(ctx context.Context, q string, size int) ([]PostDocument, error) {
	if size <= 0 || size > 50 {
		size = 10
	}
	return s.Index.Search(ctx, q, size)
}

// HandlePostCreated upserts the post's search document.
func (s *SearchService) HandlePostCreated(ctx context.Context, payload []byte) error {
	var ev eventbus.PostCreated
	if err := json.Unmarshal(payload, &ev); err != nil {
		return err
	}
	if ev.PostID == "" {
		return errors.New("post.created event without postId")
	}
	doc := PostDocument{PostID: ev.PostID, UserID: ev.UserID, Content: ev.Content, CreatedAt: ev.CreatedAt}
	if err := s.Index.Index(ctx, doc); err != nil {
		return err
	}
	if s.Logger != nil {
		s.Logger.WithField("post_id", ev.PostID).Debug("post indexed")
	}
	return nil
}

// HandlePostDeleted removes the post's search document.
func (s *SearchService) HandlePostDeleted(ctx context.Context, payload []byte) error {
	var ev eventbus.PostDeleted
	if err := json.Unmarshal(payload, &ev); err != nil {
		return err
	}
	if ev.PostID == "" {
		return errors.New("post.deleted event without postId")
	}
	if err := s.Index.Remove(ctx, ev.PostID); err != nil {
		return err
	}
	if s.Logger != nil {
		s.Logger.WithField("post_id", ev.PostID).Debug("post removed from index")
	}
	return nil
}

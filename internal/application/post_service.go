package application

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/rifqiokta/socialhub/internal/domain/entity"
	"github.com/rifqiokta/socialhub/internal/domain/repository"
	"github.com/rifqiokta/socialhub/pkg/cache"
	"github.com/rifqiokta/socialhub/pkg/eventbus"
)

var ErrPostNotFound = errors.New("post not found")

// DefaultPostPageSize is the page the per-user post list cache covers.
const DefaultPostPageSize = 10

// PostService owns post CRUD. Mutations invalidate the owning entity's cache
// keys synchronously, then announce the change on the bus; derived copies in
// other services (search index, media ownership) catch up eventually.
type PostService struct {
	Posts  repository.PostRepository
	Cache  *cache.Coordinator
	Bus    *eventbus.Bus
	Logger *logrus.Logger
}

func NewPostService(posts repository.PostRepository, cc *cache.Coordinator, bus *eventbus.Bus, logger *logrus.Logger) *PostService {
	return &PostService{Posts: posts, Cache: cc, Bus: bus, Logger: logger}
}

func (s *PostService) CreatePost(ctx context.Context, userID, content string, mediaIDs []string) (*entity.Post, error) {
	p := &entity.Post{UserID: userID, Content: content, MediaIDs: mediaIDs}
	if err := s.Posts.Create(ctx, p); err != nil {
		return nil, err
	}

	if err := s.Cache.Invalidate(ctx, cache.UserPostsKey(userID)); err != nil {
		return nil, err
	}

	if s.Bus != nil {
		ev := eventbus.PostCreated{
			PostID:    p.ID,
			UserID:    p.UserID,
			Content:   p.Content,
			MediaIDs:  p.MediaIDs,
			CreatedAt: p.CreatedAt,
		}
		if err := s.Bus.Publish(ctx, eventbus.TopicPostCreated, ev); err != nil && s.Logger != nil {
			s.Logger.WithError(err).WithField("post_id", p.ID).Error("publish post.created failed")
		}
	}
	return p, nil
}

func (s *PostService) GetPost(ctx context.Context, id string) (*entity.Post, error) {
	p, _, err := cache.Through(ctx, s.Cache, cache.PostKey(id), func(ctx context.Context) (*entity.Post, error) {
		return s.Posts.GetByID(ctx, id)
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return p, nil
}

// ListPosts serves a user's posts. Only the first default-sized page is
// cached; it is the hot read and has a single owning entity (the user).
func (s *PostService) ListPosts(ctx context.Context, userID string, limit, offset int) ([]*entity.Post, error) {
	if limit <= 0 || limit > 50 {
		limit = DefaultPostPageSize
	}
	if offset != 0 || limit != DefaultPostPageSize {
		return s.Posts.ListByUser(ctx, userID, limit, offset)
	}
	posts, _, err := cache.Through(ctx, s.Cache, cache.UserPostsKey(userID), func(ctx context.Context) ([]*entity.Post, error) {
		return s.Posts.ListByUser(ctx, userID, DefaultPostPageSize, 0)
	})
	return posts, err
}

func (s *PostService) DeletePost(ctx context.Context, id, userID string) error {
	p, err := s.Posts.Delete(ctx, id, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPostNotFound
		}
		return err
	}

	if err := s.Cache.Invalidate(ctx, cache.PostKey(id), cache.UserPostsKey(userID)); err != nil {
		return err
	}

	if s.Bus != nil {
		ev := eventbus.PostDeleted{PostID: p.ID, UserID: p.UserID}
		if err := s.Bus.Publish(ctx, eventbus.TopicPostDeleted, ev); err != nil && s.Logger != nil {
			s.Logger.WithError(err).WithField("post_id", p.ID).Error("publish post.deleted failed")
		}
	}
	return nil
}

package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/rifqiokta/socialhub/internal/application"
	"github.com/rifqiokta/socialhub/internal/domain/entity"
	"github.com/rifqiokta/socialhub/internal/domain/repository"
	"github.com/rifqiokta/socialhub/internal/interface/middleware"
	"github.com/rifqiokta/socialhub/pkg/cache"
	"github.com/rifqiokta/socialhub/pkg/validation"
)

type postStore struct {
	mu   sync.Mutex
	byID map[string]*entity.Post
}

func (s *postStore) Create(_ context.Context, p *entity.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = uuid.NewString()
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = p.CreatedAt
	if p.MediaIDs == nil {
		p.MediaIDs = []string{}
	}
	cp := *p
	s.byID[p.ID] = &cp
	return nil
}

func (s *postStore) GetByID(_ context.Context, id string) (*entity.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *postStore) ListByUser(_ context.Context, userID string, limit, offset int) ([]*entity.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*entity.Post
	for _, p := range s.byID {
		if p.UserID == userID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *postStore) Delete(_ context.Context, id, userID string) (*entity.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[id]
	if !ok || p.UserID != userID {
		return nil, repository.ErrNotFound
	}
	delete(s.byID, id)
	return p, nil
}

type mediaStore struct {
	mu   sync.Mutex
	rows []*entity.Media
}

func (s *mediaStore) Create(_ context.Context, m *entity.Media) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.ID = uuid.NewString()
	m.CreatedAt = time.Now().UTC()
	cp := *m
	s.rows = append(s.rows, &cp)
	return nil
}

func (s *mediaStore) ListByUser(_ context.Context, userID string) ([]*entity.Media, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*entity.Media
	for _, m := range s.rows {
		if m.UserID == userID {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *mediaStore) AttachToPost(_ context.Context, postID string, mediaIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.rows {
		for _, id := range mediaIDs {
			if m.ID == id {
				m.PostID = postID
			}
		}
	}
	return nil
}

func (s *mediaStore) DeleteByPostID(_ context.Context, postID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var kept []*entity.Media
	var n int64
	for _, m := range s.rows {
		if m.PostID == postID {
			n++
			continue
		}
		kept = append(kept, m)
	}
	s.rows = kept
	return n, nil
}

type kvStore struct {
	mu sync.Mutex
	m  map[string][]byte
}

func (s *kvStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.m[key]
	return b, ok, nil
}

func (s *kvStore) Set(_ context.Context, key string, val []byte, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = val
	return nil
}

func (s *kvStore) Del(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.m, k)
	}
	return nil
}

func newContentRouter(t *testing.T, userID string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validation.Init()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	cc := cache.NewCoordinator(&kvStore{m: map[string][]byte{}}, time.Minute, logger)
	postSvc := application.NewPostService(&postStore{byID: map[string]*entity.Post{}}, cc, nil, logger)
	mediaSvc := application.NewMediaService(&mediaStore{}, nil, "", logger)

	r := gin.New()
	api := r.Group("/api")
	api.Use(func(c *gin.Context) { c.Set(middleware.CtxUserIDKey, userID) })

	ph := NewPostHandler(postSvc, logger)
	api.POST("/posts", ph.Create)
	api.GET("/posts", ph.List)
	api.GET("/posts/:id", ph.Get)

	mh := NewMediaHandler(mediaSvc, logger)
	api.GET("/media", mh.List)
	return r
}

// All services present one wire surface: the same camelCase field names the
// auth endpoints and the bus events use.
func TestPostResponsesUseCamelCaseFields(t *testing.T) {
	uid := uuid.NewString()
	r := newContentRouter(t, uid)

	w, env := doJSON(t, r, http.MethodPost, "/api/posts", gin.H{"content": "hello"}, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	require.True(t, env.Success)
	for _, k := range []string{"id", "userId", "content", "mediaIds", "createdAt", "updatedAt"} {
		require.Contains(t, env.Data, k)
	}
	require.NotContains(t, env.Data, "ID")
	require.NotContains(t, env.Data, "UserID")
	require.Equal(t, uid, env.Data["userId"])

	// The read path ships the same shape.
	w, env = doJSON(t, r, http.MethodGet, "/api/posts/"+env.Data["id"].(string), nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, env.Data, "userId")

	w, _ = doJSON(t, r, http.MethodGet, "/api/posts", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Data []map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Data, 1)
	require.Contains(t, list.Data[0], "createdAt")
	require.NotContains(t, list.Data[0], "CreatedAt")
}

func TestMediaListUsesCamelCaseFields(t *testing.T) {
	uid := uuid.NewString()
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	store := &mediaStore{}
	require.NoError(t, store.Create(context.Background(), &entity.Media{
		UserID:       uid,
		OriginalName: "cat.png",
		MimeType:     "image/png",
		URL:          "https://storage.googleapis.com/bucket/cat.png",
	}))

	mh := NewMediaHandler(application.NewMediaService(store, nil, "", logger), logger)
	r := gin.New()
	r.GET("/api/media", func(c *gin.Context) { c.Set(middleware.CtxUserIDKey, uid) }, mh.List)

	req := httptest.NewRequest(http.MethodGet, "/api/media", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var list struct {
		Data []map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Data, 1)
	for _, k := range []string{"id", "userId", "originalName", "mimeType", "url", "createdAt"} {
		require.Contains(t, list.Data[0], k)
	}
	// postId is omitted until the media is attached to a post.
	require.NotContains(t, list.Data[0], "postId")
	require.NotContains(t, list.Data[0], "OriginalName")
}

package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/rifqiokta/socialhub/internal/domain/entity"
	"github.com/rifqiokta/socialhub/internal/domain/repository"
	"github.com/rifqiokta/socialhub/pkg/cache"
)

type userRepoStub struct {
	mu   sync.Mutex
	byID map[string]*entity.User
}

func newUserRepoStub() *userRepoStub {
	return &userRepoStub{byID: map[string]*entity.User{}}
}

func (s *userRepoStub) Create(_ context.Context, u *entity.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, x := range s.byID {
		if x.Email == u.Email || x.Username == u.Username {
			return repository.ErrDuplicate
		}
	}
	u.ID = uuid.NewString()
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	s.byID[u.ID] = &cp
	return nil
}

func (s *userRepoStub) GetByID(_ context.Context, id string) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.byID[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (s *userRepoStub) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *userRepoStub) GetByEmailOrUsername(_ context.Context, email, username string) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.byID {
		if u.Email == email || u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *userRepoStub) Update(_ context.Context, u *entity.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[u.ID]; !ok {
		return repository.ErrNotFound
	}
	for id, x := range s.byID {
		if id != u.ID && x.Username == u.Username {
			return repository.ErrDuplicate
		}
	}
	u.UpdatedAt = time.Now()
	cp := *u
	s.byID[u.ID] = &cp
	return nil
}

// memStore is an in-memory cache.Store without expiry, enough for
// observing warm/invalidate behavior.
type memStore struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newMemStore() *memStore { return &memStore{entries: map[string][]byte{}} }

func (s *memStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.entries[key]
	return b, ok, nil
}

func (s *memStore) Set(_ context.Context, key string, val []byte, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = val
	return nil
}

func (s *memStore) Del(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.entries, k)
	}
	return nil
}

func (s *memStore) has(key cache.Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[key.String()]
	return ok
}

func newIdentityFixture() (*IdentityService, *userRepoStub, *sessionStoreStub, *memStore) {
	users := newUserRepoStub()
	sessions := newSessionStoreStub()
	store := newMemStore()
	cc := cache.NewCoordinator(store, 5*time.Minute, quietLogger())
	tokens := newTokenSvc(sessions)
	svc := NewIdentityService(users, tokens, cc, nil, nil, quietLogger())
	return svc, users, sessions, store
}

func TestRegisterIssuesTokensAndWarmsCache(t *testing.T) {
	svc, _, _, store := newIdentityFixture()

	u, pair, err := svc.Register(context.Background(), "alice", "alice@example.com", "password123")
	require.NoError(t, err)
	require.NotEmpty(t, u.ID)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.True(t, store.has(cache.ProfileKey(u.ID)))

	claims, err := svc.Tokens.Verify(pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, u.ID, claims.UserID)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	svc, _, _, _ := newIdentityFixture()

	_, _, err := svc.Register(context.Background(), "alice", "alice@example.com", "password123")
	require.NoError(t, err)

	_, _, err = svc.Register(context.Background(), "alice", "other@example.com", "password123")
	require.ErrorIs(t, err, ErrUserExists)
	_, _, err = svc.Register(context.Background(), "bob", "alice@example.com", "password123")
	require.ErrorIs(t, err, ErrUserExists)
}

func TestLoginChecksPassword(t *testing.T) {
	svc, _, _, _ := newIdentityFixture()

	_, _, err := svc.Register(context.Background(), "alice", "alice@example.com", "password123")
	require.NoError(t, err)

	u, pair, err := svc.Login(context.Background(), "alice@example.com", "password123")
	require.NoError(t, err)
	require.Equal(t, "alice", u.Username)
	require.NotEmpty(t, pair.RefreshToken)

	_, _, err = svc.Login(context.Background(), "alice@example.com", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = svc.Login(context.Background(), "nobody@example.com", "password123")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshRotatesAndKillsOldToken(t *testing.T) {
	svc, _, _, _ := newIdentityFixture()

	u, pair, err := svc.Register(context.Background(), "alice", "alice@example.com", "password123")
	require.NoError(t, err)

	next, uid, err := svc.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, u.ID, uid)
	require.NotEqual(t, pair.RefreshToken, next.RefreshToken)

	_, _, err = svc.Refresh(context.Background(), pair.RefreshToken)
	require.ErrorIs(t, err, ErrTokenNotFound)
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	svc, _, _, _ := newIdentityFixture()

	_, pair, err := svc.Register(context.Background(), "alice", "alice@example.com", "password123")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), pair.RefreshToken))
	_, _, err = svc.Refresh(context.Background(), pair.RefreshToken)
	require.ErrorIs(t, err, ErrTokenNotFound)

	// Logging out again is fine.
	require.NoError(t, svc.Logout(context.Background(), pair.RefreshToken))
}

func TestForgotPasswordInvalidatesProfileCache(t *testing.T) {
	svc, _, _, store := newIdentityFixture()

	u, _, err := svc.Register(context.Background(), "alice", "alice@example.com", "password123")
	require.NoError(t, err)
	require.True(t, store.has(cache.ProfileKey(u.ID)))

	require.NoError(t, svc.ForgotPassword(context.Background(), "alice@example.com", "newPassword1"))
	require.False(t, store.has(cache.ProfileKey(u.ID)))

	// Old password no longer works, new one does.
	_, _, err = svc.Login(context.Background(), "alice@example.com", "password123")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = svc.Login(context.Background(), "alice@example.com", "newPassword1")
	require.NoError(t, err)
}

func TestForgotPasswordUnknownEmail(t *testing.T) {
	svc, _, _, _ := newIdentityFixture()
	err := svc.ForgotPassword(context.Background(), "nobody@example.com", "whatever1")
	require.ErrorIs(t, err, ErrUserNotFound)
}

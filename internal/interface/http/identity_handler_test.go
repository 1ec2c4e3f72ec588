package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
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
	"github.com/rifqiokta/socialhub/pkg/helpers"
	"github.com/rifqiokta/socialhub/pkg/validation"
)

// In-memory repositories backing a real IdentityService so the test drives
// the full HTTP auth flow without Postgres.

type memUsers struct {
	mu   sync.Mutex
	byID map[string]*entity.User
}

func (s *memUsers) Create(_ context.Context, u *entity.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, x := range s.byID {
		if x.Email == u.Email || x.Username == u.Username {
			return repository.ErrDuplicate
		}
	}
	u.ID = uuid.NewString()
	cp := *u
	s.byID[u.ID] = &cp
	return nil
}

func (s *memUsers) GetByID(_ context.Context, id string) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.byID[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (s *memUsers) GetByEmail(_ context.Context, email string) (*entity.User, error) {
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

func (s *memUsers) GetByEmailOrUsername(_ context.Context, email, username string) (*entity.User, error) {
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

func (s *memUsers) Update(_ context.Context, u *entity.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[u.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *u
	s.byID[u.ID] = &cp
	return nil
}

type memSessions struct {
	mu      sync.Mutex
	byToken map[string]*entity.RefreshToken
}

func (s *memSessions) Get(_ context.Context, token string) (*entity.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.byToken[token]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (s *memSessions) Insert(_ context.Context, rec *entity.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec.ID = uuid.NewString()
	cp := *rec
	s.byToken[rec.Token] = &cp
	return nil
}

func (s *memSessions) DeleteByToken(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byToken, token)
	return nil
}

func (s *memSessions) DeleteByID(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for tok, r := range s.byToken {
		if r.ID == id {
			delete(s.byToken, tok)
		}
	}
	return nil
}

func (s *memSessions) Swap(_ context.Context, oldToken string, rec *entity.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byToken[oldToken]; !ok {
		return repository.ErrNotFound
	}
	delete(s.byToken, oldToken)
	rec.ID = uuid.NewString()
	cp := *rec
	s.byToken[rec.Token] = &cp
	return nil
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    map[string]any  `json:"data"`
	Error   json.RawMessage `json:"error"`
}

func newAuthRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validation.Init()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	jwt := helpers.NewJWTManager("test-secret", 15*time.Minute)
	tokens := application.NewTokenService(&memSessions{byToken: map[string]*entity.RefreshToken{}}, jwt, 7*24*time.Hour, logger)
	svc := application.NewIdentityService(&memUsers{byID: map[string]*entity.User{}}, tokens, nil, nil, nil, logger)
	h := NewIdentityHandler(svc, logger)

	r := gin.New()
	auth := r.Group("/api/auth")
	auth.POST("/register", h.Register)
	auth.POST("/login", h.Login)
	auth.POST("/refresh-token", h.Refresh)
	auth.POST("/logout", h.Logout)
	auth.POST("/forgot-password", h.ForgotPassword)

	protected := r.Group("/api")
	protected.Use(middleware.Auth(jwt))
	protected.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"userId": c.GetString(middleware.CtxUserIDKey)})
	})
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any, header map[string]string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		var raw struct {
			Success bool            `json:"success"`
			Message string          `json:"message"`
			Data    json.RawMessage `json:"data"`
			Error   json.RawMessage `json:"error"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
		env.Success, env.Message, env.Error = raw.Success, raw.Message, raw.Error
		if len(raw.Data) > 0 && raw.Data[0] == '{' {
			require.NoError(t, json.Unmarshal(raw.Data, &env.Data))
		}
	}
	return w, env
}

func TestAuthFlow(t *testing.T) {
	r := newAuthRouter(t)

	// Register.
	w, env := doJSON(t, r, http.MethodPost, "/api/auth/register", gin.H{
		"username": "alice123", "email": "alice@example.com", "password": "password123",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	require.True(t, env.Success)
	userID := env.Data["userId"].(string)
	require.NotEmpty(t, userID)
	registerRefresh := env.Data["refreshToken"].(string)

	// Duplicate registration.
	w, _ = doJSON(t, r, http.MethodPost, "/api/auth/register", gin.H{
		"username": "alice123", "email": "alice@example.com", "password": "password123",
	}, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	// Login yields a pair distinct from registration's.
	w, env = doJSON(t, r, http.MethodPost, "/api/auth/login", gin.H{
		"email": "alice@example.com", "password": "password123",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, userID, env.Data["userId"])
	loginAccess := env.Data["accessToken"].(string)
	loginRefresh := env.Data["refreshToken"].(string)
	require.NotEqual(t, registerRefresh, loginRefresh)

	// Bad password.
	w, _ = doJSON(t, r, http.MethodPost, "/api/auth/login", gin.H{
		"email": "alice@example.com", "password": "wrongpassword",
	}, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	// The access token opens protected routes.
	w, _ = doJSON(t, r, http.MethodGet, "/api/whoami", nil, map[string]string{"Authorization": "Bearer " + loginAccess})
	require.Equal(t, http.StatusOK, w.Code)

	// No token, garbage token: 401.
	w, _ = doJSON(t, r, http.MethodGet, "/api/whoami", nil, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	w, _ = doJSON(t, r, http.MethodGet, "/api/whoami", nil, map[string]string{"Authorization": "Bearer garbage"})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// Refresh rotates: new pair comes back, the old refresh token dies.
	w, env = doJSON(t, r, http.MethodPost, "/api/auth/refresh-token", gin.H{"refreshToken": loginRefresh}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	rotatedRefresh := env.Data["refreshToken"].(string)
	require.NotEqual(t, loginRefresh, rotatedRefresh)

	w, _ = doJSON(t, r, http.MethodPost, "/api/auth/refresh-token", gin.H{"refreshToken": loginRefresh}, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// Logout revokes the rotated token.
	w, _ = doJSON(t, r, http.MethodPost, "/api/auth/logout", gin.H{"refreshToken": rotatedRefresh}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = doJSON(t, r, http.MethodPost, "/api/auth/refresh-token", gin.H{"refreshToken": rotatedRefresh}, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// Missing refresh token on logout is a 400.
	w, _ = doJSON(t, r, http.MethodPost, "/api/auth/logout", gin.H{}, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegisterValidationFailures(t *testing.T) {
	r := newAuthRouter(t)

	// Short password.
	w, env := doJSON(t, r, http.MethodPost, "/api/auth/register", gin.H{
		"username": "alice123", "email": "alice@example.com", "password": "short",
	}, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.False(t, env.Success)
	require.NotEmpty(t, env.Error)

	// Bad email.
	w, _ = doJSON(t, r, http.MethodPost, "/api/auth/register", gin.H{
		"username": "alice123", "email": "not-an-email", "password": "password123",
	}, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	// Username too short.
	w, _ = doJSON(t, r, http.MethodPost, "/api/auth/register", gin.H{
		"username": "ab", "email": "alice@example.com", "password": "password123",
	}, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestForgotPasswordEndpoint(t *testing.T) {
	r := newAuthRouter(t)

	w, _ := doJSON(t, r, http.MethodPost, "/api/auth/register", gin.H{
		"username": "alice123", "email": "alice@example.com", "password": "password123",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w, _ = doJSON(t, r, http.MethodPost, "/api/auth/forgot-password", gin.H{
		"email": "alice@example.com", "newPassword": "newPassword1",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	// Old password is gone.
	w, _ = doJSON(t, r, http.MethodPost, "/api/auth/login", gin.H{
		"email": "alice@example.com", "password": "password123",
	}, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = doJSON(t, r, http.MethodPost, "/api/auth/login", gin.H{
		"email": "alice@example.com", "newPassword": "", "password": "newPassword1",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Unknown email.
	w, _ = doJSON(t, r, http.MethodPost, "/api/auth/forgot-password", gin.H{
		"email": "nobody@example.com", "newPassword": "newPassword1",
	}, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

package application

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rifqiokta/socialhub/internal/domain/entity"
	"github.com/rifqiokta/socialhub/internal/domain/repository"
	"github.com/rifqiokta/socialhub/pkg/cache"
	"github.com/rifqiokta/socialhub/pkg/eventbus"
	"github.com/rifqiokta/socialhub/pkg/helpers"
	"github.com/rifqiokta/socialhub/pkg/mailer"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
)

// IdentityService implements registration, login, token refresh, logout and
// password reset. Token lifecycle is delegated to TokenService; the bus and
// email queue are optional collaborators (nil in tests).
type IdentityService struct {
	Users  repository.UserRepository
	Tokens *TokenService
	Cache  *cache.Coordinator
	Bus    *eventbus.Bus
	Emails *eventbus.QueuePublisher
	Logger *logrus.Logger
}

func NewIdentityService(users repository.UserRepository, tokens *TokenService, cc *cache.Coordinator, bus *eventbus.Bus, emails *eventbus.QueuePublisher, logger *logrus.Logger) *IdentityService {
	return &IdentityService{Users: users, Tokens: tokens, Cache: cc, Bus: bus, Emails: emails, Logger: logger}
}

// Register creates the user and issues its first token pair.
func (s *IdentityService) Register(ctx context.Context, username, email, password string) (*entity.User, TokenPair, error) {
	if _, err := s.Users.GetByEmailOrUsername(ctx, email, username); err == nil {
		return nil, TokenPair{}, ErrUserExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, TokenPair{}, err
	}

	hash, err := helpers.HashPassword(password)
	if err != nil {
		return nil, TokenPair{}, err
	}
	u := &entity.User{Username: username, Email: email, PasswordHash: hash}
	if err := s.Users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, TokenPair{}, ErrUserExists
		}
		return nil, TokenPair{}, err
	}

	pair, err := s.Tokens.Issue(ctx, u.ID)
	if err != nil {
		return nil, TokenPair{}, err
	}

	// Warm the profile cache under the new user's own key.
	if s.Cache != nil {
		if err := s.Cache.SetJSON(ctx, cache.ProfileKey(u.ID), profileOf(u)); err != nil && s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Warn("profile cache warm failed")
		}
	}
	return u, pair, nil
}

// Login authenticates by email and password and issues a fresh pair.
func (s *IdentityService) Login(ctx context.Context, email, password string) (*entity.User, TokenPair, error) {
	u, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, TokenPair{}, ErrInvalidCredentials
		}
		return nil, TokenPair{}, err
	}
	if !helpers.CheckPassword(u.PasswordHash, password) {
		return nil, TokenPair{}, ErrInvalidCredentials
	}
	pair, err := s.Tokens.Issue(ctx, u.ID)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return u, pair, nil
}

// Refresh rotates the given refresh token into a new pair.
func (s *IdentityService) Refresh(ctx context.Context, refreshToken string) (TokenPair, string, error) {
	return s.Tokens.Rotate(ctx, refreshToken)
}

// Logout revokes the refresh token; revoking an unknown token succeeds.
func (s *IdentityService) Logout(ctx context.Context, refreshToken string) error {
	return s.Tokens.Revoke(ctx, refreshToken)
}

// ForgotPassword replaces the user's password hash, drops the stale profile
// snapshot before acknowledging, and fans out a user.updated event plus a
// security email.
func (s *IdentityService) ForgotPassword(ctx context.Context, email, newPassword string) error {
	u, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	hash, err := helpers.HashPassword(newPassword)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	if err := s.Users.Update(ctx, u); err != nil {
		return err
	}

	// Invalidate before reporting success so a read-after-write cannot see
	// the pre-edit snapshot.
	if s.Cache != nil {
		if err := s.Cache.Invalidate(ctx, cache.ProfileKey(u.ID)); err != nil {
			return err
		}
	}

	if s.Bus != nil {
		if err := s.Bus.Publish(ctx, eventbus.TopicUserUpdated, eventbus.UserUpdated{UserID: u.ID}); err != nil && s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Error("publish user.updated failed")
		}
	}
	if s.Emails != nil {
		job := mailer.EmailJob{To: u.Email, Kind: mailer.JobPasswordChanged, Username: u.Username, At: time.Now().UTC()}
		if err := s.Emails.PublishJSON(ctx, job); err != nil && s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Error("enqueue security email failed")
		}
	}
	return nil
}

package application

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rifqiokta/socialhub/internal/domain/entity"
	"github.com/rifqiokta/socialhub/internal/domain/repository"
	"github.com/rifqiokta/socialhub/pkg/cache"
	"github.com/rifqiokta/socialhub/pkg/eventbus"
)

// Profile is the cached, password-free snapshot of a user.
type Profile struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	AvatarURL string    `json:"avatarUrl"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func profileOf(u *entity.User) Profile {
	return Profile{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		AvatarURL: u.AvatarURL,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// ProfileService serves profile reads through the cache coordinator and
// keeps the cache coherent on writes: the owning user's key is deleted
// synchronously before an update is acknowledged, and other instances drop
// their copy when the user.updated event arrives.
type ProfileService struct {
	Users  repository.UserRepository
	Cache  *cache.Coordinator
	Bus    *eventbus.Bus
	Logger *logrus.Logger
}

func NewProfileService(users repository.UserRepository, cc *cache.Coordinator, bus *eventbus.Bus, logger *logrus.Logger) *ProfileService {
	return &ProfileService{Users: users, Cache: cc, Bus: bus, Logger: logger}
}

// GetProfile returns the profile snapshot, read through the cache.
func (s *ProfileService) GetProfile(ctx context.Context, userID string) (Profile, error) {
	p, _, err := cache.Through(ctx, s.Cache, cache.ProfileKey(userID), func(ctx context.Context) (Profile, error) {
		u, err := s.Users.GetByID(ctx, userID)
		if err != nil {
			return Profile{}, err
		}
		return profileOf(u), nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Profile{}, ErrUserNotFound
		}
		return Profile{}, err
	}
	return p, nil
}

type UpdateProfileInput struct {
	Username  string
	AvatarURL string
}

// UpdateProfile mutates the user record and invalidates exactly that user's
// cache key before returning.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (Profile, error) {
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Profile{}, ErrUserNotFound
		}
		return Profile{}, err
	}
	if in.Username != "" {
		u.Username = in.Username
	}
	if in.AvatarURL != "" {
		u.AvatarURL = in.AvatarURL
	}
	if err := s.Users.Update(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return Profile{}, ErrUserExists
		}
		return Profile{}, err
	}

	if err := s.Cache.Invalidate(ctx, cache.ProfileKey(u.ID)); err != nil {
		return Profile{}, err
	}

	if s.Bus != nil {
		if err := s.Bus.Publish(ctx, eventbus.TopicUserUpdated, eventbus.UserUpdated{UserID: u.ID}); err != nil && s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Error("publish user.updated failed")
		}
	}
	return profileOf(u), nil
}

// HandleUserUpdated drops this instance's cached snapshot for the user.
// Dropping an absent key is a no-op, so redelivery is safe.
func (s *ProfileService) HandleUserUpdated(ctx context.Context, payload []byte) error {
	var ev eventbus.UserUpdated
	if err := json.Unmarshal(payload, &ev); err != nil {
		return err
	}
	if ev.UserID == "" {
		return errors.New("user.updated event without userId")
	}
	return s.Cache.Invalidate(ctx, cache.ProfileKey(ev.UserID))
}

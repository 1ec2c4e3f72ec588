package application

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rifqiokta/socialhub/internal/domain/entity"
	"github.com/rifqiokta/socialhub/internal/domain/repository"
	"github.com/rifqiokta/socialhub/pkg/helpers"
)

var (
	ErrTokenNotFound = errors.New("refresh token not found")
	ErrTokenExpired  = errors.New("refresh token expired")
)

// TokenPair is a freshly minted access/refresh credential pair.
type TokenPair struct {
	AccessToken        string    `json:"accessToken"`
	AccessTokenExpiry  time.Time `json:"accessTokenExpiry"`
	RefreshToken       string    `json:"refreshToken"`
	RefreshTokenExpiry time.Time `json:"refreshTokenExpiry"`
}

// TokenService owns the access/refresh token lifecycle. Access tokens are
// stateless JWTs verified by signature and expiry alone; refresh tokens are
// opaque single-use records in the session store. Rotation consumes the old
// record and inserts the replacement through SessionRepository.Swap, so two
// concurrent rotations of the same token can never both succeed.
type TokenService struct {
	Sessions   repository.SessionRepository
	JWT        *helpers.JWTManager
	RefreshTTL time.Duration
	Logger     *logrus.Logger
}

func NewTokenService(sessions repository.SessionRepository, jwt *helpers.JWTManager, refreshTTL time.Duration, logger *logrus.Logger) *TokenService {
	return &TokenService{Sessions: sessions, JWT: jwt, RefreshTTL: refreshTTL, Logger: logger}
}

func (s *TokenService) mint(userID string) (TokenPair, *entity.RefreshToken, error) {
	access, aexp, err := s.JWT.GenerateAccessToken(userID)
	if err != nil {
		return TokenPair{}, nil, err
	}
	opaque, err := helpers.NewOpaqueToken()
	if err != nil {
		return TokenPair{}, nil, err
	}
	rexp := time.Now().Add(s.RefreshTTL)
	rec := &entity.RefreshToken{Token: opaque, UserID: userID, ExpiresAt: rexp}
	pair := TokenPair{
		AccessToken:        access,
		AccessTokenExpiry:  aexp,
		RefreshToken:       opaque,
		RefreshTokenExpiry: rexp,
	}
	return pair, rec, nil
}

// Issue creates a new token pair for userID. The refresh record is persisted
// before the pair is returned; on a storage failure no tokens are handed out.
func (s *TokenService) Issue(ctx context.Context, userID string) (TokenPair, error) {
	pair, rec, err := s.mint(userID)
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.Sessions.Insert(ctx, rec); err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", userID).Error("persist refresh token failed")
		}
		return TokenPair{}, err
	}
	return pair, nil
}

// Rotate consumes oldToken and returns a fresh pair plus the owning user id.
// The old token becomes unusable in the same store transaction that makes
// the new one valid. A concurrent rotation that loses the swap gets
// ErrTokenNotFound, exactly like a replayed token.
func (s *TokenService) Rotate(ctx context.Context, oldToken string) (TokenPair, string, error) {
	rec, err := s.Sessions.Get(ctx, oldToken)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return TokenPair{}, "", ErrTokenNotFound
		}
		return TokenPair{}, "", err
	}
	if rec.Expired(time.Now()) {
		// Lazy expiry: drop the record on first use past its window.
		_ = s.Sessions.DeleteByID(ctx, rec.ID)
		return TokenPair{}, "", ErrTokenExpired
	}

	pair, newRec, err := s.mint(rec.UserID)
	if err != nil {
		return TokenPair{}, "", err
	}
	if err := s.Sessions.Swap(ctx, oldToken, newRec); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return TokenPair{}, "", ErrTokenNotFound
		}
		return TokenPair{}, "", err
	}
	return pair, rec.UserID, nil
}

// Revoke deletes the refresh record. Revoking an absent token is a no-op.
func (s *TokenService) Revoke(ctx context.Context, token string) error {
	return s.Sessions.DeleteByToken(ctx, token)
}

// Verify checks an access token without touching the session store.
func (s *TokenService) Verify(token string) (*helpers.Claims, error) {
	return s.JWT.ParseAccessToken(token)
}

package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrSecretMissing indicates a token secret was not configured.
	ErrSecretMissing = errors.New("token secret is not configured")
	// ErrInvalidToken indicates the token signature or shape is not valid.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired indicates the token was valid but is past its expiry.
	ErrTokenExpired = errors.New("token expired")
)

// Claims is the verified payload extracted from a signed token.
type Claims struct {
	UserID    string
	ExpiresAt time.Time
}

// TokenService issues and verifies the signed access and refresh tokens.
// Access and refresh tokens use independent secrets and lifetimes so a
// leaked access secret cannot mint long-lived credentials.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// TokenConfig carries the signing material and expiry policy for a TokenService.
type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// NewTokenService validates the signing configuration and constructs the service.
func NewTokenService(cfg TokenConfig) (*TokenService, error) {
	if cfg.AccessSecret == "" {
		return nil, fmt.Errorf("access token: %w", ErrSecretMissing)
	}
	if cfg.RefreshSecret == "" {
		return nil, fmt.Errorf("refresh token: %w", ErrSecretMissing)
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = time.Hour
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 10 * 24 * time.Hour
	}

	return &TokenService{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		now:           time.Now,
	}, nil
}

// AccessTTL reports the configured access token lifetime.
func (s *TokenService) AccessTTL() time.Duration { return s.accessTTL }

// RefreshTTL reports the configured refresh token lifetime.
func (s *TokenService) RefreshTTL() time.Duration { return s.refreshTTL }

// IssueAccessToken signs a short-lived access token for the user.
func (s *TokenService) IssueAccessToken(userID string) (string, time.Time, error) {
	return s.issue(userID, s.accessSecret, s.accessTTL)
}

// IssueRefreshToken signs a long-lived refresh token for the user.
func (s *TokenService) IssueRefreshToken(userID string) (string, time.Time, error) {
	return s.issue(userID, s.refreshSecret, s.refreshTTL)
}

// VerifyAccessToken checks the signature and expiry of an access token.
func (s *TokenService) VerifyAccessToken(token string) (Claims, error) {
	return s.verify(token, s.accessSecret)
}

// VerifyRefreshToken checks the signature and expiry of a refresh token.
func (s *TokenService) VerifyRefreshToken(token string) (Claims, error) {
	return s.verify(token, s.refreshSecret)
}

func (s *TokenService) issue(userID string, secret []byte, ttl time.Duration) (string, time.Time, error) {
	if userID == "" {
		return "", time.Time{}, errors.New("user id must be provided")
	}

	now := s.now().UTC()
	expiresAt := now.Add(ttl)

	// The jti makes every token unique even when two are signed within the
	// same second; rotation relies on the new token differing from the old.
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	})

	signed, err := token.SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}

	return signed, expiresAt, nil
}

// verify parses and validates the token. The expiry is only ever taken from
// the claims after the signature has checked out; jwt/v5 rejects tokens with
// bad signatures before claim validation runs.
func (s *TokenService) verify(token string, secret []byte) (Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Header["alg"])
		}
		return secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return s.now() }))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return Claims{}, ErrInvalidToken
	}

	var expiresAt time.Time
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}

	return Claims{UserID: claims.Subject, ExpiresAt: expiresAt}, nil
}

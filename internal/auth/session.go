package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/repositories"
)

var (
	// ErrInvalidCredentials indicates the presented password does not match
	// the stored hash.
	ErrInvalidCredentials = errors.New("invalid user credentials")
	// ErrRefreshTokenUsed indicates the presented refresh token is not the
	// currently stored one, typically because it was already rotated out.
	ErrRefreshTokenUsed = errors.New("refresh token is expired or used")
)

// UserStore captures the credential-store operations the session lifecycle
// depends on. Each user carries at most one valid refresh token at a time.
type UserStore interface {
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByUsernameOrEmail(ctx context.Context, username, email string) (models.User, error)
	SaveRefreshToken(ctx context.Context, userID, token string) error
	RotateRefreshToken(ctx context.Context, userID, current, next string) error
	ClearRefreshToken(ctx context.Context, userID string) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}

// Manager orchestrates login, logout, token refresh, and password changes.
type Manager struct {
	users  UserStore
	tokens *TokenService
}

// NewManager constructs a session Manager around the user store and token service.
func NewManager(users UserStore, tokens *TokenService) *Manager {
	if users == nil || tokens == nil {
		panic("auth: user store and token service must not be nil")
	}
	return &Manager{users: users, tokens: tokens}
}

// Login verifies the credentials and establishes a session. The new refresh
// token overwrites whatever token was stored before, so logging in from a
// second device invalidates the first device's refresh token.
func (m *Manager) Login(ctx context.Context, username, email, password string) (models.User, models.SessionTokens, error) {
	user, err := m.users.FindByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return models.User{}, models.SessionTokens{}, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return models.User{}, models.SessionTokens{}, ErrInvalidCredentials
	}

	tokens, err := m.issuePair(user.ID)
	if err != nil {
		return models.User{}, models.SessionTokens{}, err
	}

	if err := m.users.SaveRefreshToken(ctx, user.ID, tokens.RefreshToken); err != nil {
		return models.User{}, models.SessionTokens{}, fmt.Errorf("persist refresh token: %w", err)
	}

	return user.Public(), tokens, nil
}

// Logout discards the user's stored refresh token. Calling it twice is harmless.
func (m *Manager) Logout(ctx context.Context, userID string) error {
	return m.users.ClearRefreshToken(ctx, userID)
}

// Refresh exchanges a valid refresh token for a freshly rotated pair.
//
// Two checks guard the exchange: the signature+expiry verification, and the
// comparison against the single stored token value. The second one rejects
// replay of a rotated-out token even while it is still cryptographically
// valid. The rotation itself is a conditional update keyed on the presented
// value, so two concurrent refresh calls cannot both win.
func (m *Manager) Refresh(ctx context.Context, presented string) (models.SessionTokens, error) {
	claims, err := m.tokens.VerifyRefreshToken(presented)
	if err != nil {
		return models.SessionTokens{}, err
	}

	user, err := m.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.SessionTokens{}, ErrInvalidToken
		}
		return models.SessionTokens{}, err
	}

	if user.RefreshToken == nil || *user.RefreshToken != presented {
		return models.SessionTokens{}, ErrRefreshTokenUsed
	}

	tokens, err := m.issuePair(user.ID)
	if err != nil {
		return models.SessionTokens{}, err
	}

	if err := m.users.RotateRefreshToken(ctx, user.ID, presented, tokens.RefreshToken); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.SessionTokens{}, ErrRefreshTokenUsed
		}
		return models.SessionTokens{}, fmt.Errorf("rotate refresh token: %w", err)
	}

	return tokens, nil
}

// ChangePassword swaps the stored hash after verifying the old password.
func (m *Manager) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	user, err := m.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)) != nil {
		return ErrInvalidCredentials
	}

	hashed, err := HashPassword(newPassword)
	if err != nil {
		return err
	}

	return m.users.UpdatePassword(ctx, userID, hashed)
}

func (m *Manager) issuePair(userID string) (models.SessionTokens, error) {
	access, accessExp, err := m.tokens.IssueAccessToken(userID)
	if err != nil {
		return models.SessionTokens{}, fmt.Errorf("issue access token: %w", err)
	}

	refresh, refreshExp, err := m.tokens.IssueRefreshToken(userID)
	if err != nil {
		return models.SessionTokens{}, fmt.Errorf("issue refresh token: %w", err)
	}

	return models.SessionTokens{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// HashPassword derives the bcrypt hash stored in place of the plaintext
// password. Hashing always happens here, at the write boundary, never in
// callers that persist users directly.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

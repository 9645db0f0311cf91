package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/repositories"
)

// memoryUserStore implements UserStore with the same single-slot refresh
// token semantics as the PostgreSQL repository.
type memoryUserStore struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newMemoryUserStore() *memoryUserStore {
	return &memoryUserStore{users: make(map[string]*models.User)}
}

func (s *memoryUserStore) add(user models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := user
	s.users[user.ID] = &u
}

func (s *memoryUserStore) FindByID(ctx context.Context, id string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		return *u, nil
	}
	return models.User{}, repositories.ErrNotFound
}

func (s *memoryUserStore) FindByUsernameOrEmail(ctx context.Context, username, email string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if (username != "" && u.Username == username) || (email != "" && u.Email == email) {
			return *u, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (s *memoryUserStore) SaveRefreshToken(ctx context.Context, userID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return repositories.ErrNotFound
	}
	u.RefreshToken = &token
	return nil
}

func (s *memoryUserStore) RotateRefreshToken(ctx context.Context, userID, current, next string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return repositories.ErrNotFound
	}
	if u.RefreshToken == nil || *u.RefreshToken != current {
		return repositories.ErrNotFound
	}
	u.RefreshToken = &next
	return nil
}

func (s *memoryUserStore) ClearRefreshToken(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return repositories.ErrNotFound
	}
	u.RefreshToken = nil
	return nil
}

func (s *memoryUserStore) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return repositories.ErrNotFound
	}
	u.Password = passwordHash
	return nil
}

func newTestManager(t *testing.T) (*Manager, *memoryUserStore) {
	t.Helper()

	store := newMemoryUserStore()
	tokens := newTestTokenService(t)

	hashed, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash fixture password: %v", err)
	}

	store.add(models.User{
		ID:       "user-1",
		Username: "alice",
		Email:    "alice@example.com",
		Password: string(hashed),
	})

	return NewManager(store, tokens), store
}

func TestLoginIssuesSessionAndStoresRefreshToken(t *testing.T) {
	mgr, store := newTestManager(t)
	ctx := context.Background()

	user, tokens, err := mgr.Login(ctx, "alice", "", "correct horse")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if user.Password != "" || user.RefreshToken != nil {
		t.Fatal("login response must not carry credentials")
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Fatal("expected both tokens to be issued")
	}

	stored, err := store.FindByID(ctx, "user-1")
	if err != nil {
		t.Fatalf("FindByID returned error: %v", err)
	}
	if stored.RefreshToken == nil || *stored.RefreshToken != tokens.RefreshToken {
		t.Fatal("refresh token was not persisted")
	}
}

func TestLoginByEmail(t *testing.T) {
	mgr, _ := newTestManager(t)

	if _, _, err := mgr.Login(context.Background(), "", "alice@example.com", "correct horse"); err != nil {
		t.Fatalf("Login by email returned error: %v", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	mgr, _ := newTestManager(t)

	_, _, err := mgr.Login(context.Background(), "alice", "", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginUnknownUser(t *testing.T) {
	mgr, _ := newTestManager(t)

	_, _, err := mgr.Login(context.Background(), "nobody", "", "correct horse")
	if !errors.Is(err, repositories.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSecondLoginInvalidatesFirstRefreshToken(t *testing.T) {
	mgr, _ := newTestManager(t)
	ctx := context.Background()

	_, first, err := mgr.Login(ctx, "alice", "", "correct horse")
	if err != nil {
		t.Fatalf("first login: %v", err)
	}
	if _, _, err := mgr.Login(ctx, "alice", "", "correct horse"); err != nil {
		t.Fatalf("second login: %v", err)
	}

	if _, err := mgr.Refresh(ctx, first.RefreshToken); !errors.Is(err, ErrRefreshTokenUsed) {
		t.Fatalf("expected ErrRefreshTokenUsed for displaced session, got %v", err)
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	mgr, store := newTestManager(t)
	ctx := context.Background()

	_, tokens, err := mgr.Login(ctx, "alice", "", "correct horse")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	rotated, err := mgr.Refresh(ctx, tokens.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh returned error: %v", err)
	}
	if rotated.RefreshToken == tokens.RefreshToken {
		t.Fatal("refresh must rotate the token")
	}

	stored, _ := store.FindByID(ctx, "user-1")
	if stored.RefreshToken == nil || *stored.RefreshToken != rotated.RefreshToken {
		t.Fatal("rotated token was not persisted")
	}

	// The first token was rotated out and must now be rejected.
	if _, err := mgr.Refresh(ctx, tokens.RefreshToken); !errors.Is(err, ErrRefreshTokenUsed) {
		t.Fatalf("expected ErrRefreshTokenUsed on replay, got %v", err)
	}

	// The rotated token still works exactly once more.
	if _, err := mgr.Refresh(ctx, rotated.RefreshToken); err != nil {
		t.Fatalf("rotated token should refresh: %v", err)
	}
}

func TestRefreshAfterLogout(t *testing.T) {
	mgr, _ := newTestManager(t)
	ctx := context.Background()

	_, tokens, err := mgr.Login(ctx, "alice", "", "correct horse")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	if err := mgr.Logout(ctx, "user-1"); err != nil {
		t.Fatalf("Logout returned error: %v", err)
	}

	if _, err := mgr.Refresh(ctx, tokens.RefreshToken); !errors.Is(err, ErrRefreshTokenUsed) {
		t.Fatalf("expected ErrRefreshTokenUsed after logout, got %v", err)
	}
}

func TestRefreshRejectsGarbageToken(t *testing.T) {
	mgr, _ := newTestManager(t)

	if _, err := mgr.Refresh(context.Background(), "not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestRefreshRejectsExpiredToken(t *testing.T) {
	store := newMemoryUserStore()
	tokens := newTestTokenService(t)

	issued := time.Now().UTC()
	tokens.now = func() time.Time { return issued }
	mgr := NewManager(store, tokens)

	hashed, _ := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.MinCost)
	store.add(models.User{ID: "user-1", Username: "alice", Password: string(hashed)})

	_, session, err := mgr.Login(context.Background(), "alice", "", "pw")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	tokens.now = func() time.Time { return issued.Add(25 * time.Hour) }

	if _, err := mgr.Refresh(context.Background(), session.RefreshToken); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	mgr, store := newTestManager(t)
	ctx := context.Background()

	if err := mgr.ChangePassword(ctx, "user-1", "wrong", "new password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong old password, got %v", err)
	}

	if err := mgr.ChangePassword(ctx, "user-1", "correct horse", "new password"); err != nil {
		t.Fatalf("ChangePassword returned error: %v", err)
	}

	stored, _ := store.FindByID(ctx, "user-1")
	if bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("new password")) != nil {
		t.Fatal("new password hash was not stored")
	}

	if _, _, err := mgr.Login(ctx, "alice", "", "new password"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}

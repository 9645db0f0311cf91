package auth

import (
	"errors"
	"testing"
	"time"
)

func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()

	svc, err := NewTokenService(TokenConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     time.Hour,
		RefreshTTL:    24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("NewTokenService returned error: %v", err)
	}
	return svc
}

func TestNewTokenServiceRequiresSecrets(t *testing.T) {
	if _, err := NewTokenService(TokenConfig{RefreshSecret: "r"}); !errors.Is(err, ErrSecretMissing) {
		t.Fatalf("expected ErrSecretMissing for empty access secret, got %v", err)
	}
	if _, err := NewTokenService(TokenConfig{AccessSecret: "a"}); !errors.Is(err, ErrSecretMissing) {
		t.Fatalf("expected ErrSecretMissing for empty refresh secret, got %v", err)
	}
}

func TestIssueAndVerifyAccessToken(t *testing.T) {
	svc := newTestTokenService(t)

	token, expiresAt, err := svc.IssueAccessToken("user-1")
	if err != nil {
		t.Fatalf("IssueAccessToken returned error: %v", err)
	}
	if token == "" {
		t.Fatal("expected a signed token")
	}
	if !expiresAt.After(time.Now()) {
		t.Fatalf("expected future expiry, got %v", expiresAt)
	}

	claims, err := svc.VerifyAccessToken(token)
	if err != nil {
		t.Fatalf("VerifyAccessToken returned error: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Fatalf("expected user-1, got %q", claims.UserID)
	}
}

func TestIssuedTokensAreUnique(t *testing.T) {
	svc := newTestTokenService(t)

	// Freeze the clock so the timestamp claims cannot differ; uniqueness
	// must come from the token itself.
	issued := time.Now().UTC()
	svc.now = func() time.Time { return issued }

	first, _, err := svc.IssueRefreshToken("user-1")
	if err != nil {
		t.Fatalf("IssueRefreshToken returned error: %v", err)
	}
	second, _, err := svc.IssueRefreshToken("user-1")
	if err != nil {
		t.Fatalf("IssueRefreshToken returned error: %v", err)
	}

	if first == second {
		t.Fatal("tokens issued at the same instant must not be identical")
	}
}

func TestVerifyRejectsCrossSecretTokens(t *testing.T) {
	svc := newTestTokenService(t)

	refresh, _, err := svc.IssueRefreshToken("user-1")
	if err != nil {
		t.Fatalf("IssueRefreshToken returned error: %v", err)
	}

	// A refresh token must not pass as an access token, and vice versa.
	if _, err := svc.VerifyAccessToken(refresh); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}

	access, _, err := svc.IssueAccessToken("user-1")
	if err != nil {
		t.Fatalf("IssueAccessToken returned error: %v", err)
	}
	if _, err := svc.VerifyRefreshToken(access); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	svc := newTestTokenService(t)

	token, _, err := svc.IssueAccessToken("user-1")
	if err != nil {
		t.Fatalf("IssueAccessToken returned error: %v", err)
	}

	tampered := token[:len(token)-2] + "xx"
	if _, err := svc.VerifyAccessToken(tampered); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	svc := newTestTokenService(t)

	issued := time.Now().UTC()
	svc.now = func() time.Time { return issued }

	token, _, err := svc.IssueAccessToken("user-1")
	if err != nil {
		t.Fatalf("IssueAccessToken returned error: %v", err)
	}

	svc.now = func() time.Time { return issued.Add(2 * time.Hour) }

	if _, err := svc.VerifyAccessToken(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestIssueRequiresUserID(t *testing.T) {
	svc := newTestTokenService(t)

	if _, _, err := svc.IssueAccessToken(""); err == nil {
		t.Fatal("expected error for empty user id")
	}
}

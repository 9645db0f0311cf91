package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/videotube/backend/internal/auth"
	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/repositories"
)

type stubVerifier struct {
	claims auth.Claims
	err    error
}

func (v stubVerifier) VerifyAccessToken(token string) (auth.Claims, error) {
	return v.claims, v.err
}

type stubLoader struct {
	user models.User
	err  error
}

func (l stubLoader) FindByID(ctx context.Context, id string) (models.User, error) {
	return l.user, l.err
}

func authedHandler(t *testing.T, captured *models.User) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			t.Fatal("expected user on context")
		}
		*captured = user
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestRequireAuthMissingCredential(t *testing.T) {
	mw := RequireAuth(stubLoader{}, stubVerifier{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)

	mw(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run without a credential")
	})).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	assertErrorMessage(t, rec, "Unauthorized request")
}

func TestRequireAuthInvalidToken(t *testing.T) {
	mw := RequireAuth(stubLoader{}, stubVerifier{err: auth.ErrInvalidToken})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer bogus")

	mw(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run with an invalid token")
	})).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	assertErrorMessage(t, rec, "Invalid Access Token")
}

func TestRequireAuthUnknownUser(t *testing.T) {
	mw := RequireAuth(
		stubLoader{err: repositories.ErrNotFound},
		stubVerifier{claims: auth.Claims{UserID: "ghost"}},
	)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer token")

	mw(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run for a deleted account")
	})).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	assertErrorMessage(t, rec, "Invalid Access Token")
}

func TestRequireAuthBearerHeader(t *testing.T) {
	secret := "hunter2"
	user := models.User{ID: "user-1", Username: "alice", Password: secret}
	mw := RequireAuth(
		stubLoader{user: user},
		stubVerifier{claims: auth.Claims{UserID: "user-1"}},
	)

	var got models.User
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer token")

	mw(authedHandler(t, &got)).ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if got.ID != "user-1" {
		t.Fatalf("expected user-1 on context, got %q", got.ID)
	}
	if got.Password != "" {
		t.Fatal("context user must be sanitized")
	}
}

func TestRequireAuthCookie(t *testing.T) {
	mw := RequireAuth(
		stubLoader{user: models.User{ID: "user-1"}},
		stubVerifier{claims: auth.Claims{UserID: "user-1"}},
	)

	var got models.User
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "token"})

	mw(authedHandler(t, &got)).ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}

func assertErrorMessage(t *testing.T, rec *httptest.ResponseRecorder, want string) {
	t.Helper()

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if body["error"] != want {
		t.Fatalf("expected error %q, got %q", want, body["error"])
	}
}

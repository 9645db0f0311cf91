package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/videotube/backend/internal/auth"
	"github.com/videotube/backend/internal/logging"
	"github.com/videotube/backend/internal/models"
)

// AccessTokenCookie is the cookie carrying the access token for browser clients.
const AccessTokenCookie = "accessToken"

type userCtxKey struct{}

// UserLoader resolves the account referenced by a verified token.
type UserLoader interface {
	FindByID(ctx context.Context, id string) (models.User, error)
}

// TokenVerifier checks the signature and expiry of an access token.
type TokenVerifier interface {
	VerifyAccessToken(token string) (auth.Claims, error)
}

// RequireAuth gates protected routes. The bearer credential is taken from the
// accessToken cookie when present, otherwise from the Authorization header.
// On success the sanitized user is attached to the request context; on any
// failure the request short-circuits with a 401 and no downstream handler runs.
func RequireAuth(users UserLoader, tokens TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			logger := logging.FromContext(ctx)

			token := bearerToken(r)
			if token == "" {
				logger.Warn("missing bearer credential")
				writeAuthError(w, "Unauthorized request")
				return
			}

			claims, err := tokens.VerifyAccessToken(token)
			if err != nil {
				logger.Warn("access token rejected", "error", err)
				writeAuthError(w, "Invalid Access Token")
				return
			}

			user, err := users.FindByID(ctx, claims.UserID)
			if err != nil {
				logger.Warn("token references unknown user", "userId", claims.UserID, "error", err)
				writeAuthError(w, "Invalid Access Token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(ctx, user.Public())))
		})
	}
}

// WithUser stores the authenticated user on the context.
func WithUser(ctx context.Context, user models.User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, user)
}

// UserFromContext retrieves the authenticated user attached by RequireAuth.
func UserFromContext(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(userCtxKey{}).(models.User)
	return user, ok
}

func bearerToken(r *http.Request) string {
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	header := r.Header.Get("Authorization")
	if after, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(after)
	}
	return ""
}

func writeAuthError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/mail"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/videotube/backend/internal/auth"
	"github.com/videotube/backend/internal/logging"
	"github.com/videotube/backend/internal/middleware"
	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/repositories"
)

const maxImageUploadBytes = 8 << 20

// UserHandler implements registration, session, and profile endpoints.
type UserHandler struct {
	Users    UserStore
	Sessions SessionManager
	Media    MediaStore
	Limiter  RateLimiter
	NowFunc  func() time.Time
}

type registerRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type updateAccountRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

type sessionResponse struct {
	User         models.User `json:"user"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
}

// Register handles POST /api/v1/users/register.
func (h UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid register payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.FullName = strings.TrimSpace(req.FullName)
	req.Username = strings.TrimSpace(strings.ToLower(req.Username))
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	if req.FullName == "" || req.Username == "" || req.Email == "" || req.Password == "" {
		logger.Warn("register missing fields", "username", req.Username)
		respondError(ctx, w, http.StatusBadRequest, "All fields are required")
		return
	}

	if _, err := mail.ParseAddress(req.Email); err != nil {
		logger.Warn("register invalid email", "email", req.Email, "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid email address")
		return
	}

	if len(req.Password) < 8 {
		logger.Warn("register password too short", "username", req.Username)
		respondError(ctx, w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		logger.Error("register failed to hash password", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to secure password")
		return
	}

	now := h.now()
	user := models.User{
		ID:        uuid.NewString(),
		Username:  req.Username,
		Email:     req.Email,
		FullName:  req.FullName,
		Password:  hashed,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.Users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			logger.Warn("register conflict", "username", req.Username)
			respondError(ctx, w, http.StatusConflict, "User with email or username already exists")
			return
		}
		logger.Error("register failed to create user", "error", err, "username", req.Username)
		respondError(ctx, w, http.StatusInternalServerError, "Something went wrong while registering the user")
		return
	}

	respondJSON(ctx, w, http.StatusCreated, user.Public())
}

// Login handles POST /api/v1/users/login.
func (h UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if !allowRequest(h.Limiter, r, "login") {
		respondError(ctx, w, http.StatusTooManyRequests, "too many login attempts")
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid login payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Username = strings.TrimSpace(strings.ToLower(req.Username))
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	if req.Username == "" && req.Email == "" {
		logger.Warn("login missing identifier")
		respondError(ctx, w, http.StatusBadRequest, "username or email is required")
		return
	}

	user, tokens, err := h.Sessions.Login(ctx, req.Username, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			logger.Warn("login unknown user", "username", req.Username, "email", req.Email)
			respondError(ctx, w, http.StatusNotFound, "User does not exist")
		case errors.Is(err, auth.ErrInvalidCredentials):
			logger.Warn("login password mismatch", "username", req.Username)
			respondError(ctx, w, http.StatusUnauthorized, "Invalid user credentials")
		default:
			logger.Error("login failed", "error", err)
			respondError(ctx, w, http.StatusInternalServerError, "failed to create session")
		}
		return
	}

	setSessionCookies(w, tokens)
	respondJSON(ctx, w, http.StatusOK, sessionResponse{
		User:         user,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	})
}

// Logout handles POST /api/v1/users/logout.
func (h UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := middleware.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "Unauthorized request")
		return
	}

	if err := h.Sessions.Logout(ctx, user.ID); err != nil && !errors.Is(err, repositories.ErrNotFound) {
		logging.FromContext(ctx).Error("logout failed", "error", err, "userId", user.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to end session")
		return
	}

	clearSessionCookies(w)
	respondJSON(ctx, w, http.StatusOK, map[string]string{"message": "User logged out successfully"})
}

// Refresh handles POST /api/v1/users/refresh-token. The refresh token is read
// from the cookie first and the body second, matching the login cookie flow.
func (h UserHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if !allowRequest(h.Limiter, r, "refresh") {
		respondError(ctx, w, http.StatusTooManyRequests, "too many refresh attempts")
		return
	}

	presented := ""
	if cookie, err := r.Cookie(refreshTokenCookie); err == nil {
		presented = cookie.Value
	}
	if presented == "" {
		var req refreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			presented = strings.TrimSpace(req.RefreshToken)
		}
	}

	if presented == "" {
		logger.Warn("missing refresh token")
		respondError(ctx, w, http.StatusUnauthorized, "Unauthorized request")
		return
	}

	tokens, err := h.Sessions.Refresh(ctx, presented)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrRefreshTokenUsed):
			logger.Warn("refresh token replayed or rotated out")
			respondError(ctx, w, http.StatusUnauthorized, "Refresh token is expired or used")
		case errors.Is(err, auth.ErrTokenExpired), errors.Is(err, auth.ErrInvalidToken):
			logger.Warn("refresh token rejected", "error", err)
			respondError(ctx, w, http.StatusUnauthorized, "Invalid refresh token")
		default:
			logger.Error("refresh failed", "error", err)
			respondError(ctx, w, http.StatusInternalServerError, "unable to refresh session")
		}
		return
	}

	setSessionCookies(w, tokens)
	respondJSON(ctx, w, http.StatusOK, map[string]string{
		"accessToken":  tokens.AccessToken,
		"refreshToken": tokens.RefreshToken,
	})
}

// ChangePassword handles POST /api/v1/users/change-password.
func (h UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	user, ok := middleware.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "Unauthorized request")
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid change password payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.OldPassword == "" || req.NewPassword == "" {
		respondError(ctx, w, http.StatusBadRequest, "All fields are required")
		return
	}

	if len(req.NewPassword) < 8 {
		respondError(ctx, w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	if err := h.Sessions.ChangePassword(ctx, user.ID, req.OldPassword, req.NewPassword); err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			logger.Warn("change password old password mismatch", "userId", user.ID)
			respondError(ctx, w, http.StatusBadRequest, "Invalid old password")
			return
		}
		logger.Error("change password failed", "error", err, "userId", user.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to change password")
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"message": "Password changed successfully"})
}

// Current handles GET /api/v1/users/current.
func (h UserHandler) Current(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := middleware.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "Unauthorized request")
		return
	}

	respondJSON(ctx, w, http.StatusOK, user)
}

// UpdateAccount handles PATCH /api/v1/users/account.
func (h UserHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	user, ok := middleware.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "Unauthorized request")
		return
	}

	var req updateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid account payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.FullName == "" || req.Email == "" {
		respondError(ctx, w, http.StatusBadRequest, "All fields are required")
		return
	}

	if err := h.Users.UpdateProfile(ctx, user.ID, req.FullName, req.Email); err != nil {
		respondStoreError(ctx, w, err, "User does not exist", "email already in use")
		return
	}

	updated, err := h.Users.FindByID(ctx, user.ID)
	if err != nil {
		logger.Error("load updated account", "error", err, "userId", user.ID)
		respondError(ctx, w, http.StatusInternalServerError, "Something went wrong")
		return
	}

	respondJSON(ctx, w, http.StatusOK, updated.Public())
}

// UpdateAvatar handles PATCH /api/v1/users/avatar.
func (h UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "avatar", "avatars",
		func(u models.User) string { return u.AvatarURL },
		h.Users.UpdateAvatar)
}

// UpdateCoverImage handles PATCH /api/v1/users/cover-image.
func (h UserHandler) UpdateCoverImage(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "coverImage", "covers",
		func(u models.User) string { return u.CoverURL },
		h.Users.UpdateCoverImage)
}

func (h UserHandler) updateImage(w http.ResponseWriter, r *http.Request, field, prefix string, oldURL func(models.User) string, update func(ctx context.Context, userID, url string) error) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	user, ok := middleware.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "Unauthorized request")
		return
	}

	if err := r.ParseMultipartForm(maxImageUploadBytes); err != nil {
		logger.Warn("invalid multipart payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, field+" file is missing")
		return
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, field+" file is missing")
		return
	}
	defer file.Close()

	location, err := h.saveImage(ctx, prefix, file, header)
	if err != nil {
		logger.Error("upload image", "field", field, "error", err, "userId", user.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to store "+field)
		return
	}

	previous, err := h.Users.FindByID(ctx, user.ID)
	if err != nil {
		respondStoreError(ctx, w, err, "User does not exist", "")
		return
	}

	if err := update(ctx, user.ID, location); err != nil {
		respondStoreError(ctx, w, err, "User does not exist", "")
		return
	}

	if old := oldURL(previous); old != "" {
		if err := h.Media.Delete(ctx, old); err != nil {
			logger.Warn("delete replaced image", "field", field, "error", err)
		}
	}

	updated, err := h.Users.FindByID(ctx, user.ID)
	if err != nil {
		logger.Error("load updated user", "error", err, "userId", user.ID)
		respondError(ctx, w, http.StatusInternalServerError, "Something went wrong")
		return
	}

	respondJSON(ctx, w, http.StatusOK, updated.Public())
}

func (h UserHandler) saveImage(ctx context.Context, prefix string, file multipart.File, header *multipart.FileHeader) (string, error) {
	ext := path.Ext(header.Filename)
	key := path.Join(prefix, uuid.NewString()+ext)
	return h.Media.Save(ctx, key, file, header.Header.Get("Content-Type"))
}

// Channel handles GET /api/v1/users/channel/{username}.
func (h UserHandler) Channel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	viewer, ok := middleware.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "Unauthorized request")
		return
	}

	username := strings.TrimSpace(strings.ToLower(r.PathValue("username")))
	if username == "" {
		respondError(ctx, w, http.StatusBadRequest, "username is missing")
		return
	}

	spanCtx, span := logging.StartSpan(ctx, "channel-profile")
	profile, err := h.Users.ChannelProfile(spanCtx, username, viewer.ID)
	span.End()
	if err != nil {
		respondStoreError(ctx, w, err, "channel does not exist", "")
		return
	}

	respondJSON(ctx, w, http.StatusOK, profile)
}

// WatchHistory handles GET /api/v1/users/history.
func (h UserHandler) WatchHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := middleware.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "Unauthorized request")
		return
	}

	videos, err := h.Users.WatchHistory(ctx, user.ID)
	if err != nil {
		logging.FromContext(ctx).Error("load watch history", "error", err, "userId", user.ID)
		respondError(ctx, w, http.StatusInternalServerError, "Something went wrong")
		return
	}

	if videos == nil {
		videos = []models.Video{}
	}
	respondJSON(ctx, w, http.StatusOK, videos)
}

func (h UserHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/videotube/backend/internal/auth"
	"github.com/videotube/backend/internal/middleware"
	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/repositories"
)

// CommentHandler serves comment threads on videos.
type CommentHandler struct {
	Comments CommentStore
	Videos   VideoStore
	NowFunc  func() time.Time
}

type commentRequest struct {
	Content string `json:"content"`
}

// ListByVideo handles GET /api/v1/comments/{videoId}.
func (h CommentHandler) ListByVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if _, ok := middleware.UserFromContext(ctx); !ok {
		respondError(ctx, w, http.StatusUnauthorized, "Unauthorized request")
		return
	}

	videoID := r.PathValue("videoId")
	if _, err := h.Videos.FindByID(ctx, videoID); err != nil {
		respondStoreError(ctx, w, err, "No Video found", "")
		return
	}

	comments, err := h.Comments.ListByVideo(ctx, videoID, queryInt(r, "page", 1), queryInt(r, "limit", 10))
	if err != nil {
		respondStoreError(ctx, w, err, "No Video found", "")
		return
	}

	if comments == nil {
		comments = []models.CommentWithAuthor{}
	}
	respondJSON(ctx, w, http.StatusOK, comments)
}

// Create handles POST /api/v1/comments/{videoId}.
func (h CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := middleware.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "Unauthorized request")
		return
	}

	videoID := r.PathValue("videoId")
	if _, err := h.Videos.FindByID(ctx, videoID); err != nil {
		respondStoreError(ctx, w, err, "No Video found", "")
		return
	}

	var req commentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		respondError(ctx, w, http.StatusBadRequest, "content is required")
		return
	}

	now := h.now()
	comment := models.Comment{
		ID:        uuid.NewString(),
		VideoID:   videoID,
		OwnerID:   user.ID,
		Content:   req.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.Comments.Create(ctx, comment); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "No Video found")
			return
		}
		respondStoreError(ctx, w, err, "No Video found", "")
		return
	}

	respondJSON(ctx, w, http.StatusCreated, comment)
}

// Update handles PATCH /api/v1/comments/c/{commentId}.
func (h CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := middleware.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "Unauthorized request")
		return
	}

	comment, err := h.Comments.FindByID(ctx, r.PathValue("commentId"))
	if err != nil {
		respondStoreError(ctx, w, err, "Comment not found", "")
		return
	}

	if !auth.IsOwner(comment, user.ID) {
		respondError(ctx, w, http.StatusUnauthorized, "unauthorized comment owner")
		return
	}

	var req commentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		respondError(ctx, w, http.StatusBadRequest, "content is required")
		return
	}

	if err := h.Comments.Update(ctx, comment.ID, req.Content); err != nil {
		respondStoreError(ctx, w, err, "Comment not found", "")
		return
	}

	comment.Content = req.Content
	comment.UpdatedAt = h.now()
	respondJSON(ctx, w, http.StatusOK, comment)
}

// Delete handles DELETE /api/v1/comments/c/{commentId}.
func (h CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := middleware.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "Unauthorized request")
		return
	}

	comment, err := h.Comments.FindByID(ctx, r.PathValue("commentId"))
	if err != nil {
		respondStoreError(ctx, w, err, "Comment not found", "")
		return
	}

	// The channel owner may moderate comments on their own videos.
	if !auth.IsOwner(comment, user.ID) && !h.videoOwnedBy(ctx, comment.VideoID, user.ID) {
		respondError(ctx, w, http.StatusUnauthorized, "unauthorized comment owner")
		return
	}

	if err := h.Comments.Delete(ctx, comment.ID); err != nil {
		respondStoreError(ctx, w, err, "Comment not found", "")
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"message": "Comment deleted successfully"})
}

func (h CommentHandler) videoOwnedBy(ctx context.Context, videoID, userID string) bool {
	video, err := h.Videos.FindByID(ctx, videoID)
	if err != nil {
		return false
	}
	return auth.IsOwner(video, userID)
}

func (h CommentHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/videotube/backend/internal/logging"
	"github.com/videotube/backend/internal/middleware"
	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/repositories"
)

// LikeHandler toggles likes on videos, comments, and tweets.
type LikeHandler struct {
	Likes   LikeStore
	NowFunc func() time.Time
}

// ToggleVideo handles POST /api/v1/likes/toggle/v/{videoId}.
func (h LikeHandler) ToggleVideo(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, repositories.LikeTargetVideo, r.PathValue("videoId"))
}

// ToggleComment handles POST /api/v1/likes/toggle/c/{commentId}.
func (h LikeHandler) ToggleComment(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, repositories.LikeTargetComment, r.PathValue("commentId"))
}

// ToggleTweet handles POST /api/v1/likes/toggle/t/{tweetId}.
func (h LikeHandler) ToggleTweet(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, repositories.LikeTargetTweet, r.PathValue("tweetId"))
}

func (h LikeHandler) toggle(w http.ResponseWriter, r *http.Request, target repositories.LikeTarget, targetID string) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	user, ok := middleware.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "Unauthorized request")
		return
	}

	if targetID == "" {
		respondError(ctx, w, http.StatusBadRequest, "target id is missing")
		return
	}

	existing, err := h.Likes.Find(ctx, user.ID, target, targetID)
	switch {
	case err == nil:
		if err := h.Likes.Delete(ctx, existing.ID); err != nil && !errors.Is(err, repositories.ErrNotFound) {
			logger.Error("remove like", "error", err, "likeId", existing.ID)
			respondError(ctx, w, http.StatusInternalServerError, "Something went wrong")
			return
		}
		respondJSON(ctx, w, http.StatusOK, map[string]bool{"liked": false})
	case errors.Is(err, repositories.ErrNotFound):
		like := models.Like{
			ID:        uuid.NewString(),
			UserID:    user.ID,
			CreatedAt: h.now(),
		}
		switch target {
		case repositories.LikeTargetVideo:
			like.VideoID = targetID
		case repositories.LikeTargetComment:
			like.CommentID = targetID
		case repositories.LikeTargetTweet:
			like.TweetID = targetID
		}
		if err := h.Likes.Create(ctx, like); err != nil {
			if errors.Is(err, repositories.ErrConflict) {
				// A concurrent toggle won the race; report the like as present.
				respondJSON(ctx, w, http.StatusOK, map[string]bool{"liked": true})
				return
			}
			respondStoreError(ctx, w, err, "target does not exist", "")
			return
		}
		respondJSON(ctx, w, http.StatusOK, map[string]bool{"liked": true})
	default:
		logger.Error("look up like", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "Something went wrong")
	}
}

// LikedVideos handles GET /api/v1/likes/videos.
func (h LikeHandler) LikedVideos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := middleware.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "Unauthorized request")
		return
	}

	videos, err := h.Likes.ListLikedVideos(ctx, user.ID)
	if err != nil {
		logging.FromContext(ctx).Error("list liked videos", "error", err, "userId", user.ID)
		respondError(ctx, w, http.StatusInternalServerError, "Something went wrong")
		return
	}

	if videos == nil {
		videos = []models.Video{}
	}
	respondJSON(ctx, w, http.StatusOK, videos)
}

func (h LikeHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

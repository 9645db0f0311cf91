package handlers

import (
	"net/http"

	"github.com/videotube/backend/internal/logging"
	"github.com/videotube/backend/internal/middleware"
	"github.com/videotube/backend/internal/models"
)

// DashboardHandler serves the aggregated figures for a channel owner.
type DashboardHandler struct {
	Stats  StatsStore
	Videos VideoStore
}

// ChannelStats handles GET /api/v1/dashboard/stats.
func (h DashboardHandler) ChannelStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := middleware.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "Unauthorized request")
		return
	}

	spanCtx, span := logging.StartSpan(ctx, "channel-stats")
	stats, err := h.Stats.ChannelStats(spanCtx, user.ID)
	span.End()
	if err != nil {
		logging.FromContext(ctx).Error("load channel stats", "error", err, "userId", user.ID)
		respondError(ctx, w, http.StatusInternalServerError, "Something went wrong")
		return
	}

	respondJSON(ctx, w, http.StatusOK, stats)
}

// ChannelVideos handles GET /api/v1/dashboard/videos.
func (h DashboardHandler) ChannelVideos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := middleware.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "Unauthorized request")
		return
	}

	videos, err := h.Videos.ListByOwner(ctx, user.ID)
	if err != nil {
		logging.FromContext(ctx).Error("list channel videos", "error", err, "userId", user.ID)
		respondError(ctx, w, http.StatusInternalServerError, "Something went wrong")
		return
	}

	if videos == nil {
		videos = []models.Video{}
	}
	respondJSON(ctx, w, http.StatusOK, videos)
}

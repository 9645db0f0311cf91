package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/videotube/backend/internal/auth"
	"github.com/videotube/backend/internal/middleware"
	"github.com/videotube/backend/internal/models"
)

// PlaylistHandler serves user-curated playlists.
type PlaylistHandler struct {
	Playlists PlaylistStore
	Videos    VideoStore
	NowFunc   func() time.Time
}

type playlistRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Create handles POST /api/v1/playlists.
func (h PlaylistHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := middleware.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "Unauthorized request")
		return
	}

	var req playlistRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	if req.Name == "" || req.Description == "" {
		respondError(ctx, w, http.StatusBadRequest, "All fields are required")
		return
	}

	now := h.now()
	playlist := models.Playlist{
		ID:          uuid.NewString(),
		OwnerID:     user.ID,
		Name:        req.Name,
		Description: req.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.Playlists.Create(ctx, playlist); err != nil {
		respondStoreError(ctx, w, err, "Playlist not found", "")
		return
	}

	respondJSON(ctx, w, http.StatusCreated, playlist)
}

// ListByUser handles GET /api/v1/playlists/user/{userId}.
func (h PlaylistHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if _, ok := middleware.UserFromContext(ctx); !ok {
		respondError(ctx, w, http.StatusUnauthorized, "Unauthorized request")
		return
	}

	playlists, err := h.Playlists.ListByOwner(ctx, r.PathValue("userId"))
	if err != nil {
		respondStoreError(ctx, w, err, "Playlist not found", "")
		return
	}

	if playlists == nil {
		playlists = []models.Playlist{}
	}
	respondJSON(ctx, w, http.StatusOK, playlists)
}

// Get handles GET /api/v1/playlists/{playlistId}.
func (h PlaylistHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if _, ok := middleware.UserFromContext(ctx); !ok {
		respondError(ctx, w, http.StatusUnauthorized, "Unauthorized request")
		return
	}

	playlist, err := h.Playlists.FindByIDWithVideos(ctx, r.PathValue("playlistId"))
	if err != nil {
		respondStoreError(ctx, w, err, "Playlist not found", "")
		return
	}

	respondJSON(ctx, w, http.StatusOK, playlist)
}

// AddVideo handles PATCH /api/v1/playlists/add/{videoId}/{playlistId}.
func (h PlaylistHandler) AddVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	playlist, ok := h.ownedPlaylist(w, r)
	if !ok {
		return
	}

	videoID := r.PathValue("videoId")
	if _, err := h.Videos.FindByID(ctx, videoID); err != nil {
		respondStoreError(ctx, w, err, "No Video found", "")
		return
	}

	if err := h.Playlists.AddVideo(ctx, playlist.ID, videoID); err != nil {
		respondStoreError(ctx, w, err, "Playlist not found", "")
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"message": "Video added to playlist"})
}

// RemoveVideo handles PATCH /api/v1/playlists/remove/{videoId}/{playlistId}.
func (h PlaylistHandler) RemoveVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	playlist, ok := h.ownedPlaylist(w, r)
	if !ok {
		return
	}

	if err := h.Playlists.RemoveVideo(ctx, playlist.ID, r.PathValue("videoId")); err != nil {
		respondStoreError(ctx, w, err, "video is not in the playlist", "")
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"message": "Video removed from playlist"})
}

// Update handles PATCH /api/v1/playlists/{playlistId}.
func (h PlaylistHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	playlist, ok := h.ownedPlaylist(w, r)
	if !ok {
		return
	}

	var req playlistRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	if req.Name == "" || req.Description == "" {
		respondError(ctx, w, http.StatusBadRequest, "All fields are required")
		return
	}

	if err := h.Playlists.Update(ctx, playlist.ID, req.Name, req.Description); err != nil {
		respondStoreError(ctx, w, err, "Playlist not found", "")
		return
	}

	playlist.Name = req.Name
	playlist.Description = req.Description
	playlist.UpdatedAt = h.now()
	respondJSON(ctx, w, http.StatusOK, playlist)
}

// Delete handles DELETE /api/v1/playlists/{playlistId}.
func (h PlaylistHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	playlist, ok := h.ownedPlaylist(w, r)
	if !ok {
		return
	}

	if err := h.Playlists.Delete(ctx, playlist.ID); err != nil {
		respondStoreError(ctx, w, err, "Playlist not found", "")
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"message": "Playlist deleted successfully"})
}

// ownedPlaylist loads the playlist from the path and enforces that the caller
// owns it. Missing playlists are reported before ownership is considered.
func (h PlaylistHandler) ownedPlaylist(w http.ResponseWriter, r *http.Request) (models.Playlist, bool) {
	ctx := r.Context()

	user, ok := middleware.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "Unauthorized request")
		return models.Playlist{}, false
	}

	playlist, err := h.Playlists.FindByID(ctx, r.PathValue("playlistId"))
	if err != nil {
		respondStoreError(ctx, w, err, "Playlist not found", "")
		return models.Playlist{}, false
	}

	if !auth.IsOwner(playlist, user.ID) {
		respondError(ctx, w, http.StatusUnauthorized, "unauthorized playlist owner")
		return models.Playlist{}, false
	}

	return playlist, true
}

func (h PlaylistHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/videotube/backend/internal/auth"
	"github.com/videotube/backend/internal/logging"
	"github.com/videotube/backend/internal/media"
	"github.com/videotube/backend/internal/middleware"
	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/repositories"
)

const maxVideoUploadBytes = 512 << 20

// VideoHandler serves the video catalog: listing, publishing, playback
// metadata, and owner-only mutations.
type VideoHandler struct {
	Videos   VideoStore
	Users    UserStore
	Media    MediaStore
	Ingestor VideoIngestor
	NowFunc  func() time.Time
}

type updateVideoRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// List handles GET /api/v1/videos.
func (h VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	params := repositories.ListVideosParams{
		Query:     strings.TrimSpace(r.URL.Query().Get("query")),
		OwnerID:   strings.TrimSpace(r.URL.Query().Get("userId")),
		SortBy:    r.URL.Query().Get("sortBy"),
		SortOrder: r.URL.Query().Get("sortType"),
		Page:      queryInt(r, "page", 1),
		Limit:     queryInt(r, "limit", 10),
	}

	videos, err := h.Videos.List(ctx, params)
	if err != nil {
		logging.FromContext(ctx).Error("list videos", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "Something went wrong")
		return
	}

	if videos == nil {
		videos = []models.Video{}
	}
	respondJSON(ctx, w, http.StatusOK, videos)
}

// Publish handles POST /api/v1/videos. The video file is staged to a temp
// file and uploaded in the background; the thumbnail is small enough to
// upload inline before responding.
func (h VideoHandler) Publish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	user, ok := middleware.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "Unauthorized request")
		return
	}

	if err := r.ParseMultipartForm(maxVideoUploadBytes); err != nil {
		logger.Warn("invalid multipart payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid upload payload")
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	description := strings.TrimSpace(r.FormValue("description"))
	if title == "" || description == "" {
		respondError(ctx, w, http.StatusBadRequest, "All fields are required")
		return
	}

	videoFile, videoHeader, err := r.FormFile("videoFile")
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, "videoFile is missing")
		return
	}
	defer videoFile.Close()

	thumbFile, thumbHeader, err := r.FormFile("thumbnail")
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, "thumbnail is missing")
		return
	}
	defer thumbFile.Close()

	var duration float64
	if raw := strings.TrimSpace(r.FormValue("duration")); raw != "" {
		duration, err = strconv.ParseFloat(raw, 64)
		if err != nil || duration < 0 {
			respondError(ctx, w, http.StatusBadRequest, "duration must be a number of seconds")
			return
		}
	}

	staged, err := stageUpload(videoFile, videoHeader.Filename)
	if err != nil {
		logger.Error("stage video upload", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to accept upload")
		return
	}

	thumbKey := path.Join("thumbnails", uuid.NewString()+path.Ext(thumbHeader.Filename))
	thumbURL, err := h.Media.Save(ctx, thumbKey, thumbFile, thumbHeader.Header.Get("Content-Type"))
	if err != nil {
		os.Remove(staged)
		logger.Error("upload thumbnail", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to store thumbnail")
		return
	}

	video := models.Video{
		ID:          uuid.NewString(),
		OwnerID:     user.ID,
		Title:       title,
		Description: description,
		Thumbnail:   thumbURL,
		Duration:    duration,
		IsPublished: true,
		AssetStatus: models.AssetStatusPending,
		CreatedAt:   h.now(),
	}

	if err := h.Videos.Create(ctx, video); err != nil {
		os.Remove(staged)
		logger.Error("create video record", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "Something went wrong")
		return
	}

	job := media.UploadJob{
		VideoID:     video.ID,
		StagedPath:  staged,
		FileName:    videoHeader.Filename,
		ContentType: videoHeader.Header.Get("Content-Type"),
		Duration:    duration,
	}
	if err := h.Ingestor.Enqueue(ctx, job); err != nil {
		os.Remove(staged)
		logger.Error("enqueue video ingest", "error", err, "videoId", video.ID)
		respondError(ctx, w, http.StatusServiceUnavailable, "upload queue is full, try again later")
		return
	}

	respondJSON(ctx, w, http.StatusCreated, video)
}

// Get handles GET /api/v1/videos/{videoId}. Fetching a video counts a view
// and records it in the viewer's watch history.
func (h VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	user, ok := middleware.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "Unauthorized request")
		return
	}

	video, err := h.Videos.FindByID(ctx, r.PathValue("videoId"))
	if err != nil {
		respondStoreError(ctx, w, err, "No Video found", "")
		return
	}

	if !video.IsPublished && !auth.IsOwner(video, user.ID) {
		respondError(ctx, w, http.StatusNotFound, "No Video found")
		return
	}

	if err := h.Videos.IncrementViews(ctx, video.ID); err != nil {
		logger.Warn("increment views", "error", err, "videoId", video.ID)
	} else {
		video.Views++
	}
	if err := h.Users.RecordWatch(ctx, user.ID, video.ID); err != nil {
		logger.Warn("record watch history", "error", err, "videoId", video.ID)
	}

	respondJSON(ctx, w, http.StatusOK, video)
}

// Update handles PATCH /api/v1/videos/{videoId}.
func (h VideoHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	user, ok := middleware.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "Unauthorized request")
		return
	}

	video, err := h.Videos.FindByID(ctx, r.PathValue("videoId"))
	if err != nil {
		respondStoreError(ctx, w, err, "No Video found", "")
		return
	}

	if !auth.IsOwner(video, user.ID) {
		respondError(ctx, w, http.StatusUnauthorized, "unauthorized video owner")
		return
	}

	title := video.Title
	description := video.Description
	thumbnail := ""

	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxImageUploadBytes); err != nil {
			respondError(ctx, w, http.StatusBadRequest, "invalid upload payload")
			return
		}
		if v := strings.TrimSpace(r.FormValue("title")); v != "" {
			title = v
		}
		if v := strings.TrimSpace(r.FormValue("description")); v != "" {
			description = v
		}
		if file, header, err := r.FormFile("thumbnail"); err == nil {
			defer file.Close()
			key := path.Join("thumbnails", uuid.NewString()+path.Ext(header.Filename))
			thumbnail, err = h.Media.Save(ctx, key, file, header.Header.Get("Content-Type"))
			if err != nil {
				logger.Error("upload replacement thumbnail", "error", err)
				respondError(ctx, w, http.StatusInternalServerError, "failed to store thumbnail")
				return
			}
		}
	} else {
		var req updateVideoRequest
		if err := decodeJSON(r, &req); err != nil {
			respondError(ctx, w, http.StatusBadRequest, "invalid request body")
			return
		}
		if v := strings.TrimSpace(req.Title); v != "" {
			title = v
		}
		if v := strings.TrimSpace(req.Description); v != "" {
			description = v
		}
	}

	if err := h.Videos.Update(ctx, video.ID, title, description, thumbnail); err != nil {
		respondStoreError(ctx, w, err, "No Video found", "")
		return
	}

	if thumbnail != "" && video.Thumbnail != "" {
		if err := h.Media.Delete(ctx, video.Thumbnail); err != nil {
			logger.Warn("delete replaced thumbnail", "error", err)
		}
	}

	updated, err := h.Videos.FindByID(ctx, video.ID)
	if err != nil {
		respondStoreError(ctx, w, err, "No Video found", "")
		return
	}
	respondJSON(ctx, w, http.StatusOK, updated)
}

// Delete handles DELETE /api/v1/videos/{videoId}.
func (h VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	user, ok := middleware.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "Unauthorized request")
		return
	}

	video, err := h.Videos.FindByID(ctx, r.PathValue("videoId"))
	if err != nil {
		respondStoreError(ctx, w, err, "No Video found", "")
		return
	}

	if !auth.IsOwner(video, user.ID) {
		respondError(ctx, w, http.StatusUnauthorized, "unauthorized video owner")
		return
	}

	if err := h.Videos.Delete(ctx, video.ID); err != nil {
		respondStoreError(ctx, w, err, "No Video found", "")
		return
	}

	for _, location := range []string{video.VideoURL, video.Thumbnail} {
		if location == "" {
			continue
		}
		if err := h.Media.Delete(ctx, location); err != nil {
			logger.Warn("delete video media", "error", err, "location", location)
		}
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"message": "Video deleted successfully"})
}

// TogglePublish handles PATCH /api/v1/videos/toggle/publish/{videoId}.
func (h VideoHandler) TogglePublish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := middleware.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "Unauthorized request")
		return
	}

	video, err := h.Videos.FindByID(ctx, r.PathValue("videoId"))
	if err != nil {
		respondStoreError(ctx, w, err, "No Video found", "")
		return
	}

	if !auth.IsOwner(video, user.ID) {
		respondError(ctx, w, http.StatusUnauthorized, "unauthorized video owner")
		return
	}

	if err := h.Videos.SetPublished(ctx, video.ID, !video.IsPublished); err != nil {
		respondStoreError(ctx, w, err, "No Video found", "")
		return
	}

	video.IsPublished = !video.IsPublished
	respondJSON(ctx, w, http.StatusOK, video)
}

func (h VideoHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

// stageUpload copies the multipart part to a temp file so the request body
// can be released before the object store upload finishes.
func stageUpload(src io.Reader, filename string) (string, error) {
	tmp, err := os.CreateTemp("", "videotube-upload-*"+path.Ext(filename))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("empty request body")
	}
	return json.NewDecoder(r.Body).Decode(dst)
}

package handlers

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/videotube/backend/internal/media"
	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/repositories"
)

type fakeVideoStore struct {
	videos map[string]models.Video
}

func newFakeVideoStore() *fakeVideoStore {
	return &fakeVideoStore{videos: make(map[string]models.Video)}
}

func (s *fakeVideoStore) Create(ctx context.Context, video models.Video) error {
	s.videos[video.ID] = video
	return nil
}

func (s *fakeVideoStore) FindByID(ctx context.Context, id string) (models.Video, error) {
	if v, ok := s.videos[id]; ok {
		return v, nil
	}
	return models.Video{}, repositories.ErrNotFound
}

func (s *fakeVideoStore) List(ctx context.Context, params repositories.ListVideosParams) ([]models.Video, error) {
	var out []models.Video
	for _, v := range s.videos {
		out = append(out, v)
	}
	return out, nil
}

func (s *fakeVideoStore) ListByOwner(ctx context.Context, ownerID string) ([]models.Video, error) {
	var out []models.Video
	for _, v := range s.videos {
		if v.OwnerID == ownerID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (s *fakeVideoStore) Update(ctx context.Context, id, title, description, thumbnail string) error {
	v, ok := s.videos[id]
	if !ok {
		return repositories.ErrNotFound
	}
	v.Title = title
	v.Description = description
	if thumbnail != "" {
		v.Thumbnail = thumbnail
	}
	s.videos[id] = v
	return nil
}

func (s *fakeVideoStore) Delete(ctx context.Context, id string) error {
	if _, ok := s.videos[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.videos, id)
	return nil
}

func (s *fakeVideoStore) SetPublished(ctx context.Context, id string, published bool) error {
	v, ok := s.videos[id]
	if !ok {
		return repositories.ErrNotFound
	}
	v.IsPublished = published
	s.videos[id] = v
	return nil
}

func (s *fakeVideoStore) IncrementViews(ctx context.Context, id string) error {
	v, ok := s.videos[id]
	if !ok {
		return repositories.ErrNotFound
	}
	v.Views++
	s.videos[id] = v
	return nil
}

type fakeIngestor struct {
	jobs []media.UploadJob
	err  error
}

func (f *fakeIngestor) Enqueue(ctx context.Context, job media.UploadJob) error {
	if f.err != nil {
		return f.err
	}
	f.jobs = append(f.jobs, job)
	return nil
}

func videoRequest(t *testing.T, method, target, videoID string, user models.User) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	req.SetPathValue("videoId", videoID)
	return withUser(req, user)
}

func TestGetVideoCountsView(t *testing.T) {
	store := newFakeVideoStore()
	store.videos["v1"] = models.Video{ID: "v1", OwnerID: "owner", IsPublished: true}
	users := newFakeUserStore()
	handler := VideoHandler{Videos: store, Users: users}

	rec := httptest.NewRecorder()
	handler.Get(rec, videoRequest(t, http.MethodGet, "/api/v1/videos/v1", "v1", models.User{ID: "viewer"}))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if store.videos["v1"].Views != 1 {
		t.Fatalf("expected one view, got %d", store.videos["v1"].Views)
	}
}

func TestGetUnpublishedVideoHiddenFromOthers(t *testing.T) {
	store := newFakeVideoStore()
	store.videos["v1"] = models.Video{ID: "v1", OwnerID: "owner", IsPublished: false}
	handler := VideoHandler{Videos: store, Users: newFakeUserStore()}

	rec := httptest.NewRecorder()
	handler.Get(rec, videoRequest(t, http.MethodGet, "/api/v1/videos/v1", "v1", models.User{ID: "viewer"}))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unpublished video, got %d", rec.Code)
	}
	if payload := decodeBody(t, rec); payload["error"] != "No Video found" {
		t.Fatalf("unexpected error message: %v", payload["error"])
	}
}

func TestGetUnpublishedVideoVisibleToOwner(t *testing.T) {
	store := newFakeVideoStore()
	store.videos["v1"] = models.Video{ID: "v1", OwnerID: "owner", IsPublished: false}
	handler := VideoHandler{Videos: store, Users: newFakeUserStore()}

	rec := httptest.NewRecorder()
	handler.Get(rec, videoRequest(t, http.MethodGet, "/api/v1/videos/v1", "v1", models.User{ID: "owner"}))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for owner, got %d", rec.Code)
	}
}

func TestDeleteVideoRequiresOwnership(t *testing.T) {
	store := newFakeVideoStore()
	store.videos["v1"] = models.Video{ID: "v1", OwnerID: "owner", IsPublished: true}
	handler := VideoHandler{Videos: store, Users: newFakeUserStore(), Media: &fakeMediaStore{}}

	rec := httptest.NewRecorder()
	handler.Delete(rec, videoRequest(t, http.MethodDelete, "/api/v1/videos/v1", "v1", models.User{ID: "intruder"}))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if payload := decodeBody(t, rec); payload["error"] != "unauthorized video owner" {
		t.Fatalf("unexpected error message: %v", payload["error"])
	}
	if _, ok := store.videos["v1"]; !ok {
		t.Fatal("video must not be deleted by a non-owner")
	}
}

func TestDeleteVideoMissingBeforeOwnership(t *testing.T) {
	handler := VideoHandler{Videos: newFakeVideoStore(), Users: newFakeUserStore(), Media: &fakeMediaStore{}}

	rec := httptest.NewRecorder()
	handler.Delete(rec, videoRequest(t, http.MethodDelete, "/api/v1/videos/missing", "missing", models.User{ID: "anyone"}))

	// A missing resource reads as 404 even to a caller who would not own it.
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestTogglePublish(t *testing.T) {
	store := newFakeVideoStore()
	store.videos["v1"] = models.Video{ID: "v1", OwnerID: "owner", IsPublished: true}
	handler := VideoHandler{Videos: store, Users: newFakeUserStore()}

	rec := httptest.NewRecorder()
	handler.TogglePublish(rec, videoRequest(t, http.MethodPatch, "/api/v1/videos/toggle/publish/v1", "v1", models.User{ID: "owner"}))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if store.videos["v1"].IsPublished {
		t.Fatal("expected video to be unpublished")
	}
}

func TestPublishStagesUploadAndEnqueues(t *testing.T) {
	store := newFakeVideoStore()
	mediaStore := &fakeMediaStore{}
	ingestor := &fakeIngestor{}
	handler := VideoHandler{Videos: store, Users: newFakeUserStore(), Media: mediaStore, Ingestor: ingestor}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("title", "My Video")
	_ = mw.WriteField("description", "A description")
	vf, _ := mw.CreateFormFile("videoFile", "clip.mp4")
	_, _ = vf.Write([]byte("fake video bytes"))
	tf, _ := mw.CreateFormFile("thumbnail", "thumb.jpg")
	_, _ = tf.Write([]byte("fake thumbnail bytes"))
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/videos", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req = withUser(req, models.User{ID: "owner"})

	rec := httptest.NewRecorder()
	handler.Publish(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(store.videos) != 1 {
		t.Fatalf("expected one video record, got %d", len(store.videos))
	}
	if len(ingestor.jobs) != 1 {
		t.Fatalf("expected one enqueued job, got %d", len(ingestor.jobs))
	}
	if len(mediaStore.saved) != 1 {
		t.Fatalf("expected the thumbnail to be uploaded inline, got %v", mediaStore.saved)
	}

	job := ingestor.jobs[0]
	defer os.Remove(job.StagedPath)
	if _, err := os.Stat(job.StagedPath); err != nil {
		t.Fatalf("staged file should exist until the ingestor takes it: %v", err)
	}

	for _, v := range store.videos {
		if v.AssetStatus != models.AssetStatusPending {
			t.Fatalf("new video should be pending, got %q", v.AssetStatus)
		}
	}
}

func TestPublishRejectsMalformedDuration(t *testing.T) {
	handler := VideoHandler{Videos: newFakeVideoStore(), Users: newFakeUserStore(), Media: &fakeMediaStore{}, Ingestor: &fakeIngestor{}}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("title", "My Video")
	_ = mw.WriteField("description", "A description")
	_ = mw.WriteField("duration", "three minutes")
	vf, _ := mw.CreateFormFile("videoFile", "clip.mp4")
	_, _ = vf.Write([]byte("fake video bytes"))
	tf, _ := mw.CreateFormFile("thumbnail", "thumb.jpg")
	_, _ = tf.Write([]byte("fake thumbnail bytes"))
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/videos", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req = withUser(req, models.User{ID: "owner"})

	rec := httptest.NewRecorder()
	handler.Publish(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	if payload := decodeBody(t, rec); payload["error"] != "duration must be a number of seconds" {
		t.Fatalf("unexpected error message: %v", payload["error"])
	}
}

func TestPublishRequiresFields(t *testing.T) {
	handler := VideoHandler{Videos: newFakeVideoStore(), Users: newFakeUserStore(), Media: &fakeMediaStore{}, Ingestor: &fakeIngestor{}}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("title", "only a title")
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/videos", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req = withUser(req, models.User{ID: "owner"})

	rec := httptest.NewRecorder()
	handler.Publish(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if payload := decodeBody(t, rec); payload["error"] != "All fields are required" {
		t.Fatalf("unexpected error message: %v", payload["error"])
	}
}

package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/repositories"
)

type fakeCommentStore struct {
	comments map[string]models.Comment
}

func newFakeCommentStore() *fakeCommentStore {
	return &fakeCommentStore{comments: make(map[string]models.Comment)}
}

func (s *fakeCommentStore) Create(ctx context.Context, comment models.Comment) error {
	s.comments[comment.ID] = comment
	return nil
}

func (s *fakeCommentStore) FindByID(ctx context.Context, id string) (models.Comment, error) {
	if c, ok := s.comments[id]; ok {
		return c, nil
	}
	return models.Comment{}, repositories.ErrNotFound
}

func (s *fakeCommentStore) ListByVideo(ctx context.Context, videoID string, page, limit int) ([]models.CommentWithAuthor, error) {
	var out []models.CommentWithAuthor
	for _, c := range s.comments {
		if c.VideoID == videoID {
			out = append(out, models.CommentWithAuthor{Comment: c})
		}
	}
	return out, nil
}

func (s *fakeCommentStore) Update(ctx context.Context, id, content string) error {
	c, ok := s.comments[id]
	if !ok {
		return repositories.ErrNotFound
	}
	c.Content = content
	s.comments[id] = c
	return nil
}

func (s *fakeCommentStore) Delete(ctx context.Context, id string) error {
	if _, ok := s.comments[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.comments, id)
	return nil
}

func commentHandlerFixture() (CommentHandler, *fakeCommentStore, *fakeVideoStore) {
	comments := newFakeCommentStore()
	videos := newFakeVideoStore()
	videos.videos["v1"] = models.Video{ID: "v1", OwnerID: "channel-owner", IsPublished: true}
	comments.comments["c1"] = models.Comment{ID: "c1", VideoID: "v1", OwnerID: "commenter", Content: "nice"}
	return CommentHandler{Comments: comments, Videos: videos}, comments, videos
}

func deleteCommentRequest(user models.User) *http.Request {
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/comments/c/c1", nil)
	req.SetPathValue("commentId", "c1")
	return withUser(req, user)
}

func TestDeleteCommentByAuthor(t *testing.T) {
	handler, comments, _ := commentHandlerFixture()

	rec := httptest.NewRecorder()
	handler.Delete(rec, deleteCommentRequest(models.User{ID: "commenter"}))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(comments.comments) != 0 {
		t.Fatal("expected comment to be removed")
	}
}

func TestDeleteCommentByVideoOwner(t *testing.T) {
	handler, comments, _ := commentHandlerFixture()

	rec := httptest.NewRecorder()
	handler.Delete(rec, deleteCommentRequest(models.User{ID: "channel-owner"}))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected video owner to moderate, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(comments.comments) != 0 {
		t.Fatal("expected comment to be removed")
	}
}

func TestDeleteCommentByStranger(t *testing.T) {
	handler, comments, _ := commentHandlerFixture()

	rec := httptest.NewRecorder()
	handler.Delete(rec, deleteCommentRequest(models.User{ID: "someone-else"}))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if payload := decodeBody(t, rec); payload["error"] != "unauthorized comment owner" {
		t.Fatalf("unexpected error message: %v", payload)
	}
	if len(comments.comments) != 1 {
		t.Fatal("comment should survive an unauthorized delete")
	}
}

func TestUpdateCommentOwnerOnly(t *testing.T) {
	handler, _, _ := commentHandlerFixture()

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/comments/c/c1", strings.NewReader(`{"content":"edited"}`))
	req.SetPathValue("commentId", "c1")
	req = withUser(req, models.User{ID: "channel-owner"})
	rec := httptest.NewRecorder()

	handler.Update(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("editing is reserved for the author, got %d", rec.Code)
	}
}

func TestCreateCommentMissingVideo(t *testing.T) {
	handler, _, _ := commentHandlerFixture()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/comments/missing", strings.NewReader(`{"content":"hi"}`))
	req.SetPathValue("videoId", "missing")
	req = withUser(req, models.User{ID: "commenter"})
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if payload := decodeBody(t, rec); payload["error"] != "No Video found" {
		t.Fatalf("unexpected error message: %v", payload)
	}
}

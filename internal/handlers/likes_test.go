package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/repositories"
)

type fakeLikeStore struct {
	likes map[string]models.Like
}

func newFakeLikeStore() *fakeLikeStore {
	return &fakeLikeStore{likes: make(map[string]models.Like)}
}

func (s *fakeLikeStore) Find(ctx context.Context, userID string, target repositories.LikeTarget, targetID string) (models.Like, error) {
	for _, l := range s.likes {
		if l.UserID != userID {
			continue
		}
		switch target {
		case repositories.LikeTargetVideo:
			if l.VideoID == targetID {
				return l, nil
			}
		case repositories.LikeTargetComment:
			if l.CommentID == targetID {
				return l, nil
			}
		case repositories.LikeTargetTweet:
			if l.TweetID == targetID {
				return l, nil
			}
		}
	}
	return models.Like{}, repositories.ErrNotFound
}

func (s *fakeLikeStore) Create(ctx context.Context, like models.Like) error {
	s.likes[like.ID] = like
	return nil
}

func (s *fakeLikeStore) Delete(ctx context.Context, id string) error {
	if _, ok := s.likes[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.likes, id)
	return nil
}

func (s *fakeLikeStore) ListLikedVideos(ctx context.Context, userID string) ([]models.Video, error) {
	return nil, nil
}

func TestToggleVideoLike(t *testing.T) {
	store := newFakeLikeStore()
	handler := LikeHandler{Likes: store}

	toggle := func() map[string]any {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/likes/toggle/v/v1", nil)
		req.SetPathValue("videoId", "v1")
		req = withUser(req, models.User{ID: "user-1"})
		rec := httptest.NewRecorder()
		handler.ToggleVideo(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		return decodeBody(t, rec)
	}

	if payload := toggle(); payload["liked"] != true {
		t.Fatalf("first toggle should like, got %v", payload)
	}
	if len(store.likes) != 1 {
		t.Fatalf("expected one like record, got %d", len(store.likes))
	}

	if payload := toggle(); payload["liked"] != false {
		t.Fatalf("second toggle should unlike, got %v", payload)
	}
	if len(store.likes) != 0 {
		t.Fatalf("expected like removed, got %d", len(store.likes))
	}
}

func TestToggleLikeRequiresTarget(t *testing.T) {
	handler := LikeHandler{Likes: newFakeLikeStore()}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/likes/toggle/v/", nil)
	req = withUser(req, models.User{ID: "user-1"})
	rec := httptest.NewRecorder()

	handler.ToggleVideo(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

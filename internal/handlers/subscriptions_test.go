package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/repositories"
)

type fakeSubscriptionStore struct {
	subs map[string]models.Subscription
}

func newFakeSubscriptionStore() *fakeSubscriptionStore {
	return &fakeSubscriptionStore{subs: make(map[string]models.Subscription)}
}

func (s *fakeSubscriptionStore) Find(ctx context.Context, subscriberID, channelID string) (models.Subscription, error) {
	for _, sub := range s.subs {
		if sub.SubscriberID == subscriberID && sub.ChannelID == channelID {
			return sub, nil
		}
	}
	return models.Subscription{}, repositories.ErrNotFound
}

func (s *fakeSubscriptionStore) Create(ctx context.Context, sub models.Subscription) error {
	s.subs[sub.ID] = sub
	return nil
}

func (s *fakeSubscriptionStore) Delete(ctx context.Context, id string) error {
	if _, ok := s.subs[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.subs, id)
	return nil
}

func (s *fakeSubscriptionStore) ListSubscribers(ctx context.Context, channelID string) ([]models.User, error) {
	return nil, nil
}

func (s *fakeSubscriptionStore) ListSubscribed(ctx context.Context, subscriberID string) ([]models.User, error) {
	return nil, nil
}

func toggleRequest(user models.User, channelID string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/subscriptions/c/"+channelID, nil)
	req.SetPathValue("channelId", channelID)
	return withUser(req, user)
}

func TestToggleSubscription(t *testing.T) {
	store := newFakeSubscriptionStore()
	handler := SubscriptionHandler{Subscriptions: store}

	rec := httptest.NewRecorder()
	handler.Toggle(rec, toggleRequest(models.User{ID: "user-1"}, "channel-1"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if payload := decodeBody(t, rec); payload["subscribed"] != true {
		t.Fatalf("first toggle should subscribe, got %v", payload)
	}

	rec = httptest.NewRecorder()
	handler.Toggle(rec, toggleRequest(models.User{ID: "user-1"}, "channel-1"))
	if payload := decodeBody(t, rec); payload["subscribed"] != false {
		t.Fatalf("second toggle should unsubscribe, got %v", payload)
	}
	if len(store.subs) != 0 {
		t.Fatalf("expected subscription removed, got %d", len(store.subs))
	}
}

func TestCannotSubscribeToOwnChannel(t *testing.T) {
	handler := SubscriptionHandler{Subscriptions: newFakeSubscriptionStore()}

	rec := httptest.NewRecorder()
	handler.Toggle(rec, toggleRequest(models.User{ID: "user-1"}, "user-1"))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if payload := decodeBody(t, rec); payload["error"] != "cannot subscribe to your own channel" {
		t.Fatalf("unexpected error message: %v", payload["error"])
	}
}

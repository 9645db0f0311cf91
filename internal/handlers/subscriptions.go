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

// SubscriptionHandler toggles and lists channel subscriptions.
type SubscriptionHandler struct {
	Subscriptions SubscriptionStore
	NowFunc       func() time.Time
}

// Toggle handles POST /api/v1/subscriptions/c/{channelId}.
func (h SubscriptionHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	user, ok := middleware.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "Unauthorized request")
		return
	}

	channelID := r.PathValue("channelId")
	if channelID == "" {
		respondError(ctx, w, http.StatusBadRequest, "channel id is missing")
		return
	}
	if channelID == user.ID {
		respondError(ctx, w, http.StatusBadRequest, "cannot subscribe to your own channel")
		return
	}

	existing, err := h.Subscriptions.Find(ctx, user.ID, channelID)
	switch {
	case err == nil:
		if err := h.Subscriptions.Delete(ctx, existing.ID); err != nil && !errors.Is(err, repositories.ErrNotFound) {
			logger.Error("remove subscription", "error", err, "subscriptionId", existing.ID)
			respondError(ctx, w, http.StatusInternalServerError, "Something went wrong")
			return
		}
		respondJSON(ctx, w, http.StatusOK, map[string]bool{"subscribed": false})
	case errors.Is(err, repositories.ErrNotFound):
		sub := models.Subscription{
			ID:           uuid.NewString(),
			SubscriberID: user.ID,
			ChannelID:    channelID,
			CreatedAt:    h.now(),
		}
		if err := h.Subscriptions.Create(ctx, sub); err != nil {
			if errors.Is(err, repositories.ErrConflict) {
				respondJSON(ctx, w, http.StatusOK, map[string]bool{"subscribed": true})
				return
			}
			respondStoreError(ctx, w, err, "channel does not exists", "")
			return
		}
		respondJSON(ctx, w, http.StatusOK, map[string]bool{"subscribed": true})
	default:
		logger.Error("look up subscription", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "Something went wrong")
	}
}

// Subscribers handles GET /api/v1/subscriptions/c/{channelId}.
func (h SubscriptionHandler) Subscribers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if _, ok := middleware.UserFromContext(ctx); !ok {
		respondError(ctx, w, http.StatusUnauthorized, "Unauthorized request")
		return
	}

	users, err := h.Subscriptions.ListSubscribers(ctx, r.PathValue("channelId"))
	if err != nil {
		respondStoreError(ctx, w, err, "channel does not exists", "")
		return
	}

	if users == nil {
		users = []models.User{}
	}
	respondJSON(ctx, w, http.StatusOK, users)
}

// Subscribed handles GET /api/v1/subscriptions/u/{subscriberId}.
func (h SubscriptionHandler) Subscribed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if _, ok := middleware.UserFromContext(ctx); !ok {
		respondError(ctx, w, http.StatusUnauthorized, "Unauthorized request")
		return
	}

	users, err := h.Subscriptions.ListSubscribed(ctx, r.PathValue("subscriberId"))
	if err != nil {
		respondStoreError(ctx, w, err, "channel does not exists", "")
		return
	}

	if users == nil {
		users = []models.User{}
	}
	respondJSON(ctx, w, http.StatusOK, users)
}

func (h SubscriptionHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

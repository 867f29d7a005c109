package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sumitahmed/vidtube/internal/auth"
	"github.com/sumitahmed/vidtube/internal/models"
	"github.com/sumitahmed/vidtube/internal/repositories"
)

// tweetMaxLength caps tweet content, enforced here and by a database check.
const tweetMaxLength = 280

// TweetHandler implements the tweet endpoints.
type TweetHandler struct {
	Tweets  TweetStore
	NowFunc func() time.Time
}

type tweetRequest struct {
	Content string `json:"content" validate:"required"`
}

// Create handles POST /api/v1/tweets.
func (h TweetHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := auth.UserIDFromContext(ctx)

	content, ok := h.tweetContent(w, r)
	if !ok {
		return
	}

	tweet := models.Tweet{
		ID:        uuid.NewString(),
		OwnerID:   userID,
		Content:   content,
		CreatedAt: h.now(),
		UpdatedAt: h.now(),
	}

	if err := h.Tweets.Create(ctx, tweet); err != nil {
		respondStoreError(ctx, w, err, "user not found")
		return
	}

	respondData(ctx, w, http.StatusCreated, tweet, "tweet created")
}

// ListForUser handles GET /api/v1/tweets/user/{userId}.
func (h TweetHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := chi.URLParam(r, "userId")
	page := parsePage(r)

	tweets, total, err := h.Tweets.ListForUser(ctx, userID, page)
	if err != nil {
		respondStoreError(ctx, w, err, "user not found")
		return
	}

	respondData(ctx, w, http.StatusOK, newPagedResponse(tweets, page, total), "tweets")
}

// Update handles PATCH /api/v1/tweets/{tweetId}.
func (h TweetHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tweetID := chi.URLParam(r, "tweetId")

	tweet, ok := h.ownedTweet(w, r, tweetID)
	if !ok {
		return
	}

	content, ok := h.tweetContent(w, r)
	if !ok {
		return
	}

	if err := h.Tweets.UpdateContent(ctx, tweetID, content); err != nil {
		respondStoreError(ctx, w, err, "tweet not found")
		return
	}

	tweet.Content = content
	respondData(ctx, w, http.StatusOK, tweet, "tweet updated")
}

// Delete handles DELETE /api/v1/tweets/{tweetId}.
func (h TweetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tweetID := chi.URLParam(r, "tweetId")

	if _, ok := h.ownedTweet(w, r, tweetID); !ok {
		return
	}

	if err := h.Tweets.Delete(ctx, tweetID); err != nil {
		respondStoreError(ctx, w, err, "tweet not found")
		return
	}

	respondData(ctx, w, http.StatusOK, nil, "tweet deleted")
}

func (h TweetHandler) tweetContent(w http.ResponseWriter, r *http.Request) (string, bool) {
	ctx := r.Context()

	var req tweetRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, err.Error())
		return "", false
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		respondError(ctx, w, http.StatusBadRequest, "content is required")
		return "", false
	}
	if len([]rune(content)) > tweetMaxLength {
		respondError(ctx, w, http.StatusBadRequest, "content must be at most 280 characters")
		return "", false
	}
	return content, true
}

func (h TweetHandler) ownedTweet(w http.ResponseWriter, r *http.Request, tweetID string) (models.Tweet, bool) {
	ctx := r.Context()
	userID, _ := auth.UserIDFromContext(ctx)

	tweet, err := h.Tweets.FindByID(ctx, tweetID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "tweet not found")
		} else {
			respondStoreError(ctx, w, err, "tweet not found")
		}
		return models.Tweet{}, false
	}
	if tweet.OwnerID != userID {
		respondError(ctx, w, http.StatusForbidden, "not the tweet owner")
		return models.Tweet{}, false
	}
	return tweet, true
}

func (h TweetHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc().UTC()
	}
	return time.Now().UTC()
}

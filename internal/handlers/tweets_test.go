package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sumitahmed/vidtube/internal/auth"
	"github.com/sumitahmed/vidtube/internal/models"
)

func seedTweet(id, ownerID string) models.Tweet {
	return models.Tweet{
		ID:        id,
		OwnerID:   ownerID,
		Content:   "hello",
		CreatedAt: time.Now().UTC(),
	}
}

func postTweet(t *testing.T, handler TweetHandler, userID, content string) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(tweetRequest{Content: content})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/tweets", bytes.NewReader(body))
	req = req.WithContext(auth.WithUserID(req.Context(), userID))
	rec := httptest.NewRecorder()
	handler.Create(rec, req)
	return rec
}

func TestTweetHandlerCreate(t *testing.T) {
	store := newFakeTweetStore()
	handler := TweetHandler{Tweets: store}

	rec := postTweet(t, handler, "user-1", "my first tweet")
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}
	if len(store.tweets) != 1 {
		t.Fatalf("expected one tweet, got %d", len(store.tweets))
	}
}

func TestTweetHandlerCreateTooLong(t *testing.T) {
	store := newFakeTweetStore()
	handler := TweetHandler{Tweets: store}

	rec := postTweet(t, handler, "user-1", strings.Repeat("x", 281))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d got %d", http.StatusBadRequest, rec.Code)
	}
	if len(store.tweets) != 0 {
		t.Fatal("expected no tweet to be stored")
	}
}

func TestTweetHandlerCreateAtLimit(t *testing.T) {
	store := newFakeTweetStore()
	handler := TweetHandler{Tweets: store}

	rec := postTweet(t, handler, "user-1", strings.Repeat("x", 280))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d got %d", http.StatusCreated, rec.Code)
	}
}

func TestTweetHandlerUpdateForbidden(t *testing.T) {
	store := newFakeTweetStore()
	store.tweets["tweet-1"] = seedTweet("tweet-1", "owner-1")
	handler := TweetHandler{Tweets: store}

	body, err := json.Marshal(tweetRequest{Content: "edited"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := withURLParams(httptest.NewRequest(http.MethodPatch, "/api/v1/tweets/tweet-1", bytes.NewReader(body)), map[string]string{"tweetId": "tweet-1"})
	req = req.WithContext(auth.WithUserID(req.Context(), "someone-else"))
	rec := httptest.NewRecorder()

	handler.Update(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status %d got %d", http.StatusForbidden, rec.Code)
	}
	if store.tweets["tweet-1"].Content != "hello" {
		t.Fatal("expected tweet to be unchanged")
	}
}

func TestTweetHandlerDelete(t *testing.T) {
	store := newFakeTweetStore()
	store.tweets["tweet-1"] = seedTweet("tweet-1", "owner-1")
	handler := TweetHandler{Tweets: store}

	req := withURLParams(httptest.NewRequest(http.MethodDelete, "/api/v1/tweets/tweet-1", nil), map[string]string{"tweetId": "tweet-1"})
	req = req.WithContext(auth.WithUserID(req.Context(), "owner-1"))
	rec := httptest.NewRecorder()

	handler.Delete(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}
	if len(store.tweets) != 0 {
		t.Fatal("expected tweet to be deleted")
	}
}

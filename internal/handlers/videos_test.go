package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sumitahmed/vidtube/internal/auth"
	"github.com/sumitahmed/vidtube/internal/models"
)

// withURLParams attaches chi route parameters to a request built outside a
// router.
func withURLParams(req *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func seedVideo(store *fakeVideoStore, id, ownerID string, published bool) models.Video {
	video := models.Video{
		ID:          id,
		OwnerID:     ownerID,
		Title:       "a video",
		VideoURL:    "https://media.test/videos/" + id,
		VideoKey:    "videos/" + id,
		IsPublished: published,
		CreatedAt:   time.Now().UTC(),
	}
	store.videos[id] = video
	return video
}

func TestVideoHandlerGetCountsView(t *testing.T) {
	store := newFakeVideoStore()
	seedVideo(store, "vid-1", "owner-1", true)
	handler := VideoHandler{Videos: store, Media: newFakeMediaStore()}

	req := withURLParams(httptest.NewRequest(http.MethodGet, "/api/v1/videos/vid-1", nil), map[string]string{"videoId": "vid-1"})
	rec := httptest.NewRecorder()

	handler.Get(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	if store.videos["vid-1"].Views != 1 {
		t.Fatalf("expected one view, got %d", store.videos["vid-1"].Views)
	}

	handler.Get(httptest.NewRecorder(), req)
	if store.videos["vid-1"].Views != 2 {
		t.Fatalf("expected two views, got %d", store.videos["vid-1"].Views)
	}
}

func TestVideoHandlerGetUnpublished(t *testing.T) {
	store := newFakeVideoStore()
	seedVideo(store, "vid-1", "owner-1", false)
	handler := VideoHandler{Videos: store, Media: newFakeMediaStore()}

	req := withURLParams(httptest.NewRequest(http.MethodGet, "/api/v1/videos/vid-1", nil), map[string]string{"videoId": "vid-1"})
	rec := httptest.NewRecorder()

	handler.Get(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d got %d", http.StatusNotFound, rec.Code)
	}
}

func TestVideoHandlerGetOwnerSeesOwnDraft(t *testing.T) {
	store := newFakeVideoStore()
	seedVideo(store, "vid-1", "owner-1", false)
	handler := VideoHandler{Videos: store, Media: newFakeMediaStore()}

	req := withURLParams(httptest.NewRequest(http.MethodGet, "/api/v1/videos/vid-1", nil), map[string]string{"videoId": "vid-1"})
	req = req.WithContext(auth.WithUserID(req.Context(), "owner-1"))
	rec := httptest.NewRecorder()

	handler.Get(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	if store.videos["vid-1"].Views != 0 {
		t.Fatalf("expected draft fetch not to count a view, got %d", store.videos["vid-1"].Views)
	}

	other := withURLParams(httptest.NewRequest(http.MethodGet, "/api/v1/videos/vid-1", nil), map[string]string{"videoId": "vid-1"})
	other = other.WithContext(auth.WithUserID(other.Context(), "someone-else"))
	rec = httptest.NewRecorder()

	handler.Get(rec, other)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d for non-owner, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestVideoHandlerListPagination(t *testing.T) {
	store := newFakeVideoStore()
	for i := 0; i < 15; i++ {
		video := seedVideo(store, string(rune('a'+i)), "owner-1", true)
		video.CreatedAt = time.Now().UTC().Add(time.Duration(i) * time.Minute)
		store.videos[video.ID] = video
	}
	handler := VideoHandler{Videos: store, Media: newFakeMediaStore()}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/videos?page=2&limit=10", nil)
	rec := httptest.NewRecorder()

	handler.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}

	var env struct {
		Data struct {
			Items      []models.VideoWithOwner `json:"items"`
			Pagination models.Pagination       `json:"pagination"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if len(env.Data.Items) != 5 {
		t.Fatalf("expected 5 items on page 2, got %d", len(env.Data.Items))
	}
	if env.Data.Pagination.TotalItems != 15 || env.Data.Pagination.TotalPages != 2 {
		t.Fatalf("unexpected pagination %+v", env.Data.Pagination)
	}
	if env.Data.Pagination.HasNextPage || !env.Data.Pagination.HasPrevPage {
		t.Fatalf("unexpected page flags %+v", env.Data.Pagination)
	}
}

func TestVideoHandlerPublishThumbnailFailureCleansUp(t *testing.T) {
	store := newFakeVideoStore()
	media := newFakeMediaStore()
	media.failPrefix = "thumbnails/"
	handler := VideoHandler{Videos: store, Media: media}

	body, contentType := multipartBody(t,
		map[string]string{"title": "my video", "description": "desc"},
		map[string][]byte{
			"videoFile": []byte("video-bytes"),
			"thumbnail": []byte("thumb-bytes"),
		},
	)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/videos", body)
	req.Header.Set("Content-Type", contentType)
	req = req.WithContext(auth.WithUserID(req.Context(), "owner-1"))
	rec := httptest.NewRecorder()

	handler.Publish(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status %d got %d", http.StatusInternalServerError, rec.Code)
	}
	if len(store.videos) != 0 {
		t.Fatal("expected no video row after failed thumbnail upload")
	}
	if len(media.saved) != 0 {
		t.Fatalf("expected video object to be deleted, %d objects remain", len(media.saved))
	}
}

func TestVideoHandlerPublish(t *testing.T) {
	store := newFakeVideoStore()
	media := newFakeMediaStore()
	handler := VideoHandler{Videos: store, Media: media}

	body, contentType := multipartBody(t,
		map[string]string{"title": "my video", "description": "desc", "duration": "12.5"},
		map[string][]byte{
			"videoFile": []byte("video-bytes"),
			"thumbnail": []byte("thumb-bytes"),
		},
	)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/videos", body)
	req.Header.Set("Content-Type", contentType)
	req = req.WithContext(auth.WithUserID(req.Context(), "owner-1"))
	rec := httptest.NewRecorder()

	handler.Publish(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}
	if len(store.videos) != 1 {
		t.Fatalf("expected one video row, got %d", len(store.videos))
	}
	for _, video := range store.videos {
		if video.OwnerID != "owner-1" || !video.IsPublished || video.Duration != 12.5 {
			t.Fatalf("unexpected stored video %+v", video)
		}
	}
	if len(media.saved) != 2 {
		t.Fatalf("expected two stored objects, got %d", len(media.saved))
	}
}

func TestVideoHandlerPublishMissingDescription(t *testing.T) {
	store := newFakeVideoStore()
	media := newFakeMediaStore()
	handler := VideoHandler{Videos: store, Media: media}

	body, contentType := multipartBody(t,
		map[string]string{"title": "my video"},
		map[string][]byte{
			"videoFile": []byte("video-bytes"),
			"thumbnail": []byte("thumb-bytes"),
		},
	)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/videos", body)
	req.Header.Set("Content-Type", contentType)
	req = req.WithContext(auth.WithUserID(req.Context(), "owner-1"))
	rec := httptest.NewRecorder()

	handler.Publish(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d got %d: %s", http.StatusBadRequest, rec.Code, rec.Body.String())
	}
	if len(store.videos) != 0 {
		t.Fatalf("expected no video row, got %d", len(store.videos))
	}
	if len(media.saved) != 0 {
		t.Fatalf("expected no stored objects, got %d", len(media.saved))
	}
}

func TestVideoHandlerUpdateForbidden(t *testing.T) {
	store := newFakeVideoStore()
	seedVideo(store, "vid-1", "owner-1", true)
	handler := VideoHandler{Videos: store, Media: newFakeMediaStore()}

	body := []byte(`{"title":"new title"}`)
	req := withURLParams(httptest.NewRequest(http.MethodPatch, "/api/v1/videos/vid-1", bytes.NewReader(body)), map[string]string{"videoId": "vid-1"})
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(auth.WithUserID(req.Context(), "someone-else"))
	rec := httptest.NewRecorder()

	handler.Update(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status %d got %d", http.StatusForbidden, rec.Code)
	}
	if store.videos["vid-1"].Title != "a video" {
		t.Fatal("expected video to be unchanged")
	}
}

func TestVideoHandlerTogglePublish(t *testing.T) {
	store := newFakeVideoStore()
	seedVideo(store, "vid-1", "owner-1", true)
	handler := VideoHandler{Videos: store, Media: newFakeMediaStore()}

	req := withURLParams(httptest.NewRequest(http.MethodPatch, "/api/v1/videos/toggle/publish/vid-1", nil), map[string]string{"videoId": "vid-1"})
	req = req.WithContext(auth.WithUserID(req.Context(), "owner-1"))
	rec := httptest.NewRecorder()

	handler.TogglePublish(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}
	if store.videos["vid-1"].IsPublished {
		t.Fatal("expected video to be unpublished")
	}

	var env struct {
		Data map[string]bool `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if env.Data["isPublished"] {
		t.Fatalf("expected isPublished false, got %v", env.Data)
	}
}

func TestVideoHandlerDeleteRemovesMedia(t *testing.T) {
	store := newFakeVideoStore()
	media := newFakeMediaStore()
	video := seedVideo(store, "vid-1", "owner-1", true)
	media.saved[video.VideoKey] = []byte("video-bytes")
	handler := VideoHandler{Videos: store, Media: media}

	req := withURLParams(httptest.NewRequest(http.MethodDelete, "/api/v1/videos/vid-1", nil), map[string]string{"videoId": "vid-1"})
	req = req.WithContext(auth.WithUserID(req.Context(), "owner-1"))
	rec := httptest.NewRecorder()

	handler.Delete(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}
	if _, ok := store.videos["vid-1"]; ok {
		t.Fatal("expected video row to be deleted")
	}
	if _, ok := media.saved[video.VideoKey]; ok {
		t.Fatal("expected video object to be deleted")
	}
}

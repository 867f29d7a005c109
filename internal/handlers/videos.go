package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sumitahmed/vidtube/internal/auth"
	"github.com/sumitahmed/vidtube/internal/logging"
	"github.com/sumitahmed/vidtube/internal/models"
	"github.com/sumitahmed/vidtube/internal/repositories"
)

// VideoHandler implements upload, listing, and lifecycle endpoints for
// videos.
type VideoHandler struct {
	Videos VideoStore
	Media  MediaStore

	MaxUploadBytes int64
	NowFunc        func() time.Time
}

type updateVideoRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

// List handles GET /api/v1/videos. Only published videos are returned.
func (h VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	q := r.URL.Query()
	params := models.VideoListParams{
		PageRequest: parsePage(r),
		Query:       strings.TrimSpace(q.Get("query")),
		OwnerID:     strings.TrimSpace(q.Get("userId")),
		SortBy:      q.Get("sortBy"),
		SortType:    q.Get("sortType"),
	}

	videos, total, err := h.Videos.List(ctx, params)
	if err != nil {
		respondStoreError(ctx, w, err, "videos not found")
		return
	}

	respondData(ctx, w, http.StatusOK, newPagedResponse(videos, params.PageRequest, total), "videos")
}

// Publish handles POST /api/v1/videos. The video object is uploaded first;
// if the thumbnail upload fails the video object is removed again, so no
// half-published media is left behind.
func (h VideoHandler) Publish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)
	ownerID, _ := auth.UserIDFromContext(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload())
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid multipart payload")
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	description := strings.TrimSpace(r.FormValue("description"))
	if title == "" {
		respondError(ctx, w, http.StatusBadRequest, "title is required")
		return
	}
	if description == "" {
		respondError(ctx, w, http.StatusBadRequest, "description is required")
		return
	}

	duration := 0.0
	if raw := r.FormValue("duration"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed < 0 {
			respondError(ctx, w, http.StatusBadRequest, "duration must be a non-negative number")
			return
		}
		duration = parsed
	}

	videoFile, videoType, ok, err := formFile(r, "videoFile")
	if err != nil || !ok {
		respondError(ctx, w, http.StatusBadRequest, "videoFile is required")
		return
	}
	defer videoFile.Close()

	thumbFile, thumbType, ok, err := formFile(r, "thumbnail")
	if err != nil || !ok {
		respondError(ctx, w, http.StatusBadRequest, "thumbnail is required")
		return
	}
	defer thumbFile.Close()

	videoObj, err := h.Media.Save(ctx, "videos/"+uuid.NewString(), videoFile, videoType)
	if err != nil {
		logger.Error("upload video file", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to store video")
		return
	}

	thumbObj, err := h.Media.Save(ctx, "thumbnails/"+uuid.NewString(), thumbFile, thumbType)
	if err != nil {
		logger.Error("upload thumbnail", "error", err)
		h.discardMedia(ctx, videoObj.Key)
		respondError(ctx, w, http.StatusInternalServerError, "failed to store thumbnail")
		return
	}

	video := models.Video{
		ID:           uuid.NewString(),
		OwnerID:      ownerID,
		Title:        title,
		Description:  description,
		VideoURL:     videoObj.URL,
		VideoKey:     videoObj.Key,
		ThumbnailURL: thumbObj.URL,
		ThumbnailKey: thumbObj.Key,
		Duration:     duration,
		IsPublished:  true,
		CreatedAt:    h.now(),
		UpdatedAt:    h.now(),
	}

	if err := h.Videos.Create(ctx, video); err != nil {
		h.discardMedia(ctx, videoObj.Key, thumbObj.Key)
		respondStoreError(ctx, w, err, "owner not found")
		return
	}

	logger.Info("video published", "videoId", video.ID, "ownerId", ownerID)
	respondData(ctx, w, http.StatusCreated, video, "video published")
}

// Get handles GET /api/v1/videos/{videoId}. Every successful fetch counts
// one view. Unpublished videos read as missing, except for the owner, who
// sees the draft without the view counter moving.
func (h VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	videoID := chi.URLParam(r, "videoId")

	video, err := h.Videos.ViewAndGet(ctx, videoID)
	if errors.Is(err, repositories.ErrNotFound) {
		if viewerID, ok := auth.UserIDFromContext(ctx); ok {
			draft, draftErr := h.Videos.GetWithOwner(ctx, videoID)
			if draftErr == nil && draft.OwnerID == viewerID {
				respondData(ctx, w, http.StatusOK, draft, "video")
				return
			}
		}
	}
	if err != nil {
		respondStoreError(ctx, w, err, "video not found")
		return
	}

	respondData(ctx, w, http.StatusOK, video, "video")
}

// Update handles PATCH /api/v1/videos/{videoId}. Title, description, and
// thumbnail may change; a replaced thumbnail's old object is removed.
func (h VideoHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	videoID := chi.URLParam(r, "videoId")

	video, ok := h.ownedVideo(w, r, videoID)
	if !ok {
		return
	}

	oldThumbKey, newThumbKey := "", ""
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload())
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			respondError(ctx, w, http.StatusBadRequest, "invalid multipart payload")
			return
		}
		if title := strings.TrimSpace(r.FormValue("title")); title != "" {
			video.Title = title
		}
		if description := r.FormValue("description"); description != "" {
			video.Description = description
		}
		thumb, thumbType, hasThumb, err := formFile(r, "thumbnail")
		if err != nil {
			respondError(ctx, w, http.StatusBadRequest, "invalid thumbnail file")
			return
		}
		if hasThumb {
			defer thumb.Close()
			obj, err := h.Media.Save(ctx, "thumbnails/"+uuid.NewString(), thumb, thumbType)
			if err != nil {
				logging.FromContext(ctx).Error("upload thumbnail", "error", err)
				respondError(ctx, w, http.StatusInternalServerError, "failed to store thumbnail")
				return
			}
			oldThumbKey, newThumbKey = video.ThumbnailKey, obj.Key
			video.ThumbnailURL = obj.URL
			video.ThumbnailKey = obj.Key
		}
	} else {
		var req updateVideoRequest
		if err := decodeJSON(r, &req); err != nil {
			respondError(ctx, w, http.StatusBadRequest, err.Error())
			return
		}
		if req.Title != nil && strings.TrimSpace(*req.Title) != "" {
			video.Title = strings.TrimSpace(*req.Title)
		}
		if req.Description != nil {
			video.Description = *req.Description
		}
	}

	video.UpdatedAt = h.now()
	if err := h.Videos.Update(ctx, video); err != nil {
		h.discardMedia(ctx, newThumbKey)
		respondStoreError(ctx, w, err, "video not found")
		return
	}

	h.discardMedia(ctx, oldThumbKey)
	respondData(ctx, w, http.StatusOK, video, "video updated")
}

// Delete handles DELETE /api/v1/videos/{videoId}. Media objects go first;
// failures there are logged and the row is removed regardless.
func (h VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	videoID := chi.URLParam(r, "videoId")

	video, ok := h.ownedVideo(w, r, videoID)
	if !ok {
		return
	}

	h.discardMedia(ctx, video.VideoKey, video.ThumbnailKey)

	if err := h.Videos.Delete(ctx, videoID); err != nil {
		respondStoreError(ctx, w, err, "video not found")
		return
	}

	respondData(ctx, w, http.StatusOK, nil, "video deleted")
}

// TogglePublish handles PATCH /api/v1/videos/toggle/publish/{videoId}.
func (h VideoHandler) TogglePublish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	videoID := chi.URLParam(r, "videoId")

	if _, ok := h.ownedVideo(w, r, videoID); !ok {
		return
	}

	published, err := h.Videos.TogglePublish(ctx, videoID)
	if err != nil {
		respondStoreError(ctx, w, err, "video not found")
		return
	}

	respondData(ctx, w, http.StatusOK, map[string]bool{"isPublished": published}, "publish state toggled")
}

// ownedVideo loads the video and enforces that the caller owns it. It writes
// the error response itself when the check fails.
func (h VideoHandler) ownedVideo(w http.ResponseWriter, r *http.Request, videoID string) (models.Video, bool) {
	ctx := r.Context()
	userID, _ := auth.UserIDFromContext(ctx)

	video, err := h.Videos.FindByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "video not found")
		} else {
			respondStoreError(ctx, w, err, "video not found")
		}
		return models.Video{}, false
	}
	if video.OwnerID != userID {
		respondError(ctx, w, http.StatusForbidden, "not the video owner")
		return models.Video{}, false
	}
	return video, true
}

func (h VideoHandler) discardMedia(ctx context.Context, keys ...string) {
	for _, key := range keys {
		if key == "" {
			continue
		}
		if err := h.Media.Delete(ctx, key); err != nil {
			logging.FromContext(ctx).Warn("delete stored object", "key", key, "error", err)
		}
	}
}

func (h VideoHandler) maxUpload() int64 {
	if h.MaxUploadBytes > 0 {
		return h.MaxUploadBytes
	}
	return 256 << 20
}

func (h VideoHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc().UTC()
	}
	return time.Now().UTC()
}

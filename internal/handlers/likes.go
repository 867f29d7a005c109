package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sumitahmed/vidtube/internal/auth"
	"github.com/sumitahmed/vidtube/internal/models"
	"github.com/sumitahmed/vidtube/internal/repositories"
)

// LikeHandler implements like toggles across videos, comments, and tweets.
// Likes carry no foreign key to their target, so existence is checked here
// before the toggle runs.
type LikeHandler struct {
	Likes    LikeStore
	Videos   VideoStore
	Comments CommentStore
	Tweets   TweetStore
}

// ToggleVideo handles POST /api/v1/likes/toggle/v/{videoId}.
func (h LikeHandler) ToggleVideo(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, models.LikeTargetVideo, chi.URLParam(r, "videoId"), func(ctx context.Context, id string) error {
		_, err := h.Videos.FindByID(ctx, id)
		return err
	})
}

// ToggleComment handles POST /api/v1/likes/toggle/c/{commentId}.
func (h LikeHandler) ToggleComment(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, models.LikeTargetComment, chi.URLParam(r, "commentId"), func(ctx context.Context, id string) error {
		_, err := h.Comments.FindByID(ctx, id)
		return err
	})
}

// ToggleTweet handles POST /api/v1/likes/toggle/t/{tweetId}.
func (h LikeHandler) ToggleTweet(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, models.LikeTargetTweet, chi.URLParam(r, "tweetId"), func(ctx context.Context, id string) error {
		_, err := h.Tweets.FindByID(ctx, id)
		return err
	})
}

// LikedVideos handles GET /api/v1/likes/videos.
func (h LikeHandler) LikedVideos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := auth.UserIDFromContext(ctx)
	page := parsePage(r)

	videos, total, err := h.Likes.ListLikedVideos(ctx, userID, page)
	if err != nil {
		respondStoreError(ctx, w, err, "user not found")
		return
	}

	respondData(ctx, w, http.StatusOK, newPagedResponse(videos, page, total), "liked videos")
}

func (h LikeHandler) toggle(
	w http.ResponseWriter,
	r *http.Request,
	kind models.LikeTarget,
	targetID string,
	exists func(ctx context.Context, id string) error,
) {
	ctx := r.Context()
	userID, _ := auth.UserIDFromContext(ctx)

	if err := exists(ctx, targetID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, string(kind)+" not found")
			return
		}
		respondStoreError(ctx, w, err, string(kind)+" not found")
		return
	}

	liked, err := h.Likes.Toggle(ctx, userID, kind, targetID)
	if err != nil {
		respondStoreError(ctx, w, err, string(kind)+" not found")
		return
	}

	respondData(ctx, w, http.StatusOK, map[string]bool{"isLiked": liked}, "like toggled")
}

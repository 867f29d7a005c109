package handlers

import (
	"net/http"

	"github.com/sumitahmed/vidtube/internal/auth"
	"github.com/sumitahmed/vidtube/internal/models"
)

// DashboardHandler implements the channel owner's dashboard endpoints.
type DashboardHandler struct {
	Dashboard DashboardStore
}

// Stats handles GET /api/v1/dashboard/stats.
func (h DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := auth.UserIDFromContext(ctx)

	stats, err := h.Dashboard.Stats(ctx, userID)
	if err != nil {
		respondStoreError(ctx, w, err, "user not found")
		return
	}

	respondData(ctx, w, http.StatusOK, stats, "channel stats")
}

// Videos handles GET /api/v1/dashboard/videos. Drafts are included; only
// the channel owner sees this listing.
func (h DashboardHandler) Videos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := auth.UserIDFromContext(ctx)

	q := r.URL.Query()
	params := models.VideoListParams{
		PageRequest: parsePage(r),
		SortBy:      q.Get("sortBy"),
		SortType:    q.Get("sortType"),
	}

	videos, total, err := h.Dashboard.Videos(ctx, userID, params)
	if err != nil {
		respondStoreError(ctx, w, err, "user not found")
		return
	}

	respondData(ctx, w, http.StatusOK, newPagedResponse(videos, params.PageRequest, total), "channel videos")
}

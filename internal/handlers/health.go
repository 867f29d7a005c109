package handlers

import (
	"net/http"

	"github.com/sumitahmed/vidtube/internal/logging"
)

// HealthHandler responds with service health information.
type HealthHandler struct {
	DB Pinger
}

// Handle implements GET /api/v1/healthcheck.
func (h HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.DB != nil {
		if err := h.DB.Ping(ctx); err != nil {
			logging.FromContext(ctx).Error("database unreachable", "error", err)
			respondError(ctx, w, http.StatusServiceUnavailable, "database unreachable")
			return
		}
	}

	respondData(ctx, w, http.StatusOK, map[string]string{"status": "ok"}, "healthy")
}

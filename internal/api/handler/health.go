package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/kiranshivaraju/hrms/internal/api/response"
)

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewHealthHandler returns an http.HandlerFunc for GET /api/v1/health. The
// database is required; a cache outage only degrades the service.
func NewHealthHandler(db, cache Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		checks := map[string]string{"database": "ok", "cache": "ok"}
		status := "ok"
		if err := db.Ping(ctx); err != nil {
			checks["database"] = "unavailable"
			status = "unavailable"
		}
		if cache == nil {
			checks["cache"] = "disabled"
		} else if err := cache.Ping(ctx); err != nil {
			checks["cache"] = "unavailable"
			if status == "ok" {
				status = "degraded"
			}
		}

		body := map[string]any{"status": status, "checks": checks}
		if status == "unavailable" {
			response.Error(w, http.StatusServiceUnavailable, "UNAVAILABLE", "Database is unreachable", body)
			return
		}
		response.JSON(w, body)
	}
}

package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/shandysiswandi/sportsclub/internal/pkg/router"
)

type healthResponse struct {
	Database string `json:"database"`
	Redis    string `json:"redis"`
	status   int
}

func (h healthResponse) Message() string {
	if h.status != http.StatusOK {
		return "Service degraded"
	}
	return "Service healthy"
}

func (h healthResponse) StatusCode() int { return h.status }

func (a *App) health(r *router.Request) (any, error) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := healthResponse{Database: "up", Redis: "up", status: http.StatusOK}

	if err := a.dbConn.Ping(ctx); err != nil {
		slog.WarnContext(ctx, "health check database failed", "error", err)
		resp.Database, resp.status = "down", http.StatusServiceUnavailable
	}
	if err := a.cacheConn.Ping(ctx).Err(); err != nil {
		slog.WarnContext(ctx, "health check redis failed", "error", err)
		resp.Redis, resp.status = "down", http.StatusServiceUnavailable
	}

	return resp, nil
}

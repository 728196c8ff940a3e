package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Pinger is the reachability probe a dependency exposes. Both *pgxpool.Pool
// and the cache service satisfy it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandlers exposes liveness and readiness endpoints
type HealthHandlers struct {
	db    Pinger
	cache Pinger
}

func NewHealthHandlers(db, cache Pinger) *HealthHandlers {
	return &HealthHandlers{db: db, cache: cache}
}

// Health reports process liveness
func (h *HealthHandlers) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Ready reports whether the database and cache are reachable
func (h *HealthHandlers) Ready(c echo.Context) error {
	ctx := c.Request().Context()
	if h.db.Ping(ctx) != nil || h.cache.Ping(ctx) != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ready"})
}

// Detailed reports per-dependency reachability with probe latency
func (h *HealthHandlers) Detailed(c echo.Context) error {
	ctx := c.Request().Context()
	checks := map[string]string{}
	healthy := true

	start := time.Now()
	if err := h.db.Ping(ctx); err != nil {
		checks["database"] = "unreachable: " + err.Error()
		healthy = false
	} else {
		checks["database"] = "ok (" + time.Since(start).Round(time.Millisecond).String() + ")"
	}

	start = time.Now()
	if err := h.cache.Ping(ctx); err != nil {
		checks["redis"] = "unreachable: " + err.Error()
		healthy = false
	} else {
		checks["redis"] = "ok (" + time.Since(start).Round(time.Millisecond).String() + ")"
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	return c.JSON(status, checks)
}

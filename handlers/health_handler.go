package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"

	"github.com/onurcolak/unified-inbox-service/pkg/redis"
)

type dispatchState interface {
	IsBusy() bool
}

// HealthHandler handles health checks.
type HealthHandler struct {
	db           *sqlx.DB
	redis        *redis.Client
	dispatcher   dispatchState
	checkTimeout time.Duration
}

// NewHealthHandler accepts a nil redis client when Valkey is disabled.
func NewHealthHandler(db *sqlx.DB, redisClient *redis.Client, dispatcher dispatchState) *HealthHandler {
	return &HealthHandler{
		db:           db,
		redis:        redisClient,
		dispatcher:   dispatcher,
		checkTimeout: 2 * time.Second,
	}
}

// Health returns overall status and component statuses (DB, Valkey, dispatcher).
// @Summary Health check
// @Description Returns overall status with DB and Valkey connectivity and dispatcher state
// @Tags health
// @Accept json
// @Produce json
// @Success 200 {object} map[string]any
// @Router /health [get]
func (h *HealthHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.checkTimeout)
	defer cancel()

	overallStatus := "ok"

	dbStatus := "up"
	if h.db == nil {
		dbStatus = "down"
		overallStatus = "down"
	} else if err := h.db.PingContext(ctx); err != nil {
		dbStatus = "down"
		overallStatus = "down"
	}

	redisStatus := "disabled"
	if h.redis != nil {
		if err := h.redis.Ping(ctx); err != nil {
			redisStatus = "down"
			overallStatus = "degraded"
		} else {
			redisStatus = "up"
		}
	}

	dispatcherStatus := "idle"
	if h.dispatcher != nil && h.dispatcher.IsBusy() {
		dispatcherStatus = "busy"
	}

	return c.JSON(http.StatusOK, map[string]any{
		"status":    overallStatus,
		"timestamp": time.Now().Format(time.RFC3339),
		"components": map[string]any{
			"database": map[string]any{
				"status": dbStatus,
			},
			"redis": map[string]any{
				"status": redisStatus,
			},
			"dispatcher": map[string]any{
				"status": dispatcherStatus,
			},
		},
	})
}

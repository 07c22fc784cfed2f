package handlers

import (
	"context"
	"time"

	"llmdesk/internal/config"
	"llmdesk/internal/database"
	"llmdesk/internal/services"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	db    *database.DB
	redis *services.RedisService // nil when Redis is not configured
	bus   *services.EventBus
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *database.DB, redis *services.RedisService, bus *services.EventBus) *HealthHandler {
	return &HealthHandler{db: db, redis: redis, bus: bus}
}

// Handle responds with server health status
func (h *HealthHandler) Handle(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	status := "healthy"
	code := fiber.StatusOK

	dbStatus := "ok"
	if err := h.db.PingContext(ctx); err != nil {
		dbStatus = "unreachable"
		status = "unhealthy"
		code = fiber.StatusServiceUnavailable
	}

	redisStatus := "disabled"
	if h.redis != nil {
		redisStatus = "ok"
		if err := h.redis.Ping(ctx); err != nil {
			redisStatus = "unreachable"
			if status == "healthy" {
				status = "degraded"
			}
		}
	}

	return c.Status(code).JSON(fiber.Map{
		"status":      status,
		"version":     config.Version,
		"database":    dbStatus,
		"dialect":     h.db.Dialect(),
		"redis":       redisStatus,
		"subscribers": h.bus.SubscriberCount(),
		"timestamp":   time.Now().Format(time.RFC3339),
	})
}

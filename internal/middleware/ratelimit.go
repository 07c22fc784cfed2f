package middleware

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// RateLimitConfig holds rate limiting settings
type RateLimitConfig struct {
	// Bridge calls (per IP)
	BridgeMax        int
	BridgeExpiration time.Duration

	// WebSocket connection attempts (per IP)
	WebSocketMax        int
	WebSocketExpiration time.Duration
}

// NewRateLimitConfig derives limits from server.rate_limit_per_min.
// Zero or negative disables bridge limiting.
func NewRateLimitConfig(perMinute int) *RateLimitConfig {
	wsMax := perMinute / 10
	if wsMax < 10 {
		wsMax = 10
	}
	return &RateLimitConfig{
		BridgeMax:           perMinute,
		BridgeExpiration:    1 * time.Minute,
		WebSocketMax:        wsMax,
		WebSocketExpiration: 1 * time.Minute,
	}
}

// BridgeRateLimiter limits bridge calls per client IP
func BridgeRateLimiter(config *RateLimitConfig) fiber.Handler {
	if config.BridgeMax <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return limiter.New(limiter.Config{
		Max:        config.BridgeMax,
		Expiration: config.BridgeExpiration,
		KeyGenerator: func(c *fiber.Ctx) string {
			return "bridge:" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			log.Printf("🚫 [RATE-LIMIT] Bridge limit reached for IP: %s", c.IP())
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       "Too many requests. Please slow down.",
				"retry_after": int(config.BridgeExpiration.Seconds()),
			})
		},
	})
}

// WebSocketRateLimiter for WebSocket connection attempts
func WebSocketRateLimiter(config *RateLimitConfig) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        config.WebSocketMax,
		Expiration: config.WebSocketExpiration,
		KeyGenerator: func(c *fiber.Ctx) string {
			return "ws:" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			log.Printf("🚫 [RATE-LIMIT] WebSocket connection limit reached for IP: %s", c.IP())
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       "Too many connection attempts. Please wait before reconnecting.",
				"retry_after": int(config.WebSocketExpiration.Seconds()),
			})
		},
	})
}

package server

import (
	"log"
	"strings"
	"sync"
	"time"

	"llmdesk/internal/bridge"
	"llmdesk/internal/config"
	"llmdesk/internal/database"
	"llmdesk/internal/handlers"
	"llmdesk/internal/middleware"
	"llmdesk/internal/services"
	"llmdesk/pkg/auth"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// Deps are the wired components the HTTP surface needs
type Deps struct {
	Config   *config.AppConfig
	Registry *bridge.Registry
	DB       *database.DB
	Redis    *services.RedisService // optional
	Events   *services.EventBus
	JWTAuth  *auth.LocalJWTAuth // nil disables authentication
	Metrics  *services.Metrics  // optional
	Quiet    bool               // skip the request logger
}

var (
	prometheusMiddleware *fiberprometheus.FiberPrometheus
	prometheusOnce       sync.Once
)

// sharedPrometheus returns the process-wide middleware; its collectors live in the default registry
func sharedPrometheus() *fiberprometheus.FiberPrometheus {
	prometheusOnce.Do(func() {
		prometheusMiddleware = fiberprometheus.New("llmdesk")
	})
	return prometheusMiddleware
}

// New builds the Fiber app serving the bridge, event stream, health and metrics
func New(d Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               d.Config.AppName + " " + config.Version,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
		IdleTimeout:           120 * time.Second,
		BodyLimit:             4 * 1024 * 1024,
		DisableStartupMessage: true,
	})

	// Middleware
	app.Use(recover.New())
	if !d.Quiet {
		app.Use(logger.New())
	}

	// Prometheus metrics middleware
	prometheus := sharedPrometheus()
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)

	allowedOrigins := d.Config.Server.AllowedOrigins
	if allowedOrigins == "" {
		allowedOrigins = "*"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization",
		AllowCredentials: allowedOrigins != "*",
	}))

	rateLimitConfig := middleware.NewRateLimitConfig(d.Config.Server.RateLimitPerMin)

	healthHandler := handlers.NewHealthHandler(d.DB, d.Redis, d.Events)
	bridgeHandler := handlers.NewBridgeHandler(d.Registry, d.Metrics)
	eventsHandler := handlers.NewEventsWebSocketHandler(d.Events, d.Metrics)

	app.Get("/health", healthHandler.Handle)

	api := app.Group("/api/bridge",
		middleware.BridgeRateLimiter(rateLimitConfig),
		middleware.LocalAuthMiddleware(d.JWTAuth),
	)
	api.Post("/call", bridgeHandler.Call)
	api.Get("/methods", bridgeHandler.Methods)

	// WebSocket route (requires auth)
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	wsConfig := websocket.Config{}
	if allowedOrigins != "*" {
		wsConfig.Origins = strings.Split(allowedOrigins, ",")
	}
	app.Use("/ws/events", middleware.WebSocketRateLimiter(rateLimitConfig))
	app.Use("/ws/events", middleware.LocalAuthMiddleware(d.JWTAuth))
	app.Get("/ws/events", websocket.New(eventsHandler.Handle, wsConfig))

	if d.JWTAuth == nil {
		log.Println("⚠️  [SECURITY] Bridge authentication disabled (server.auth_enabled: false)")
	}
	log.Printf("🔒 [SECURITY] CORS allowed origins: %s", allowedOrigins)

	return app
}

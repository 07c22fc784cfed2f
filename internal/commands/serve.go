package commands

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"llmdesk/internal/app"
	"llmdesk/internal/bridge"
	"llmdesk/internal/config"
	"llmdesk/internal/crypto"
	"llmdesk/internal/database"
	"llmdesk/internal/jobs"
	"llmdesk/internal/logging"
	"llmdesk/internal/models"
	"llmdesk/internal/preflight"
	"llmdesk/internal/server"
	"llmdesk/internal/services"
	"llmdesk/pkg/auth"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bridge server",
	Long: `Start the local bridge server the desktop UI talks to.

Serves the bound App methods on POST /api/bridge/call, change events on
/ws/events, plus /health and /metrics.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	// Load .env file if present
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  No .env file found or error loading it: %v", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logging.Init(cfg.Log.Level, cfg.Log.Format, cfg.Environment)
	log.Printf("🚀 Starting %s %s (%s)", cfg.AppName, config.Version, cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := db.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	// Run preflight checks
	checker := preflight.NewChecker(db, cfg.DataDir)
	if preflight.HasFailures(checker.RunAll(ctx)) {
		return fmt.Errorf("pre-flight checks failed")
	}

	// API key encryption
	masterKey, err := crypto.LoadOrCreateKeyFile(cfg.Encryption.KeyFile)
	if err != nil {
		return fmt.Errorf("failed to load encryption key: %w", err)
	}
	encryption, err := crypto.NewEncryptionService(masterKey)
	if err != nil {
		return fmt.Errorf("failed to initialize encryption: %w", err)
	}
	log.Println("✅ Encryption service initialized")

	// Event bus, mirrored over Redis when configured
	bus := services.NewEventBus(cfg.InstanceID)
	defer bus.Close()

	var redisService *services.RedisService
	if cfg.RedisURL != "" {
		redisService, err = services.NewRedisService(ctx, cfg.RedisURL)
		if err != nil {
			log.Printf("⚠️  Redis unavailable, events stay local: %v", err)
			redisService = nil
		} else {
			defer redisService.Close()
			if err := bus.AttachRedis(ctx, redisService); err != nil {
				log.Printf("⚠️  Failed to mirror events over Redis: %v", err)
			}
		}
	}

	metrics := services.InitMetrics()

	// Services
	configService := services.NewConfigService(cfg)
	modelService := services.NewCloudLLMModelService(db, encryption, configService, bus)
	settingsService := services.NewSettingsService(db, bus)

	bound := app.New(modelService, settingsService, configService)
	bound.Startup(ctx)
	defer bound.Shutdown(context.Background())

	var jwtAuth *auth.LocalJWTAuth
	if cfg.Server.AuthEnabled {
		jwtAuth, err = localJWTAuth(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize bridge auth: %w", err)
		}
	}

	fiberApp := server.New(server.Deps{
		Config:   cfg,
		Registry: bridge.Bind(bound),
		DB:       db,
		Redis:    redisService,
		Events:   bus,
		JWTAuth:  jwtAuth,
		Metrics:  metrics,
	})

	// Background jobs
	scheduler, err := jobs.NewDefault(cfg.Jobs, db, modelService, redisService, metrics, cfg.InstanceID)
	if err != nil {
		return fmt.Errorf("failed to create job scheduler: %w", err)
	}
	scheduler.Start()
	if err := scheduler.RunNow(ctx, jobs.JobModelStats); err != nil {
		log.Printf("⚠️  Initial model stats refresh failed: %v", err)
	}

	// Hot-reload config.yaml; listen address and database changes need a restart
	if err := config.Watch(ctx, cfg.DataDir, func(next *config.AppConfig) {
		configService.Update(next)
		logging.Init(next.Log.Level, next.Log.Format, next.Environment)
		bus.Publish(context.Background(), models.ChangeEvent{Type: models.EventConfigReloaded})
	}); err != nil {
		log.Printf("⚠️  Config hot reload disabled: %v", err)
	}

	// Handle graceful shutdown
	go func() {
		<-ctx.Done()
		log.Println("🛑 Shutting down server...")

		if err := scheduler.Stop(); err != nil {
			log.Printf("⚠️ Error stopping scheduler: %v", err)
		}
		if err := fiberApp.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("⚠️ Error shutting down server: %v", err)
		}
	}()

	log.Printf("✅ Bridge server listening on %s", cfg.BaseURL())
	if err := fiberApp.Listen(cfg.Addr()); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

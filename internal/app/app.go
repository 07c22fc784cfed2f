package app

import (
	"context"
	"log"
	"sync"
	"time"

	"llmdesk/internal/config"
	"llmdesk/internal/models"
	"llmdesk/internal/services"
)

// DefaultCallTimeout bounds every bound method
const DefaultCallTimeout = 15 * time.Second

// App is the surface bound to the desktop UI. Every exported method except
// the lifecycle hooks is callable as main.App.<Method> through the bridge.
type App struct {
	mu  sync.RWMutex
	ctx context.Context

	models        *services.CloudLLMModelService
	settings      *services.SettingsService
	configService *services.ConfigService

	callTimeout time.Duration
}

// New creates the bound application
func New(modelService *services.CloudLLMModelService, settingsService *services.SettingsService, configService *services.ConfigService) *App {
	return &App{
		ctx:           context.Background(),
		models:        modelService,
		settings:      settingsService,
		configService: configService,
		callTimeout:   DefaultCallTimeout,
	}
}

// SetCallTimeout overrides DefaultCallTimeout
func (a *App) SetCallTimeout(d time.Duration) {
	if d > 0 {
		a.callTimeout = d
	}
}

// Startup stores the context that bound calls derive from
func (a *App) Startup(ctx context.Context) {
	a.mu.Lock()
	a.ctx = ctx
	a.mu.Unlock()

	cfg := a.configService.Get()
	log.Printf("🚀 [APP] %s %s started (instance %s)", cfg.AppName, cfg.Version, cfg.InstanceID)
}

// Shutdown is called once the transport has stopped accepting calls
func (a *App) Shutdown(ctx context.Context) {
	log.Println("👋 [APP] Shutting down")
}

func (a *App) callContext() (context.Context, context.CancelFunc) {
	a.mu.RLock()
	parent := a.ctx
	a.mu.RUnlock()
	return context.WithTimeout(parent, a.callTimeout)
}

// CreateCloudLLMModel stores a new cloud model
func (a *App) CreateCloudLLMModel(model models.CloudLLMModel) error {
	ctx, cancel := a.callContext()
	defer cancel()
	return a.models.Create(ctx, &model)
}

// DeleteCloudLLMModel removes a cloud model
func (a *App) DeleteCloudLLMModel(id int64) error {
	ctx, cancel := a.callContext()
	defer cancel()
	return a.models.Delete(ctx, id)
}

// GetAppConfig returns the running configuration with credentials redacted
func (a *App) GetAppConfig() (*config.AppConfig, error) {
	return a.configService.Get().Redacted(), nil
}

// GetCloudLLMModelByID returns a single cloud model
func (a *App) GetCloudLLMModelByID(id int64) (*models.CloudLLMModel, error) {
	ctx, cancel := a.callContext()
	defer cancel()
	return a.models.GetByID(ctx, id)
}

// GetCloudLLMModels returns one page of cloud models
func (a *App) GetCloudLLMModels(page int, pageSize int) (*services.CloudLLMModelPageResult, error) {
	ctx, cancel := a.callContext()
	defer cancel()
	return a.models.List(ctx, page, pageSize)
}

// GetSetting returns a setting, or "" when it was never set
func (a *App) GetSetting(key string) (string, error) {
	ctx, cancel := a.callContext()
	defer cancel()
	return a.settings.Get(ctx, key)
}

// SetSetting stores a setting
func (a *App) SetSetting(key string, value string) error {
	ctx, cancel := a.callContext()
	defer cancel()
	return a.settings.Set(ctx, key, value)
}

// ToggleCloudLLMModelEnabled enables or disables a cloud model
func (a *App) ToggleCloudLLMModelEnabled(id int64, enabled bool) error {
	ctx, cancel := a.callContext()
	defer cancel()
	return a.models.ToggleEnabled(ctx, id, enabled)
}

// UpdateCloudLLMModel replaces a cloud model's editable fields
func (a *App) UpdateCloudLLMModel(model models.CloudLLMModel) error {
	ctx, cancel := a.callContext()
	defer cancel()
	return a.models.Update(ctx, &model)
}

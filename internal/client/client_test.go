package client

import (
	"context"
	"errors"
	"net"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"llmdesk/internal/app"
	"llmdesk/internal/bridge"
	"llmdesk/internal/config"
	"llmdesk/internal/database"
	"llmdesk/internal/models"
	"llmdesk/internal/server"
	"llmdesk/internal/services"
	"llmdesk/pkg/auth"

	"golang.org/x/time/rate"
)

// startTestServer runs the full HTTP stack on a loopback port and returns
// its base URL and a valid token
func startTestServer(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default(dir)
	cfg.InstanceID = "client-test"

	db, err := database.New(filepath.Join(dir, "client_test.db"))
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Initialize(); err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}

	configService := services.NewConfigService(cfg)
	bound := app.New(
		services.NewCloudLLMModelService(db, nil, configService, nil),
		services.NewSettingsService(db, nil),
		configService,
	)
	bound.Startup(context.Background())

	jwtAuth, err := auth.NewLocalJWTAuth("client-test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewLocalJWTAuth failed: %v", err)
	}
	token, _, err := jwtAuth.GenerateToken("client-test")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	fiberApp := server.New(server.Deps{
		Config:   cfg,
		Registry: bridge.Bind(bound),
		DB:       db,
		JWTAuth:  jwtAuth,
		Quiet:    true,
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}
	go fiberApp.Listener(ln)
	t.Cleanup(func() { fiberApp.Shutdown() })

	return "http://" + ln.Addr().String(), token
}

func TestClient_AllOperations(t *testing.T) {
	baseURL, token := startTestServer(t)
	c := New(baseURL, WithToken(token))
	ctx := context.Background()

	cfg, err := c.GetAppConfig(ctx)
	if err != nil {
		t.Fatalf("GetAppConfig failed: %v", err)
	}
	if cfg.InstanceID != "client-test" {
		t.Errorf("Unexpected instance id %s", cfg.InstanceID)
	}

	err = c.CreateCloudLLMModel(ctx, models.CloudLLMModel{
		Name:      "GPT-4.1",
		Provider:  models.ProviderOpenAI,
		BaseURL:   "https://api.openai.com/v1",
		APIKey:    "sk-client-test-0000000000",
		ModelName: "gpt-4.1",
		Enabled:   true,
	})
	if err != nil {
		t.Fatalf("CreateCloudLLMModel failed: %v", err)
	}

	page, err := c.GetCloudLLMModels(ctx, 1, 10)
	if err != nil {
		t.Fatalf("GetCloudLLMModels failed: %v", err)
	}
	if page.Total != 1 || len(page.Items) != 1 {
		t.Fatalf("Expected one model, got %+v", page)
	}
	id := page.Items[0].ID

	m, err := c.GetCloudLLMModelByID(ctx, id)
	if err != nil {
		t.Fatalf("GetCloudLLMModelByID failed: %v", err)
	}
	m.MaxTokens = 2048
	if err := c.UpdateCloudLLMModel(ctx, *m); err != nil {
		t.Fatalf("UpdateCloudLLMModel failed: %v", err)
	}
	if m, err = c.GetCloudLLMModelByID(ctx, id); err != nil || m.MaxTokens != 2048 {
		t.Errorf("Expected update round trip, got %+v (%v)", m, err)
	}

	if err := c.ToggleCloudLLMModelEnabled(ctx, id, false); err != nil {
		t.Fatalf("ToggleCloudLLMModelEnabled failed: %v", err)
	}

	if err := c.SetSetting(ctx, models.SettingKeyDefaultModelID, "1"); err != nil {
		t.Fatalf("SetSetting failed: %v", err)
	}
	value, err := c.GetSetting(ctx, models.SettingKeyDefaultModelID)
	if err != nil {
		t.Fatalf("GetSetting failed: %v", err)
	}
	if value != "1" {
		t.Errorf("Expected 1, got %q", value)
	}
	if value, err = c.GetSetting(ctx, "never.set"); err != nil || value != "" {
		t.Errorf("Expected empty value for unset key, got %q (%v)", value, err)
	}

	if err := c.DeleteCloudLLMModel(ctx, id); err != nil {
		t.Fatalf("DeleteCloudLLMModel failed: %v", err)
	}

	methods, err := c.Methods(ctx)
	if err != nil {
		t.Fatalf("Methods failed: %v", err)
	}
	if len(methods) != 9 {
		t.Errorf("Expected 9 methods, got %d", len(methods))
	}
}

func TestClient_RemoteErrors(t *testing.T) {
	baseURL, token := startTestServer(t)
	c := New(baseURL, WithToken(token))
	ctx := context.Background()

	_, err := c.GetCloudLLMModelByID(ctx, 404)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	var remote *RemoteError
	if !errors.As(err, &remote) || remote.Status != 404 {
		t.Errorf("Expected *RemoteError with status 404, got %v", err)
	}

	if err := c.SetSetting(ctx, "", "x"); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument, got %v", err)
	}

	dup := models.CloudLLMModel{Name: "dup", Provider: "custom", ModelName: "m"}
	if err := c.CreateCloudLLMModel(ctx, dup); err != nil {
		t.Fatalf("CreateCloudLLMModel failed: %v", err)
	}
	if err := c.CreateCloudLLMModel(ctx, dup); !errors.Is(err, ErrConflict) {
		t.Errorf("Expected ErrConflict, got %v", err)
	}

	if err := c.Call(ctx, "main.App.SelfDestruct", nil); errors.Is(err, ErrNotFound) {
		t.Errorf("Unknown method must not match ErrNotFound, got %v", err)
	}
}

func TestClient_Unauthorized(t *testing.T) {
	baseURL, _ := startTestServer(t)
	c := New(baseURL, WithToken("not-a-token"))

	_, err := c.GetSetting(context.Background(), models.SettingKeyTheme)
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Expected ErrUnauthorized, got %v", err)
	}
	if _, err := c.Methods(context.Background()); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Methods: expected ErrUnauthorized, got %v", err)
	}
}

func TestClient_ConcurrentCalls(t *testing.T) {
	baseURL, token := startTestServer(t)
	c := New(baseURL, WithToken(token))
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := c.SetSetting(ctx, models.SettingKeyTheme, "dark"); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("Concurrent SetSetting failed: %v", err)
	}
}

func TestClient_ContextCancellation(t *testing.T) {
	baseURL, token := startTestServer(t)
	c := New(baseURL, WithToken(token), WithRateLimit(rate.Every(time.Hour), 1))

	if _, err := c.GetSetting(context.Background(), models.SettingKeyTheme); err != nil {
		t.Fatalf("First call failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := c.GetSetting(ctx, models.SettingKeyTheme); err == nil {
		t.Error("Expected the rate-limited call to fail once the context expires")
	}
}

package app

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"llmdesk/internal/config"
	"llmdesk/internal/database"
	"llmdesk/internal/models"
	"llmdesk/internal/services"
)

func setupTestApp(t *testing.T) *App {
	t.Helper()
	dir := t.TempDir()

	db, err := database.New(filepath.Join(dir, "app_test.db"))
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Initialize(); err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}

	cfg := config.Default(dir)
	cfg.InstanceID = "app-test"
	cfg.RedisURL = "redis://:secret@localhost:6379/0"
	configService := services.NewConfigService(cfg)

	a := New(
		services.NewCloudLLMModelService(db, nil, configService, nil),
		services.NewSettingsService(db, nil),
		configService,
	)
	a.Startup(context.Background())
	return a
}

func TestApp_ModelRoundTrip(t *testing.T) {
	a := setupTestApp(t)

	err := a.CreateCloudLLMModel(models.CloudLLMModel{
		Name:      "DeepSeek Chat",
		Provider:  models.ProviderDeepSeek,
		BaseURL:   "https://api.deepseek.com",
		ModelName: "deepseek-chat",
		Enabled:   true,
	})
	if err != nil {
		t.Fatalf("CreateCloudLLMModel failed: %v", err)
	}

	page, err := a.GetCloudLLMModels(1, 10)
	if err != nil {
		t.Fatalf("GetCloudLLMModels failed: %v", err)
	}
	if page.Total != 1 || len(page.Items) != 1 {
		t.Fatalf("Expected one model, got %+v", page)
	}
	id := page.Items[0].ID

	m, err := a.GetCloudLLMModelByID(id)
	if err != nil {
		t.Fatalf("GetCloudLLMModelByID failed: %v", err)
	}
	m.Description = "updated"
	if err := a.UpdateCloudLLMModel(*m); err != nil {
		t.Fatalf("UpdateCloudLLMModel failed: %v", err)
	}

	m, err = a.GetCloudLLMModelByID(id)
	if err != nil {
		t.Fatalf("GetCloudLLMModelByID failed: %v", err)
	}
	if m.Description != "updated" {
		t.Errorf("Expected update to be visible, got %q", m.Description)
	}

	if err := a.ToggleCloudLLMModelEnabled(id, false); err != nil {
		t.Fatalf("ToggleCloudLLMModelEnabled failed: %v", err)
	}
	if m, _ = a.GetCloudLLMModelByID(id); m.Enabled {
		t.Error("Expected model to be disabled")
	}

	if err := a.DeleteCloudLLMModel(id); err != nil {
		t.Fatalf("DeleteCloudLLMModel failed: %v", err)
	}
	if _, err := a.GetCloudLLMModelByID(id); !errors.Is(err, services.ErrModelNotFound) {
		t.Errorf("Expected ErrModelNotFound after delete, got %v", err)
	}
}

func TestApp_Settings(t *testing.T) {
	a := setupTestApp(t)

	value, err := a.GetSetting(models.SettingKeyLanguage)
	if err != nil {
		t.Fatalf("GetSetting failed: %v", err)
	}
	if value != "" {
		t.Errorf("Expected empty value, got %q", value)
	}

	if err := a.SetSetting(models.SettingKeyLanguage, "de"); err != nil {
		t.Fatalf("SetSetting failed: %v", err)
	}
	if value, _ = a.GetSetting(models.SettingKeyLanguage); value != "de" {
		t.Errorf("Expected de, got %q", value)
	}

	if err := a.SetSetting("", "x"); !errors.Is(err, services.ErrInvalidSettingKey) {
		t.Errorf("Expected ErrInvalidSettingKey, got %v", err)
	}
}

func TestApp_GetAppConfigIsRedacted(t *testing.T) {
	a := setupTestApp(t)

	cfg, err := a.GetAppConfig()
	if err != nil {
		t.Fatalf("GetAppConfig failed: %v", err)
	}
	if cfg.InstanceID != "app-test" {
		t.Errorf("Unexpected instance id %s", cfg.InstanceID)
	}
	if strings.Contains(cfg.RedisURL, "secret") {
		t.Errorf("Redis password leaked: %s", cfg.RedisURL)
	}
}

func TestApp_CancelledStartupContext(t *testing.T) {
	a := setupTestApp(t)

	ctx, cancel := context.WithCancel(context.Background())
	a.Startup(ctx)
	cancel()

	if _, err := a.GetCloudLLMModels(1, 10); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{" error ", slog.LevelError},
		{"verbose", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestResolveFormat(t *testing.T) {
	tests := []struct {
		format      string
		environment string
		want        string
	}{
		{"", "production", "json"},
		{"", "Production", "json"},
		{"", "development", "text"},
		{"", "", "text"},
		{"text", "production", "text"},
		{"JSON", "development", "json"},
		{"unknown", "testing", "text"},
	}

	for _, tt := range tests {
		if got := ResolveFormat(tt.format, tt.environment); got != tt.want {
			t.Errorf("ResolveFormat(%q, %q) = %q, want %q", tt.format, tt.environment, got, tt.want)
		}
	}
}

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "info", "json")
	logger.Info("model created", "model_id", 7)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Expected JSON output, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "model created" {
		t.Errorf("Unexpected msg %v", entry["msg"])
	}
	if entry["model_id"] != float64(7) {
		t.Errorf("Unexpected model_id %v", entry["model_id"])
	}
}

func TestNew_TextFormatFiltersLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "warn", "text")
	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("Info line should be filtered at warn level")
	}
	if !strings.Contains(out, "msg=shown") {
		t.Errorf("Expected text output with warn line, got %q", out)
	}
}

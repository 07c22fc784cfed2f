package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"llmdesk/pkg/auth"

	"github.com/gofiber/fiber/v2"
)

func newAuthApp(t *testing.T, jwtAuth *auth.LocalJWTAuth) *fiber.App {
	t.Helper()
	app := fiber.New()
	app.Use(LocalAuthMiddleware(jwtAuth))
	app.Get("/whoami", func(c *fiber.Ctx) error {
		return c.SendString(c.Locals("subject").(string))
	})
	return app
}

func TestLocalAuthMiddleware(t *testing.T) {
	jwtAuth, err := auth.NewLocalJWTAuth("middleware-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewLocalJWTAuth failed: %v", err)
	}
	token, _, err := jwtAuth.GenerateToken("desktop")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	app := newAuthApp(t, jwtAuth)

	tests := []struct {
		name   string
		target string
		header string
		status int
	}{
		{"missing token", "/whoami", "", fiber.StatusUnauthorized},
		{"bad token", "/whoami", "Bearer nope", fiber.StatusUnauthorized},
		{"wrong scheme", "/whoami", "Basic " + token, fiber.StatusUnauthorized},
		{"bearer header", "/whoami", "Bearer " + token, fiber.StatusOK},
		{"query token", "/whoami?token=" + token, "", fiber.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("Failed to send request: %v", err)
			}
			if resp.StatusCode != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, resp.StatusCode)
			}
		})
	}
}

func TestLocalAuthMiddleware_Disabled(t *testing.T) {
	app := newAuthApp(t, nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/whoami", nil))
	if err != nil {
		t.Fatalf("Failed to send request: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("Expected 200 with auth disabled, got %d", resp.StatusCode)
	}
}

func TestBridgeRateLimiter(t *testing.T) {
	app := fiber.New()
	app.Use(BridgeRateLimiter(NewRateLimitConfig(2)))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	for i, want := range []int{fiber.StatusOK, fiber.StatusOK, fiber.StatusTooManyRequests} {
		resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
		if err != nil {
			t.Fatalf("Failed to send request: %v", err)
		}
		if resp.StatusCode != want {
			t.Errorf("Request %d: expected %d, got %d", i+1, want, resp.StatusCode)
		}
	}
}

func TestBridgeRateLimiter_Disabled(t *testing.T) {
	app := fiber.New()
	app.Use(BridgeRateLimiter(NewRateLimitConfig(0)))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	for i := 0; i < 5; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
		if err != nil {
			t.Fatalf("Failed to send request: %v", err)
		}
		if resp.StatusCode != fiber.StatusOK {
			t.Fatalf("Request %d limited with limiting disabled", i+1)
		}
	}
}

func TestNewRateLimitConfig(t *testing.T) {
	cfg := NewRateLimitConfig(600)
	if cfg.BridgeMax != 600 || cfg.WebSocketMax != 60 {
		t.Errorf("Unexpected limits: %+v", cfg)
	}
	if low := NewRateLimitConfig(20); low.WebSocketMax != 10 {
		t.Errorf("Expected websocket floor of 10, got %d", low.WebSocketMax)
	}
}

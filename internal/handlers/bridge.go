package handlers

import (
	"encoding/json"
	"log"
	"time"

	"llmdesk/internal/bridge"
	"llmdesk/internal/logging"
	"llmdesk/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// CallRequest is one bound-method invocation
type CallRequest struct {
	ID   string            `json:"id"`
	Name string            `json:"name"`
	Args []json.RawMessage `json:"args"`
}

// CallResponse carries either a result or an error, never both
type CallResponse struct {
	ID     string            `json:"id"`
	Result any               `json:"result,omitempty"`
	Error  *bridge.CallError `json:"error,omitempty"`
}

// BridgeHandler dispatches bridge calls to the bound App
type BridgeHandler struct {
	registry *bridge.Registry
	metrics  *services.Metrics
}

// NewBridgeHandler creates a new bridge handler. metrics may be nil.
func NewBridgeHandler(registry *bridge.Registry, metrics *services.Metrics) *BridgeHandler {
	return &BridgeHandler{registry: registry, metrics: metrics}
}

// Call handles POST /api/bridge/call
func (h *BridgeHandler) Call(c *fiber.Ctx) error {
	var req CallRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(CallResponse{
			Error: &bridge.CallError{Code: bridge.CodeBadArguments, Message: "Invalid request body"},
		})
	}
	if req.ID == "" {
		req.ID = uuid.New().String()
	}
	if req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(CallResponse{
			ID:    req.ID,
			Error: &bridge.CallError{Code: bridge.CodeBadArguments, Message: "Method name is required"},
		})
	}

	start := time.Now()
	result, err := h.registry.Call(req.Name, req.Args)
	elapsed := time.Since(start).Seconds()

	if err != nil {
		code, status := bridge.Classify(err)
		if h.registry.Has(req.Name) {
			h.metrics.RecordBridgeCall(bridge.ShortName(req.Name), code, elapsed)
		}
		if status >= fiber.StatusInternalServerError {
			log.Printf("❌ [BRIDGE] %s failed: %v", req.Name, err)
		}
		return c.Status(status).JSON(CallResponse{ID: req.ID, Error: bridge.NewCallError(err)})
	}

	h.metrics.RecordBridgeCall(bridge.ShortName(req.Name), "ok", elapsed)
	logging.WithCall(req.ID, req.Name).Debug("bridge call completed", "duration_ms", time.Since(start).Milliseconds())
	return c.JSON(CallResponse{ID: req.ID, Result: result})
}

// Methods handles GET /api/bridge/methods
func (h *BridgeHandler) Methods(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"methods": h.registry.Methods(),
	})
}

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"llmdesk/internal/bridge"
	"llmdesk/internal/config"
	"llmdesk/internal/models"
	"llmdesk/internal/services"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrConflict        = errors.New("conflict")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrRateLimited     = errors.New("rate limited")
)

// RemoteError is a failure reported by the server
type RemoteError struct {
	Method  string
	Status  int
	Code    string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", bridge.ShortName(e.Method), e.Message, e.Code)
}

// Is lets callers match remote failures with errors.Is
func (e *RemoteError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Code == bridge.CodeNotFound
	case ErrInvalidArgument:
		return e.Code == bridge.CodeInvalidArgument || e.Code == bridge.CodeBadArguments
	case ErrConflict:
		return e.Code == bridge.CodeConflict
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrRateLimited:
		return e.Status == http.StatusTooManyRequests
	}
	return false
}

// Client calls the bound App operations over the bridge server.
// Calls are independent; no ordering is guaranteed between concurrent calls.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// Option configures a Client
type Option func(*Client)

// WithToken sets the bearer token sent with every call
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRateLimit throttles outgoing calls client-side
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(limit, burst) }
}

// New creates a client for the server at baseURL (http://127.0.0.1:34115)
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type callRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Args []any  `json:"args"`
}

type callResponse struct {
	ID     string            `json:"id"`
	Result json.RawMessage   `json:"result"`
	Error  *bridge.CallError `json:"error"`
}

// Call invokes a bound method by qualified name and decodes its result into
// out, which may be nil for methods without a result
func (c *Client) Call(ctx context.Context, method string, out any, args ...any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	if args == nil {
		args = []any{}
	}

	body, err := json.Marshal(callRequest{ID: uuid.New().String(), Name: method, Args: args})
	if err != nil {
		return fmt.Errorf("failed to encode call: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/bridge/call", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s: %w", method, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var parsed callResponse
	if err := json.Unmarshal(data, &parsed); err != nil || (resp.StatusCode != http.StatusOK && parsed.Error == nil) {
		return &RemoteError{Method: method, Status: resp.StatusCode, Code: transportCode(resp.StatusCode), Message: transportMessage(data, resp.Status)}
	}
	if parsed.Error != nil {
		return &RemoteError{Method: method, Status: resp.StatusCode, Code: parsed.Error.Code, Message: parsed.Error.Message}
	}

	if out == nil || len(parsed.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(parsed.Result, out); err != nil {
		return fmt.Errorf("failed to decode %s result: %w", method, err)
	}
	return nil
}

// Methods lists the operations the server binds
func (c *Client) Methods(ctx context.Context) ([]bridge.MethodInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/bridge/methods", nil)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to list methods: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return nil, &RemoteError{Method: "methods", Status: resp.StatusCode, Code: transportCode(resp.StatusCode), Message: transportMessage(data, resp.Status)}
	}

	var result struct {
		Methods []bridge.MethodInfo `json:"methods"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode methods: %w", err)
	}
	return result.Methods, nil
}

func transportCode(status int) string {
	switch status {
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusTooManyRequests:
		return "rate_limited"
	case http.StatusNotFound:
		return bridge.CodeNotFound
	default:
		return bridge.CodeInternal
	}
}

// transportMessage pulls {"error": "..."} out of middleware responses
func transportMessage(data []byte, fallback string) string {
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &body) == nil && body.Error != "" {
		return body.Error
	}
	return fallback
}

// CreateCloudLLMModel calls main.App.CreateCloudLLMModel
func (c *Client) CreateCloudLLMModel(ctx context.Context, model models.CloudLLMModel) error {
	return c.Call(ctx, bridge.Prefix+"CreateCloudLLMModel", nil, model)
}

// DeleteCloudLLMModel calls main.App.DeleteCloudLLMModel
func (c *Client) DeleteCloudLLMModel(ctx context.Context, id int64) error {
	return c.Call(ctx, bridge.Prefix+"DeleteCloudLLMModel", nil, id)
}

// GetAppConfig calls main.App.GetAppConfig
func (c *Client) GetAppConfig(ctx context.Context) (*config.AppConfig, error) {
	var cfg config.AppConfig
	if err := c.Call(ctx, bridge.Prefix+"GetAppConfig", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// GetCloudLLMModelByID calls main.App.GetCloudLLMModelByID
func (c *Client) GetCloudLLMModelByID(ctx context.Context, id int64) (*models.CloudLLMModel, error) {
	var m models.CloudLLMModel
	if err := c.Call(ctx, bridge.Prefix+"GetCloudLLMModelByID", &m, id); err != nil {
		return nil, err
	}
	return &m, nil
}

// GetCloudLLMModels calls main.App.GetCloudLLMModels
func (c *Client) GetCloudLLMModels(ctx context.Context, page, pageSize int) (*services.CloudLLMModelPageResult, error) {
	var result services.CloudLLMModelPageResult
	if err := c.Call(ctx, bridge.Prefix+"GetCloudLLMModels", &result, page, pageSize); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetSetting calls main.App.GetSetting
func (c *Client) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	if err := c.Call(ctx, bridge.Prefix+"GetSetting", &value, key); err != nil {
		return "", err
	}
	return value, nil
}

// SetSetting calls main.App.SetSetting
func (c *Client) SetSetting(ctx context.Context, key, value string) error {
	return c.Call(ctx, bridge.Prefix+"SetSetting", nil, key, value)
}

// ToggleCloudLLMModelEnabled calls main.App.ToggleCloudLLMModelEnabled
func (c *Client) ToggleCloudLLMModelEnabled(ctx context.Context, id int64, enabled bool) error {
	return c.Call(ctx, bridge.Prefix+"ToggleCloudLLMModelEnabled", nil, id, enabled)
}

// UpdateCloudLLMModel calls main.App.UpdateCloudLLMModel
func (c *Client) UpdateCloudLLMModel(ctx context.Context, model models.CloudLLMModel) error {
	return c.Call(ctx, bridge.Prefix+"UpdateCloudLLMModel", nil, model)
}

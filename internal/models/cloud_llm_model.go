package models

import "time"

// CloudLLMModel is a configured cloud-hosted language model entry
type CloudLLMModel struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`                // Display name shown in the model picker, unique
	Provider       string    `json:"provider"`            // openai, anthropic, deepseek, ...
	BaseURL        string    `json:"base_url,omitempty"`  // Empty means the provider default endpoint
	APIKey         string    `json:"api_key,omitempty"`   // Encrypted at rest, masked in list results
	ModelName      string    `json:"model_name"`          // Provider-side model identifier
	Description    string    `json:"description,omitempty"`
	MaxTokens      int       `json:"max_tokens"`
	Temperature    float64   `json:"temperature"`
	ContextLength  int       `json:"context_length,omitempty"`
	SupportsVision bool      `json:"supports_vision"`
	SupportsTools  bool      `json:"supports_tools"`
	Enabled        bool      `json:"enabled"`
	SortOrder      int       `json:"sort_order"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Known providers. Any non-empty provider name is accepted; these only seed the UI.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderDeepSeek  = "deepseek"
	ProviderGemini    = "gemini"
	ProviderCustom    = "custom"
)

package models

import "time"

// ChangeEventType names a mutation broadcast to UI subscribers
type ChangeEventType string

const (
	EventModelCreated   ChangeEventType = "cloud_llm_model.created"
	EventModelUpdated   ChangeEventType = "cloud_llm_model.updated"
	EventModelDeleted   ChangeEventType = "cloud_llm_model.deleted"
	EventModelToggled   ChangeEventType = "cloud_llm_model.toggled"
	EventSettingChanged ChangeEventType = "setting.changed"
	EventConfigReloaded ChangeEventType = "config.reloaded"

	// EventConnected is the first frame on every /ws/events stream
	EventConnected ChangeEventType = "connected"
)

// ChangeEvent is what the event bus fans out
type ChangeEvent struct {
	ID         string          `json:"id"`
	Type       ChangeEventType `json:"type"`
	ModelID    int64           `json:"model_id,omitempty"`
	SettingKey string          `json:"setting_key,omitempty"`
	Enabled    *bool           `json:"enabled,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
}

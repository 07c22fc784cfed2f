package models

import "time"

// Setting is a string-keyed, string-valued persisted preference
type Setting struct {
	Key       string    `json:"key" db:"key"`
	Value     string    `json:"value" db:"value"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Setting keys read by the desktop UI
const (
	SettingKeyTheme          = "ui.theme"
	SettingKeyLanguage       = "ui.language"
	SettingKeyDefaultModelID = "chat.default_model_id"
)

// MaxSettingKeyLength matches the width of the settings.key column
const MaxSettingKeyLength = 255

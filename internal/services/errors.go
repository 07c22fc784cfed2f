package services

import "errors"

var (
	// ErrModelNotFound is returned when no cloud model has the requested id
	ErrModelNotFound = errors.New("cloud llm model not found")
	// ErrInvalidModel wraps every model validation failure
	ErrInvalidModel = errors.New("invalid cloud llm model")
	// ErrDuplicateModel is returned when another model already uses the name
	ErrDuplicateModel = errors.New("cloud llm model name already exists")
	// ErrInvalidSettingKey is returned for empty or oversized setting keys
	ErrInvalidSettingKey = errors.New("invalid setting key")
)

package bridge

import (
	"context"
	"errors"
	"net/http"

	"llmdesk/internal/services"
)

// Error codes carried in the "code" field of a failed call
const (
	CodeUnknownMethod   = "unknown_method"
	CodeBadArguments    = "bad_arguments"
	CodeInvalidArgument = "invalid_argument"
	CodeNotFound        = "not_found"
	CodeConflict        = "conflict"
	CodeTimeout         = "timeout"
	CodeInternal        = "internal"
)

// CallError is the error half of a call response
type CallError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Classify maps an error to its code and HTTP status
func Classify(err error) (string, int) {
	switch {
	case errors.Is(err, ErrUnknownMethod):
		return CodeUnknownMethod, http.StatusNotFound
	case errors.Is(err, ErrBadArguments):
		return CodeBadArguments, http.StatusBadRequest
	case errors.Is(err, services.ErrInvalidModel), errors.Is(err, services.ErrInvalidSettingKey):
		return CodeInvalidArgument, http.StatusBadRequest
	case errors.Is(err, services.ErrModelNotFound):
		return CodeNotFound, http.StatusNotFound
	case errors.Is(err, services.ErrDuplicateModel):
		return CodeConflict, http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return CodeTimeout, http.StatusGatewayTimeout
	default:
		return CodeInternal, http.StatusInternalServerError
	}
}

// NewCallError builds the wire form of err. Internal errors carry a generic message.
func NewCallError(err error) *CallError {
	code, _ := Classify(err)
	msg := err.Error()
	if code == CodeInternal {
		msg = "internal error"
	}
	return &CallError{Code: code, Message: msg}
}

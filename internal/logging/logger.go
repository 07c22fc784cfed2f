package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New builds a slog logger writing to w.
// format "json" selects the JSON handler for log aggregation; anything else
// uses the human-readable text handler.
func New(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// Init configures the global slog logger. The standard log package is routed
// through the same handler, so log.Printf output follows the configured format.
func Init(level, format, environment string) {
	slog.SetDefault(New(os.Stdout, level, ResolveFormat(format, environment)))
}

// ResolveFormat picks the handler format. An explicit "json" or "text" wins;
// otherwise production logs JSON and everything else logs text.
func ResolveFormat(format, environment string) string {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return "json"
	case "text":
		return "text"
	}
	if strings.EqualFold(environment, "production") {
		return "json"
	}
	return "text"
}

// ParseLevel maps debug, info, warn and error to slog levels; unknown values are info
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithCall returns a logger with bridge call context fields attached.
func WithCall(callID, method string) *slog.Logger {
	return slog.With(
		"call_id", callID,
		"method", method,
	)
}

package agentcore

import (
	"log/slog"
	"os"
	"strings"
)

// NewLoggerFromEnv builds a *slog.Logger from AGENTCORE_LOG_LEVEL and
// AGENTCORE_LOG_FORMAT ("json" default, or "text"), grounded on the
// teacher's observability.NewLogger (internal/observability/logging.go)
// but narrowed to this core's needs: no redaction patterns here, since
// trace-level redaction is already handled by internal/tracing.redact
// and a RunConfig.Logger is for operational log lines, not trace spans.
// WithLogger overrides whatever this returns; callers that don't need
// env-driven configuration can ignore this entirely and pass their own
// *slog.Logger.
func NewLoggerFromEnv() *slog.Logger {
	level := parseLogLevel(os.Getenv("AGENTCORE_LOG_LEVEL"))
	format := os.Getenv("AGENTCORE_LOG_FORMAT")

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(format, "text") {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}

	return slog.New(handler)
}

func parseLogLevel(raw string) slog.Level {
	switch strings.ToLower(raw) {
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

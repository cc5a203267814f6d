package logx

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// New returns a logger for wire-level tracing. It stays silent unless
// REMIX_CONSOLE_DEBUG is set; REMIX_CONSOLE_LOG_FORMAT=json switches the
// handler. Command output never goes through this logger.
func New() *slog.Logger {
	level, enabled := parseDebugLevel(os.Getenv("REMIX_CONSOLE_DEBUG"))
	if !enabled {
		return Nop()
	}

	options := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, attr slog.Attr) slog.Attr {
			if attr.Key == slog.TimeKey {
				if ts, ok := attr.Value.Any().(time.Time); ok {
					attr.Value = slog.StringValue(ts.UTC().Format(time.RFC3339))
				}
			}
			return attr
		},
	}

	var handler slog.Handler
	format := strings.ToLower(strings.TrimSpace(os.Getenv("REMIX_CONSOLE_LOG_FORMAT")))
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, options)
	} else {
		handler = slog.NewTextHandler(os.Stderr, options)
	}
	return slog.New(handler)
}

// Nop returns a logger that discards everything.
func Nop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

func parseDebugLevel(value string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "0", "false", "off":
		return slog.LevelInfo, false
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	case "info":
		return slog.LevelInfo, true
	default:
		// "1", "true", "debug" and anything else turn on full tracing.
		return slog.LevelDebug, true
	}
}

package logger

import (
	"io"
	"log/slog"
	"strings"
)

// New returns a structured logger writing to w with source location enabled.
// Level should be a valid slog level string: DEBUG, INFO, WARN, ERROR.
// Unrecognized values default to ERROR. Format "text" selects the
// human-readable handler; anything else produces JSON.
func New(w io.Writer, level, format string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelError
	}

	opts := &slog.HandlerOptions{
		AddSource: true,
		Level:     lvl,
	}
	if strings.EqualFold(format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New returns a JSON logger when format is "json" and a text logger
// otherwise, and installs it as the slog default.
func New(format string) *slog.Logger {
	logger := NewWithWriter(os.Stdout, format)
	slog.SetDefault(logger)
	return logger
}

func NewWithWriter(w io.Writer, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

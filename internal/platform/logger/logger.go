package logger

import (
	"log/slog"
	"os"
)

// New returns the process logger. Handlers and services receive it via
// dependency injection, never through package-level state.
func New() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}

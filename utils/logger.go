package utils

import (
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
)

// InitLogger configures the process-wide slog logger. Internal logs are
// English; everything user-facing goes through the bot texts instead.
func InitLogger() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}

	handler := tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: "2006-01-02 15:04:05",
	})
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

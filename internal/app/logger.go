package app

import (
	"log/slog"
	"os"
)

// NewLogger builds the process logger: JSON for aggregated
// environments, text otherwise. Source locations are attached so log
// lines trace back to the emitting call site.
func NewLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{AddSource: true}
	var handler slog.Handler
	if cfg != nil && cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}

// Package logging builds the shared JSON logger for the api, worker and
// CLI processes.
package logging

import (
	"log/slog"
	"os"
	"strings"
)

// New returns a JSON logger writing to stdout. Every record carries the
// service name so api and worker logs stay distinguishable once
// aggregated.
func New(service, level string) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: Level(level),
	})
	return slog.New(handler).With(slog.String("service", service))
}

// Level parses a LOG_LEVEL value. The slog level names are accepted in any
// case, "warning" is an alias for warn, and anything unparseable falls
// back to info instead of failing startup.
func Level(value string) slog.Level {
	name := strings.ToLower(strings.TrimSpace(value))
	if name == "warning" {
		name = "warn"
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo
	}
	return level
}

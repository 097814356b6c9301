// Package logging provides structured logging configuration using zerolog.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelDebug logs debug messages and above.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs info messages and above.
	LevelInfo LogLevel = "info"

	// LevelWarn logs warning messages and above.
	LevelWarn LogLevel = "warn"

	// LevelError logs error messages only.
	LevelError LogLevel = "error"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Pretty enables human-readable console output (default: false for JSON).
	Pretty bool

	// Output is the writer to output logs to (default: os.Stderr).
	Output io.Writer
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Pretty: false,
		Output: os.Stderr,
	}
}

// Setup configures the global zerolog logger.
func Setup(cfg Config) zerolog.Logger {
	// Set global log level
	level := parseLevel(cfg.Level)
	zerolog.SetGlobalLevel(level)

	// Configure output
	var output io.Writer = cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output}
	}

	// Create logger with timestamp
	logger := zerolog.New(output).With().Timestamp().Logger()

	// Set as global logger
	log.Logger = logger

	return logger
}

// parseLevel converts LogLevel to zerolog.Level.
func parseLevel(level LogLevel) zerolog.Level {
	switch strings.ToLower(string(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// NewVersionLogger creates a component logger tagged with a worker version.
func NewVersionLogger(component, version string) zerolog.Logger {
	return log.With().Str("component", component).Str("version", version).Logger()
}

// Log Level Guidelines:
//
// Debug: Detailed information for debugging
//   - Cache decisions (strategy, outcome, key)
//   - Background revalidation results
//   - Per-request access lines
//
// Info: Normal operation events
//   - Worker lifecycle transitions (installing, activated, redundant)
//   - Store sweeps on activation
//   - Background sync summaries
//   - Server startup/shutdown
//
// Warn: Warning conditions that don't prevent operation
//   - Manifest assets that failed to precache
//   - Cache read/write failures (request continues on the network)
//   - Responses served from the 503 fallback
//   - Failed form submissions during sync
//
// Error: Error conditions requiring attention
//   - Static store unavailable during install
//   - Storage unreachable at startup
//   - Configuration errors
//
// Context Fields:
//   - component: emitting package (worker, registration, origin-client, ...)
//   - version: worker version
//   - path: request path
//   - strategy: cache_first, network_first, stale_while_revalidate
//   - outcome: hit, network, stale, fallback_cache, fallback_error, passthrough
//   - store: cache store name
//   - key: normalized cache key
//   - status_code: HTTP status code
//   - duration: Request duration
//   - error_class: Origin error classification (client, server, network)

// Package logging provides structured logging configuration using zerolog.
// Each subsystem logs through a component-tagged child of the global logger.
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
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: cfg.Output}
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

// Log Level Guidelines:
//
// Debug: Detailed information for debugging
//   - Cache operations (hit/miss, evictions, sweeps)
//   - Task lifecycle (enqueued, dispatched, completed)
//   - Socket frames and heartbeats
//   - Token refresh flow
//
// Info: Normal operation events
//   - Login, logout, session resume
//   - Socket connect/disconnect
//   - Server startup/shutdown
//
// Warn: Warning conditions that don't prevent operation
//   - Reconnection attempts
//   - Refresh failures (session cleared, user must log in again)
//   - Persisted session load failures (falls back to logged-out)
//   - Dropped messages on full subscriber buffers
//
// Error: Error conditions requiring attention
//   - Reconnection attempts exhausted
//   - Session store write failures
//   - Configuration errors
//
// Context Fields:
//   - component: emitting subsystem (cache, scheduler, socket, session, client)
//   - task_id: scheduler task identifier
//   - priority: task priority (high, normal, low)
//   - state: socket connection state
//   - attempt: reconnection attempt number
//   - method, path: request identity
//   - expires_at: session expiry time

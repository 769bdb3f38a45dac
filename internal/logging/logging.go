// Package logging configures structured slog output with file rotation.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config contains logging configuration.
type Config struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string
	// FilePath is the path to the log file. Empty means no file logging.
	FilePath string
	// MaxSizeMB is the maximum size in MB before rotation (default: 10).
	MaxSizeMB int
	// MaxFiles is the maximum number of rotated files to keep (default: 5).
	MaxFiles int
	// WriteToStderr whether to also write to stderr (default: true).
	WriteToStderr bool
}

// DefaultConfig returns sensible defaults for file logging.
func DefaultConfig() Config {
	return Config{
		Level:         "info",
		FilePath:      DefaultLogPath(),
		MaxSizeMB:     10,
		MaxFiles:      5,
		WriteToStderr: true,
	}
}

// Setup initializes file-based logging and returns the logger along with a
// cleanup function that flushes and closes the log file.
func Setup(cfg Config) (*slog.Logger, func(), error) {
	if err := EnsureLogDir(); err != nil {
		return nil, nil, err
	}

	writer, err := NewRotatingWriter(cfg.FilePath, cfg.MaxSizeMB, cfg.MaxFiles)
	if err != nil {
		return nil, nil, err
	}

	var output io.Writer = writer
	if cfg.WriteToStderr {
		output = io.MultiWriter(writer, os.Stderr)
	}

	handler := slog.NewJSONHandler(output, &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
	})
	logger := slog.New(handler)

	cleanup := func() {
		_ = writer.Sync()
		_ = writer.Close()
	}
	return logger, cleanup, nil
}

// SetupDefault sets up logging with default configuration and installs it
// as the default logger. Returns the cleanup function.
func SetupDefault(level string) (func(), error) {
	cfg := DefaultConfig()
	if level != "" {
		cfg.Level = level
	}
	logger, cleanup, err := Setup(cfg)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return cleanup, nil
}

// SetupServerMode initializes logging for stdio MCP server mode. Stdout
// carries JSON-RPC exclusively and stderr may be watched by the client, so
// logs go only to the file.
func SetupServerMode(level string) (func(), error) {
	cfg := Config{
		Level:         level,
		FilePath:      DefaultLogPath(),
		MaxSizeMB:     10,
		MaxFiles:      5,
		WriteToStderr: false,
	}
	if cfg.Level == "" {
		cfg.Level = "info"
	}

	logger, cleanup, err := Setup(cfg)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	slog.Info("server mode logging initialized",
		slog.String("log_file", cfg.FilePath),
		slog.String("level", cfg.Level))

	return cleanup, nil
}

// parseLevel converts a string level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

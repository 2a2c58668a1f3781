// ABOUTME: slog setup: text or JSON handlers, level from env, and
// ABOUTME: optional rotating file output in the platform log dir.

// Package logging configures the process-wide structured logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

const appName = "dremio-mcp"

// Options select the handler format and destination.
type Options struct {
	// JSON switches from the text handler to JSON output.
	JSON bool
	// ToFile writes to a rotating log file instead of stderr. The MCP
	// stdio transport owns stdout/stderr, so file logging is the only
	// safe destination when serving over stdio.
	ToFile bool
	// Level overrides the LOG_LEVEL environment variable.
	Level slog.Leveler
}

// Setup builds a logger per the options and installs it as the slog
// default.
func Setup(opts Options) (*slog.Logger, error) {
	var out io.Writer = os.Stderr
	if opts.ToFile {
		path, err := LogFile()
		if err != nil {
			return nil, err
		}
		out = &lumberjack.Logger{
			Filename:   path,
			MaxSize:    10, // megabytes
			MaxBackups: 5,
		}
	}

	level := opts.Level
	if level == nil {
		level = levelFromEnv()
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if opts.JSON {
		handler = slog.NewJSONHandler(out, handlerOpts)
	} else {
		handler = slog.NewTextHandler(out, handlerOpts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger, nil
}

func levelFromEnv() slog.Level {
	switch strings.ToUpper(os.Getenv("LOG_LEVEL")) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LogDirectory returns the platform log directory for the app,
// creating it if needed.
func LogDirectory() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	var dir string
	switch runtime.GOOS {
	case "windows":
		base := os.Getenv("LOCALAPPDATA")
		if base == "" {
			base = filepath.Join(home, "AppData", "Local")
		}
		dir = filepath.Join(base, appName, "logs")
	case "darwin":
		dir = filepath.Join(home, "Library", "Logs", appName)
	default:
		base := os.Getenv("XDG_DATA_HOME")
		if base == "" {
			base = filepath.Join(home, ".local", "share")
		}
		dir = filepath.Join(base, appName, "logs")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// LogFile returns the rotating log file path.
func LogFile() (string, error) {
	dir, err := LogDirectory()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appName+".log"), nil
}

// Package log provides structured logging for the client. Command output
// goes to stdout; logs go to stderr so they never mix with it.
package log

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the global logger instance.
var Logger zerolog.Logger

// Component loggers for different parts of the client.
var (
	Blockchain zerolog.Logger
	Storage    zerolog.Logger
	Wallet     zerolog.Logger
	Sync       zerolog.Logger
	Staging    zerolog.Logger
	RPC        zerolog.Logger
)

// DefaultLevel keeps a CLI quiet unless asked otherwise.
const DefaultLevel = "warn"

func init() {
	Logger = NewConsoleLogger(os.Stderr, DefaultLevel)
	initComponentLoggers()
}

// Init initializes the logger with the given configuration.
// When file is non-empty, logs are also appended to it as JSON.
func Init(level string, jsonOutput bool, file string) error {
	var console io.Writer = os.Stderr
	if !jsonOutput {
		console = consoleWriter(os.Stderr)
	}

	if file != "" {
		f, err := os.OpenFile(file, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		Logger = zerolog.New(zerolog.MultiLevelWriter(console, f)).
			Level(parseLevel(level)).
			With().
			Timestamp().
			Logger()
	} else {
		Logger = zerolog.New(console).
			Level(parseLevel(level)).
			With().
			Timestamp().
			Logger()
	}

	initComponentLoggers()
	return nil
}

// NewConsoleLogger creates a colored console logger.
func NewConsoleLogger(w io.Writer, level string) zerolog.Logger {
	return zerolog.New(consoleWriter(w)).
		Level(parseLevel(level)).
		With().
		Timestamp().
		Logger()
}

// NewJSONLogger creates a structured JSON logger.
func NewJSONLogger(w io.Writer, level string) zerolog.Logger {
	return zerolog.New(w).
		Level(parseLevel(level)).
		With().
		Timestamp().
		Logger()
}

func consoleWriter(w io.Writer) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: "15:04:05",
	}
}

// parseLevel converts a string level to zerolog.Level.
func parseLevel(level string) zerolog.Level {
	switch level {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.WarnLevel
	}
}

// initComponentLoggers initializes loggers for each component.
func initComponentLoggers() {
	Blockchain = WithComponent("blockchain")
	Storage = WithComponent("storage")
	Wallet = WithComponent("wallet")
	Sync = WithComponent("sync")
	Staging = WithComponent("staging")
	RPC = WithComponent("rpc")
}

// WithComponent returns a logger with a component field.
func WithComponent(name string) zerolog.Logger {
	return Logger.With().Str("component", name).Logger()
}

// Benchmark helper for timing operations.
func Benchmark(name string) func() {
	start := time.Now()
	return func() {
		Logger.Debug().
			Str("operation", name).
			Dur("duration", time.Since(start)).
			Msg("benchmark")
	}
}

// Package logger provides structured logging using zerolog.
package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type contextKey string

const sessionIDKey contextKey = "session_id"

const milliTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Init configures the global logger. LOG_LEVEL overrides defaultLevel;
// interactive commands pass a quieter default so log lines do not break up
// their prompts.
func Init(defaultLevel zerolog.Level) {
	zerolog.TimeFieldFormat = milliTimeFormat
	zerolog.TimestampFunc = func() time.Time { return time.Now().UTC() }

	const callerWidth = 30
	zerolog.CallerMarshalFunc = func(pc uintptr, file string, line int) string {
		path := fmt.Sprintf("%s:%d", filepath.Base(file), line)
		if len(path) >= callerWidth {
			return path[len(path)-callerWidth:]
		}
		return path + strings.Repeat(" ", callerWidth-len(path))
	}

	level := parseLevel(os.Getenv("LOG_LEVEL"), defaultLevel)
	zerolog.SetGlobalLevel(level)

	var output io.Writer = zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: milliTimeFormat,
		NoColor:    !isDevelopmentMode(),
	}

	logFile := os.Getenv("LOG_FILE")
	var fileErr error
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err == nil {
			output = io.MultiWriter(output, f)
		}
		fileErr = err
	}

	log.Logger = log.Output(output).With().Caller().Logger()

	if fileErr != nil {
		log.Warn().Err(fileErr).Str("file", logFile).Msg("Log file unavailable, logging to stderr only")
	}
	log.Debug().
		Str("level", level.String()).
		Bool("dev", isDevelopmentMode()).
		Msg("Logger initialized")
}

// parseLevel returns the level named by s, or fallback when s is empty or
// unknown.
func parseLevel(s string, fallback zerolog.Level) zerolog.Level {
	if s == "" {
		return fallback
	}
	level, err := zerolog.ParseLevel(s)
	if err != nil {
		return fallback
	}
	return level
}

func isDevelopmentMode() bool {
	return os.Getenv("DEV") == "true" ||
		os.Getenv("DEV_MODE") == "true" ||
		os.Getenv("DEVELOPMENT") == "true"
}

// Get returns the global logger instance.
func Get() zerolog.Logger {
	return log.Logger
}

// NewSessionID returns a fresh identifier for a game session.
func NewSessionID() string {
	return uuid.NewString()
}

// WithSessionID returns a new context with the given session ID stored.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey, id)
}

// SessionIDFromContext extracts the session ID from context, or empty string.
func SessionIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(sessionIDKey).(string)
	return id
}

// ForSession returns a logger enriched with the session ID from context.
func ForSession(ctx context.Context) zerolog.Logger {
	id := SessionIDFromContext(ctx)
	if id == "" {
		return log.Logger
	}
	return log.Logger.With().Str("sessionId", id).Logger()
}

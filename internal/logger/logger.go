package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	mu            sync.RWMutex
	defaultLogger *slog.Logger
)

// ParseLevel maps a config level name to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New builds a logger writing to w in "json" or text format.
func New(level, format string, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// Initialize sets up the global logger with the specified level and format
func Initialize(level, format string) {
	SetDefault(New(level, format, os.Stdout))
}

// SetDefault replaces the global logger.
func SetDefault(l *slog.Logger) {
	mu.Lock()
	defaultLogger = l
	mu.Unlock()
	slog.SetDefault(l)
}

// Get returns the default logger
func Get() *slog.Logger {
	mu.RLock()
	l := defaultLogger
	mu.RUnlock()
	if l == nil {
		Initialize("info", "text")
		return Get()
	}
	return l
}

func Debug(msg string, args ...any) {
	Get().Debug(msg, args...)
}

func Info(msg string, args ...any) {
	Get().Info(msg, args...)
}

func Warn(msg string, args ...any) {
	Get().Warn(msg, args...)
}

func Error(msg string, args ...any) {
	Get().Error(msg, args...)
}

func InfoContext(ctx context.Context, msg string, args ...any) {
	Get().InfoContext(ctx, msg, args...)
}

func WarnContext(ctx context.Context, msg string, args ...any) {
	Get().WarnContext(ctx, msg, args...)
}

// WithRental returns a logger tagged with the rental and property ids.
func WithRental(rentalID, propertyID int64) *slog.Logger {
	return Get().With("rental_id", rentalID, "property_id", propertyID)
}

// EnterMethod logs method entry (process tracking)
func EnterMethod(methodName string, args ...any) {
	allArgs := append([]any{"method", methodName, "event", "enter"}, args...)
	Get().Debug("→ Method entered", allArgs...)
}

// ExitMethod logs method exit (process tracking)
func ExitMethod(methodName string, args ...any) {
	allArgs := append([]any{"method", methodName, "event", "exit"}, args...)
	Get().Debug("← Method exited", allArgs...)
}

// ExitMethodWithError logs method exit with error (process tracking)
func ExitMethodWithError(methodName string, err error, args ...any) {
	allArgs := append([]any{"method", methodName, "event", "exit", "error", err}, args...)
	Get().Error("← Method exited with error", allArgs...)
}

// ExitMethodRejected logs a method exit caused by a business rule rejection.
func ExitMethodRejected(methodName string, err error, args ...any) {
	allArgs := append([]any{"method", methodName, "event", "exit", "reason", err.Error()}, args...)
	Get().Warn("← Method rejected", allArgs...)
}

// DatabaseCall logs database operation (debug log for external resources)
func DatabaseCall(operation, table string, args ...any) {
	allArgs := append([]any{"operation", operation, "table", table}, args...)
	Get().Debug("→ Database call", allArgs...)
}

// DatabaseResult logs database operation result (debug log for external resources)
func DatabaseResult(operation string, rowsAffected int64, err error, args ...any) {
	allArgs := append([]any{"operation", operation, "rows_affected", rowsAffected}, args...)
	if err != nil {
		allArgs = append(allArgs, "error", err)
		Get().Error("← Database call failed", allArgs...)
	} else {
		Get().Debug("← Database call succeeded", allArgs...)
	}
}

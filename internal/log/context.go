package log

import (
	"context"
	"log/slog"
)

// ContextKey type for context keys
type ContextKey string

const (
	// LoggerContextKey is the context key for the logger
	LoggerContextKey ContextKey = "logger"
)

// WithContext returns a copy of ctx carrying logger
func WithContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, LoggerContextKey, logger)
}

// FromContext extracts a logger from the context
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*Logger); ok {
		return logger
	}
	// Return default logger if not found
	return &Logger{
		Logger:    slog.Default(),
		component: "unknown",
	}
}

// StructuredLogger provides structured logging methods with context awareness
type StructuredLogger struct {
	logger *Logger
}

// NewStructuredLogger creates a new structured logger
func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{
		logger: logger,
	}
}

// LogEntryCreated logs successful entry creation
func (sl *StructuredLogger) LogEntryCreated(ctx context.Context, id int64, date, category string, hours, minutes int) {
	fields := NewFields().
		WithEntry(id, date, category, hours, minutes).
		WithOperation(OpCreate).
		ToSlice()

	sl.logger.InfoContext(ctx, "Entry created successfully", fields...)
}

// LogCategoryDeleted logs a category removal and how many entries lost their label
func (sl *StructuredLogger) LogCategoryDeleted(ctx context.Context, id int64, cleared int64) {
	fields := NewFields().
		WithCategory(id, "").
		WithOperation(OpDelete).
		ToSlice()

	fields = append(fields, FieldEntriesCleared, cleared)

	sl.logger.InfoContext(ctx, "Category deleted", fields...)
}

// LogError logs an error with structured context
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, operation string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	allFields := fields.
		WithError(err).
		WithOperation(operation)

	sl.logger.ErrorContext(ctx, msg, allFields.ToSlice()...)
}

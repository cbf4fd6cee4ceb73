package glassfire

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with glassfire-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithDimension adds a dimension field to the logger.
func (l *Logger) WithDimension(dim int) *Logger {
	return &Logger{
		Logger: l.Logger.With("dimension", dim),
	}
}

// WithCount adds a count field to the logger.
func (l *Logger) WithCount(count int) *Logger {
	return &Logger{
		Logger: l.Logger.With("count", count),
	}
}

// WithCellSize adds a cell_size field to the logger.
func (l *Logger) WithCellSize(d float64) *Logger {
	return &Logger{
		Logger: l.Logger.With("cell_size", d),
	}
}

// LogAppend logs an append operation.
func (l *Logger) LogAppend(index, count int, err error) {
	if err != nil {
		l.Error("append failed",
			"count", count,
			"error", err,
		)
	} else {
		l.Debug("append completed",
			"index", index,
			"count", count,
		)
	}
}

// LogRun logs a clustering run.
func (l *Logger) LogRun(ctx context.Context, stats RunStats, err error) {
	if err != nil {
		l.ErrorContext(ctx, "clustering failed",
			"cell_size", stats.CellSize,
			"points", stats.Points,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "clustering completed",
			"cell_size", stats.CellSize,
			"points", stats.Points,
			"seeded", stats.Seeded,
			"clusters", stats.Clusters,
			"iterations", stats.Iterations,
			"degenerate", stats.Degenerate,
			"duration", stats.Duration.Round(time.Microsecond),
		)
	}
}

// LogQuery logs a nearest-model query.
func (l *Logger) LogQuery(nearest int, found bool, err error) {
	if err != nil {
		l.Error("query failed",
			"nearest", nearest,
			"error", err,
		)
	} else {
		l.Debug("query completed",
			"nearest", nearest,
			"found", found,
		)
	}
}

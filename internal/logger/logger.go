package logger

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lmittmann/tint"
)

var (
	// default logger instance
	defaultLogger *slog.Logger
)

// initializes the logger based on environment
func init() {
	defaultLogger = slog.New(newHandler(os.Getenv("ENVIRONMENT")))
}

func newHandler(env string) slog.Handler {
	if env == "production" {
		// production: JSON output for log shipping
		return slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}

	// development: coloured human-readable output
	return tint.NewHandler(os.Stderr, &tint.Options{
		Level:      slog.LevelDebug,
		TimeFormat: time.Kitchen,
	})
}

// returns the default logger instance
func Default() *slog.Logger {
	return defaultLogger
}

// replaces the default logger (tests, CLI tools)
func SetDefault(l *slog.Logger) {
	if l != nil {
		defaultLogger = l
	}
}

// creates a logger with additional context fields
func With(args ...any) *slog.Logger {
	return defaultLogger.With(args...)
}

// returns the logger stored in ctx, or the default one
func FromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return defaultLogger
	}

	if logger, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return logger
	}

	return defaultLogger
}

// adds logger to context
func WithContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

type loggerKey struct{}

// logs one line per request once the handler chain has finished
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		args := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		}

		// handlers may have scoped the request logger, e.g. with user_id
		log := FromContext(c.Request.Context())

		switch {
		case c.Writer.Status() >= 500:
			log.Error("request completed", args...)
		case c.Writer.Status() >= 400:
			log.Warn("request completed", args...)
		default:
			log.Info("request completed", args...)
		}
	}
}

// logs a debug message
func Debug(msg string, args ...any) {
	defaultLogger.Debug(msg, args...)
}

// logs an info message
func Info(msg string, args ...any) {
	defaultLogger.Info(msg, args...)
}

// logs a warning message
func Warn(msg string, args ...any) {
	defaultLogger.Warn(msg, args...)
}

// logs an error message
func Error(msg string, args ...any) {
	defaultLogger.Error(msg, args...)
}

// logs an error with context
func ErrorErr(err error, msg string, args ...any) {
	args = append(args, "error", err)
	defaultLogger.Error(msg, args...)
}

// logs a fatal error and exits (for CLI tools)
func Fatal(msg string, args ...any) {
	defaultLogger.Error(msg, args...)
	os.Exit(1)
}

// Package logger provides structured logging with automatic redaction of
// credentials.
//
// This package wraps Go's standard log/slog with convenience functions for:
//   - TTS API call logging (requests, responses, errors)
//   - Redaction of credentials embedded in endpoint URLs and headers
//   - Contextual logging with request tracing
//   - Level-based verbosity control
//
// All exported functions use the global DefaultLogger.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"sync"
)

// Log format constants.
const (
	FormatJSON = "json"
	FormatText = "text"
)

var (
	// DefaultLogger is the global structured logger instance.
	// It is safe for concurrent use and initialized with slog.LevelInfo by default.
	DefaultLogger *slog.Logger

	mu        sync.Mutex
	logOutput io.Writer = os.Stderr
	logFormat           = FormatText
	logLevel            = slog.LevelInfo
)

func init() {
	if envLevel := os.Getenv("LOG_LEVEL"); envLevel != "" {
		logLevel = ParseLevel(envLevel)
	}
	rebuild()
}

// ParseLevel converts a level name to a slog.Level. Unknown names map to info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
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

// rebuild replaces DefaultLogger from the current package settings.
func rebuild() {
	opts := &slog.HandlerOptions{Level: logLevel}

	var base slog.Handler
	if logFormat == FormatJSON {
		base = slog.NewJSONHandler(logOutput, opts)
	} else {
		base = slog.NewTextHandler(logOutput, opts)
	}

	DefaultLogger = slog.New(NewContextHandler(base))
}

// SetLevel changes the logging level for all subsequent log operations.
func SetLevel(level slog.Level) {
	mu.Lock()
	defer mu.Unlock()
	logLevel = level
	rebuild()
}

// SetVerbose enables debug-level logging when verbose is true, otherwise sets info-level.
// This is a convenience wrapper around SetLevel for command-line verbose flags.
func SetVerbose(verbose bool) {
	if verbose {
		SetLevel(slog.LevelDebug)
	} else {
		SetLevel(slog.LevelInfo)
	}
}

// SetOutput redirects log output. Primarily used by tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logOutput = w
	rebuild()
}

// Configure applies a format ("json" or "text") and a level name to the
// global logger. Empty values keep the current setting.
func Configure(format, level string) {
	mu.Lock()
	defer mu.Unlock()
	if format != "" {
		logFormat = strings.ToLower(format)
	}
	if level != "" {
		logLevel = ParseLevel(level)
	}
	rebuild()
}

// Info logs an informational message with structured key-value attributes.
func Info(msg string, args ...any) {
	DefaultLogger.Info(msg, args...)
}

// InfoContext logs an informational message with context and structured attributes.
func InfoContext(ctx context.Context, msg string, args ...any) {
	DefaultLogger.InfoContext(ctx, msg, args...)
}

// Debug logs a debug-level message with structured attributes.
func Debug(msg string, args ...any) {
	DefaultLogger.Debug(msg, args...)
}

// DebugContext logs a debug message with context and structured attributes.
func DebugContext(ctx context.Context, msg string, args ...any) {
	DefaultLogger.DebugContext(ctx, msg, args...)
}

// Warn logs a warning message with structured attributes.
func Warn(msg string, args ...any) {
	DefaultLogger.Warn(msg, args...)
}

// WarnContext logs a warning message with context and structured attributes.
func WarnContext(ctx context.Context, msg string, args ...any) {
	DefaultLogger.WarnContext(ctx, msg, args...)
}

// Error logs an error message with structured attributes.
func Error(msg string, args ...any) {
	DefaultLogger.Error(msg, args...)
}

// ErrorContext logs an error message with context and structured attributes.
func ErrorContext(ctx context.Context, msg string, args ...any) {
	DefaultLogger.ErrorContext(ctx, msg, args...)
}

// TTSRequest logs an outbound synthesis request.
func TTSRequest(ctx context.Context, provider, speaker string, textLen int, streaming bool, attrs ...any) {
	allAttrs := make([]any, 0, 8+len(attrs))
	allAttrs = append(allAttrs,
		"provider", provider,
		"speaker", speaker,
		"text_len", textLen,
		"streaming", streaming,
	)
	allAttrs = append(allAttrs, attrs...)
	InfoContext(ctx, "🔊 TTS Request", allAttrs...)
}

// TTSResponse logs a successful synthesis response.
func TTSResponse(ctx context.Context, provider string, statusCode int, contentType string, attrs ...any) {
	allAttrs := make([]any, 0, 6+len(attrs))
	allAttrs = append(allAttrs,
		"provider", provider,
		"status_code", statusCode,
		"content_type", contentType,
	)
	allAttrs = append(allAttrs, attrs...)
	InfoContext(ctx, "✅ TTS Response", allAttrs...)
}

// TTSError logs a failed synthesis or catalog call.
func TTSError(ctx context.Context, provider, operation string, err error, attrs ...any) {
	allAttrs := make([]any, 0, 6+len(attrs))
	allAttrs = append(allAttrs,
		"provider", provider,
		"operation", operation,
		"error", err,
	)
	allAttrs = append(allAttrs, attrs...)
	ErrorContext(ctx, "❌ TTS Call Failed", allAttrs...)
}

var (
	// sensitivePatterns match credentials that can appear in endpoint URLs or headers.
	sensitivePatterns = []*regexp.Regexp{
		regexp.MustCompile(`://[^/\s:@]+:[^/\s@]+@`),  // URL userinfo
		regexp.MustCompile(`Bearer\s+[a-zA-Z0-9._-]+`), // Bearer tokens
		regexp.MustCompile(`(?i)(api[_-]?key=)[^&\s]+`), // query-string keys
	}
)

// RedactSensitiveData removes credentials from strings before they are logged.
func RedactSensitiveData(input string) string {
	result := input
	for _, pattern := range sensitivePatterns {
		result = pattern.ReplaceAllStringFunc(result, func(match string) string {
			switch {
			case strings.HasPrefix(match, "://"):
				return "://[REDACTED]@"
			case strings.HasPrefix(match, "Bearer"):
				return "Bearer [REDACTED]"
			default:
				idx := strings.Index(match, "=")
				return match[:idx+1] + "[REDACTED]"
			}
		})
	}
	return result
}

// APIRequest logs HTTP request details at debug level with redaction.
// It is a no-op when debug logging is disabled.
func APIRequest(ctx context.Context, provider, method, url string, body any) {
	if !DefaultLogger.Enabled(ctx, slog.LevelDebug) {
		return
	}

	attrs := []any{
		"provider", provider,
		"method", method,
		"url", RedactSensitiveData(url),
	}
	if body != nil {
		attrs = append(attrs, "body", body)
	}

	DebugContext(ctx, "🔵 API Request", attrs...)
}

// APIResponse logs HTTP response details at debug level. Errors are logged
// at error level regardless.
func APIResponse(ctx context.Context, provider string, statusCode int, body string, err error) {
	if err != nil {
		ErrorContext(ctx, "🔴 API Response Error",
			"provider", provider,
			"status_code", statusCode,
			"error", err.Error(),
		)
		return
	}

	if !DefaultLogger.Enabled(ctx, slog.LevelDebug) {
		return
	}

	var emoji string
	switch {
	case statusCode >= 200 && statusCode < 300:
		emoji = "🟢"
	case statusCode >= 400:
		emoji = "🔴"
	default:
		emoji = "🟡"
	}

	attrs := []any{"provider", provider, "status_code", statusCode}
	if body != "" {
		attrs = append(attrs, "body", RedactSensitiveData(body))
	}

	DebugContext(ctx, emoji+" API Response", attrs...)
}

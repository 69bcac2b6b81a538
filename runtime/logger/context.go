package logger

import (
	"context"
)

// contextKey is a private type for context keys to avoid collisions.
type contextKey string

// Context keys for common logging fields. Values stored under these keys are
// added to every record logged with that context.
const (
	// ContextKeyRequestID identifies an individual synthesis or catalog request.
	ContextKeyRequestID contextKey = "request_id"

	// ContextKeyProvider identifies the TTS provider (e.g., "cosyvoice").
	ContextKeyProvider contextKey = "provider"

	// ContextKeyVoice identifies the logical voice name requested by the caller.
	ContextKeyVoice contextKey = "voice"

	// ContextKeyOperation identifies the adapter operation (e.g., "synthesize").
	ContextKeyOperation contextKey = "operation"

	// ContextKeySessionID identifies the host session.
	ContextKeySessionID contextKey = "session_id"
)

// allContextKeys lists the keys the handler extracts, in output order.
var allContextKeys = []contextKey{
	ContextKeyRequestID,
	ContextKeyProvider,
	ContextKeyVoice,
	ContextKeyOperation,
	ContextKeySessionID,
}

// WithRequestID returns a new context with the request ID set.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// WithProvider returns a new context with the provider name set.
func WithProvider(ctx context.Context, provider string) context.Context {
	return context.WithValue(ctx, ContextKeyProvider, provider)
}

// WithVoice returns a new context with the voice name set.
func WithVoice(ctx context.Context, voice string) context.Context {
	return context.WithValue(ctx, ContextKeyVoice, voice)
}

// WithOperation returns a new context with the operation name set.
func WithOperation(ctx context.Context, operation string) context.Context {
	return context.WithValue(ctx, ContextKeyOperation, operation)
}

// WithSessionID returns a new context with the session ID set.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, ContextKeySessionID, sessionID)
}

// LoggingFields holds all standard logging context fields.
type LoggingFields struct {
	RequestID string
	Provider  string
	Voice     string
	Operation string
	SessionID string
}

// WithLoggingContext sets every non-empty field of fields on ctx.
func WithLoggingContext(ctx context.Context, fields *LoggingFields) context.Context {
	if fields == nil {
		return ctx
	}
	if fields.RequestID != "" {
		ctx = WithRequestID(ctx, fields.RequestID)
	}
	if fields.Provider != "" {
		ctx = WithProvider(ctx, fields.Provider)
	}
	if fields.Voice != "" {
		ctx = WithVoice(ctx, fields.Voice)
	}
	if fields.Operation != "" {
		ctx = WithOperation(ctx, fields.Operation)
	}
	if fields.SessionID != "" {
		ctx = WithSessionID(ctx, fields.SessionID)
	}
	return ctx
}

// ExtractLoggingFields extracts all logging fields from a context.
func ExtractLoggingFields(ctx context.Context) LoggingFields {
	fields := LoggingFields{}
	fields.RequestID, _ = ctx.Value(ContextKeyRequestID).(string)
	fields.Provider, _ = ctx.Value(ContextKeyProvider).(string)
	fields.Voice, _ = ctx.Value(ContextKeyVoice).(string)
	fields.Operation, _ = ctx.Value(ContextKeyOperation).(string)
	fields.SessionID, _ = ctx.Value(ContextKeySessionID).(string)
	return fields
}

package telemetry

import (
	"net/http"

	"go.opentelemetry.io/otel/trace"

	"github.com/AltairaLabs/cosyvoice-bridge/runtime/logger"
)

// RequestIDHeader is echoed back on every response handled by LoggingMiddleware.
const RequestIDHeader = "X-Request-Id"

// TraceIDFromRequest returns the trace ID of the active span in the request
// context, or "" when the request is not traced.
func TraceIDFromRequest(r *http.Request) string {
	sc := trace.SpanContextFromContext(r.Context())
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}

// LoggingMiddleware stores a request ID in the logging context. The inbound
// X-Request-Id header wins; otherwise the trace ID of the active span is used.
// It must run inside Handler for the trace ID fallback to apply.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = TraceIDFromRequest(r)
		}
		if requestID != "" {
			w.Header().Set(RequestIDHeader, requestID)
			r = r.WithContext(logger.WithRequestID(r.Context(), requestID))
		}
		next.ServeHTTP(w, r)
	})
}

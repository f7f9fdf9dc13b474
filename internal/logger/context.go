package logger

import (
	"context"
	"time"
)

// contextKey is a private type for context keys to avoid collisions
type contextKey struct{}

// logContextKey is the key for LogContext in context.Context
var logContextKey = contextKey{}

// LogContext holds request-scoped logging context. The dispatcher creates
// one per inbound request (unless the context already carries one) and
// attaches it to the context passed to handlers.
type LogContext struct {
	TraceID       string // OpenTelemetry trace ID
	SpanID        string // OpenTelemetry span ID
	Service       string // RequestMeta.service_name
	Method        string // RequestMeta.method_name
	CorrelationID uint64 // RequestMeta/ResponseMeta correlation_id
	ClientIP      string // Peer address (without port)
	StartTime     time.Time
}

// WithContext returns a new context with the given LogContext
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, logContextKey, lc)
}

// FromContext retrieves the LogContext from context, or nil if not present
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(logContextKey).(*LogContext)
	return lc
}

// NewLogContext creates a new LogContext with the given client IP
func NewLogContext(clientIP string) *LogContext {
	return &LogContext{
		ClientIP:  clientIP,
		StartTime: time.Now(),
	}
}

// Clone creates a copy of the LogContext
func (lc *LogContext) Clone() *LogContext {
	if lc == nil {
		return nil
	}
	return &LogContext{
		TraceID:       lc.TraceID,
		SpanID:        lc.SpanID,
		Service:       lc.Service,
		Method:        lc.Method,
		CorrelationID: lc.CorrelationID,
		ClientIP:      lc.ClientIP,
		StartTime:     lc.StartTime,
	}
}

// WithMethod returns a copy with the service and method set
func (lc *LogContext) WithMethod(service, method string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.Service = service
		clone.Method = method
	}
	return clone
}

// WithCorrelationID returns a copy with the correlation id set
func (lc *LogContext) WithCorrelationID(id uint64) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.CorrelationID = id
	}
	return clone
}

// WithTrace returns a copy with trace info set
func (lc *LogContext) WithTrace(traceID, spanID string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.TraceID = traceID
		clone.SpanID = spanID
	}
	return clone
}

// DurationMs returns the duration since StartTime in milliseconds
func (lc *LogContext) DurationMs() float64 {
	if lc == nil || lc.StartTime.IsZero() {
		return 0
	}
	return float64(time.Since(lc.StartTime).Microseconds()) / 1000.0
}

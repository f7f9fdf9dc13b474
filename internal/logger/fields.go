package logger

import (
	"log/slog"
)

// Standard field keys for structured logging.
// Use these keys consistently across log statements so log aggregation and
// querying stays uniform between the server, the channel, and the CLI.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id" // OpenTelemetry trace ID for request correlation
	KeySpanID  = "span_id"  // OpenTelemetry span ID for operation tracking

	// ========================================================================
	// RPC identity
	// ========================================================================
	KeyService       = "service"        // Service name from RequestMeta
	KeyMethod        = "method"         // Method name from RequestMeta
	KeyCorrelationID = "correlation_id" // Per-channel correlation identifier
	KeyErrorCode     = "error_code"     // ResponseMeta error code
	KeyErrorText     = "error_text"     // ResponseMeta error text

	// ========================================================================
	// Connection
	// ========================================================================
	KeyConnectionID = "connection_id" // Locally assigned id for one TCP socket
	KeyClientIP     = "client_ip"     // Peer IP address
	KeyClientPort   = "client_port"   // Peer source port
	KeyInFlight     = "in_flight"     // In-flight request count on a connection
	KeyActiveConns  = "active_conns"  // Active connection count on a server

	// ========================================================================
	// Frame / wire
	// ========================================================================
	KeyBodySize         = "body_size"         // brpc frame body_size field
	KeyMetaSize         = "meta_size"         // brpc frame meta_size field
	KeyCompressionType  = "compression_type"  // ResponseMeta/RequestMeta compression_type
	KeyAttachmentSize   = "attachment_size"   // Controller attachment length
	KeyCarrier          = "carrier"           // "brpc" or "http"

	// ========================================================================
	// Operation metadata
	// ========================================================================
	KeyDurationMs = "duration_ms" // Operation duration in milliseconds
	KeyError      = "error"       // Error message
	KeyThroughput = "throughput"  // Completed-requests-per-second sample
)

// TraceID returns a slog.Attr for the OpenTelemetry trace ID.
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// SpanID returns a slog.Attr for the OpenTelemetry span ID.
func SpanID(id string) slog.Attr {
	return slog.String(KeySpanID, id)
}

// Service returns a slog.Attr for the RPC service name.
func Service(name string) slog.Attr {
	return slog.String(KeyService, name)
}

// Method returns a slog.Attr for the RPC method name.
func Method(name string) slog.Attr {
	return slog.String(KeyMethod, name)
}

// CorrelationID returns a slog.Attr for the per-channel correlation id.
func CorrelationID(id uint64) slog.Attr {
	return slog.Uint64(KeyCorrelationID, id)
}

// ErrorCode returns a slog.Attr for a ResponseMeta error code.
func ErrorCode(code int32) slog.Attr {
	return slog.Int64(KeyErrorCode, int64(code))
}

// ErrorText returns a slog.Attr for a ResponseMeta error text.
func ErrorText(text string) slog.Attr {
	return slog.String(KeyErrorText, text)
}

// ConnectionID returns a slog.Attr for a connection identifier.
func ConnectionID(id string) slog.Attr {
	return slog.String(KeyConnectionID, id)
}

// ClientIP returns a slog.Attr for the peer IP address.
func ClientIP(addr string) slog.Attr {
	return slog.String(KeyClientIP, addr)
}

// ClientPort returns a slog.Attr for the peer source port.
func ClientPort(port int) slog.Attr {
	return slog.Int(KeyClientPort, port)
}

// InFlight returns a slog.Attr for the in-flight request count.
func InFlight(n int) slog.Attr {
	return slog.Int(KeyInFlight, n)
}

// ActiveConns returns a slog.Attr for the active connection count.
func ActiveConns(n int32) slog.Attr {
	return slog.Int64(KeyActiveConns, int64(n))
}

// BodySize returns a slog.Attr for a frame's body_size field.
func BodySize(n uint32) slog.Attr {
	return slog.Uint64(KeyBodySize, uint64(n))
}

// MetaSize returns a slog.Attr for a frame's meta_size field.
func MetaSize(n uint32) slog.Attr {
	return slog.Uint64(KeyMetaSize, uint64(n))
}

// CompressionType returns a slog.Attr for a meta's compression_type field.
func CompressionType(t uint8) slog.Attr {
	return slog.Int(KeyCompressionType, int(t))
}

// AttachmentSize returns a slog.Attr for a controller's attachment length.
func AttachmentSize(n int) slog.Attr {
	return slog.Int(KeyAttachmentSize, n)
}

// Carrier returns a slog.Attr identifying the transport carrier.
func Carrier(name string) slog.Attr {
	return slog.String(KeyCarrier, name)
}

// DurationMs returns a slog.Attr for a duration in milliseconds.
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error, or a zero Attr for a nil error.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Throughput returns a slog.Attr for a completed-requests-per-second sample.
func Throughput(rps int64) slog.Attr {
	return slog.Int64(KeyThroughput, rps)
}

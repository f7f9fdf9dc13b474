package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Common attribute keys for RPC operations.
// These follow OpenTelemetry semantic conventions where applicable.
const (
	// ========================================================================
	// Client attributes
	// ========================================================================
	AttrClientIP   = "client.ip"
	AttrClientAddr = "client.address"
	AttrClientPort = "client.port"

	// ========================================================================
	// RPC identity attributes
	// ========================================================================
	AttrService       = "rpc.service"        // RequestMeta.service_name
	AttrMethod        = "rpc.method"         // RequestMeta.method_name
	AttrCorrelationID = "rpc.correlation_id" // per-channel correlation id
	AttrErrorCode     = "rpc.error_code"     // ResponseMeta.error_code
	AttrErrorText     = "rpc.error_text"     // ResponseMeta.error_text
	AttrCarrier       = "rpc.carrier"        // "brpc" or "http"

	// ========================================================================
	// Frame / wire attributes
	// ========================================================================
	AttrBodySize        = "rpc.body_size"
	AttrMetaSize        = "rpc.meta_size"
	AttrCompressionType = "rpc.compression_type"
	AttrAttachmentSize  = "rpc.attachment_size"

	// ========================================================================
	// Connection attributes
	// ========================================================================
	AttrConnectionID = "rpc.connection_id"
	AttrInFlight     = "rpc.in_flight"
	AttrActiveConns  = "rpc.active_connections"

	// ========================================================================
	// Throughput attributes
	// ========================================================================
	AttrThroughput = "rpc.throughput"
)

// Span names for operations.
// Format: <component>.<operation>
const (
	// Root span for dispatching one inbound frame
	SpanDispatch = "rpc.dispatch"

	// Root span for one outbound call made through a Channel
	SpanCall = "rpc.call"

	// Frame-level I/O spans
	SpanFrameRead  = "rpc.frame.read"
	SpanFrameWrite = "rpc.frame.write"

	// Registry lookup
	SpanRegistryLookup = "rpc.registry.lookup"

	// HTTP carrier span
	SpanHTTPRequest = "rpc.http.request"
)

// ClientIP returns an attribute for client IP address
func ClientIP(ip string) attribute.KeyValue {
	return attribute.String(AttrClientIP, ip)
}

// ClientAddr returns an attribute for full client address
func ClientAddr(addr string) attribute.KeyValue {
	return attribute.String(AttrClientAddr, addr)
}

// Service returns an attribute for the RPC service name
func Service(name string) attribute.KeyValue {
	return attribute.String(AttrService, name)
}

// Method returns an attribute for the RPC method name
func Method(name string) attribute.KeyValue {
	return attribute.String(AttrMethod, name)
}

// CorrelationID returns an attribute for the per-channel correlation id
func CorrelationID(id uint64) attribute.KeyValue {
	return attribute.Int64(AttrCorrelationID, int64(id))
}

// ErrorCode returns an attribute for a ResponseMeta error code
func ErrorCode(code int32) attribute.KeyValue {
	return attribute.Int64(AttrErrorCode, int64(code))
}

// ErrorText returns an attribute for a ResponseMeta error text
func ErrorText(text string) attribute.KeyValue {
	return attribute.String(AttrErrorText, text)
}

// Carrier returns an attribute identifying the transport carrier
func Carrier(name string) attribute.KeyValue {
	return attribute.String(AttrCarrier, name)
}

// BodySize returns an attribute for a frame's body_size field
func BodySize(n uint32) attribute.KeyValue {
	return attribute.Int64(AttrBodySize, int64(n))
}

// MetaSize returns an attribute for a frame's meta_size field
func MetaSize(n uint32) attribute.KeyValue {
	return attribute.Int64(AttrMetaSize, int64(n))
}

// CompressionType returns an attribute for a meta's compression_type field
func CompressionType(t uint8) attribute.KeyValue {
	return attribute.Int(AttrCompressionType, int(t))
}

// AttachmentSize returns an attribute for a controller's attachment length
func AttachmentSize(n int) attribute.KeyValue {
	return attribute.Int(AttrAttachmentSize, n)
}

// ConnectionID returns an attribute for a connection identifier
func ConnectionID(id string) attribute.KeyValue {
	return attribute.String(AttrConnectionID, id)
}

// ConnectionIDHandle formats a raw byte handle as a hex connection id attribute
func ConnectionIDHandle(handle []byte) attribute.KeyValue {
	return attribute.String(AttrConnectionID, fmt.Sprintf("%x", handle))
}

// InFlight returns an attribute for the in-flight request count
func InFlight(n int) attribute.KeyValue {
	return attribute.Int(AttrInFlight, n)
}

// ActiveConns returns an attribute for the active connection count
func ActiveConns(n int32) attribute.KeyValue {
	return attribute.Int64(AttrActiveConns, int64(n))
}

// Throughput returns an attribute for a completed-requests-per-second sample
func Throughput(rps int64) attribute.KeyValue {
	return attribute.Int64(AttrThroughput, rps)
}

// StartDispatchSpan starts a span for dispatching one inbound frame to its
// registered handler. This is the server-side counterpart of StartCallSpan.
func StartDispatchSpan(ctx context.Context, service, method string, correlationID uint64, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{
		Service(service),
		Method(method),
		CorrelationID(correlationID),
	}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, SpanDispatch, trace.WithAttributes(allAttrs...))
}

// StartCallSpan starts a span for one outbound call issued through a Channel.
func StartCallSpan(ctx context.Context, service, method string, correlationID uint64, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{
		Service(service),
		Method(method),
		CorrelationID(correlationID),
	}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, SpanCall, trace.WithAttributes(allAttrs...))
}

// StartFrameReadSpan starts a span around reading and parsing one frame off the wire.
func StartFrameReadSpan(ctx context.Context, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return StartSpan(ctx, SpanFrameRead, trace.WithAttributes(attrs...))
}

// StartFrameWriteSpan starts a span around serializing and writing one frame to the wire.
func StartFrameWriteSpan(ctx context.Context, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return StartSpan(ctx, SpanFrameWrite, trace.WithAttributes(attrs...))
}

// StartRegistryLookupSpan starts a span for a service/method registry lookup.
func StartRegistryLookupSpan(ctx context.Context, service, method string) (context.Context, trace.Span) {
	return StartSpan(ctx, SpanRegistryLookup, trace.WithAttributes(Service(service), Method(method)))
}

// StartHTTPSpan starts a span for a request handled by the HTTP carrier.
func StartHTTPSpan(ctx context.Context, service, method string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{
		Service(service),
		Method(method),
		Carrier("http"),
	}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, SpanHTTPRequest, trace.WithAttributes(allAttrs...))
}

package metrics

import "time"

// RPCMetrics provides observability for the server-side dispatch path: one
// request in, one response out, per (service, method).
//
// Implementations can collect metrics about dispatch latency, in-flight
// counts, connection lifecycle, and throughput. This interface is optional -
// pass nil to disable metrics collection with zero overhead.
//
// Example usage:
//
//	// With metrics enabled
//	metrics.InitRegistry()
//	rpcMetrics := metrics.NewRPCMetrics()
//	srv := server.New(config, dispatcher, rpcMetrics)
//
//	// Without metrics (zero overhead)
//	srv := server.New(config, dispatcher, nil)
type RPCMetrics interface {
	// RecordDispatch records a completed dispatch with its service, method,
	// duration, and outcome.
	//
	// Parameters:
	//   - service: fully-qualified service name (e.g. "echo.EchoService")
	//   - method: method name (e.g. "Echo")
	//   - duration: time taken to decode, invoke, and encode the response
	//   - errorCode: brpc error code (0 = OK, non-zero per the wire protocol)
	RecordDispatch(service string, method string, duration time.Duration, errorCode int32)

	// RecordDispatchStart increments the in-flight dispatch counter.
	RecordDispatchStart(service string, method string)

	// RecordDispatchEnd decrements the in-flight dispatch counter.
	RecordDispatchEnd(service string, method string)

	// RecordBytesTransferred records body bytes read from or written to the
	// wire for a given direction ("read" or "write").
	RecordBytesTransferred(service string, method string, direction string, bytes uint64)

	// RecordFrameSize records the size of a decoded frame's body and meta
	// segments, for distribution tracking.
	RecordFrameSize(segment string, bytes uint64)

	// SetActiveConnections updates the current connection count.
	SetActiveConnections(count int32)

	// SetInFlight updates the current server-wide in-flight request count.
	SetInFlight(count int64)

	// RecordConnectionAccepted increments the total accepted connections counter.
	RecordConnectionAccepted()

	// RecordConnectionClosed increments the total closed connections counter.
	RecordConnectionClosed()

	// RecordConnectionForceClosed increments the force-closed connections
	// counter. Called when a connection is torn down after the idle timeout
	// or a shutdown deadline.
	RecordConnectionForceClosed()

	// RecordThroughput records the most recent throughput sample (requests
	// per second) taken by the periodic monitor.
	RecordThroughput(rps float64)
}

// NewRPCMetrics creates a Prometheus-backed RPCMetrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called). When nil
// is returned, callers should pass nil through to server construction,
// which results in zero overhead.
func NewRPCMetrics() RPCMetrics {
	if !IsEnabled() {
		return nil
	}
	if newPrometheusRPCMetrics == nil {
		return nil
	}
	return newPrometheusRPCMetrics()
}

// newPrometheusRPCMetrics is registered by pkg/metrics/prometheus/rpc.go
// during package initialization. The indirection avoids an import cycle
// between this package (interfaces) and the prometheus implementation.
var newPrometheusRPCMetrics func() RPCMetrics

// RegisterRPCMetricsConstructor registers the Prometheus RPC metrics
// constructor. Called by pkg/metrics/prometheus/rpc.go's init().
func RegisterRPCMetricsConstructor(constructor func() RPCMetrics) {
	newPrometheusRPCMetrics = constructor
}

// RecordDispatch is a nil-safe helper for callers holding an RPCMetrics that
// may be nil.
func RecordDispatch(m RPCMetrics, service, method string, duration time.Duration, errorCode int32) {
	if m != nil {
		m.RecordDispatch(service, method, duration, errorCode)
	}
}

package metrics

import "time"

// ChannelMetrics provides observability for the client-side Channel: calls
// sent, responses matched by correlation id, timeouts, and backend errors.
//
// This interface is optional - pass nil to disable metrics collection with
// zero overhead.
//
// Example usage:
//
//	// With metrics enabled
//	metrics.InitRegistry()
//	chMetrics := metrics.NewChannelMetrics()
//	ch, task, err := channel.Build(ctx, addr, opts, chMetrics)
//
//	// Without metrics (zero overhead)
//	ch, task, err := channel.Build(ctx, addr, opts, nil)
type ChannelMetrics interface {
	// ObserveCall records a completed call's service, method, duration, and
	// outcome.
	ObserveCall(service string, method string, duration time.Duration, errorCode int32)

	// RecordCallTimeout records a call that was cancelled by its deadline
	// before a response arrived.
	RecordCallTimeout(service string, method string)

	// SetInFlight updates the current number of calls awaiting a response
	// on this channel.
	SetInFlight(count int)

	// RecordBytes records body bytes sent or received for a given direction
	// ("send" or "receive").
	RecordBytes(service string, method string, direction string, bytes uint64)

	// RecordDialResult records the outcome of a connection attempt.
	RecordDialResult(success bool)

	// RecordReconnect records the channel re-establishing its underlying
	// connection after it was lost.
	RecordReconnect()
}

// NewChannelMetrics creates a Prometheus-backed ChannelMetrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewChannelMetrics() ChannelMetrics {
	if !IsEnabled() {
		return nil
	}
	if newPrometheusChannelMetrics == nil {
		return nil
	}
	return newPrometheusChannelMetrics()
}

// newPrometheusChannelMetrics is registered by
// pkg/metrics/prometheus/channel.go during package initialization. The
// indirection avoids an import cycle between this package (interfaces) and
// the prometheus implementation.
var newPrometheusChannelMetrics func() ChannelMetrics

// RegisterChannelMetricsConstructor registers the Prometheus channel
// metrics constructor. Called by pkg/metrics/prometheus/channel.go's init().
func RegisterChannelMetricsConstructor(constructor func() ChannelMetrics) {
	newPrometheusChannelMetrics = constructor
}

// ObserveCall is a nil-safe helper for callers holding a ChannelMetrics that
// may be nil.
func ObserveCall(m ChannelMetrics, service, method string, duration time.Duration, errorCode int32) {
	if m != nil {
		m.ObserveCall(service, method, duration, errorCode)
	}
}

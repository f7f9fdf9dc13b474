package prometheus

import (
	"strconv"
	"time"

	"github.com/marmos91/brpc/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// rpcMetrics is the Prometheus implementation of metrics.RPCMetrics.
type rpcMetrics struct {
	dispatchTotal    *prometheus.CounterVec
	dispatchDuration *prometheus.HistogramVec
	dispatchInFlight *prometheus.GaugeVec
	bytesTransferred *prometheus.CounterVec
	frameSize        *prometheus.HistogramVec
	activeConns      prometheus.Gauge
	inFlight         prometheus.Gauge
	connsAccepted    prometheus.Counter
	connsClosed      prometheus.Counter
	connsForced      prometheus.Counter
	throughput       prometheus.Gauge
}

func init() {
	metrics.RegisterRPCMetricsConstructor(func() metrics.RPCMetrics {
		return newRPCMetrics()
	})
}

// newRPCMetrics creates a new Prometheus-backed RPCMetrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func newRPCMetrics() metrics.RPCMetrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &rpcMetrics{
		dispatchTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "brpc_dispatch_requests_total",
				Help: "Total number of dispatched requests by service, method, and error code",
			},
			[]string{"service", "method", "error_code"},
		),
		dispatchDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "brpc_dispatch_duration_milliseconds",
				Help: "Duration of request dispatch (decode, invoke, encode) in milliseconds",
				Buckets: []float64{
					0.1,  // 100us - trivial handlers
					0.5,  // 500us
					1,    // 1ms
					5,    // 5ms
					10,   // 10ms
					50,   // 50ms
					100,  // 100ms
					500,  // 500ms
					1000, // 1s
				},
			},
			[]string{"service", "method"},
		),
		dispatchInFlight: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "brpc_dispatch_in_flight",
				Help: "Number of dispatches currently being processed, by service and method",
			},
			[]string{"service", "method"},
		),
		bytesTransferred: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "brpc_bytes_transferred_total",
				Help: "Total body bytes transferred by service, method, and direction",
			},
			[]string{"service", "method", "direction"}, // direction: "read", "write"
		),
		frameSize: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "brpc_frame_size_bytes",
				Help: "Distribution of decoded frame segment sizes",
				Buckets: []float64{
					64,
					256,
					1024,
					4096,
					32768,
					131072,
					524288,
					1048576,
					4194304,
				},
			},
			[]string{"segment"}, // "body", "meta"
		),
		activeConns: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "brpc_active_connections",
				Help: "Current number of open client connections",
			},
		),
		inFlight: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "brpc_server_in_flight",
				Help: "Current number of in-flight requests across all connections",
			},
		),
		connsAccepted: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "brpc_connections_accepted_total",
				Help: "Total number of accepted connections",
			},
		),
		connsClosed: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "brpc_connections_closed_total",
				Help: "Total number of connections closed gracefully",
			},
		),
		connsForced: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "brpc_connections_force_closed_total",
				Help: "Total number of connections force-closed after idle timeout or shutdown deadline",
			},
		),
		throughput: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "brpc_throughput_requests_per_second",
				Help: "Most recent throughput sample taken by the periodic monitor",
			},
		),
	}
}

func (m *rpcMetrics) RecordDispatch(service, method string, duration time.Duration, errorCode int32) {
	if m == nil {
		return
	}
	m.dispatchTotal.WithLabelValues(service, method, strconv.Itoa(int(errorCode))).Inc()
	m.dispatchDuration.WithLabelValues(service, method).Observe(duration.Seconds() * 1000)
}

func (m *rpcMetrics) RecordDispatchStart(service, method string) {
	if m == nil {
		return
	}
	m.dispatchInFlight.WithLabelValues(service, method).Inc()
}

func (m *rpcMetrics) RecordDispatchEnd(service, method string) {
	if m == nil {
		return
	}
	m.dispatchInFlight.WithLabelValues(service, method).Dec()
}

func (m *rpcMetrics) RecordBytesTransferred(service, method, direction string, bytes uint64) {
	if m == nil {
		return
	}
	m.bytesTransferred.WithLabelValues(service, method, direction).Add(float64(bytes))
}

func (m *rpcMetrics) RecordFrameSize(segment string, bytes uint64) {
	if m == nil {
		return
	}
	m.frameSize.WithLabelValues(segment).Observe(float64(bytes))
}

func (m *rpcMetrics) SetActiveConnections(count int32) {
	if m == nil {
		return
	}
	m.activeConns.Set(float64(count))
}

func (m *rpcMetrics) SetInFlight(count int64) {
	if m == nil {
		return
	}
	m.inFlight.Set(float64(count))
}

func (m *rpcMetrics) RecordConnectionAccepted() {
	if m == nil {
		return
	}
	m.connsAccepted.Inc()
}

func (m *rpcMetrics) RecordConnectionClosed() {
	if m == nil {
		return
	}
	m.connsClosed.Inc()
}

func (m *rpcMetrics) RecordConnectionForceClosed() {
	if m == nil {
		return
	}
	m.connsForced.Inc()
}

func (m *rpcMetrics) RecordThroughput(rps float64) {
	if m == nil {
		return
	}
	m.throughput.Set(rps)
}

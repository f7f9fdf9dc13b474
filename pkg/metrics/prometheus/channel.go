package prometheus

import (
	"strconv"
	"time"

	"github.com/marmos91/brpc/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// channelMetrics is the Prometheus implementation of metrics.ChannelMetrics.
type channelMetrics struct {
	callTotal    *prometheus.CounterVec
	callDuration *prometheus.HistogramVec
	callTimeouts *prometheus.CounterVec
	inFlight     prometheus.Gauge
	bytes        *prometheus.CounterVec
	dialAttempts *prometheus.CounterVec
	reconnects   prometheus.Counter
}

func init() {
	metrics.RegisterChannelMetricsConstructor(func() metrics.ChannelMetrics {
		return newChannelMetrics()
	})
}

// newChannelMetrics creates a new Prometheus-backed ChannelMetrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func newChannelMetrics() metrics.ChannelMetrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &channelMetrics{
		callTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "brpc_channel_calls_total",
				Help: "Total number of calls issued by service, method, and error code",
			},
			[]string{"service", "method", "error_code"},
		),
		callDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "brpc_channel_call_duration_milliseconds",
				Help: "Round-trip duration of calls in milliseconds",
				Buckets: []float64{
					0.5,
					1,
					5,
					10,
					50,
					100,
					500,
					1000,
					5000,
				},
			},
			[]string{"service", "method"},
		),
		callTimeouts: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "brpc_channel_call_timeouts_total",
				Help: "Total number of calls cancelled by their deadline before a response arrived",
			},
			[]string{"service", "method"},
		),
		inFlight: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "brpc_channel_in_flight",
				Help: "Current number of calls awaiting a response on this channel",
			},
		),
		bytes: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "brpc_channel_bytes_total",
				Help: "Total body bytes sent or received by service, method, and direction",
			},
			[]string{"service", "method", "direction"}, // direction: "send", "receive"
		),
		dialAttempts: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "brpc_channel_dial_attempts_total",
				Help: "Total number of dial attempts by outcome",
			},
			[]string{"result"}, // "success", "failure"
		),
		reconnects: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "brpc_channel_reconnects_total",
				Help: "Total number of times a channel re-established its underlying connection",
			},
		),
	}
}

func (m *channelMetrics) ObserveCall(service, method string, duration time.Duration, errorCode int32) {
	if m == nil {
		return
	}
	m.callTotal.WithLabelValues(service, method, strconv.Itoa(int(errorCode))).Inc()
	m.callDuration.WithLabelValues(service, method).Observe(duration.Seconds() * 1000)
}

func (m *channelMetrics) RecordCallTimeout(service, method string) {
	if m == nil {
		return
	}
	m.callTimeouts.WithLabelValues(service, method).Inc()
}

func (m *channelMetrics) SetInFlight(count int) {
	if m == nil {
		return
	}
	m.inFlight.Set(float64(count))
}

func (m *channelMetrics) RecordBytes(service, method, direction string, bytes uint64) {
	if m == nil {
		return
	}
	m.bytes.WithLabelValues(service, method, direction).Add(float64(bytes))
}

func (m *channelMetrics) RecordDialResult(success bool) {
	if m == nil {
		return
	}
	result := "success"
	if !success {
		result = "failure"
	}
	m.dialAttempts.WithLabelValues(result).Inc()
}

func (m *channelMetrics) RecordReconnect() {
	if m == nil {
		return
	}
	m.reconnects.Inc()
}

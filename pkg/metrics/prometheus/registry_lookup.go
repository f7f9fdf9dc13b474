package prometheus

import (
	"github.com/marmos91/brpc/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RegistryLookupMetrics is the Prometheus implementation for
// ServiceRegistry lookup metrics. It is constructed directly with
// NewRegistryLookupMetrics and passed to registry.New, rather than through
// the indirection used for RPCMetrics and
// ChannelMetrics, since pkg/registry never needs to be imported back into
// this package.
type RegistryLookupMetrics struct {
	lookupHits         *prometheus.CounterVec
	unknownService     prometheus.Counter
	unknownMethod      *prometheus.CounterVec
	registeredServices prometheus.Gauge
}

// NewRegistryLookupMetrics creates a new Prometheus-backed
// RegistryLookupMetrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewRegistryLookupMetrics() *RegistryLookupMetrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &RegistryLookupMetrics{
		lookupHits: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "brpc_registry_lookup_hits_total",
				Help: "Total number of registry lookups that resolved to a registered handler",
			},
			[]string{"service", "method"},
		),
		unknownService: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "brpc_registry_unknown_service_total",
				Help: "Total number of lookups against a service name with no registered handlers",
			},
		),
		unknownMethod: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "brpc_registry_unknown_method_total",
				Help: "Total number of lookups against a registered service but unregistered method",
			},
			[]string{"service"},
		),
		registeredServices: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "brpc_registry_services",
				Help: "Current number of distinct services registered",
			},
		),
	}
}

// RecordLookupHit records a lookup that resolved to a registered handler.
func (m *RegistryLookupMetrics) RecordLookupHit(service, method string) {
	if m == nil {
		return
	}
	m.lookupHits.WithLabelValues(service, method).Inc()
}

// RecordUnknownService records a lookup against an unregistered service.
func (m *RegistryLookupMetrics) RecordUnknownService() {
	if m == nil {
		return
	}
	m.unknownService.Inc()
}

// RecordUnknownMethod records a lookup against a registered service but an
// unregistered method.
func (m *RegistryLookupMetrics) RecordUnknownMethod(service string) {
	if m == nil {
		return
	}
	m.unknownMethod.WithLabelValues(service).Inc()
}

// SetRegisteredServices records the current number of distinct registered
// services.
func (m *RegistryLookupMetrics) SetRegisteredServices(count int) {
	if m == nil {
		return
	}
	m.registeredServices.Set(float64(count))
}

package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	mu       sync.RWMutex
	registry *prometheus.Registry
	enabled  bool
)

// InitRegistry creates the process-wide Prometheus registry and flips
// metrics collection on. Call this once during startup, before
// constructing any of the New*Metrics() helpers in this package; callers
// that never call it get nil metrics instances and zero overhead.
func InitRegistry() *prometheus.Registry {
	mu.Lock()
	defer mu.Unlock()

	registry = prometheus.NewRegistry()
	enabled = true
	return registry
}

// IsEnabled reports whether InitRegistry has been called.
func IsEnabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return enabled
}

// GetRegistry returns the process-wide registry, or nil if InitRegistry
// has not been called.
func GetRegistry() *prometheus.Registry {
	mu.RLock()
	defer mu.RUnlock()
	return registry
}

// Shutdown disables metrics collection and drops the registry reference.
// Mostly useful for tests that call InitRegistry repeatedly.
func Shutdown() {
	mu.Lock()
	defer mu.Unlock()
	registry = nil
	enabled = false
}

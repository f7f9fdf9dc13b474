// Package registry maps (service_name, method_name) pairs to handler
// factories. It is built up before a Server starts and is read-only for
// the remainder of the process lifetime; lookups take only a read lock.
package registry

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/marmos91/brpc/pkg/metrics/prometheus"
	"github.com/marmos91/brpc/pkg/rpc"
)

// Outcome is the lazy result a Handler eventually produces: either a
// response payload and its (possibly mutated) Controller, or an error that
// becomes a HandlerFailed MethodError.
type Outcome struct {
	Payload    []byte
	Controller *rpc.Controller
	Err        error
}

// Handler resolves one request. Handle must not block past returning the
// channel; any blocking work happens in a goroutine that sends exactly one
// Outcome and closes the channel.
type Handler interface {
	Handle(ctx context.Context, payload []byte, ctrl *rpc.Controller) <-chan Outcome
}

// HandlerFunc adapts a plain function to a Handler, running it in its own
// goroutine so the caller's reactor is never blocked.
type HandlerFunc func(ctx context.Context, payload []byte, ctrl *rpc.Controller) ([]byte, error)

func (f HandlerFunc) Handle(ctx context.Context, payload []byte, ctrl *rpc.Controller) <-chan Outcome {
	out := make(chan Outcome, 1)
	go func() {
		resp, err := f(ctx, payload, ctrl)
		out <- Outcome{Payload: resp, Controller: ctrl, Err: err}
		close(out)
	}()
	return out
}

// HandlerFactory produces a fresh Handler instance, letting handlers that
// hold per-connection state avoid sharing it across connections.
type HandlerFactory func() Handler

// MethodEntry pairs a method name with the factory that produces its
// handler.
type MethodEntry struct {
	Name    string
	Factory HandlerFactory
}

// Registrant bundles the methods exposed under one service name.
type Registrant []MethodEntry

// ServiceRegistry maps service_name -> method_name -> HandlerFactory.
type ServiceRegistry struct {
	mu       sync.RWMutex
	services map[string]map[string]HandlerFactory
	started  atomic.Bool
	metrics  *prometheus.RegistryLookupMetrics
}

// New returns an empty ServiceRegistry. metrics may be nil to disable
// lookup-metric collection.
func New(metrics *prometheus.RegistryLookupMetrics) *ServiceRegistry {
	return &ServiceRegistry{
		services: make(map[string]map[string]HandlerFactory),
		metrics:  metrics,
	}
}

// Register adds registrant's methods under serviceName. It fails with a
// *rpc.RegistryError wrapping rpc.ErrDuplicateRegistration if any
// (service, method) pair is already present, or if the registry has
// already been started.
func (r *ServiceRegistry) Register(serviceName string, registrant Registrant) error {
	if r.started.Load() {
		return &rpc.RegistryError{Service: serviceName, Err: errAlreadyStarted}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	methods, ok := r.services[serviceName]
	if !ok {
		methods = make(map[string]HandlerFactory)
		r.services[serviceName] = methods
	}

	for _, entry := range registrant {
		if _, exists := methods[entry.Name]; exists {
			return &rpc.RegistryError{Service: serviceName, Method: entry.Name, Err: rpc.ErrDuplicateRegistration}
		}
	}

	for _, entry := range registrant {
		methods[entry.Name] = entry.Factory
	}

	if r.metrics != nil {
		r.metrics.SetRegisteredServices(len(r.services))
	}

	return nil
}

// Start freezes the registry against further Register calls. brpcd's start
// command calls it once, before the server begins accepting connections.
func (r *ServiceRegistry) Start() {
	r.started.Store(true)
}

// Lookup resolves (serviceName, methodName) to a fresh Handler instance.
// Failures are *rpc.MethodError values distinguishing an unknown service
// from an unknown method on a known service.
func (r *ServiceRegistry) Lookup(serviceName, methodName string) (Handler, error) {
	r.mu.RLock()
	methods, ok := r.services[serviceName]
	if !ok {
		r.mu.RUnlock()
		if r.metrics != nil {
			r.metrics.RecordUnknownService()
		}
		return nil, rpc.NewUnknownService(serviceName)
	}

	factory, ok := methods[methodName]
	r.mu.RUnlock()
	if !ok {
		if r.metrics != nil {
			r.metrics.RecordUnknownMethod(serviceName)
		}
		return nil, rpc.NewUnknownMethod(serviceName, methodName)
	}

	if r.metrics != nil {
		r.metrics.RecordLookupHit(serviceName, methodName)
	}

	return factory(), nil
}

// Services returns the names of all registered services, for diagnostics
// and the brpcctl status command.
func (r *ServiceRegistry) Services() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.services))
	for name := range r.services {
		names = append(names, name)
	}
	return names
}

var errAlreadyStarted = &registryStartedError{}

type registryStartedError struct{}

func (*registryStartedError) Error() string {
	return "registry is read-only once the server has started"
}

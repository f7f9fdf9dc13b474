// Package echo provides the example services bundled with brpcd: Echo,
// which returns its payload unchanged, and Reverse, which returns it
// byte-reversed. Both exist to give operators something to call against a
// freshly started daemon and to exercise every dispatch path in tests.
package echo

import (
	"context"

	"github.com/marmos91/brpc/pkg/registry"
	"github.com/marmos91/brpc/pkg/rpc"
)

// ServiceName is the brpc service name under which Echo and Reverse are
// registered.
const ServiceName = "echo.EchoService"

// Register adds the Echo and Reverse methods to reg under ServiceName.
func Register(reg *registry.ServiceRegistry) error {
	return reg.Register(ServiceName, registry.Registrant{
		{Name: "Echo", Factory: newEchoHandler},
		{Name: "Reverse", Factory: newReverseHandler},
	})
}

func newEchoHandler() registry.Handler {
	return registry.HandlerFunc(func(_ context.Context, payload []byte, _ *rpc.Controller) ([]byte, error) {
		return payload, nil
	})
}

func newReverseHandler() registry.Handler {
	return registry.HandlerFunc(func(_ context.Context, payload []byte, _ *rpc.Controller) ([]byte, error) {
		reversed := make([]byte, len(payload))
		for i, b := range payload {
			reversed[len(payload)-1-i] = b
		}
		return reversed, nil
	})
}

package echo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/brpc/pkg/registry"
	"github.com/marmos91/brpc/pkg/rpc"
)

func TestRegister_Echo(t *testing.T) {
	reg := registry.New(nil)
	require.NoError(t, Register(reg))

	handler, err := reg.Lookup(ServiceName, "Echo")
	require.NoError(t, err)

	out := <-handler.Handle(context.Background(), []byte("hello"), rpc.NewController())
	require.NoError(t, out.Err)
	assert.Equal(t, "hello", string(out.Payload))
}

func TestRegister_Reverse(t *testing.T) {
	reg := registry.New(nil)
	require.NoError(t, Register(reg))

	handler, err := reg.Lookup(ServiceName, "Reverse")
	require.NoError(t, err)

	out := <-handler.Handle(context.Background(), []byte("abcd"), rpc.NewController())
	require.NoError(t, out.Err)
	assert.Equal(t, "dcba", string(out.Payload))
}

func TestRegister_UnknownMethod(t *testing.T) {
	reg := registry.New(nil)
	require.NoError(t, Register(reg))

	_, err := reg.Lookup(ServiceName, "Nope")
	assert.Error(t, err)
}

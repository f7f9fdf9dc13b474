package dispatch

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/brpc/pkg/registry"
	"github.com/marmos91/brpc/pkg/rpc"
	"github.com/marmos91/brpc/pkg/wire"
)

func newFrame(t *testing.T, meta *rpc.RequestMeta, payload []byte) *wire.Frame {
	t.Helper()
	encoded, err := wire.EncodeRequestMeta(meta)
	require.NoError(t, err)
	return &wire.Frame{Meta: encoded, Payload: payload}
}

func TestDispatch_Success(t *testing.T) {
	reg := registry.New(nil)
	err := reg.Register("echo.EchoService", registry.Registrant{
		{Name: "Echo", Factory: func() registry.Handler {
			return registry.HandlerFunc(func(_ context.Context, payload []byte, _ *rpc.Controller) ([]byte, error) {
				return payload, nil
			})
		}},
	})
	require.NoError(t, err)

	d := New(reg, nil)
	frame := newFrame(t, &rpc.RequestMeta{ServiceName: "echo.EchoService", MethodName: "Echo", CorrelationID: 7}, []byte("hello"))

	resp, payload := d.Dispatch(context.Background(), frame)
	require.True(t, resp.OK(), "expected OK response, got error code %d: %s", resp.ErrorCode, resp.ErrorText)
	assert.EqualValues(t, 7, resp.CorrelationID)
	assert.Equal(t, "hello", string(payload))
}

func TestDispatch_UnknownService(t *testing.T) {
	reg := registry.New(nil)
	d := New(reg, nil)
	frame := newFrame(t, &rpc.RequestMeta{ServiceName: "nope.Service", MethodName: "Method", CorrelationID: 1}, nil)

	resp, payload := d.Dispatch(context.Background(), frame)
	assert.Equal(t, rpc.ErrCodeUnknownService, resp.ErrorCode)
	assert.Nil(t, payload)
}

func TestDispatch_UnknownMethod(t *testing.T) {
	reg := registry.New(nil)
	require.NoError(t, reg.Register("echo.EchoService", registry.Registrant{
		{Name: "Echo", Factory: func() registry.Handler {
			return registry.HandlerFunc(func(_ context.Context, payload []byte, _ *rpc.Controller) ([]byte, error) {
				return payload, nil
			})
		}},
	}))

	d := New(reg, nil)
	frame := newFrame(t, &rpc.RequestMeta{ServiceName: "echo.EchoService", MethodName: "Nope", CorrelationID: 2}, nil)

	resp, _ := d.Dispatch(context.Background(), frame)
	assert.Equal(t, rpc.ErrCodeUnknownMethod, resp.ErrorCode)
}

func TestDispatch_HandlerFailure(t *testing.T) {
	reg := registry.New(nil)
	require.NoError(t, reg.Register("fail.Service", registry.Registrant{
		{Name: "Boom", Factory: func() registry.Handler {
			return registry.HandlerFunc(func(_ context.Context, _ []byte, _ *rpc.Controller) ([]byte, error) {
				return nil, errors.New("boom")
			})
		}},
	}))

	d := New(reg, nil)
	frame := newFrame(t, &rpc.RequestMeta{ServiceName: "fail.Service", MethodName: "Boom", CorrelationID: 3}, nil)

	resp, _ := d.Dispatch(context.Background(), frame)
	assert.Equal(t, rpc.ErrCodeUnknownError, resp.ErrorCode)
	assert.NotEmpty(t, resp.ErrorText)
}

func TestDispatch_MalformedMeta(t *testing.T) {
	reg := registry.New(nil)
	d := New(reg, nil)
	frame := &wire.Frame{Meta: []byte{0xFF, 0xFF, 0xFF}, Payload: nil}

	resp, _ := d.Dispatch(context.Background(), frame)
	assert.Equal(t, rpc.ErrCodeParseError, resp.ErrorCode)
}

func TestDispatch_CompressedPayloadRoundTrip(t *testing.T) {
	reg := registry.New(nil)
	require.NoError(t, reg.Register("echo.EchoService", registry.Registrant{
		{Name: "Echo", Factory: func() registry.Handler {
			return registry.HandlerFunc(func(_ context.Context, payload []byte, _ *rpc.Controller) ([]byte, error) {
				return payload, nil
			})
		}},
	}))

	d := New(reg, nil)

	original := []byte("the quick brown fox jumps over the lazy dog")
	compressed, err := wire.Compress(original, wire.CompressionZstd)
	require.NoError(t, err)

	frame := newFrame(t, &rpc.RequestMeta{
		ServiceName:        "echo.EchoService",
		MethodName:         "Echo",
		CorrelationID:      9,
		CompressionType:    wire.CompressionZstd,
		HasCompressionType: true,
	}, compressed)

	resp, payload := d.Dispatch(context.Background(), frame)
	require.True(t, resp.OK(), "expected OK response, got error code %d: %s", resp.ErrorCode, resp.ErrorText)
	require.True(t, resp.HasCompressionType)
	assert.Equal(t, wire.CompressionZstd, resp.CompressionType)

	decompressed, err := wire.Decompress(payload, resp.CompressionType)
	require.NoError(t, err)
	assert.Equal(t, original, decompressed)
}

func TestDispatch_UndecodableCompressedPayload(t *testing.T) {
	reg := registry.New(nil)
	require.NoError(t, reg.Register("echo.EchoService", registry.Registrant{
		{Name: "Echo", Factory: func() registry.Handler {
			return registry.HandlerFunc(func(_ context.Context, payload []byte, _ *rpc.Controller) ([]byte, error) {
				return payload, nil
			})
		}},
	}))

	d := New(reg, nil)
	frame := newFrame(t, &rpc.RequestMeta{
		ServiceName:        "echo.EchoService",
		MethodName:         "Echo",
		CorrelationID:      10,
		CompressionType:    wire.CompressionZstd,
		HasCompressionType: true,
	}, []byte("not actually zstd"))

	resp, payload := d.Dispatch(context.Background(), frame)
	assert.Equal(t, rpc.ErrCodeParseError, resp.ErrorCode)
	assert.Nil(t, payload)
}

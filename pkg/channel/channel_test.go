package channel

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/brpc/pkg/rpc"
	"github.com/marmos91/brpc/pkg/wire"
)

// serveOneEcho accepts a single connection on ln and echoes every frame's
// payload back with ErrorCode OK, preserving correlation_id, until the
// connection closes.
func serveOneEcho(t *testing.T, ln net.Listener) {
	t.Helper()
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		r := wire.NewReader(conn, wire.DefaultMaxFrameSize)
		w := wire.NewWriter(conn)
		for {
			frame, err := r.Read()
			if err != nil {
				return
			}
			reqMeta, err := wire.DecodeRequestMeta(frame.Meta)
			if err != nil {
				return
			}
			respMeta, _ := wire.EncodeResponseMeta(&rpc.ResponseMeta{
				CorrelationID: reqMeta.CorrelationID,
				ErrorCode:     rpc.ErrCodeOK,
			})
			if err := w.Write(respMeta, frame.Payload); err != nil {
				return
			}
		}
	}()
}

func TestChannel_CallRoundTrip(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	serveOneEcho(t, ln)

	ctx := context.Background()
	ch, task, err := Build(ctx, ln.Addr().String(), Options{DialTimeout: time.Second}, nil)
	require.NoError(t, err)

	taskCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() { _ = task.Run(taskCtx) }()

	payload, err := ch.Call(ctx, &rpc.RequestMeta{ServiceName: "echo.EchoService", MethodName: "Echo"}, []byte("hi"), rpc.NewController())
	require.NoError(t, err)
	assert.Equal(t, "hi", string(payload))
}

func TestChannel_CallTimeout(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	// Accept but never respond, to force the client-side timeout.
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		time.Sleep(2 * time.Second)
	}()

	ctx := context.Background()
	ch, task, err := Build(ctx, ln.Addr().String(), Options{DialTimeout: time.Second}, nil)
	require.NoError(t, err)

	taskCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() { _ = task.Run(taskCtx) }()

	ctrl := rpc.WithTimeout(50 * time.Millisecond)
	_, err = ch.Call(ctx, &rpc.RequestMeta{ServiceName: "echo.EchoService", MethodName: "Echo"}, []byte("hi"), ctrl)
	require.Error(t, err)

	var callErr *rpc.CallError
	require.ErrorAsf(t, err, &callErr, "expected *rpc.CallError, got %T", err)
	assert.Equal(t, rpc.CallErrorTimeout, callErr.Kind)
}

func TestChannel_BrokenAfterTransportError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		conn.Close()
	}()

	ctx := context.Background()
	ch, task, err := Build(ctx, ln.Addr().String(), Options{DialTimeout: time.Second}, nil)
	require.NoError(t, err)

	taskCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() { _ = task.Run(taskCtx) }()

	_, err = ch.Call(ctx, &rpc.RequestMeta{ServiceName: "echo.EchoService", MethodName: "Echo"}, []byte("hi"), rpc.NewController())
	require.Error(t, err, "expected a transport error once the peer closes the connection")

	deadline := time.Now().Add(time.Second)
	for !ch.Broken() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	assert.True(t, ch.Broken())
}

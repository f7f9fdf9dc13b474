package stub

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/brpc/pkg/channel"
	"github.com/marmos91/brpc/pkg/codec"
	"github.com/marmos91/brpc/pkg/rpc"
	"github.com/marmos91/brpc/pkg/wire"
)

// serveEchoMirroringCompression accepts a single connection on ln and echoes
// every frame's payload back with ErrorCode OK, mirroring the request's
// compression_type onto the response the way Dispatcher.Dispatch does.
func serveEchoMirroringCompression(t *testing.T, ln net.Listener) {
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
				CorrelationID:      reqMeta.CorrelationID,
				ErrorCode:          rpc.ErrCodeOK,
				CompressionType:    reqMeta.CompressionType,
				HasCompressionType: reqMeta.HasCompressionType,
			})
			if err := w.Write(respMeta, frame.Payload); err != nil {
				return
			}
		}
	}()
}

func TestStub_CallRoundTrip(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	serveEchoMirroringCompression(t, ln)

	ctx := context.Background()
	ch, task, err := channel.Build(ctx, ln.Addr().String(), channel.Options{DialTimeout: time.Second}, nil)
	require.NoError(t, err)

	taskCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() { _ = task.Run(taskCtx) }()

	s := New[[]byte, []byte](ch, "echo.EchoService", "Echo", codec.BytesCodec{}, codec.BytesCodec{})

	resp, err := s.Call(ctx, []byte("round trip"), rpc.NewController())
	require.NoError(t, err)
	assert.Equal(t, "round trip", string(resp))
}

func TestStub_CallWithCompression(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	serveEchoMirroringCompression(t, ln)

	ctx := context.Background()
	ch, task, err := channel.Build(ctx, ln.Addr().String(), channel.Options{DialTimeout: time.Second}, nil)
	require.NoError(t, err)

	taskCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() { _ = task.Run(taskCtx) }()

	s := New[[]byte, []byte](ch, "echo.EchoService", "Echo", codec.BytesCodec{}, codec.BytesCodec{})

	ctrl := rpc.NewController()
	ctrl.SetCompressionType(wire.CompressionSnappy)

	resp, err := s.Call(ctx, []byte("compress me, please"), ctrl)
	require.NoError(t, err)
	assert.Equal(t, "compress me, please", string(resp))
}

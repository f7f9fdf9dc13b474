// Package channel implements the client side of brpc: a multiplexed TCP
// connection to one server, a monotonic correlation-id generator, and the
// BackendTask that drives the socket and owns the in-flight call table.
package channel

import (
	"context"
	"net"
	"sync/atomic"
	"time"

	"github.com/marmos91/brpc/internal/logger"
	"github.com/marmos91/brpc/pkg/metrics"
	"github.com/marmos91/brpc/pkg/rpc"
	"github.com/marmos91/brpc/pkg/wire"
)

// Options configures Build.
type Options struct {
	// DialTimeout bounds the TCP handshake.
	DialTimeout time.Duration

	// DefaultTimeout is applied to a Call whose Controller carries no
	// explicit deadline.
	DefaultTimeout time.Duration

	// MaxInFlight bounds how many outstanding calls may be queued before
	// Call blocks.
	MaxInFlight int

	// MaxFrameSize caps the body_size a response frame may declare.
	MaxFrameSize uint32
}

type outboundFrame struct {
	meta    []byte
	payload []byte
}

type insertRequest struct {
	correlationID uint64
	slot          chan outcome
}

type outcome struct {
	payload []byte
	err     error
}

// Channel is a client handle to one server's address. It is safe for
// concurrent use by multiple goroutines issuing Call.
type Channel struct {
	address     string
	conn        net.Conn
	nextCorrID  atomic.Uint64
	outbound    chan outboundFrame
	inserts     chan insertRequest
	cancels     chan uint64
	defaultWait time.Duration
	metrics     metrics.ChannelMetrics

	broken    atomic.Bool
	brokenErr atomic.Pointer[error]
}

// Build dials address and returns a Channel paired with the BackendTask
// that must be scheduled (run in its own goroutine, typically via
// `go task.Run(ctx)`) to actually drive the socket. m may be nil to disable
// metrics collection.
func Build(ctx context.Context, address string, opts Options, m metrics.ChannelMetrics) (*Channel, *BackendTask, error) {
	if opts.MaxInFlight <= 0 {
		opts.MaxInFlight = 1024
	}
	if opts.MaxFrameSize == 0 {
		opts.MaxFrameSize = wire.DefaultMaxFrameSize
	}

	dialer := net.Dialer{Timeout: opts.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if m != nil {
		m.RecordDialResult(err == nil)
	}
	if err != nil {
		return nil, nil, &rpc.ChannelBuildError{Address: address, Err: err}
	}

	ch := &Channel{
		address:     address,
		conn:        conn,
		outbound:    make(chan outboundFrame, opts.MaxInFlight),
		inserts:     make(chan insertRequest, opts.MaxInFlight),
		cancels:     make(chan uint64, opts.MaxInFlight),
		defaultWait: opts.DefaultTimeout,
		metrics:     m,
	}

	task := &BackendTask{
		channel: ch,
		reader:  wire.NewReader(conn, opts.MaxFrameSize),
		writer:  wire.NewWriter(conn),
	}

	return ch, task, nil
}

// Call sends one request and blocks until a response arrives, the
// controller's deadline expires, ctx is cancelled, or the channel breaks.
// meta.CorrelationID is overwritten with a freshly allocated id.
func (c *Channel) Call(ctx context.Context, meta *rpc.RequestMeta, payload []byte, ctrl *rpc.Controller) ([]byte, error) {
	start := time.Now()

	if c.broken.Load() {
		return nil, c.brokenCallError()
	}

	meta.CorrelationID = c.nextCorrID.Add(1)
	slot := make(chan outcome, 1)

	select {
	case c.inserts <- insertRequest{correlationID: meta.CorrelationID, slot: slot}:
	case <-ctx.Done():
		return nil, rpc.NewCallError(rpc.CallErrorCancelled, ctx.Err())
	}

	encodedMeta, err := wire.EncodeRequestMeta(meta)
	if err != nil {
		c.cancels <- meta.CorrelationID
		return nil, rpc.NewCallError(rpc.CallErrorEncode, err)
	}

	select {
	case c.outbound <- outboundFrame{meta: encodedMeta, payload: payload}:
	case <-ctx.Done():
		c.cancels <- meta.CorrelationID
		return nil, rpc.NewCallError(rpc.CallErrorCancelled, ctx.Err())
	}

	deadline, hasDeadline := ctrl.Deadline()
	if !hasDeadline && c.defaultWait > 0 {
		deadline = time.Now().Add(c.defaultWait)
		hasDeadline = true
		ctrl.SetDeadline(deadline)
	}

	var timeoutCh <-chan time.Time
	if hasDeadline {
		timer := time.NewTimer(time.Until(deadline))
		defer timer.Stop()
		timeoutCh = timer.C
	}

	select {
	case out := <-slot:
		metrics.ObserveCall(c.metrics, meta.ServiceName, meta.MethodName, time.Since(start), errorCodeOf(out.err))
		return out.payload, out.err

	case <-timeoutCh:
		c.cancels <- meta.CorrelationID
		if c.metrics != nil {
			c.metrics.RecordCallTimeout(meta.ServiceName, meta.MethodName)
		}
		return nil, rpc.NewCallError(rpc.CallErrorTimeout, nil)

	case <-ctx.Done():
		c.cancels <- meta.CorrelationID
		return nil, rpc.NewCallError(rpc.CallErrorCancelled, ctx.Err())
	}
}

func errorCodeOf(err error) int32 {
	if err == nil {
		return rpc.ErrCodeOK
	}
	return rpc.ErrCodeUnknownError
}

func (c *Channel) brokenCallError() error {
	if p := c.brokenErr.Load(); p != nil {
		return rpc.NewCallError(rpc.CallErrorChannelBroken, *p)
	}
	return rpc.NewCallError(rpc.CallErrorChannelBroken, nil)
}

func (c *Channel) breakChannel(err error) {
	if c.broken.CompareAndSwap(false, true) {
		c.brokenErr.Store(&err)
		logger.Warn("channel broken", "address", c.address, logger.Err(err))
	}
}

// Close tears down the underlying connection. The BackendTask's Run
// observes the resulting read/write error and unwinds, failing any
// in-flight calls with CallErrorTransport.
func (c *Channel) Close() error {
	return c.conn.Close()
}

// Broken reports whether the channel has transitioned to the broken state.
func (c *Channel) Broken() bool {
	return c.broken.Load()
}

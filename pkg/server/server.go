// Package server implements the brpc listener: an accept loop spread over a
// fixed reactor pool, one read/dispatch/write loop per connection, idle
// timeouts, soft per-connection backpressure, and graceful shutdown.
package server

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/marmos91/brpc/internal/logger"
	"github.com/marmos91/brpc/pkg/config"
	"github.com/marmos91/brpc/pkg/dispatch"
	"github.com/marmos91/brpc/pkg/metrics"
	"github.com/marmos91/brpc/pkg/monitor"
	"github.com/marmos91/brpc/pkg/rpc"
	"github.com/marmos91/brpc/pkg/wire"
)

// Server accepts TCP connections and dispatches the brpc frames each one
// carries. Construct with New and run with Serve. Stop, or cancelling
// Serve's context, begins shutdown; Serve then drains connections up to
// ShutdownTimeout before forcing them closed.
type Server struct {
	cfg        config.ServerConfig
	dispatcher *dispatch.Dispatcher
	metrics    metrics.RPCMetrics

	listener net.Listener

	activeConns sync.WaitGroup
	connCount   atomic.Int32
	conns       sync.Map // connID (string) -> net.Conn, for forced closure on shutdown

	shutdown       chan struct{}
	shutdownOnce   sync.Once
	cancelInFlight context.CancelFunc
	inFlightCtx    context.Context

	completed *monitor.Counter
	monitor   *monitor.Monitor
}

// New returns a Server that will dispatch accepted connections through
// dispatcher. m may be nil to disable metrics collection.
func New(cfg config.ServerConfig, dispatcher *dispatch.Dispatcher, m metrics.RPCMetrics) *Server {
	if cfg.Reactors <= 0 {
		cfg.Reactors = 1
	}
	if cfg.MaxInFlightPerConn <= 0 {
		cfg.MaxInFlightPerConn = 1024
	}
	if cfg.MaxFrameSize == 0 {
		cfg.MaxFrameSize = wire.DefaultMaxFrameSize
	}

	inFlightCtx, cancel := context.WithCancel(context.Background())
	counter := &monitor.Counter{}

	return &Server{
		cfg:            cfg,
		dispatcher:     dispatcher,
		metrics:        m,
		shutdown:       make(chan struct{}),
		inFlightCtx:    inFlightCtx,
		cancelInFlight: cancel,
		completed:      counter,
		monitor:        monitor.New(counter, time.Second, m),
	}
}

// Throughput returns the most recently sampled requests-per-second figure.
func (s *Server) Throughput() int64 {
	return s.monitor.Throughput()
}

// Serve binds the listener and runs cfg.Reactors goroutines each calling
// Accept() on the shared listener, distributing accepted connections across
// the pool without an explicit work queue. It blocks until ctx is cancelled
// or Stop is called, then returns once every connection has drained or the
// shutdown timeout elapses.
func (s *Server) Serve(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.BindAddress, s.cfg.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return &rpc.ServerBuildError{Address: addr, Err: err}
	}
	s.listener = listener

	logger.Info("brpc server listening", "address", listener.Addr().String(), "reactors", s.cfg.Reactors)

	go func() {
		<-ctx.Done()
		s.initiateShutdown()
	}()

	go s.monitor.Run(s.inFlightCtx)

	if s.cfg.MetricsLogInterval > 0 {
		go s.logMetrics(s.inFlightCtx)
	}

	g, _ := errgroup.WithContext(context.Background())
	for i := 0; i < s.cfg.Reactors; i++ {
		g.Go(s.acceptLoop)
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return s.drain()
}

// acceptLoop repeatedly accepts connections until the listener closes
// (the shutdown signal). Each accepted connection is handled on its own
// goroutine so the reactor returns immediately to Accept().
func (s *Server) acceptLoop() error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.shutdown:
				return nil
			default:
				logger.Warn("accept failed", logger.Err(err))
				continue
			}
		}

		if tcp, ok := conn.(*net.TCPConn); ok {
			_ = tcp.SetNoDelay(true)
		}

		connID := s.trackConnection(conn)
		go s.handleConnection(connID, conn)
	}
}

func (s *Server) trackConnection(conn net.Conn) string {
	connID := uuid.NewString()
	s.conns.Store(connID, conn)
	s.activeConns.Add(1)
	n := s.connCount.Add(1)

	if s.metrics != nil {
		s.metrics.RecordConnectionAccepted()
		s.metrics.SetActiveConnections(n)
	}

	logger.Debug("connection accepted", logger.ConnectionID(connID), "address", conn.RemoteAddr(), logger.ActiveConns(n))
	return connID
}

func (s *Server) untrackConnection(connID string, conn net.Conn) {
	s.conns.Delete(connID)
	s.activeConns.Done()
	n := s.connCount.Add(-1)

	if s.metrics != nil {
		s.metrics.RecordConnectionClosed()
		s.metrics.SetActiveConnections(n)
	}

	logger.Debug("connection closed", logger.ConnectionID(connID), "address", conn.RemoteAddr(), logger.ActiveConns(n))
}

// handleConnection reads frames off conn until it errors or the idle
// timeout fires, dispatching each one and writing its response. Responses
// are not guaranteed to be written in request order: concurrent in-flight
// requests on the same connection race to acquire the write lock.
func (s *Server) handleConnection(connID string, conn net.Conn) {
	defer func() {
		_ = conn.Close()
		s.untrackConnection(connID, conn)
	}()

	reader := wire.NewReader(conn, uint32(s.cfg.MaxFrameSize))
	writer := wire.NewWriter(conn)
	var writeMu sync.Mutex

	sem := semaphore.NewWeighted(int64(s.cfg.MaxInFlightPerConn))
	var inFlight sync.WaitGroup

	for {
		if s.cfg.IdleTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(s.cfg.IdleTimeout))
		}

		frame, err := reader.Read()
		if err != nil {
			break
		}

		if err := sem.Acquire(s.inFlightCtx, 1); err != nil {
			break
		}

		inFlight.Add(1)
		go func(f *wire.Frame) {
			defer sem.Release(1)
			defer inFlight.Done()

			respMeta, payload := s.dispatcher.Dispatch(s.inFlightCtx, f)
			encodedMeta, err := wire.EncodeResponseMeta(respMeta)
			if err != nil {
				logger.Error("failed to encode response meta", logger.Err(err))
				return
			}

			writeMu.Lock()
			err = writer.Write(encodedMeta, payload)
			writeMu.Unlock()
			if err != nil {
				logger.Debug("failed to write response", logger.ConnectionID(connID), logger.Err(err))
				return
			}
			s.completed.Inc()
		}(frame)
	}

	inFlight.Wait()
}

// logMetrics periodically logs active-connection and throughput snapshots.
func (s *Server) logMetrics(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.MetricsLogInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			logger.Info("server metrics", logger.ActiveConns(s.connCount.Load()), logger.Throughput(s.monitor.Throughput()))
		}
	}
}

// initiateShutdown stops accepting new connections and interrupts any
// blocking reads so acceptLoop and handleConnection goroutines unwind.
func (s *Server) initiateShutdown() {
	s.shutdownOnce.Do(func() {
		close(s.shutdown)
		if s.listener != nil {
			_ = s.listener.Close()
		}

		deadline := time.Now().Add(100 * time.Millisecond)
		s.conns.Range(func(_, v any) bool {
			if conn, ok := v.(net.Conn); ok {
				_ = conn.SetReadDeadline(deadline)
			}
			return true
		})

		s.cancelInFlight()
	})
}

// drain waits for all connections to finish up to cfg.ShutdownTimeout,
// force-closing whatever remains once the deadline passes.
func (s *Server) drain() error {
	done := make(chan struct{})
	go func() {
		s.activeConns.Wait()
		close(done)
	}()

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		var result *multierror.Error
		s.conns.Range(func(_, v any) bool {
			if conn, ok := v.(net.Conn); ok {
				if err := conn.Close(); err != nil {
					result = multierror.Append(result, err)
				}
				if s.metrics != nil {
					s.metrics.RecordConnectionForceClosed()
				}
			}
			return true
		})
		return result.ErrorOrNil()
	}
}

// Stop triggers graceful shutdown and blocks until Serve returns or ctx is
// cancelled.
func (s *Server) Stop(ctx context.Context) error {
	s.initiateShutdown()

	done := make(chan struct{})
	go func() {
		s.activeConns.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ActiveConnections returns the current connection count.
func (s *Server) ActiveConnections() int32 {
	return s.connCount.Load()
}

// Addr returns the listener's bound address. Only valid after Serve has
// started.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

package channel

import (
	"context"

	"github.com/marmos91/brpc/internal/logger"
	"github.com/marmos91/brpc/pkg/rpc"
	"github.com/marmos91/brpc/pkg/wire"
)

// BackendTask is the long-running computation that drives one Channel's
// socket: it drains the outbound frame queue into the connection, parses
// inbound frames, and delivers each to the slot identified by its
// correlation_id. It is the sole owner of the in-flight call table; every
// other goroutine reaches it only through the Channel's inserts/cancels
// channels, never through a shared lock.
type BackendTask struct {
	channel *Channel
	reader  *wire.Reader
	writer  *wire.Writer
}

// Run drives the socket until ctx is cancelled or the connection errors. A
// caller schedules this on its own goroutine immediately after Build
// returns; the Channel is unusable until Run is running.
func (t *BackendTask) Run(ctx context.Context) error {
	table := make(map[uint64]chan outcome)

	writeErrCh := make(chan error, 1)
	go t.runWriter(ctx, writeErrCh)

	frameCh := make(chan *wire.Frame)
	readErrCh := make(chan error, 1)
	go t.runReader(ctx, frameCh, readErrCh)

	for {
		select {
		case ins := <-t.channel.inserts:
			table[ins.correlationID] = ins.slot

		case correlationID := <-t.channel.cancels:
			if slot, ok := table[correlationID]; ok {
				delete(table, correlationID)
				close(slot)
			}

		case frame := <-frameCh:
			t.deliver(table, frame)

		case err := <-readErrCh:
			t.failAll(table, rpc.NewCallError(rpc.CallErrorTransport, err))
			t.channel.breakChannel(err)
			return err

		case err := <-writeErrCh:
			if err == nil {
				continue
			}
			t.failAll(table, rpc.NewCallError(rpc.CallErrorTransport, err))
			t.channel.breakChannel(err)
			return err

		case <-ctx.Done():
			t.failAll(table, rpc.NewCallError(rpc.CallErrorCancelled, ctx.Err()))
			_ = t.channel.conn.Close()
			return ctx.Err()
		}
	}
}

func (t *BackendTask) runWriter(ctx context.Context, done chan<- error) {
	for {
		select {
		case f := <-t.channel.outbound:
			if err := t.writer.Write(f.meta, f.payload); err != nil {
				done <- err
				return
			}
		case <-ctx.Done():
			done <- nil
			return
		}
	}
}

func (t *BackendTask) runReader(ctx context.Context, frames chan<- *wire.Frame, done chan<- error) {
	for {
		frame, err := t.reader.Read()
		if err != nil {
			done <- err
			return
		}
		select {
		case frames <- frame:
		case <-ctx.Done():
			return
		}
	}
}

func (t *BackendTask) deliver(table map[uint64]chan outcome, frame *wire.Frame) {
	respMeta, err := wire.DecodeResponseMeta(frame.Meta)
	if err != nil {
		logger.Warn("discarding frame with unparsable response meta", logger.Err(err))
		return
	}

	slot, ok := table[respMeta.CorrelationID]
	if !ok {
		logger.Debug("discarding response for unknown or poisoned correlation id",
			logger.CorrelationID(respMeta.CorrelationID))
		return
	}
	delete(table, respMeta.CorrelationID)

	if respMeta.OK() {
		payload := frame.Payload
		if respMeta.HasCompressionType && respMeta.CompressionType != wire.CompressionNone {
			decompressed, err := wire.Decompress(payload, respMeta.CompressionType)
			if err != nil {
				slot <- outcome{err: rpc.NewCallError(rpc.CallErrorDecode, err)}
				close(slot)
				return
			}
			payload = decompressed
		}
		slot <- outcome{payload: payload}
	} else {
		slot <- outcome{err: rpc.NewCallError(rpc.CallErrorTransport, &rpc.MethodError{
			Kind: rpc.MethodErrorHandlerFailed,
			Err:  errorText(respMeta.ErrorText),
		})}
	}
	close(slot)
}

func (t *BackendTask) failAll(table map[uint64]chan outcome, err error) {
	for correlationID, slot := range table {
		delete(table, correlationID)
		slot <- outcome{err: err}
		close(slot)
	}
}

type errorText string

func (e errorText) Error() string { return string(e) }

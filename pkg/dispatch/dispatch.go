// Package dispatch turns one decoded wire frame into a response frame: it
// decodes the request meta, looks the method up in a ServiceRegistry,
// invokes the resulting Handler, and encodes whatever comes back (success
// or failure) as a response meta. It never touches a net.Conn directly so
// it can be exercised without a Server.
package dispatch

import (
	"context"
	"time"

	"github.com/marmos91/brpc/internal/logger"
	"github.com/marmos91/brpc/pkg/metrics"
	"github.com/marmos91/brpc/pkg/registry"
	"github.com/marmos91/brpc/pkg/rpc"
	"github.com/marmos91/brpc/pkg/wire"
)

// Dispatcher resolves and invokes one call per Dispatch, composing its
// response meta from whatever the registry lookup or the handler itself
// produces. A zero value is not usable; construct with New.
type Dispatcher struct {
	registry *registry.ServiceRegistry
	metrics  metrics.RPCMetrics
}

// New returns a Dispatcher backed by reg. m may be nil to disable
// dispatch-metric collection.
func New(reg *registry.ServiceRegistry, m metrics.RPCMetrics) *Dispatcher {
	return &Dispatcher{registry: reg, metrics: m}
}

// Dispatch decodes frame.Meta as a RequestMeta, resolves and runs the
// matching handler with frame.Payload, and returns the response meta and
// payload to write back. It returns no error: everything the meta decode,
// registry or handler can fail with is folded into a non-zero
// ResponseMeta.ErrorCode so the connection survives a single bad call.
func (d *Dispatcher) Dispatch(ctx context.Context, frame *wire.Frame) (*rpc.ResponseMeta, []byte) {
	start := time.Now()

	reqMeta, err := wire.DecodeRequestMeta(frame.Meta)
	if err != nil {
		logger.WarnCtx(ctx, "failed to decode request meta", logger.Err(err))
		metrics.RecordDispatch(d.metrics, "", "", time.Since(start), rpc.ErrCodeParseError)
		return &rpc.ResponseMeta{ErrorCode: rpc.ErrCodeParseError, ErrorText: err.Error()}, nil
	}

	lc := logger.FromContext(ctx)
	if lc == nil {
		lc = logger.NewLogContext("")
	}
	ctx = logger.WithContext(ctx, lc.WithMethod(reqMeta.ServiceName, reqMeta.MethodName).WithCorrelationID(reqMeta.CorrelationID))

	if d.metrics != nil {
		d.metrics.RecordDispatchStart(reqMeta.ServiceName, reqMeta.MethodName)
		defer d.metrics.RecordDispatchEnd(reqMeta.ServiceName, reqMeta.MethodName)
	}

	requestPayload := frame.Payload
	if reqMeta.HasCompressionType && reqMeta.CompressionType != wire.CompressionNone {
		decompressed, err := wire.Decompress(requestPayload, reqMeta.CompressionType)
		if err != nil {
			logger.WarnCtx(ctx, "failed to decompress request payload", logger.Err(err))
			metrics.RecordDispatch(d.metrics, reqMeta.ServiceName, reqMeta.MethodName, time.Since(start), rpc.ErrCodeParseError)
			return &rpc.ResponseMeta{CorrelationID: reqMeta.CorrelationID, ErrorCode: rpc.ErrCodeParseError, ErrorText: err.Error()}, nil
		}
		requestPayload = decompressed
	}

	handler, err := d.registry.Lookup(reqMeta.ServiceName, reqMeta.MethodName)
	if err != nil {
		resp := d.errorResponse(reqMeta.ServiceName, reqMeta.MethodName, reqMeta.CorrelationID, err, start)
		return resp, nil
	}

	ctrl := rpc.NewController()
	outcome := <-handler.Handle(ctx, requestPayload, ctrl)
	if outcome.Err != nil {
		methodErr := rpc.NewHandlerFailed(reqMeta.ServiceName, reqMeta.MethodName, outcome.Err)
		resp := d.errorResponse(reqMeta.ServiceName, reqMeta.MethodName, reqMeta.CorrelationID, methodErr, start)
		return resp, nil
	}

	responsePayload := outcome.Payload
	respMeta := &rpc.ResponseMeta{
		CorrelationID: reqMeta.CorrelationID,
		ErrorCode:     rpc.ErrCodeOK,
	}
	if reqMeta.HasCompressionType && reqMeta.CompressionType != wire.CompressionNone {
		compressed, err := wire.Compress(responsePayload, reqMeta.CompressionType)
		if err != nil {
			logger.WarnCtx(ctx, "failed to compress response payload", logger.Err(err))
			metrics.RecordDispatch(d.metrics, reqMeta.ServiceName, reqMeta.MethodName, time.Since(start), rpc.ErrCodeUnknownError)
			return &rpc.ResponseMeta{CorrelationID: reqMeta.CorrelationID, ErrorCode: rpc.ErrCodeUnknownError, ErrorText: err.Error()}, nil
		}
		responsePayload = compressed
		respMeta.CompressionType = reqMeta.CompressionType
		respMeta.HasCompressionType = true
	}

	metrics.RecordDispatch(d.metrics, reqMeta.ServiceName, reqMeta.MethodName, time.Since(start), rpc.ErrCodeOK)

	return respMeta, responsePayload
}

func (d *Dispatcher) errorResponse(service, method string, correlationID uint64, err error, start time.Time) *rpc.ResponseMeta {
	code := rpc.ErrCodeUnknownError
	if methodErr, ok := err.(*rpc.MethodError); ok {
		code = methodErr.ErrorCode()
	}

	metrics.RecordDispatch(d.metrics, service, method, time.Since(start), code)

	return &rpc.ResponseMeta{
		CorrelationID: correlationID,
		ErrorCode:     code,
		ErrorText:     err.Error(),
	}
}

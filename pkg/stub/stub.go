// Package stub provides a thin typed adapter over a Channel: encode a
// request with a Codec, attach RequestMeta, make the call, decode the
// response, return. Generated per-service clients are expected to wrap
// one Stub per method pair with their own typed signatures.
package stub

import (
	"context"

	"github.com/marmos91/brpc/pkg/channel"
	"github.com/marmos91/brpc/pkg/codec"
	"github.com/marmos91/brpc/pkg/rpc"
	"github.com/marmos91/brpc/pkg/wire"
)

// Stub calls one (service, method) pair on a Channel, encoding Req and
// decoding Resp with codec Req and Resp's respective Codecs.
type Stub[Req, Resp any] struct {
	channel     *channel.Channel
	serviceName string
	methodName  string
	reqCodec    codec.Codec[Req]
	respCodec   codec.Codec[Resp]
}

// New returns a Stub bound to ch for (serviceName, methodName).
func New[Req, Resp any](ch *channel.Channel, serviceName, methodName string, reqCodec codec.Codec[Req], respCodec codec.Codec[Resp]) *Stub[Req, Resp] {
	return &Stub[Req, Resp]{
		channel:     ch,
		serviceName: serviceName,
		methodName:  methodName,
		reqCodec:    reqCodec,
		respCodec:   respCodec,
	}
}

// Call encodes req, issues the RPC, and decodes the response. A failure
// encoding or compressing the request, or decoding the response payload,
// is a *rpc.StubError; a failure of the call itself is returned as the
// Channel reports it (a *rpc.CallError).
func (s *Stub[Req, Resp]) Call(ctx context.Context, req Req, ctrl *rpc.Controller) (Resp, error) {
	var zero Resp

	payload, err := s.reqCodec.Encode(req)
	if err != nil {
		return zero, rpc.NewStubEncodeError(err)
	}

	meta := &rpc.RequestMeta{
		ServiceName: s.serviceName,
		MethodName:  s.methodName,
	}
	if attachment := ctrl.Attachment(); attachment != nil {
		meta.Authentication = attachment
	}
	if compressionType, ok := ctrl.CompressionType(); ok && compressionType != wire.CompressionNone {
		compressed, err := wire.Compress(payload, compressionType)
		if err != nil {
			return zero, rpc.NewStubEncodeError(err)
		}
		payload = compressed
		meta.CompressionType = compressionType
		meta.HasCompressionType = true
	}

	respPayload, err := s.channel.Call(ctx, meta, payload, ctrl)
	if err != nil {
		return zero, err
	}

	resp, err := s.respCodec.Decode(respPayload)
	if err != nil {
		return zero, rpc.NewStubDecodeError(err)
	}

	return resp, nil
}

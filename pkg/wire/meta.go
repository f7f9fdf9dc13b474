package wire

import (
	"fmt"

	"github.com/marmos91/brpc/pkg/rpc"
	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers for RequestMeta and ResponseMeta, matching the layout of
// brpc's own RpcMeta proto so the bytes on the wire are bit-exact without
// requiring generated code for the meta segment itself.
const (
	reqFieldService         = 1
	reqFieldMethod          = 2
	reqFieldCorrelationID   = 3
	reqFieldAttachmentSize  = 4
	reqFieldAuthentication  = 5
	reqFieldCompressionType = 6

	respFieldCorrelationID   = 1
	respFieldErrorCode       = 2
	respFieldErrorText       = 3
	respFieldAttachmentSize  = 4
	respFieldCompressionType = 5
)

// EncodeRequestMeta serializes m with the standard protobuf wire format.
func EncodeRequestMeta(m *rpc.RequestMeta) ([]byte, error) {
	var b []byte
	b = protowire.AppendTag(b, reqFieldService, protowire.BytesType)
	b = protowire.AppendString(b, m.ServiceName)
	b = protowire.AppendTag(b, reqFieldMethod, protowire.BytesType)
	b = protowire.AppendString(b, m.MethodName)
	b = protowire.AppendTag(b, reqFieldCorrelationID, protowire.VarintType)
	b = protowire.AppendVarint(b, m.CorrelationID)
	if m.HasAttachmentSize {
		b = protowire.AppendTag(b, reqFieldAttachmentSize, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(m.AttachmentSize))
	}
	if len(m.Authentication) > 0 {
		b = protowire.AppendTag(b, reqFieldAuthentication, protowire.BytesType)
		b = protowire.AppendBytes(b, m.Authentication)
	}
	if m.HasCompressionType {
		b = protowire.AppendTag(b, reqFieldCompressionType, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(m.CompressionType))
	}
	return b, nil
}

// DecodeRequestMeta parses a RequestMeta from its wire-format bytes.
func DecodeRequestMeta(data []byte) (*rpc.RequestMeta, error) {
	m := &rpc.RequestMeta{}

	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, fmt.Errorf("decode request meta: bad tag: %w", protowire.ParseError(n))
		}
		data = data[n:]

		switch num {
		case reqFieldService:
			s, n := protowire.ConsumeString(data)
			if n < 0 {
				return nil, fmt.Errorf("decode request meta: bad service_name: %w", protowire.ParseError(n))
			}
			m.ServiceName = s
			data = data[n:]
		case reqFieldMethod:
			s, n := protowire.ConsumeString(data)
			if n < 0 {
				return nil, fmt.Errorf("decode request meta: bad method_name: %w", protowire.ParseError(n))
			}
			m.MethodName = s
			data = data[n:]
		case reqFieldCorrelationID:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, fmt.Errorf("decode request meta: bad correlation_id: %w", protowire.ParseError(n))
			}
			m.CorrelationID = v
			data = data[n:]
		case reqFieldAttachmentSize:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, fmt.Errorf("decode request meta: bad attachment_size: %w", protowire.ParseError(n))
			}
			m.AttachmentSize = uint32(v)
			m.HasAttachmentSize = true
			data = data[n:]
		case reqFieldAuthentication:
			b, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, fmt.Errorf("decode request meta: bad authentication: %w", protowire.ParseError(n))
			}
			m.Authentication = append([]byte(nil), b...)
			data = data[n:]
		case reqFieldCompressionType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, fmt.Errorf("decode request meta: bad compression_type: %w", protowire.ParseError(n))
			}
			m.CompressionType = uint8(v)
			m.HasCompressionType = true
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return nil, fmt.Errorf("decode request meta: bad unknown field %d: %w", num, protowire.ParseError(n))
			}
			data = data[n:]
		}
	}

	return m, nil
}

// EncodeResponseMeta serializes m with the standard protobuf wire format.
func EncodeResponseMeta(m *rpc.ResponseMeta) ([]byte, error) {
	var b []byte
	b = protowire.AppendTag(b, respFieldCorrelationID, protowire.VarintType)
	b = protowire.AppendVarint(b, m.CorrelationID)
	b = protowire.AppendTag(b, respFieldErrorCode, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(uint32(m.ErrorCode)))
	if m.ErrorText != "" {
		b = protowire.AppendTag(b, respFieldErrorText, protowire.BytesType)
		b = protowire.AppendString(b, m.ErrorText)
	}
	if m.HasAttachmentSize {
		b = protowire.AppendTag(b, respFieldAttachmentSize, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(m.AttachmentSize))
	}
	if m.HasCompressionType {
		b = protowire.AppendTag(b, respFieldCompressionType, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(m.CompressionType))
	}
	return b, nil
}

// DecodeResponseMeta parses a ResponseMeta from its wire-format bytes.
func DecodeResponseMeta(data []byte) (*rpc.ResponseMeta, error) {
	m := &rpc.ResponseMeta{}

	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, fmt.Errorf("decode response meta: bad tag: %w", protowire.ParseError(n))
		}
		data = data[n:]

		switch num {
		case respFieldCorrelationID:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, fmt.Errorf("decode response meta: bad correlation_id: %w", protowire.ParseError(n))
			}
			m.CorrelationID = v
			data = data[n:]
		case respFieldErrorCode:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, fmt.Errorf("decode response meta: bad error_code: %w", protowire.ParseError(n))
			}
			m.ErrorCode = int32(uint32(v))
			data = data[n:]
		case respFieldErrorText:
			s, n := protowire.ConsumeString(data)
			if n < 0 {
				return nil, fmt.Errorf("decode response meta: bad error_text: %w", protowire.ParseError(n))
			}
			m.ErrorText = s
			data = data[n:]
		case respFieldAttachmentSize:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, fmt.Errorf("decode response meta: bad attachment_size: %w", protowire.ParseError(n))
			}
			m.AttachmentSize = uint32(v)
			m.HasAttachmentSize = true
			data = data[n:]
		case respFieldCompressionType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, fmt.Errorf("decode response meta: bad compression_type: %w", protowire.ParseError(n))
			}
			m.CompressionType = uint8(v)
			m.HasCompressionType = true
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return nil, fmt.Errorf("decode response meta: bad unknown field %d: %w", num, protowire.ParseError(n))
			}
			data = data[n:]
		}
	}

	return m, nil
}

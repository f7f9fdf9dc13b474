package wire

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
)

// Compression type values carried in RequestMeta/ResponseMeta's optional
// compression_type field. Zero means the payload is uncompressed, matching
// brpc's own convention of treating the field as optional-and-absent for
// the common case.
const (
	CompressionNone   uint8 = 0
	CompressionZstd   uint8 = 1
	CompressionSnappy uint8 = 2
)

var (
	zstdEncoderOnce sync.Once
	zstdEncoder     *zstd.Encoder
	zstdDecoderOnce sync.Once
	zstdDecoder     *zstd.Decoder
)

func getZstdEncoder() *zstd.Encoder {
	zstdEncoderOnce.Do(func() {
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			panic(fmt.Sprintf("wire: failed to construct zstd encoder: %v", err))
		}
		zstdEncoder = enc
	})
	return zstdEncoder
}

func getZstdDecoder() *zstd.Decoder {
	zstdDecoderOnce.Do(func() {
		dec, err := zstd.NewReader(nil)
		if err != nil {
			panic(fmt.Sprintf("wire: failed to construct zstd decoder: %v", err))
		}
		zstdDecoder = dec
	})
	return zstdDecoder
}

// Compress applies the given compression_type to payload. CompressionNone
// returns payload unchanged.
func Compress(payload []byte, compressionType uint8) ([]byte, error) {
	switch compressionType {
	case CompressionNone:
		return payload, nil
	case CompressionZstd:
		return getZstdEncoder().EncodeAll(payload, nil), nil
	case CompressionSnappy:
		return s2.EncodeSnappy(nil, payload), nil
	default:
		return nil, fmt.Errorf("wire: unknown compression_type %d", compressionType)
	}
}

// Decompress reverses Compress for the given compression_type.
func Decompress(payload []byte, compressionType uint8) ([]byte, error) {
	switch compressionType {
	case CompressionNone:
		return payload, nil
	case CompressionZstd:
		return getZstdDecoder().DecodeAll(payload, nil)
	case CompressionSnappy:
		return s2.Decode(nil, payload)
	default:
		return nil, fmt.Errorf("wire: unknown compression_type %d", compressionType)
	}
}

package codec

// BytesCodec is the identity codec: payload is already the wire-ready byte
// slice. Useful for handlers that work directly on raw bytes (the Echo and
// Reverse example services) without a generated message type.
type BytesCodec struct{}

func (BytesCodec) Encode(msg []byte) ([]byte, error) { return msg, nil }
func (BytesCodec) Decode(data []byte) ([]byte, error) { return data, nil }

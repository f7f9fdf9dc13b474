package codec

import "google.golang.org/protobuf/proto"

// ProtoMessage is satisfied by any generated protobuf message type used as
// the pointer receiver T.
type ProtoMessage[T any] interface {
	proto.Message
	*T
}

// ProtoCodec is the reference Codec: it marshals/unmarshals any generated
// protocol-buffer message. T is the struct type generated by protoc (e.g.
// EchoRequest), PT its pointer type, which must implement proto.Message.
type ProtoCodec[T any, PT ProtoMessage[T]] struct{}

// Encode marshals msg with the standard protobuf wire encoding.
func (ProtoCodec[T, PT]) Encode(msg PT) ([]byte, error) {
	b, err := proto.Marshal(msg)
	if err != nil {
		return nil, &EncodeError{Err: err}
	}
	return b, nil
}

// Decode allocates a fresh T and unmarshals data into it.
func (ProtoCodec[T, PT]) Decode(data []byte) (PT, error) {
	var t T
	msg := PT(&t)
	if err := proto.Unmarshal(data, msg); err != nil {
		return nil, &DecodeError{Err: err}
	}
	return msg, nil
}

package rpc

// RequestMeta is the brpc RpcMeta equivalent attached to every request
// frame. It is created by the Stub per call and consumed by the Dispatcher.
type RequestMeta struct {
	ServiceName        string
	MethodName         string
	CorrelationID      uint64
	AttachmentSize     uint32
	HasAttachmentSize  bool
	Authentication     []byte
	CompressionType    uint8
	HasCompressionType bool
}

// ResponseMeta is created by the Dispatcher and consumed by the Channel
// when it matches a correlation_id to its pending slot.
type ResponseMeta struct {
	CorrelationID      uint64
	ErrorCode          int32
	ErrorText          string
	AttachmentSize     uint32
	HasAttachmentSize  bool
	CompressionType    uint8
	HasCompressionType bool
}

// OK reports whether the response carries the success error code.
func (m *ResponseMeta) OK() bool {
	return m.ErrorCode == ErrCodeOK
}

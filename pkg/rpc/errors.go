// Package rpc holds the types shared across the wire, registry, dispatch,
// server, and channel layers: per-call Controller state, request/response
// meta, and the error taxonomy each layer returns.
package rpc

import "fmt"

// Reserved response error codes. Zero means success; non-reserved non-zero
// codes are implementation-defined and must be treated as failure by
// clients.
const (
	ErrCodeOK             int32 = 0
	ErrCodeUnknownError   int32 = 1
	ErrCodeUnknownMethod  int32 = 2
	ErrCodeUnknownService int32 = 3
	ErrCodeParseError     int32 = 4
)

// FrameErrorKind enumerates wire-framing failures. Every FrameError is
// fatal to the connection it occurred on.
type FrameErrorKind int

const (
	FrameErrorBadMagic FrameErrorKind = iota
	FrameErrorTooLarge
	FrameErrorBadLengths
	FrameErrorTruncated
)

func (k FrameErrorKind) String() string {
	switch k {
	case FrameErrorBadMagic:
		return "bad_magic"
	case FrameErrorTooLarge:
		return "frame_too_large"
	case FrameErrorBadLengths:
		return "bad_lengths"
	case FrameErrorTruncated:
		return "truncated"
	default:
		return "unknown"
	}
}

// FrameError reports a malformed frame. The connection must be closed.
type FrameError struct {
	Kind FrameErrorKind
	Err  error
}

func (e *FrameError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("frame error (%s): %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("frame error (%s)", e.Kind)
}

func (e *FrameError) Unwrap() error { return e.Err }

func NewFrameError(kind FrameErrorKind, err error) *FrameError {
	return &FrameError{Kind: kind, Err: err}
}

// MethodErrorKind enumerates handler-facing failures that become non-zero
// response error codes without closing the connection.
type MethodErrorKind int

const (
	MethodErrorUnknownService MethodErrorKind = iota
	MethodErrorUnknownMethod
	MethodErrorHandlerFailed
)

// MethodError surfaces as a non-zero response error_code; the connection
// stays open.
type MethodError struct {
	Kind    MethodErrorKind
	Service string
	Method  string
	Err     error
}

func (e *MethodError) Error() string {
	switch e.Kind {
	case MethodErrorUnknownService:
		return fmt.Sprintf("unknown service %q", e.Service)
	case MethodErrorUnknownMethod:
		return fmt.Sprintf("unknown method %q on service %q", e.Method, e.Service)
	default:
		if e.Err != nil {
			return fmt.Sprintf("handler failed for %s.%s: %v", e.Service, e.Method, e.Err)
		}
		return fmt.Sprintf("handler failed for %s.%s", e.Service, e.Method)
	}
}

func (e *MethodError) Unwrap() error { return e.Err }

// ErrorCode maps a MethodError to its reserved response error_code.
func (e *MethodError) ErrorCode() int32 {
	switch e.Kind {
	case MethodErrorUnknownService:
		return ErrCodeUnknownService
	case MethodErrorUnknownMethod:
		return ErrCodeUnknownMethod
	default:
		return ErrCodeUnknownError
	}
}

func NewUnknownService(service string) *MethodError {
	return &MethodError{Kind: MethodErrorUnknownService, Service: service}
}

func NewUnknownMethod(service, method string) *MethodError {
	return &MethodError{Kind: MethodErrorUnknownMethod, Service: service, Method: method}
}

func NewHandlerFailed(service, method string, err error) *MethodError {
	return &MethodError{Kind: MethodErrorHandlerFailed, Service: service, Method: method, Err: err}
}

// CallErrorKind enumerates client-side call failures.
type CallErrorKind int

const (
	CallErrorTransport CallErrorKind = iota
	CallErrorTimeout
	CallErrorCancelled
	CallErrorDecode
	CallErrorEncode
	CallErrorChannelBroken
)

func (k CallErrorKind) String() string {
	switch k {
	case CallErrorTransport:
		return "transport"
	case CallErrorTimeout:
		return "timeout"
	case CallErrorCancelled:
		return "cancelled"
	case CallErrorDecode:
		return "decode"
	case CallErrorEncode:
		return "encode"
	case CallErrorChannelBroken:
		return "channel_broken"
	default:
		return "unknown"
	}
}

// CallError is returned by Channel.Call and the generated Stub wrapper.
type CallError struct {
	Kind CallErrorKind
	Err  error
}

func (e *CallError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("call error (%s): %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("call error (%s)", e.Kind)
}

func (e *CallError) Unwrap() error { return e.Err }

func NewCallError(kind CallErrorKind, err error) *CallError {
	return &CallError{Kind: kind, Err: err}
}

// RegistryError reports a failed ServiceRegistry mutation.
type RegistryError struct {
	Service string
	Method  string
	Err     error
}

func (e *RegistryError) Error() string {
	return fmt.Sprintf("registry error for %s.%s: %v", e.Service, e.Method, e.Err)
}

func (e *RegistryError) Unwrap() error { return e.Err }

// ErrDuplicateRegistration is wrapped by RegistryError when a (service,
// method) pair is registered twice.
var ErrDuplicateRegistration = fmt.Errorf("method already registered")

// ChannelBuildError reports a failure constructing a Channel.
type ChannelBuildError struct {
	Address string
	Err     error
}

func (e *ChannelBuildError) Error() string {
	return fmt.Sprintf("failed to build channel to %q: %v", e.Address, e.Err)
}

func (e *ChannelBuildError) Unwrap() error { return e.Err }

// ServerBuildError reports a failure constructing a Server.
type ServerBuildError struct {
	Address string
	Err     error
}

func (e *ServerBuildError) Error() string {
	return fmt.Sprintf("failed to build server on %q: %v", e.Address, e.Err)
}

func (e *ServerBuildError) Unwrap() error { return e.Err }

// StubError is returned by a generated typed Stub's Call method.
type StubError struct {
	Kind CallErrorKind
	Err  error
}

func (e *StubError) Error() string {
	return fmt.Sprintf("stub error (%s): %v", e.Kind, e.Err)
}

func (e *StubError) Unwrap() error { return e.Err }

func NewStubDecodeError(err error) *StubError {
	return &StubError{Kind: CallErrorDecode, Err: err}
}

func NewStubEncodeError(err error) *StubError {
	return &StubError{Kind: CallErrorEncode, Err: err}
}

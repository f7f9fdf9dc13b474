package rpc

import (
	"sync"
	"time"
)

// Controller is the mutable per-call side-band: attachment bytes, an
// optional deadline, and the last error text. It is created fresh for
// every call, flows with the request, and is returned alongside the
// response so the caller can read server-supplied metadata.
//
// A Controller is never shared across calls; treat each instance as owned
// by exactly one in-flight request.
type Controller struct {
	mu                 sync.Mutex
	attachment         []byte
	deadline           time.Time
	hasDeadline        bool
	lastError          string
	compressionType    uint8
	hasCompressionType bool
	done               chan struct{}
	doneOnce           sync.Once
}

// NewController returns a fresh, unexpired Controller.
func NewController() *Controller {
	return &Controller{done: make(chan struct{})}
}

// WithTimeout returns a fresh Controller with a deadline d from now.
func WithTimeout(d time.Duration) *Controller {
	c := NewController()
	c.SetDeadline(time.Now().Add(d))
	return c
}

// SetAttachment stores opaque attachment bytes alongside the call.
func (c *Controller) SetAttachment(b []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.attachment = b
}

// Attachment returns the attachment bytes, or nil if none were set.
func (c *Controller) Attachment() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attachment
}

// SetDeadline sets the absolute deadline for this call.
func (c *Controller) SetDeadline(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deadline = t
	c.hasDeadline = true
}

// Deadline returns the absolute deadline for this call and whether one was
// set.
func (c *Controller) Deadline() (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deadline, c.hasDeadline
}

// SetCompressionType requests that the outgoing payload be compressed with
// the given compression_type (see the wire package's Compression constants)
// before it is sent. The server mirrors the same compression_type back on
// the response.
func (c *Controller) SetCompressionType(t uint8) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.compressionType = t
	c.hasCompressionType = true
}

// CompressionType returns the requested compression_type and whether one
// was set.
func (c *Controller) CompressionType() (uint8, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.compressionType, c.hasCompressionType
}

// SetError records the last error text, surfaced to the caller alongside a
// failed response.
func (c *Controller) SetError(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastError = text
}

// LastError returns the last error text recorded on this controller.
func (c *Controller) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastError
}

// Cancel marks the call as abandoned by its caller. Done is closed exactly
// once; a late response delivered after Cancel is discarded by whichever
// component owns the correlation slot.
func (c *Controller) Cancel() {
	c.doneOnce.Do(func() { close(c.done) })
}

// Done returns a channel closed when the call is cancelled. It is not
// closed on normal completion; callers select on it alongside a result
// channel.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

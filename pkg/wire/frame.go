// Package wire implements the brpc binary frame protocol: a 12-byte
// length-prefixed header followed by an encoded meta segment and an opaque
// payload segment.
package wire

import (
	"encoding/binary"
	"io"

	"github.com/marmos91/brpc/pkg/bufpool"
	"github.com/marmos91/brpc/pkg/rpc"
)

// Magic is the four-byte literal that opens every brpc frame.
var Magic = [4]byte{'P', 'R', 'P', 'C'}

const HeaderSize = 12

// DefaultMaxFrameSize bounds body_size and meta_size absent an explicit
// configuration, matching the teacher's 64 MiB default elsewhere in the
// stack.
const DefaultMaxFrameSize = 64 << 20

// Frame is one decoded brpc unit: a meta segment and a payload segment,
// whose combined length equals the header's body_size.
type Frame struct {
	Meta    []byte
	Payload []byte
}

// Reader pulls frames off an io.Reader one at a time. Its Read method
// walks the parser states NeedHeader -> NeedBody -> EmitFrame on every
// call; a blocking io.Reader (a net.Conn) makes each state's "wait for N
// buffered bytes" a plain io.ReadFull.
type Reader struct {
	r            io.Reader
	maxFrameSize uint32
}

// NewReader returns a Reader bound to r, rejecting any frame whose
// body_size or meta_size exceeds maxFrameSize.
func NewReader(r io.Reader, maxFrameSize uint32) *Reader {
	if maxFrameSize == 0 {
		maxFrameSize = DefaultMaxFrameSize
	}
	return &Reader{r: r, maxFrameSize: maxFrameSize}
}

// Read parses the next frame. Any returned error is a *rpc.FrameError and
// fatal to the connection per the protocol contract.
func (fr *Reader) Read() (*Frame, error) {
	header := bufpool.Get(HeaderSize)
	defer bufpool.Put(header)
	header = header[:HeaderSize]

	// NeedHeader: wait for 12 buffered bytes and validate magic + lengths.
	if _, err := io.ReadFull(fr.r, header); err != nil {
		return nil, rpc.NewFrameError(rpc.FrameErrorTruncated, err)
	}

	if header[0] != Magic[0] || header[1] != Magic[1] || header[2] != Magic[2] || header[3] != Magic[3] {
		return nil, rpc.NewFrameError(rpc.FrameErrorBadMagic, nil)
	}

	bodySize := binary.BigEndian.Uint32(header[4:8])
	metaSize := binary.BigEndian.Uint32(header[8:12])

	if bodySize > fr.maxFrameSize || metaSize > fr.maxFrameSize {
		return nil, rpc.NewFrameError(rpc.FrameErrorTooLarge, nil)
	}
	if metaSize > bodySize {
		return nil, rpc.NewFrameError(rpc.FrameErrorBadLengths, nil)
	}

	// NeedBody: wait for body_size buffered bytes, then EmitFrame.
	body := bufpool.GetUint32(bodySize)
	body = body[:bodySize]
	if _, err := io.ReadFull(fr.r, body); err != nil {
		bufpool.Put(body)
		return nil, rpc.NewFrameError(rpc.FrameErrorTruncated, err)
	}

	frame := &Frame{
		Meta:    append([]byte(nil), body[:metaSize]...),
		Payload: append([]byte(nil), body[metaSize:]...),
	}
	bufpool.Put(body)

	return frame, nil
}

// Writer emits frames onto an io.Writer. Writes of one frame are never
// interleaved with another's bytes on the same Writer.
type Writer struct {
	w io.Writer
}

// NewWriter returns a Writer bound to w. Callers are responsible for
// serializing concurrent Write calls (the Channel sends every frame through
// a single writer goroutine; the Server holds a per-connection mutex around
// each Write).
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Write encodes meta and payload into one frame and writes it in full.
func (fw *Writer) Write(meta, payload []byte) error {
	bodySize := uint32(len(meta) + len(payload))
	metaSize := uint32(len(meta))

	buf := bufpool.Get(HeaderSize + int(bodySize))
	defer bufpool.Put(buf)
	buf = buf[:HeaderSize+int(bodySize)]

	copy(buf[0:4], Magic[:])
	binary.BigEndian.PutUint32(buf[4:8], bodySize)
	binary.BigEndian.PutUint32(buf[8:12], metaSize)
	copy(buf[HeaderSize:], meta)
	copy(buf[HeaderSize+int(metaSize):], payload)

	_, err := fw.w.Write(buf)
	return err
}

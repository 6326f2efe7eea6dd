package reactor

import (
	"fmt"
	"github.com/ValentinKolb/rKV/rpc/codec"
	"iter"
	"strings"
)

// DefaultMaxWriteBacklog is the default limit for framed, not yet sent response bytes per connection
const DefaultMaxWriteBacklog = 64 * 1024

// --------------------------------------------------------------------------
// Interest & State
// --------------------------------------------------------------------------

// Interest is the set of readiness events a handle is registered for
type Interest uint8

const (
	// Readable asks the poller to report read readiness
	Readable Interest = 1 << iota
	// Writable asks the poller to report write readiness
	Writable
)

func (i Interest) String() string {
	var parts []string
	if i&Readable != 0 {
		parts = append(parts, "readable")
	}
	if i&Writable != 0 {
		parts = append(parts, "writable")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// ConnState is the lifecycle state of a connection
type ConnState uint8

const (
	// StateActive connections read requests and write responses
	StateActive ConnState = iota
	// StateClosing connections only flush responses that are already queued
	StateClosing
	// StateClosed connections are removed from the registry by the reactor
	StateClosed
)

func (s ConnState) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// --------------------------------------------------------------------------
// ConnBuffer
// --------------------------------------------------------------------------

// ConnBuffer holds the read and write side of one connection.
//
// The read buffer has a fixed capacity of one maximum frame. Invariant:
// rOff <= wMark <= cap(rbuf). Bytes in [rOff, wMark) are received but not yet
// decoded.
//
// The write buffer holds framed responses; bytes before flushOff have been sent.
// Writable is part of the interest set exactly when unsent bytes exist.
type ConnBuffer struct {
	rbuf  []byte
	rOff  int
	wMark int

	wbuf       []byte
	flushOff   int
	maxBacklog int

	interest Interest
	state    ConnState
	reason   error
}

// NewConnBuffer creates an empty, active buffer interested in reads.
// A non-positive maxWriteBacklog selects DefaultMaxWriteBacklog.
func NewConnBuffer(maxWriteBacklog int) *ConnBuffer {
	b := &ConnBuffer{}
	b.init(maxWriteBacklog)
	return b
}

func (b *ConnBuffer) init(maxWriteBacklog int) {
	if maxWriteBacklog <= 0 {
		maxWriteBacklog = DefaultMaxWriteBacklog
	}
	b.rbuf = make([]byte, codec.MaxFrameLen)
	b.maxBacklog = maxWriteBacklog
	b.interest = Readable
	b.state = StateActive
}

// Interest returns the readiness events the connection currently needs
func (b *ConnBuffer) Interest() Interest { return b.interest }

// State returns the lifecycle state
func (b *ConnBuffer) State() ConnState { return b.state }

// Reason returns why the connection left StateActive (nil while active)
func (b *ConnBuffer) Reason() error { return b.reason }

// ReadOffset returns the offset of the next undecoded byte
func (b *ConnBuffer) ReadOffset() int { return b.rOff }

// WriteMark returns the offset at which the next received byte is stored
func (b *ConnBuffer) WriteMark() int { return b.wMark }

// Buffered returns the number of received but undecoded bytes
func (b *ConnBuffer) Buffered() int { return b.wMark - b.rOff }

// --------------------------------------------------------------------------
// Read side
// --------------------------------------------------------------------------

// ReadSpace returns the free tail of the read buffer. A socket read may fill
// it directly; the number of bytes read must then be passed to Commit.
func (b *ConnBuffer) ReadSpace() []byte {
	return b.rbuf[b.wMark:]
}

// Commit marks n bytes of the slice returned by ReadSpace as received
func (b *ConnBuffer) Commit(n int) {
	if n < 0 || n > len(b.rbuf)-b.wMark {
		panic(fmt.Sprintf("reactor: commit of %d bytes with %d free", n, len(b.rbuf)-b.wMark))
	}
	b.wMark += n
}

// OnBytesReceived appends chunk to the read buffer. The capacity is a hard
// limit: ErrBufferFull is returned and nothing is copied if chunk does not fit.
func (b *ConnBuffer) OnBytesReceived(chunk []byte) error {
	if len(chunk) > len(b.rbuf)-b.wMark {
		return fmt.Errorf("%w: %d bytes received, %d free", ErrBufferFull, len(chunk), len(b.rbuf)-b.wMark)
	}
	b.wMark += copy(b.rbuf[b.wMark:], chunk)
	return nil
}

// DrainFrames yields every complete frame body found at the read offset and
// stops at the first incomplete frame. A header announcing an oversized body
// moves the connection to StateClosing.
//
// Yielded bodies alias the read buffer and are only valid until Compact or the
// next received byte. Consume the sequence fully before reading again.
func (b *ConnBuffer) DrainFrames() iter.Seq[[]byte] {
	return func(yield func([]byte) bool) {
		for b.state == StateActive {
			body, next, status := codec.TryDecode(b.rbuf[:b.wMark], b.rOff)
			switch status {
			case codec.Incomplete:
				return
			case codec.Invalid:
				b.MarkClosing(ErrInvalidFrame)
				return
			}

			b.rOff = next
			if !yield(body) {
				return
			}
		}
	}
}

// Compact moves undecoded bytes to the start of the read buffer so the free
// tail can hold the rest of a partial frame.
func (b *ConnBuffer) Compact() {
	if b.rOff == b.wMark {
		b.rOff, b.wMark = 0, 0
		return
	}
	if b.rOff > 0 {
		n := copy(b.rbuf, b.rbuf[b.rOff:b.wMark])
		b.rOff, b.wMark = 0, n
	}
}

// --------------------------------------------------------------------------
// Write side
// --------------------------------------------------------------------------

// EnqueueResponse frames body and appends it to the write buffer.
// Fails with codec.ErrBodyTooLarge or ErrWriteBacklogFull; the buffer is
// unchanged in both cases.
func (b *ConnBuffer) EnqueueResponse(body []byte) error {
	if len(body) > codec.MaxBodyLen {
		return fmt.Errorf("response of %d bytes: %w", len(body), codec.ErrBodyTooLarge)
	}

	pending := len(b.wbuf) - b.flushOff
	if pending+codec.HeaderLen+len(body) > b.maxBacklog {
		return fmt.Errorf("%w: %d bytes queued, limit %d", ErrWriteBacklogFull, pending, b.maxBacklog)
	}

	// reclaim the already flushed prefix before growing
	if b.flushOff > 0 {
		n := copy(b.wbuf, b.wbuf[b.flushOff:])
		b.wbuf = b.wbuf[:n]
		b.flushOff = 0
	}

	b.wbuf, _ = codec.AppendFrame(b.wbuf, body)
	b.interest |= Writable
	return nil
}

// Pending returns the framed bytes that still have to be written
func (b *ConnBuffer) Pending() []byte {
	return b.wbuf[b.flushOff:]
}

// AdvanceAfterFlush records that n pending bytes were written. Once nothing is
// pending, Writable is dropped and a closing connection becomes closed.
func (b *ConnBuffer) AdvanceAfterFlush(n int) {
	pending := len(b.wbuf) - b.flushOff
	if n < 0 || n > pending {
		panic(fmt.Sprintf("reactor: flushed %d bytes with %d pending", n, pending))
	}
	b.flushOff += n

	if b.flushOff < len(b.wbuf) {
		return
	}

	b.wbuf = b.wbuf[:0]
	b.flushOff = 0
	b.interest &^= Writable
	if b.state == StateClosing {
		b.state = StateClosed
	}
}

// --------------------------------------------------------------------------
// State transitions
// --------------------------------------------------------------------------

// MarkClosing stops reading from an active connection. Queued responses are
// still flushed; without any the connection is closed right away.
func (b *ConnBuffer) MarkClosing(reason error) {
	if b.state != StateActive {
		return
	}
	b.state = StateClosing
	b.reason = reason
	b.interest &^= Readable

	if len(b.wbuf)-b.flushOff == 0 {
		b.state = StateClosed
		b.interest = 0
	}
}

// Abort closes the connection immediately and drops queued responses
func (b *ConnBuffer) Abort(reason error) {
	if b.state == StateClosed {
		return
	}
	if b.reason == nil {
		b.reason = reason
	}
	b.state = StateClosed
	b.interest = 0
	b.wbuf = nil
	b.flushOff = 0
}

package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// HeaderLen is the size of the length prefix
	HeaderLen = 4
	// MaxBodyLen is the largest body a single frame may carry
	MaxBodyLen = 4096
	// MaxFrameLen is the size of the largest valid frame (header + body)
	MaxFrameLen = HeaderLen + MaxBodyLen
)

// ErrBodyTooLarge is returned when a body (or a decoded length header) exceeds MaxBodyLen
var ErrBodyTooLarge = errors.New("codec: frame body exceeds maximum size")

// Status is the outcome of a TryDecode call
type Status uint8

const (
	// Complete means a full frame was decoded
	Complete Status = iota
	// Incomplete means more bytes are required; nothing was consumed
	Incomplete
	// Invalid means the header announces a body larger than MaxBodyLen
	Invalid
)

func (s Status) String() string {
	switch s {
	case Complete:
		return "complete"
	case Incomplete:
		return "incomplete"
	case Invalid:
		return "invalid"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// --------------------------------------------------------------------------
// Encoding
// --------------------------------------------------------------------------

// Encode returns a new slice holding the framed body.
func Encode(body []byte) ([]byte, error) {
	return AppendFrame(make([]byte, 0, HeaderLen+len(body)), body)
}

// AppendFrame appends the framed body to dst and returns the extended slice.
// dst is returned unchanged if the body is too large.
func AppendFrame(dst []byte, body []byte) ([]byte, error) {
	if len(body) > MaxBodyLen {
		return dst, fmt.Errorf("%w: %d > %d", ErrBodyTooLarge, len(body), MaxBodyLen)
	}
	dst = binary.LittleEndian.AppendUint32(dst, uint32(len(body)))
	return append(dst, body...), nil
}

// --------------------------------------------------------------------------
// Decoding
// --------------------------------------------------------------------------

// TryDecode tries to decode one frame from buf starting at off.
//
// On Complete the returned body aliases buf and next points to the first byte
// after the frame. On Incomplete and Invalid, next equals off: the header stays
// unconsumed so the caller re-evaluates it once more bytes arrive.
func TryDecode(buf []byte, off int) (body []byte, next int, status Status) {
	unread := len(buf) - off
	if unread < HeaderLen {
		return nil, off, Incomplete
	}

	bodyLen := binary.LittleEndian.Uint32(buf[off : off+HeaderLen])
	if bodyLen > MaxBodyLen {
		return nil, off, Invalid
	}

	if unread-HeaderLen < int(bodyLen) {
		return nil, off, Incomplete
	}

	start := off + HeaderLen
	end := start + int(bodyLen)
	return buf[start:end:end], end, Complete
}

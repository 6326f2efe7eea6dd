package codec

import (
	"encoding/binary"
	"io"
	"net"
)

// WriteFrame writes one frame to w. Header and body are handed to the writer
// as a single vectored write when w is a net.Conn.
func WriteFrame(w io.Writer, body []byte) error {
	if len(body) > MaxBodyLen {
		return ErrBodyTooLarge
	}

	var header [HeaderLen]byte
	binary.LittleEndian.PutUint32(header[:], uint32(len(body)))

	b := net.Buffers{header[:], body}
	_, err := b.WriteTo(w)
	return err
}

// ReadFrame reads exactly one frame from r using the provided buffer.
// If the buffer is too small, a new one is allocated for the body.
// The returned body aliases buf when it fits.
func ReadFrame(r io.Reader, buf []byte) ([]byte, error) {
	var header [HeaderLen]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}

	bodyLen := binary.LittleEndian.Uint32(header[:])
	if bodyLen > MaxBodyLen {
		return nil, ErrBodyTooLarge
	}

	// If no data, return empty slice
	if bodyLen == 0 {
		return []byte{}, nil
	}

	if len(buf) < int(bodyLen) {
		buf = make([]byte, bodyLen)
	}

	if _, err := io.ReadFull(r, buf[:bodyLen]); err != nil {
		// a header without its body is a truncated stream, not a clean EOF
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return buf[:bodyLen], nil
}

// Package codec implements the length-prefixed wire frame spoken between rKV
// clients and servers.
//
// Frame layout (little endian):
//
//	+----------------+------------------+
//	| u32 length (L) | body (L bytes)   |
//	+----------------+------------------+
//
// A connection carries a plain sequence of frames without separators. The body
// is opaque to this package and may be at most MaxBodyLen bytes long; a header
// announcing more is a protocol violation, not a partial read.
//
// Key Components:
//
//   - Encode / AppendFrame: Prefix a body with its length header. Both refuse
//     bodies larger than MaxBodyLen.
//
//   - TryDecode: Pure, non-blocking decoder used by the reactor. It reports
//     Complete, Incomplete or Invalid and never consumes a header whose body has
//     not fully arrived yet.
//
//   - ReadFrame / WriteFrame: Blocking helpers for clients that own a net.Conn
//     (or any io.Reader / io.Writer).
package codec

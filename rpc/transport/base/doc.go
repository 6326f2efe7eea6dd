// Package base provides the protocol-agnostic client transport of rKV. It
// implements connection pooling, request pipelining and error recovery and is
// extended with protocol-specific connectors (see the tcp package).
//
// Key Components:
//
//   - IClientConnector: Interface for protocol specific operations (dialing and
//     socket options).
//
//   - clientTransport: Manages multiple connections per endpoint with
//     round-robin load balancing, per request timeouts and retries with
//     exponential backoff and jitter.
//
// Pipelining:
//
//	The server answers the requests of one connection strictly in order and
//	frames carry no request identifiers. A send therefore enqueues its response
//	slot in a FIFO and writes its frame while holding the connection's write
//	lock; a reader goroutine per connection completes the slots front to back.
//	Many goroutines can share one connection without waiting for each other's
//	round trips.
//
// Error Recovery:
//
//	A read error, a write error or a timeout fails every outstanding request of
//	the connection and closes it, because later responses could no longer be
//	matched to their requests. The next send on that connection dials again.
//
// Thread Safety:
//
//	All public methods are thread-safe.
package base

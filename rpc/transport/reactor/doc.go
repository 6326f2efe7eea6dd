// Package reactor implements the single-threaded, readiness-driven TCP server at
// the heart of rKV. One goroutine owns a poller (epoll on Linux), the registry of
// connections and every connection buffer; no locks are involved.
//
// Data flow:
//
//	listener readable  -> Server.acceptReady -> Reactor.AddConn (Readable)
//	connection readable -> one bounded read -> DrainFrames -> RequestHandler
//	                    -> EnqueueResponse (sets Writable) -> Compact
//	connection writable -> write pending tail -> AdvanceAfterFlush (clears Writable)
//
// Key Components:
//
//   - ConnBuffer: Per-connection read buffer (one maximum frame, with read offset,
//     write mark and compaction) and write buffer (framed responses plus flush
//     offset). It also tracks the interest set and the Active -> Closing -> Closed
//     lifecycle. Writable is in the interest set exactly while responses are pending.
//
//   - Reactor: Owns the Poller and the registry keyed by socket handle. RunOnce
//     waits for readiness and dispatches to the accept, read and write paths.
//     Closed connections are deregistered and their handles released at the end
//     of the event that closed them.
//
//   - Server: Binds, listens and accepts. Start tries every candidate address of
//     the bind host and returns a *BindError if none can be bound.
//
//   - Poller / Socket: The OS seams. The Linux implementations use
//     golang.org/x/sys/unix directly; tests substitute in-memory fakes.
//
// Ordering:
//
//	Requests of one connection are answered strictly in arrival order (pipelining
//	is supported). There is no ordering or fairness across connections.
//
// Thread Safety:
//
//	Nothing in this package is safe for concurrent use, except reading Metrics.
//	Run Serve (or RunOnce) and every other method on the same goroutine.
package reactor

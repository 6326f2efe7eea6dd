// Package lstore implements a local, in-memory, single-node key-value store based on the
// store.IStore interface. Data is stored entirely in memory and is not persisted
// between process restarts.
//
// Implementation Details:
//
//   - Storage: keys and values live in an xsync.MapOf, a concurrent hash map
//     that does not need a global lock for reads.
//
//   - Value ownership: Set stores a copy of the value and Get returns a copy.
//     Request handlers pass slices of a connection's read buffer, which is
//     reused for the next request.
//
// Thread Safety:
//
//	All operations are safe for concurrent use. The reactor calls the store
//	from a single goroutine, the store itself does not rely on that.
package lstore

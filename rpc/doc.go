// Package rpc provides the request/response layer of rKV. Clients and the server
// exchange length-prefixed frames over TCP; the server answers the frames of a
// connection in order from a single-threaded reactor.
//
// The package is organized into several subpackages:
//
//   - codec: The frame format (u32 little-endian length header, at most 4096
//     body bytes) with incremental decoding and blocking stream helpers.
//
//   - common: The kv text protocol, configuration structures and logging.
//
//   - transport: Network communication abstractions. The tcp implementation
//     serves from the reactor subpackage; base holds the pipelined client.
//
//   - client: The RPC client implementing store.IStore against a remote server.
//
//   - server: The server wiring handlers, transport and metrics together.
package rpc

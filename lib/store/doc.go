// Package store provides the interface for key-value storage operations used
// by the kv request handler and implemented again by the RPC client.
//
// Key Components:
//
//   - IStore Interface: The core abstraction defining Set, Get, Delete, Has and
//     Keys. The kv handler runs against any IStore; the rpc/client package
//     offers the same interface on top of a network connection.
//
//   - Error System: A structured error reporting mechanism using typed return
//     codes and descriptive messages.
//
// Implementations:
//
//   - Local Store (lstore): an in-memory implementation on a concurrent hash
//     map. Available in the "github.com/ValentinKolb/rKV/lib/store/lstore" package.
//
//   - RPC Store: a client for a remote rKV server speaking the kv command
//     protocol. Available in the "github.com/ValentinKolb/rKV/rpc/client" package.
package store

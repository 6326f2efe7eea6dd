// Package transport defines the interfaces and abstractions for RPC communication
// between rKV clients and servers. It provides a common contract that all transport
// implementations must fulfill.
//
// Every request and every response is one length-prefixed frame (see the codec
// package). Responses on a connection are sent in the order the requests were
// received, so no request identifiers travel on the wire.
//
// Key Components:
//
//   - IRPCClientTransport: Interface for client-side transport implementations that
//     handles connection management and request sending.
//
//   - IRPCServerTransport: Interface for server-side transport implementations that
//     receives requests and passes them to the registered handler.
//
//   - ServerHandleFunc: Function type for request handling callbacks.
package transport

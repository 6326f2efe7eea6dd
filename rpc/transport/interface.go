package transport

import (
	"context"
	"github.com/ValentinKolb/rKV/rpc/common"
	"io"
)

// --------------------------------------------------------------------------
// Server Transport
// --------------------------------------------------------------------------

// ServerHandleFunc is a function type that handles incoming requests
// This function is called by a server transport layer for every decoded request frame
// The request is only valid during the call; the response is framed and sent back in request order
type ServerHandleFunc func(req []byte) (resp []byte)

// IRPCServerTransport is the interface for the RPC transport layer
// It must accept a ServerConfig as a parameter
type IRPCServerTransport interface {
	// RegisterHandler registers a handler for the transport layer
	// This handler should be called when a request is received
	RegisterHandler(handler ServerHandleFunc)
	// Listen starts the transport layer and serves requests until ctx is cancelled
	Listen(ctx context.Context, config common.ServerConfig) error
	// Addr returns the address the transport listens on (empty until it does)
	Addr() string
	// WriteMetrics writes the transport metrics in the Prometheus text format
	WriteMetrics(w io.Writer)
}

// --------------------------------------------------------------------------
// Client Transport
// --------------------------------------------------------------------------

// IRPCClientTransport is the interface for the RPC client transport
type IRPCClientTransport interface {
	// Connect initializes the transport with the given configuration
	Connect(config common.ClientConfig) error
	// Send sends a request to the server and returns the response
	Send(req []byte) (resp []byte, err error)
	// Close closes the transport connection
	Close() error
}

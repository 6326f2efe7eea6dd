// Package server implements the RPC server of rKV. It wires a request handler
// to a server transport and exposes the server metrics.
//
// Key Components:
//
//   - NewEchoHandler: Handler answering every request with its own body.
//
//   - NewKVHandler: Handler interpreting request bodies as kv commands
//     (PING, SET, GET, DEL, HAS, KEYS) and executing them against a store.IStore.
//     Responses never exceed the maximum frame body; oversized GET results are
//     answered with an error instead.
//
//   - IRPCServerAdapter / NewIStoreServerAdapter: Translate parsed requests into
//     store.IStore calls and their results into response messages.
//
//   - NewRPCServer: Factory function creating a server from a common.ServerConfig
//     and a transport. Serve validates the config, initializes the loggers,
//     registers the configured handler, optionally starts the HTTP metrics endpoint
//     and blocks until the context is cancelled.
//
// Usage Example:
//
//	config := common.ServerConfig{
//		Port:            6969,
//		BindAddress:     "0.0.0.0",
//		Backlog:         512,
//		MaxEvents:       512,
//		MaxWriteBacklog: 64 * 1024,
//		Handler:         common.HandlerKV,
//		LogLevel:        "info",
//	}
//
//	s := server.NewRPCServer(config, tcp.NewTCPServerTransport())
//	if err := s.Serve(ctx); err != nil {
//		log.Fatalf("Server error: %v", err)
//	}
package server

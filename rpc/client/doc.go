// Package client implements the RPC client of the rKV key-value server.
// It provides an implementation of the store.IStore interface that talks to
// a remote server running the kv handler.
//
// Key Components:
//
//   - RPCStore: store.IStore plus Ping, Do (raw request bodies, used by the
//     repl) and Close.
//
//   - NewRPCStore: Factory function that connects the given transport and returns
//     an RPCStore forwarding all operations to the server.
//
// Usage Example:
//
//	config := common.ClientConfig{
//		TimeoutSecond: 5,
//		Transport: common.ClientTransportConfig{
//			Endpoints:              []string{"localhost:6969"},
//			RetryCount:             3,
//			ConnectionsPerEndpoint: 1,
//		},
//	}
//
//	s, err := client.NewRPCStore(config, tcp.NewTCPClientTransport())
//	if err != nil {
//		panic(err)
//	}
//	defer s.Close()
//
//	_ = s.Set("mykey", []byte("myvalue"))
//	value, exists, _ := s.Get("mykey")
//
// Errors sent by the server (ERR responses) are returned as *store.Error with
// code store.RetCRemoteError. Keys that cannot be encoded (empty or containing
// whitespace) are rejected locally with store.RetCInvalidOperation.
//
// Thread Safety:
//
//	RPCStore is safe for concurrent use. Requests sent on the same connection are
//	pipelined and answered in order.
package client

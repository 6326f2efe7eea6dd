// Package tcp implements the TCP transport of rKV.
//
// Key Components:
//
//   - serverTransport: runs the registered handler on the single-threaded,
//     readiness-driven reactor (see the reactor package). The reactor counters
//     are registered in a VictoriaMetrics set owned by the transport and exposed
//     through WriteMetrics.
//
//   - clientConnector: TCP implementation of base.IClientConnector. It applies
//     the configured socket options (TCP_NODELAY, buffer sizes, keep-alive,
//     linger) to every new connection.
package tcp

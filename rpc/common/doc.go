// Package common provides the data structures and utilities shared by the
// server, the clients and the command line tools. It defines the text command
// protocol of the kv handler, the configuration structures and the logger
// integration.
//
// The package focuses on:
//   - Message protocol definition for the kv request handler
//   - Configuration structures for client and server components
//   - Custom logging implementation plugged into the dragonboat logger facade
//
// Key Components:
//
//   - Message: Request and response of the kv protocol. Requests are encoded
//     with AppendRequest and parsed by the server with ParseRequest; responses
//     are encoded with AppendResponse and parsed by clients with ParseResponse.
//
//   - MessageType: Enumeration of all request verbs (PING, SET, GET, DEL, HAS,
//     KEYS) and response kinds (OK, NIL, PONG, ERR).
//
//   - ServerConfig: Listener, reactor, handler, metrics and logging settings of
//     the server. Validate rejects values the server cannot run with.
//
//   - ClientConfig: Configuration for client transports, controlling endpoints,
//     connection pooling, socket options, timeouts and retry behavior.
//
//   - Logger: Custom logger factory for the dragonboat logger package that
//     writes "LEVEL | package | message" lines, plus ParseLogLevel and
//     InitLoggers to apply the configured level to every application logger.
package common

// Package cmd implements the command-line interface of rKV. It provides a
// hierarchical command structure with operations for running the server and
// interacting with it as a client.
//
// The package is organized into several subpackages:
//
//   - serve: Starts and configures the rKV server
//   - kv: Commands for key-value store operations (set, get, del, ...) and perf
//   - repl: Interactive prompt sending raw request lines
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See rkv -help for a list of all commands.
package cmd

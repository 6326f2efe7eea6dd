package base

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/rKV/rpc/codec"
	"github.com/ValentinKolb/rKV/rpc/common"
	"github.com/ValentinKolb/rKV/rpc/transport"
	"github.com/eapache/queue"
	"github.com/lni/dragonboat/v4/logger"
	"math/rand"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

var Logger = logger.GetLogger("transport/rpc")

var (
	// ErrTransportClosed is returned by Send after Close
	ErrTransportClosed = errors.New("transport: closed")
	// ErrTimeout is returned when no response arrived within the configured timeout
	ErrTimeout = errors.New("transport: request timed out")
)

// initial backoff between two attempts of the same request
const initialBackoff = 50 * time.Millisecond

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IClientConnector defines the interface for transport-specific connection operations
type IClientConnector interface {
	// Connect establishes a single connection to endpoint
	Connect(endpoint string, config common.ClientConfig) (net.Conn, error)

	// GetName returns the name of the transport type (e.g. "tcp")
	GetName() string

	// UpgradeConnection applies protocol-specific settings to an established connection
	UpgradeConnection(conn net.Conn, config common.ClientConfig) error
}

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

// responseResult contains the result of a request
type responseResult struct {
	data []byte
	err  error
}

// clientConnection represents a single net connection.
//
// The server answers the requests of a connection in order, so every request
// pushes its response slot onto pending in the same critical section in which
// it writes its frame, and the reader completes slots front to back.
type clientConnection struct {
	endpoint string
	parent   *clientTransport

	writeMu sync.Mutex // serializes frame writes and keeps pending in write order

	mu      sync.Mutex   // protects the fields below
	conn    net.Conn     // nil while disconnected
	pending *queue.Queue // of chan responseResult
	closed  bool
}

// clientTransport implements the core client transport functionality
// independent of the specific transport medium
type clientTransport struct {
	connector     IClientConnector
	config        common.ClientConfig
	connections   []*clientConnection
	connectionsMu sync.RWMutex
	nextConnIndex atomic.Uint64 // Atomic counter for Round Robin
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp)
// -----------------------------------------------------------

// NewBaseClientTransport creates a new base client transport with the specified connector
func NewBaseClientTransport(connector IClientConnector) transport.IRPCClientTransport {
	return &clientTransport{
		connector: connector,
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCClientTransport)
// --------------------------------------------------------------------------

func (t *clientTransport) Connect(config common.ClientConfig) error {
	if len(config.Transport.Endpoints) == 0 {
		return fmt.Errorf("no endpoints provided")
	}

	// Close all existing connections
	t.closeConnections()

	t.connectionsMu.Lock()
	defer t.connectionsMu.Unlock()

	// Store the config
	t.config = config

	// Set default value for ConnectionsPerEndpoint
	connectionsPerEP := max(1, config.Transport.ConnectionsPerEndpoint)

	connections := make([]*clientConnection, 0, len(config.Transport.Endpoints)*connectionsPerEP)
	connected := 0

	for _, endpoint := range config.Transport.Endpoints {
		// Create multiple connections per endpoint
		for i := 0; i < connectionsPerEP; i++ {
			clientConn := &clientConnection{
				endpoint: endpoint,
				parent:   t,
				pending:  queue.New(),
			}
			connections = append(connections, clientConn)

			// Establish the initial connection, failed ones are retried on use
			clientConn.mu.Lock()
			err := clientConn.dialLocked()
			clientConn.mu.Unlock()
			if err != nil {
				Logger.Warningf("Failed to connect to %s (connection %d/%d): %v", endpoint, i+1, connectionsPerEP, err)
				continue
			}
			connected++
			Logger.Debugf("Connected to %s (connection %d/%d)", endpoint, i+1, connectionsPerEP)
		}
	}

	// Check if we have at least one connection
	if connected == 0 {
		for _, c := range connections {
			c.close()
		}
		return fmt.Errorf("failed to connect to any endpoint")
	}

	t.connections = connections
	Logger.Infof("Connected %d out of %d connections to %d endpoints using %s transport",
		connected, len(connections), len(config.Transport.Endpoints), t.connector.GetName())
	return nil
}

func (t *clientTransport) Send(req []byte) ([]byte, error) {
	if len(req) > codec.MaxBodyLen {
		return nil, fmt.Errorf("request of %d bytes: %w", len(req), codec.ErrBodyTooLarge)
	}

	// Retry logic with exponential backoff
	var lastErr error

	// We always try at least once
	maxAttempts := max(1, t.config.Transport.RetryCount)
	backoff := initialBackoff

	for i := 0; i < maxAttempts; i++ {
		conn := t.getNextConnection()
		if conn == nil {
			return nil, ErrTransportClosed
		}

		data, err := conn.send(req)
		if err == nil {
			return data, nil
		}
		if errors.Is(err, ErrTransportClosed) {
			return nil, err
		}

		lastErr = err
		Logger.Debugf("Request attempt %d/%d failed: %v", i+1, maxAttempts, err)

		if i < maxAttempts-1 {
			// Exponential backoff with a small random jitter (+-10%)
			jitter := float64(backoff) * (0.9 + 0.2*rand.Float64())
			time.Sleep(time.Duration(jitter))
			backoff *= 2
		}
	}

	// All attempts failed
	return nil, fmt.Errorf("failed to send request after %d attempts: %w", maxAttempts, lastErr)
}

func (t *clientTransport) Close() error {
	t.closeConnections()
	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// getNextConnection selects the next connection via Round Robin
func (t *clientTransport) getNextConnection() *clientConnection {
	t.connectionsMu.RLock()
	defer t.connectionsMu.RUnlock()

	if len(t.connections) == 0 {
		return nil
	}
	if len(t.connections) == 1 {
		return t.connections[0]
	}

	index := t.nextConnIndex.Add(1) % uint64(len(t.connections))
	return t.connections[index]
}

// closeConnections closes all connections and fails their outstanding requests
func (t *clientTransport) closeConnections() {
	t.connectionsMu.Lock()
	connections := t.connections
	t.connections = nil
	t.connectionsMu.Unlock()

	for _, c := range connections {
		c.close()
	}
}

// send writes one request and waits for its response
func (c *clientConnection) send(req []byte) ([]byte, error) {
	respCh := make(chan responseResult, 1)

	c.writeMu.Lock()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.writeMu.Unlock()
		return nil, ErrTransportClosed
	}
	if c.conn == nil {
		if err := c.dialLocked(); err != nil {
			c.mu.Unlock()
			c.writeMu.Unlock()
			return nil, err
		}
	}
	conn := c.conn
	c.pending.Add(respCh)
	c.mu.Unlock()

	// Set write timeout
	timeout := time.Duration(c.parent.config.TimeoutSecond) * time.Second
	if timeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(timeout))
	}
	err := codec.WriteFrame(conn, req)
	c.writeMu.Unlock()

	if err != nil {
		c.fail(conn, fmt.Errorf("error writing request: %w", err))
	}

	// Wait for response or timeout
	var timeoutCh <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	select {
	case result := <-respCh:
		return result.data, result.err
	case <-timeoutCh:
		// later responses on this connection would be matched to the wrong request
		c.fail(conn, ErrTimeout)
		return nil, ErrTimeout
	}
}

// readResponses completes the pending requests of conn in order until conn fails
func (c *clientConnection) readResponses(conn net.Conn) {
	for {
		data, err := codec.ReadFrame(conn, nil)
		if err != nil {
			c.fail(conn, fmt.Errorf("error reading response: %w", err))
			return
		}

		c.mu.Lock()
		if c.conn != conn {
			c.mu.Unlock()
			return
		}
		if c.pending.Length() == 0 {
			c.mu.Unlock()
			Logger.Warningf("Received unsolicited response from %s, dropping connection", c.endpoint)
			c.fail(conn, errors.New("unsolicited response"))
			return
		}
		respCh := c.pending.Remove().(chan responseResult)
		c.mu.Unlock()

		respCh <- responseResult{data: data}
	}
}

// dialLocked establishes a new connection and starts its reader. c.mu must be held.
func (c *clientConnection) dialLocked() error {
	config := c.parent.config

	conn, err := c.parent.connector.Connect(c.endpoint, config)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", c.endpoint, err)
	}

	// Upgrade the connection with protocol-specific settings
	if err := c.parent.connector.UpgradeConnection(conn, config); err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to upgrade connection to %s: %w", c.endpoint, err)
	}

	c.conn = conn
	go c.readResponses(conn)
	return nil
}

// fail closes conn if it is still the current connection and fails every
// outstanding request. The next send reconnects.
func (c *clientConnection) fail(conn net.Conn, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != conn {
		return
	}
	_ = c.conn.Close()
	c.conn = nil
	c.failPendingLocked(err)

	if !c.closed {
		Logger.Debugf("Connection to %s failed: %v", c.endpoint, err)
	}
}

func (c *clientConnection) failPendingLocked(err error) {
	for c.pending.Length() > 0 {
		respCh := c.pending.Remove().(chan responseResult)
		respCh <- responseResult{err: err}
	}
}

// close shuts the connection down permanently
func (c *clientConnection) close() {
	c.mu.Lock()
	c.closed = true
	conn := c.conn
	c.mu.Unlock()

	if conn != nil {
		c.fail(conn, ErrTransportClosed)
	}
}

package common

import (
	"fmt"
	"github.com/ValentinKolb/rKV/rpc/codec"
	"strconv"
	"strings"
)

// --------------------------------------------------------------------------
// RPC server configuration struct
// --------------------------------------------------------------------------

// HandlerType selects the request handler the server answers frames with
type HandlerType string

const (
	// HandlerEcho answers every request with its own body
	HandlerEcho HandlerType = "echo"
	// HandlerKV interprets request bodies as key-value commands
	HandlerKV HandlerType = "kv"
)

// ServerConfig holds all configuration parameters of the server
type ServerConfig struct {
	// Listener settings
	Port        int
	BindAddress string
	Backlog     int

	// Reactor settings
	MaxEvents       int
	MaxWriteBacklog int

	// Handler answering the requests
	Handler HandlerType

	// HTTP endpoint for the prometheus metrics (empty disables it)
	MetricsEndpoint string

	// Logging configuration
	LogLevel string
}

// Validate checks the configuration for values the server cannot run with
func (c *ServerConfig) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d (expected 0-65535)", c.Port)
	}
	switch c.Handler {
	case HandlerEcho, HandlerKV:
	default:
		return fmt.Errorf("invalid handler %q (expected one of: echo, kv)", c.Handler)
	}
	if c.Backlog <= 0 {
		return fmt.Errorf("invalid backlog %d (must be positive)", c.Backlog)
	}
	if c.MaxEvents <= 0 {
		return fmt.Errorf("invalid max events %d (must be positive)", c.MaxEvents)
	}
	if c.MaxWriteBacklog < codec.MaxFrameLen {
		return fmt.Errorf("invalid max write backlog %d (must hold at least one frame of %d bytes)", c.MaxWriteBacklog, codec.MaxFrameLen)
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// String returns a formatted string representation of the configuration
func (c *ServerConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// Listener settings
	addSection("Listener")
	addField("Bind Address", c.BindAddress)
	addField("Port", strconv.Itoa(c.Port))
	addField("Backlog", strconv.Itoa(c.Backlog))

	// Reactor settings
	addSection("Reactor")
	addField("Max Events", strconv.Itoa(c.MaxEvents))
	addField("Max Write Backlog", fmt.Sprintf("%d bytes", c.MaxWriteBacklog))
	addField("Max Frame Body", fmt.Sprintf("%d bytes", codec.MaxBodyLen))
	addField("Handler", string(c.Handler))

	// Metrics
	addSection("Metrics")
	if c.MetricsEndpoint == "" {
		addField("Endpoint", "disabled")
	} else {
		addField("Endpoint", c.MetricsEndpoint)
	}

	// Logging configuration
	addSection("Logging")
	addField("Log Level", c.LogLevel)

	return sb.String()
}

// --------------------------------------------------------------------------
// RPC client configuration struct
// --------------------------------------------------------------------------

// SocketConf holds the socket buffer sizes of client connections (0 = OS default)
type SocketConf struct {
	WriteBufferSize int
	ReadBufferSize  int
}

// TCPConf holds the TCP options of client connections
type TCPConf struct {
	TCPNoDelay      bool
	TCPKeepAliveSec int
	// TCPLingerSec < 0 leaves the OS default in place
	TCPLingerSec int
}

// ClientTransportConfig configures the connections of a client transport
type ClientTransportConfig struct {
	Endpoints              []string
	RetryCount             int
	ConnectionsPerEndpoint int
	SocketConf
	TCPConf
}

// ClientConfig holds all configuration parameters of a client
type ClientConfig struct {
	TimeoutSecond int
	Transport     ClientTransportConfig
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// General Client Settings
	addSection("Client Configuration")
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Retry Count", strconv.Itoa(c.Transport.RetryCount))
	addField("Conns Per Endpoint", strconv.Itoa(max(1, c.Transport.ConnectionsPerEndpoint)))

	// Socket settings
	addSection("Socket")
	addField("Write Buffer", fmt.Sprintf("%d bytes", c.Transport.WriteBufferSize))
	addField("Read Buffer", fmt.Sprintf("%d bytes", c.Transport.ReadBufferSize))
	addField("TCP No Delay", strconv.FormatBool(c.Transport.TCPNoDelay))
	addField("TCP Keep Alive", fmt.Sprintf("%d sec", c.Transport.TCPKeepAliveSec))
	addField("TCP Linger", fmt.Sprintf("%d sec", c.Transport.TCPLingerSec))

	// Endpoints
	addSection("Endpoints")
	for i, endpoint := range c.Transport.Endpoints {
		addField(strconv.Itoa(i), endpoint)
	}

	return sb.String()
}

package reactor

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

const (
	// DefaultBacklog is the default listen backlog
	DefaultBacklog = 512
	// DefaultPollInterval bounds a single wait while serving with a cancellable context
	DefaultPollInterval = 100 * time.Millisecond

	// maxAcceptFailures bounds consecutive failed accepts within one readiness event
	maxAcceptFailures = 16
)

// ServerConfig configures a Server
type ServerConfig struct {
	Backlog         int
	MaxEvents       int
	MaxWriteBacklog int
	PollInterval    time.Duration
	Metrics         *Metrics
}

// Server owns the listening socket and wires accepted connections into a Reactor
type Server struct {
	reactor *Reactor
	sock    Socket
	config  ServerConfig

	lfd  int
	addr string
}

// NewServer creates a server whose connections are answered by handler.
// Failing to create the readiness primitive is fatal.
func NewServer(handler RequestHandler, config ServerConfig) (*Server, error) {
	poller, err := NewPoller()
	if err != nil {
		return nil, fmt.Errorf("reactor: init poller: %w", err)
	}
	return newServer(poller, NewSocket(), handler, config), nil
}

func newServer(poller Poller, sock Socket, handler RequestHandler, config ServerConfig) *Server {
	if config.Backlog <= 0 {
		config.Backlog = DefaultBacklog
	}
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultPollInterval
	}

	return &Server{
		reactor: NewReactor(poller, sock, handler, Config{
			MaxEvents:       config.MaxEvents,
			MaxWriteBacklog: config.MaxWriteBacklog,
			Metrics:         config.Metrics,
		}),
		sock:   sock,
		config: config,
		lfd:    -1,
	}
}

// Start binds the first usable candidate address for bindAddress:port,
// listens on it and registers the listener with the reactor. An empty
// bindAddress means the IPv4 wildcard address.
func (s *Server) Start(bindAddress string, port int) error {
	candidates, err := resolveBindAddress(bindAddress)
	if err != nil {
		return &BindError{Address: bindAddress, Port: port, Err: err}
	}

	// bind to the first address that can be bound
	var lastErr error
	for _, ip := range candidates {
		fd, err := bindSocket(ip, port)
		if err != nil {
			Logger.Infof("bind %s failed, trying next address: %v", net.JoinHostPort(ip.String(), fmt.Sprint(port)), err)
			lastErr = err
			continue
		}
		s.lfd = fd
		break
	}
	if s.lfd < 0 {
		return &BindError{Address: bindAddress, Port: port, Err: lastErr}
	}

	if err := listenSocket(s.lfd, s.config.Backlog); err != nil {
		s.closeListener()
		return fmt.Errorf("reactor: %w", err)
	}

	addr, err := localAddr(s.lfd)
	if err != nil {
		s.closeListener()
		return fmt.Errorf("reactor: %w", err)
	}
	s.addr = addr

	if err := s.reactor.AddListener(s.lfd, s.acceptReady); err != nil {
		s.closeListener()
		return err
	}

	Logger.Infof("listening for TCP connections on %s (backlog %d)", s.addr, s.config.Backlog)
	return nil
}

// Addr returns the bound listening address (empty before Start)
func (s *Server) Addr() string {
	return s.addr
}

// Reactor returns the reactor driving this server
func (s *Server) Reactor() *Reactor {
	return s.reactor
}

// ServeForever runs the event loop. It only returns if polling fails.
func (s *Server) ServeForever() error {
	return s.Serve(context.Background())
}

// Serve runs the event loop until ctx is cancelled or polling fails.
// A context that can never be cancelled waits without timeout.
func (s *Server) Serve(ctx context.Context) error {
	if s.lfd < 0 {
		return ErrNotStarted
	}

	timeout := time.Duration(-1)
	if ctx.Done() != nil {
		timeout = s.config.PollInterval
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if err := s.reactor.RunOnce(timeout); err != nil {
			Logger.Errorf("event loop stopped: %v", err)
			return err
		}
	}
}

// Close releases all connections, the listener and the poller.
// It must not be called while Serve is running.
func (s *Server) Close() error {
	if s.lfd >= 0 {
		_ = s.reactor.RemoveListener(s.lfd)
		s.closeListener()
	}
	return s.reactor.Close()
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// acceptReady accepts connections until accept would block
func (s *Server) acceptReady() {
	failures := 0
	for failures < maxAcceptFailures {
		fd, remote, err := s.sock.Accept(s.lfd)
		if errors.Is(err, ErrWouldBlock) {
			return
		}
		if err != nil {
			// the listener stays readable, so a persistent error is retried on the next poll
			failures++
			s.reactor.metrics.AcceptErrors.Inc()
			Logger.Warningf("accept error: %v", err)
			continue
		}

		if err := s.reactor.AddConn(fd, remote); err != nil {
			Logger.Warningf("failed to register connection from %s: %v", remote, err)
			_ = s.sock.Close(fd)
			continue
		}
		Logger.Debugf("accepted connection %d from %s", fd, remote)
	}
}

func (s *Server) closeListener() {
	if err := s.sock.Close(s.lfd); err != nil {
		Logger.Warningf("close listener: %v", err)
	}
	s.lfd = -1
}

// resolveBindAddress returns the candidate addresses for host, IPv4 first
func resolveBindAddress(host string) ([]net.IP, error) {
	if host == "" || host == "*" {
		return []net.IP{net.IPv4zero}, nil
	}
	if ip := net.ParseIP(host); ip != nil {
		return []net.IP{ip}, nil
	}

	ips, err := net.LookupIP(host)
	if err != nil {
		return nil, err
	}

	candidates := make([]net.IP, 0, len(ips))
	for _, ip := range ips {
		if ip.To4() != nil {
			candidates = append(candidates, ip)
		}
	}
	for _, ip := range ips {
		if ip.To4() == nil {
			candidates = append(candidates, ip)
		}
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no addresses found for %q", host)
	}
	return candidates, nil
}

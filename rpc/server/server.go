package server

import (
	"context"
	"errors"
	"fmt"
	"github.com/ValentinKolb/rKV/lib/store/lstore"
	"github.com/ValentinKolb/rKV/rpc/common"
	"github.com/ValentinKolb/rKV/rpc/transport"
	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
	"io"
	"net"
	"net/http"
	"time"
)

var Logger = logger.GetLogger("rpc")

// metricsShutdownTimeout bounds the graceful shutdown of the metrics endpoint
const metricsShutdownTimeout = 2 * time.Second

// NewRPCServer creates a new RPC server
// It takes a config and a transport as parameters
//
// Usage:
//
//	s := server.NewRPCServer(
//		*config,
//		tcp.NewTCPServerTransport(),
//	)
//
//	if err := s.Serve(ctx); err != nil {
//		panic(err)
//	}
func NewRPCServer(
	config common.ServerConfig,
	transport transport.IRPCServerTransport,
) *RPCServer {
	return &RPCServer{
		config:    config,
		transport: transport,
		metrics:   metrics.NewSet(),
	}
}

// RPCServer wires the request handler, the transport and the metrics endpoint
type RPCServer struct {
	config    common.ServerConfig
	transport transport.IRPCServerTransport
	metrics   *metrics.Set
}

func (s *RPCServer) init() error {
	if err := s.config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Init logger
	if err := common.InitLoggers(s.config); err != nil {
		return err
	}

	Logger.Infof("Created RPC Server")
	Logger.Infof(s.config.String())

	// Configure the transport layer
	switch s.config.Handler {
	case common.HandlerEcho:
		s.transport.RegisterHandler(NewEchoHandler())
	case common.HandlerKV:
		s.transport.RegisterHandler(NewKVHandler(lstore.NewLocalStore(), s.metrics))
	}
	Logger.Infof("using %s handler", s.config.Handler)

	return nil
}

// Serve initializes the server and runs the transport until ctx is cancelled
func (s *RPCServer) Serve(ctx context.Context) error {
	if err := s.init(); err != nil {
		return err
	}

	if s.config.MetricsEndpoint != "" {
		_, stop, err := s.serveMetrics(s.config.MetricsEndpoint)
		if err != nil {
			return err
		}
		defer stop()
	}

	err := s.transport.Listen(ctx, s.config)
	if err == nil {
		Logger.Infof("RPC server stopped")
	}
	return err
}

// Addr returns the address the transport listens on (empty until it does)
func (s *RPCServer) Addr() string {
	return s.transport.Addr()
}

// WriteMetrics writes the server, transport and process metrics in the Prometheus text format
func (s *RPCServer) WriteMetrics(w io.Writer) {
	s.metrics.WritePrometheus(w)
	s.transport.WriteMetrics(w)
	metrics.WritePrometheus(w, true)
}

// serveMetrics starts the HTTP metrics endpoint. The returned function stops it.
func (s *RPCServer) serveMetrics(endpoint string) (net.Addr, func(), error) {
	ln, err := net.Listen("tcp", endpoint)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to listen on metrics endpoint %s: %w", endpoint, err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		s.WriteMetrics(w)
	})
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			Logger.Errorf("metrics endpoint stopped: %v", err)
		}
	}()
	Logger.Infof("serving metrics on http://%s/metrics", ln.Addr())

	return ln.Addr(), func() {
		ctx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}

package tcp

import (
	"context"
	"errors"
	"github.com/ValentinKolb/rKV/rpc/common"
	"github.com/ValentinKolb/rKV/rpc/transport"
	"github.com/ValentinKolb/rKV/rpc/transport/reactor"
	"github.com/VictoriaMetrics/metrics"
	"io"
	"sync/atomic"
)

// serverTransport serves the registered handler from a single-threaded,
// readiness-driven reactor
type serverTransport struct {
	handler transport.ServerHandleFunc
	set     *metrics.Set
	metrics *reactor.Metrics
	addr    atomic.Pointer[string]
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCServerTransport)
// --------------------------------------------------------------------------

func (t *serverTransport) RegisterHandler(handler transport.ServerHandleFunc) {
	t.handler = handler
}

func (t *serverTransport) Listen(ctx context.Context, config common.ServerConfig) error {
	if t.handler == nil {
		return errors.New("tcp: no handler registered")
	}

	srv, err := reactor.NewServer(reactor.HandlerFunc(t.handler), reactor.ServerConfig{
		Backlog:         config.Backlog,
		MaxEvents:       config.MaxEvents,
		MaxWriteBacklog: config.MaxWriteBacklog,
		Metrics:         t.metrics,
	})
	if err != nil {
		return err
	}

	if err := srv.Start(config.BindAddress, config.Port); err != nil {
		_ = srv.Close()
		return err
	}

	addr := srv.Addr()
	t.addr.Store(&addr)
	defer t.addr.Store(nil)

	// Close must not run concurrently with Serve, so it runs after Serve returned
	serveErr := srv.Serve(ctx)
	if err := srv.Close(); err != nil && serveErr == nil {
		serveErr = err
	}
	return serveErr
}

func (t *serverTransport) Addr() string {
	if addr := t.addr.Load(); addr != nil {
		return *addr
	}
	return ""
}

func (t *serverTransport) WriteMetrics(w io.Writer) {
	t.set.WritePrometheus(w)
}

// --------------------------------------------------------------------------
// Server Transport Factory Method
// --------------------------------------------------------------------------

// NewTCPServerTransport creates a new TCP server transport with its own metrics set
func NewTCPServerTransport() transport.IRPCServerTransport {
	set := metrics.NewSet()
	return &serverTransport{
		set:     set,
		metrics: reactor.NewMetrics(set),
	}
}

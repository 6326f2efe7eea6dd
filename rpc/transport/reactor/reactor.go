package reactor

import (
	"errors"
	"fmt"
	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
	"time"
)

var Logger = logger.GetLogger("reactor")

// DefaultMaxEvents is the default number of readiness events handled per poll
const DefaultMaxEvents = 512

// RequestHandler produces the response body for one fully decoded request body.
//
// The request slice is only valid during the call. The returned slice is
// framed into the connection's write buffer before the next request is decoded
// and must not be longer than codec.MaxBodyLen.
type RequestHandler interface {
	Handle(req []byte) (resp []byte)
}

// HandlerFunc adapts a plain function to RequestHandler
type HandlerFunc func(req []byte) (resp []byte)

func (f HandlerFunc) Handle(req []byte) []byte {
	return f(req)
}

// Config configures a Reactor
type Config struct {
	// MaxEvents bounds the events processed per RunOnce
	MaxEvents int
	// MaxWriteBacklog bounds the queued response bytes per connection
	MaxWriteBacklog int
	// Metrics receives the reactor counters; a private set is used if nil
	Metrics *Metrics
}

// Reactor owns the poller, the connection registry and the dispatch loop.
// All methods must be called from the goroutine that runs RunOnce.
type Reactor struct {
	poller  Poller
	sock    Socket
	handler RequestHandler
	config  Config
	metrics *Metrics

	events    []Event
	conns     map[int]*Conn
	acceptors map[int]func()
	interests map[int]Interest
}

// NewReactor creates a reactor dispatching decoded frames to handler
func NewReactor(poller Poller, sock Socket, handler RequestHandler, config Config) *Reactor {
	if config.MaxEvents <= 0 {
		config.MaxEvents = DefaultMaxEvents
	}
	if config.MaxWriteBacklog <= 0 {
		config.MaxWriteBacklog = DefaultMaxWriteBacklog
	}
	if config.Metrics == nil {
		config.Metrics = NewMetrics(metrics.NewSet())
	}

	return &Reactor{
		poller:    poller,
		sock:      sock,
		handler:   handler,
		config:    config,
		metrics:   config.Metrics,
		events:    make([]Event, config.MaxEvents),
		conns:     make(map[int]*Conn),
		acceptors: make(map[int]func()),
		interests: make(map[int]Interest),
	}
}

// --------------------------------------------------------------------------
// Registration
// --------------------------------------------------------------------------

// Register watches id for interest. Registering an already watched handle
// updates its interest instead.
func (r *Reactor) Register(id int, interest Interest) error {
	if _, ok := r.interests[id]; ok {
		return r.ModifyInterest(id, interest)
	}
	if err := r.poller.Add(id, interest); err != nil {
		return fmt.Errorf("reactor: register %d: %w", id, err)
	}
	r.interests[id] = interest
	return nil
}

// ModifyInterest replaces the interest of id. It is a no-op if the interest
// is unchanged and registers id if it is not watched yet.
func (r *Reactor) ModifyInterest(id int, interest Interest) error {
	current, ok := r.interests[id]
	if !ok {
		return r.Register(id, interest)
	}
	if current == interest {
		return nil
	}
	if err := r.poller.Modify(id, interest); err != nil {
		return fmt.Errorf("reactor: modify %d: %w", id, err)
	}
	r.interests[id] = interest
	return nil
}

// Deregister stops watching id. Deregistering an unknown handle is a no-op.
func (r *Reactor) Deregister(id int) error {
	if _, ok := r.interests[id]; !ok {
		return nil
	}
	delete(r.interests, id)
	if err := r.poller.Remove(id); err != nil {
		return fmt.Errorf("reactor: deregister %d: %w", id, err)
	}
	return nil
}

// AddListener watches a listening handle; onAccept runs on every read readiness
func (r *Reactor) AddListener(fd int, onAccept func()) error {
	if _, ok := r.acceptors[fd]; ok {
		return fmt.Errorf("reactor: listener %d: %w", fd, ErrAlreadyRegistered)
	}
	if err := r.Register(fd, Readable); err != nil {
		return err
	}
	r.acceptors[fd] = onAccept
	return nil
}

// RemoveListener stops watching a listening handle. The handle is not closed.
func (r *Reactor) RemoveListener(fd int) error {
	delete(r.acceptors, fd)
	return r.Deregister(fd)
}

// AddConn registers an accepted, non-blocking socket as a new active
// connection. On error the caller still owns the handle.
func (r *Reactor) AddConn(fd int, remote string) error {
	if _, ok := r.conns[fd]; ok {
		return fmt.Errorf("reactor: connection %d: %w", fd, ErrAlreadyRegistered)
	}

	c := newConn(fd, remote, r.config.MaxWriteBacklog)
	if err := r.Register(fd, c.Interest()); err != nil {
		return err
	}

	r.conns[fd] = c
	r.metrics.Accepted.Inc()
	r.metrics.active.Add(1)
	return nil
}

// Len returns the number of registered connections
func (r *Reactor) Len() int {
	return len(r.conns)
}

// Metrics returns the counters updated by this reactor
func (r *Reactor) Metrics() *Metrics {
	return r.metrics
}

// --------------------------------------------------------------------------
// Dispatch loop
// --------------------------------------------------------------------------

// RunOnce waits until at least one handle is ready or timeout elapses
// (negative = wait forever) and dispatches every reported event. Only a
// failure of the poller itself is returned; connection errors close the
// affected connection.
func (r *Reactor) RunOnce(timeout time.Duration) error {
	n, err := r.poller.Wait(r.events, timeout)
	if err != nil {
		return fmt.Errorf("reactor: poll: %w", err)
	}

	for i := 0; i < n; i++ {
		r.dispatch(r.events[i])
	}
	return nil
}

// dispatch handles one readiness event
func (r *Reactor) dispatch(ev Event) {
	// Case listening socket
	if accept, ok := r.acceptors[ev.Fd]; ok {
		accept()
		return
	}

	// Case connection (may have been closed earlier in the same batch)
	c, ok := r.conns[ev.Fd]
	if !ok {
		return
	}

	// an error or hang-up is observed by the read path (EOF / read error)
	if (ev.Ready&Readable != 0 || ev.Hangup) && c.State() == StateActive {
		r.handleRead(c)
	}

	// a closing connection with a dead peer must still be reaped
	if ev.Ready&Writable != 0 || (ev.Hangup && c.State() == StateClosing) {
		if c.State() != StateClosed {
			r.handleWrite(c)
		}
	}

	r.settle(c)
}

// handleRead performs one bounded read and answers every complete request
func (r *Reactor) handleRead(c *Conn) {
	space := c.ReadSpace()
	if len(space) == 0 {
		// a full buffer always holds a complete or invalid frame, so this is unreachable
		c.MarkClosing(ErrBufferFull)
		return
	}

	n, err := r.sock.Read(c.ID, space)
	switch {
	case errors.Is(err, ErrWouldBlock):
		return
	case err != nil:
		Logger.Debugf("read error on connection %d (%s): %v", c.ID, c.Remote, err)
		c.MarkClosing(fmt.Errorf("read: %w", err))
		return
	case n == 0:
		c.MarkClosing(ErrPeerClosed)
		return
	}

	c.Commit(n)
	r.metrics.BytesRead.Add(n)

	for req := range c.DrainFrames() {
		r.metrics.FramesDecoded.Inc()

		resp := r.handler.Handle(req)
		if err := c.EnqueueResponse(resp); err != nil {
			Logger.Warningf("dropping connection %d (%s): %v", c.ID, c.Remote, err)
			if errors.Is(err, ErrWriteBacklogFull) {
				c.Abort(err)
			} else {
				c.MarkClosing(err)
			}
			break
		}
	}

	if errors.Is(c.Reason(), ErrInvalidFrame) && c.State() != StateActive {
		r.metrics.InvalidFrames.Inc()
		Logger.Warningf("protocol violation on connection %d (%s): %v", c.ID, c.Remote, c.Reason())
	}

	c.Compact()
}

// handleWrite writes as much of the pending responses as the socket accepts
func (r *Reactor) handleWrite(c *Conn) {
	pending := c.Pending()
	if len(pending) == 0 {
		c.AdvanceAfterFlush(0)
		return
	}

	n, err := r.sock.Write(c.ID, pending)
	switch {
	case errors.Is(err, ErrWouldBlock):
		return
	case err != nil:
		Logger.Debugf("write error on connection %d (%s): %v", c.ID, c.Remote, err)
		c.Abort(fmt.Errorf("write: %w", err))
		return
	}

	if n < len(pending) {
		r.metrics.ShortWrites.Inc()
	}
	r.metrics.BytesWritten.Add(n)
	c.AdvanceAfterFlush(n)
}

// settle syncs the poller registration with the connection's interest and
// removes closed connections
func (r *Reactor) settle(c *Conn) {
	if c.State() != StateClosed {
		err := r.ModifyInterest(c.ID, c.Interest())
		if err == nil {
			return
		}
		c.Abort(err)
	}
	r.closeConn(c)
}

// closeConn removes a connection from the registry and releases its socket
func (r *Reactor) closeConn(c *Conn) {
	if err := r.Deregister(c.ID); err != nil {
		Logger.Warningf("%v", err)
	}
	if err := r.sock.Close(c.ID); err != nil {
		Logger.Warningf("close connection %d: %v", c.ID, err)
	}
	delete(r.conns, c.ID)

	r.metrics.Closed.Inc()
	r.metrics.active.Add(-1)
	Logger.Debugf("closed connection %d (%s): %v", c.ID, c.Remote, c.Reason())
}

// Close releases every connection and the poller. Listening handles are
// deregistered but not closed.
func (r *Reactor) Close() error {
	for _, c := range r.conns {
		c.Abort(ErrReactorClosed)
		r.closeConn(c)
	}
	for fd := range r.acceptors {
		_ = r.RemoveListener(fd)
	}
	return r.poller.Close()
}

package reactor

import (
	"sort"
	"time"
)

// --------------------------------------------------------------------------
// fakeNet: in-memory, level-triggered Poller and Socket for deterministic tests
// --------------------------------------------------------------------------

type fakeConn struct {
	inbound     [][]byte // each Read returns bytes of at most one chunk
	eof         bool
	hangup      bool
	readErr     error
	written     []byte
	writeLimits []int // per Write call: 0 = would block, exhausted = unlimited
	writeErr    error
}

type fakeListener struct {
	pending   []string
	acceptErr []error
}

type fakeNet struct {
	conns     map[int]*fakeConn
	listeners map[int]*fakeListener
	interests map[int]Interest
	closed    map[int]bool
	nextFd    int

	modifyCalls int
	lastWait    int
}

func newFakeNet() *fakeNet {
	return &fakeNet{
		conns:     make(map[int]*fakeConn),
		listeners: make(map[int]*fakeListener),
		interests: make(map[int]Interest),
		closed:    make(map[int]bool),
		nextFd:    10,
	}
}

func (f *fakeNet) newConn() (int, *fakeConn) {
	fd := f.nextFd
	f.nextFd++
	c := &fakeConn{}
	f.conns[fd] = c
	return fd, c
}

func (f *fakeNet) newListener() (int, *fakeListener) {
	fd := f.nextFd
	f.nextFd++
	l := &fakeListener{}
	f.listeners[fd] = l
	return fd, l
}

// Poller

func (f *fakeNet) Add(fd int, interest Interest) error {
	f.interests[fd] = interest
	return nil
}

func (f *fakeNet) Modify(fd int, interest Interest) error {
	f.modifyCalls++
	f.interests[fd] = interest
	return nil
}

func (f *fakeNet) Remove(fd int) error {
	delete(f.interests, fd)
	return nil
}

func (f *fakeNet) Wait(events []Event, _ time.Duration) (int, error) {
	fds := make([]int, 0, len(f.interests))
	for fd := range f.interests {
		fds = append(fds, fd)
	}
	sort.Ints(fds)

	n := 0
	for _, fd := range fds {
		if n == len(events) {
			break
		}
		interest := f.interests[fd]
		ev := Event{Fd: fd}

		if l, ok := f.listeners[fd]; ok {
			if interest&Readable != 0 && (len(l.pending) > 0 || len(l.acceptErr) > 0) {
				ev.Ready |= Readable
			}
		} else if c, ok := f.conns[fd]; ok {
			if interest&Readable != 0 && (len(c.inbound) > 0 || c.eof || c.readErr != nil) {
				ev.Ready |= Readable
			}
			if interest&Writable != 0 {
				ev.Ready |= Writable
			}
			ev.Hangup = c.hangup
		}

		if ev.Ready != 0 || ev.Hangup {
			events[n] = ev
			n++
		}
	}
	f.lastWait = n
	return n, nil
}

func (f *fakeNet) Close() error { return nil }

// Socket

func (f *fakeNet) Read(fd int, p []byte) (int, error) {
	c := f.conns[fd]
	if len(c.inbound) == 0 {
		switch {
		case c.readErr != nil:
			return 0, c.readErr
		case c.eof:
			return 0, nil
		default:
			return 0, ErrWouldBlock
		}
	}

	n := copy(p, c.inbound[0])
	if n < len(c.inbound[0]) {
		c.inbound[0] = c.inbound[0][n:]
	} else {
		c.inbound = c.inbound[1:]
	}
	return n, nil
}

func (f *fakeNet) Write(fd int, p []byte) (int, error) {
	c := f.conns[fd]
	if c.writeErr != nil {
		return 0, c.writeErr
	}

	n := len(p)
	if len(c.writeLimits) > 0 {
		limit := c.writeLimits[0]
		c.writeLimits = c.writeLimits[1:]
		if limit == 0 {
			return 0, ErrWouldBlock
		}
		n = min(n, limit)
	}
	c.written = append(c.written, p[:n]...)
	return n, nil
}

func (f *fakeNet) Accept(fd int) (int, string, error) {
	l := f.listeners[fd]
	if len(l.acceptErr) > 0 {
		err := l.acceptErr[0]
		l.acceptErr = l.acceptErr[1:]
		return -1, "", err
	}
	if len(l.pending) == 0 {
		return -1, "", ErrWouldBlock
	}
	remote := l.pending[0]
	l.pending = l.pending[1:]
	nfd, _ := f.newConn()
	return nfd, remote, nil
}

// fakeSocket exposes fakeNet as a Socket; Close releases a handle, not the poller
type fakeSocket struct {
	*fakeNet
}

func (s fakeSocket) Close(fd int) error {
	s.closed[fd] = true
	return nil
}

func newTestReactor(f *fakeNet, h RequestHandler, config Config) *Reactor {
	return NewReactor(f, fakeSocket{f}, h, config)
}

// runUntilIdle runs the reactor until a wait reports no ready handle
func runUntilIdle(r *Reactor, f *fakeNet, maxRounds int) int {
	rounds := 0
	for ; rounds < maxRounds; rounds++ {
		if err := r.RunOnce(0); err != nil {
			panic(err)
		}
		if f.lastWait == 0 {
			break
		}
	}
	return rounds
}

// --------------------------------------------------------------------------
// Handlers
// --------------------------------------------------------------------------

type recordingHandler struct {
	requests [][]byte
	respond  func(req []byte) []byte
}

func (h *recordingHandler) Handle(req []byte) []byte {
	h.requests = append(h.requests, append([]byte(nil), req...))
	if h.respond != nil {
		return h.respond(req)
	}
	return req
}

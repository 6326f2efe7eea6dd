package reactor

import (
	"time"
)

// Event is one readiness notification returned by a Poller
type Event struct {
	// Fd is the handle the event belongs to
	Fd int
	// Ready holds the reported readiness
	Ready Interest
	// Hangup is set when the poller reported an error or hang-up condition
	Hangup bool
}

// Poller is the readiness primitive the reactor multiplexes handles over.
// Implementations are not safe for concurrent use.
type Poller interface {
	// Add starts watching fd for the given interest (or updates it if already watched)
	Add(fd int, interest Interest) error
	// Modify replaces the interest of a watched fd
	Modify(fd int, interest Interest) error
	// Remove stops watching fd. Removing an unknown fd is not an error.
	Remove(fd int) error
	// Wait blocks until at least one handle is ready or timeout elapses
	// (a negative timeout blocks forever) and fills events. It returns the
	// number of events written; an interrupted wait returns 0 and no error.
	Wait(events []Event, timeout time.Duration) (int, error)
	// Close releases the poller
	Close() error
}

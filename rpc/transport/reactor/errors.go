package reactor

import (
	"errors"
	"fmt"
)

var (
	// ErrBufferFull is returned when received bytes do not fit into a connection's read buffer
	ErrBufferFull = errors.New("reactor: read buffer full")
	// ErrWriteBacklogFull is returned when queued responses would exceed the per-connection limit
	ErrWriteBacklogFull = errors.New("reactor: write backlog exceeds limit")
	// ErrInvalidFrame marks a connection whose peer announced a frame larger than the maximum
	ErrInvalidFrame = errors.New("reactor: declared frame length exceeds maximum")
	// ErrPeerClosed marks a connection whose peer shut down its side
	ErrPeerClosed = errors.New("reactor: connection closed by peer")
	// ErrWouldBlock is returned by a Socket when the operation cannot complete without blocking
	ErrWouldBlock = errors.New("reactor: operation would block")
	// ErrNotSupported is returned on platforms without a readiness primitive implementation
	ErrNotSupported = errors.New("reactor: platform not supported")
	// ErrReactorClosed marks connections released by Reactor.Close
	ErrReactorClosed = errors.New("reactor: closed")
	// ErrNotStarted is returned by Serve before Start succeeded
	ErrNotStarted = errors.New("reactor: server not started")
	// ErrAlreadyRegistered is returned when a handle is added twice
	ErrAlreadyRegistered = errors.New("reactor: handle already registered")
)

// BindError is returned by Server.Start if no candidate local address could be bound
type BindError struct {
	Address string
	Port    int
	Err     error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("reactor: failed to bind %s:%d: %v", e.Address, e.Port, e.Err)
}

func (e *BindError) Unwrap() error {
	return e.Err
}

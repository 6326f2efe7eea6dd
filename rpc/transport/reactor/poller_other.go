//go:build !linux

package reactor

// NewPoller returns ErrNotSupported: only the Linux epoll backend is implemented
func NewPoller() (Poller, error) {
	return nil, ErrNotSupported
}

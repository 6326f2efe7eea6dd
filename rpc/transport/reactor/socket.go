package reactor

// Socket performs non-blocking operations on raw socket handles. Operations
// that cannot make progress return ErrWouldBlock.
type Socket interface {
	// Read reads into p. Zero bytes with a nil error means the peer shut down.
	Read(fd int, p []byte) (int, error)
	// Write writes from p and returns how many bytes the kernel accepted
	Write(fd int, p []byte) (int, error)
	// Accept takes one pending connection off a listening handle. The new
	// handle is already non-blocking.
	Accept(fd int) (nfd int, remote string, err error)
	// Close releases a handle
	Close(fd int) error
}

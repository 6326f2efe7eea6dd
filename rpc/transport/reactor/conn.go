package reactor

// Conn is the registry entry of one accepted socket. It is owned by the
// reactor; other components refer to it by ID only.
type Conn struct {
	ConnBuffer

	// ID is the socket handle, also used as the registry key
	ID int
	// Remote is the peer address as reported by accept
	Remote string
}

func newConn(id int, remote string, maxWriteBacklog int) *Conn {
	c := &Conn{ID: id, Remote: remote}
	c.init(maxWriteBacklog)
	return c
}

//go:build linux

package reactor

import (
	"errors"
	"fmt"
	"golang.org/x/sys/unix"
	"net"
	"strconv"
)

// sysSocket implements Socket on top of raw Linux syscalls
type sysSocket struct{}

// NewSocket returns the platform Socket implementation
func NewSocket() Socket {
	return sysSocket{}
}

func (sysSocket) Read(fd int, p []byte) (int, error) {
	for {
		n, err := unix.Read(fd, p)
		switch {
		case err == nil:
			return n, nil
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.EAGAIN):
			return 0, ErrWouldBlock
		default:
			return 0, err
		}
	}
}

func (sysSocket) Write(fd int, p []byte) (int, error) {
	for {
		n, err := unix.Write(fd, p)
		switch {
		case err == nil:
			return n, nil
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.EAGAIN):
			return 0, ErrWouldBlock
		default:
			return 0, err
		}
	}
}

func (sysSocket) Accept(fd int) (int, string, error) {
	for {
		nfd, sa, err := unix.Accept4(fd, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
		switch {
		case err == nil:
			return nfd, sockaddrString(sa), nil
		case errors.Is(err, unix.EINTR), errors.Is(err, unix.ECONNABORTED):
			continue
		case errors.Is(err, unix.EAGAIN):
			return -1, "", ErrWouldBlock
		default:
			return -1, "", err
		}
	}
}

func (sysSocket) Close(fd int) error {
	return unix.Close(fd)
}

// --------------------------------------------------------------------------
// Listening socket setup
// --------------------------------------------------------------------------

// bindSocket creates a non-blocking, address-reusing TCP socket bound to ip:port
func bindSocket(ip net.IP, port int) (int, error) {
	var (
		family int
		sa     unix.Sockaddr
	)
	if ip4 := ip.To4(); ip4 != nil {
		addr := &unix.SockaddrInet4{Port: port}
		copy(addr.Addr[:], ip4)
		family, sa = unix.AF_INET, addr
	} else if ip16 := ip.To16(); ip16 != nil {
		addr := &unix.SockaddrInet6{Port: port}
		copy(addr.Addr[:], ip16)
		family, sa = unix.AF_INET6, addr
	} else {
		return -1, fmt.Errorf("invalid ip address %q", ip)
	}

	fd, err := unix.Socket(family, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, unix.IPPROTO_TCP)
	if err != nil {
		return -1, fmt.Errorf("socket: %w", err)
	}

	// reuse the address so a restart does not fail with "address already in use"
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		_ = unix.Close(fd)
		return -1, fmt.Errorf("setsockopt SO_REUSEADDR: %w", err)
	}

	if err := unix.Bind(fd, sa); err != nil {
		_ = unix.Close(fd)
		return -1, fmt.Errorf("bind: %w", err)
	}
	return fd, nil
}

// listenSocket puts a bound socket into listening mode
func listenSocket(fd int, backlog int) error {
	if err := unix.Listen(fd, backlog); err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return nil
}

// localAddr returns the address a socket is bound to
func localAddr(fd int) (string, error) {
	sa, err := unix.Getsockname(fd)
	if err != nil {
		return "", fmt.Errorf("getsockname: %w", err)
	}
	return sockaddrString(sa), nil
}

func sockaddrString(sa unix.Sockaddr) string {
	switch addr := sa.(type) {
	case *unix.SockaddrInet4:
		return net.JoinHostPort(net.IP(addr.Addr[:]).String(), strconv.Itoa(addr.Port))
	case *unix.SockaddrInet6:
		return net.JoinHostPort(net.IP(addr.Addr[:]).String(), strconv.Itoa(addr.Port))
	default:
		return "unknown"
	}
}

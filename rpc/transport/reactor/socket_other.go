//go:build !linux

package reactor

import (
	"net"
)

type unsupportedSocket struct{}

// NewSocket returns a Socket whose operations all fail with ErrNotSupported
func NewSocket() Socket {
	return unsupportedSocket{}
}

func (unsupportedSocket) Read(int, []byte) (int, error)   { return 0, ErrNotSupported }
func (unsupportedSocket) Write(int, []byte) (int, error)  { return 0, ErrNotSupported }
func (unsupportedSocket) Accept(int) (int, string, error) { return -1, "", ErrNotSupported }
func (unsupportedSocket) Close(int) error                 { return ErrNotSupported }

func bindSocket(net.IP, int) (int, error) { return -1, ErrNotSupported }
func listenSocket(int, int) error         { return ErrNotSupported }
func localAddr(int) (string, error)       { return "", ErrNotSupported }

//go:build linux || darwin

package transport

import (
	"errors"

	"golang.org/x/sys/unix"
)

// available reports the bytes pending on the socket, as answered by the
// platform's queued.
func (t *UDPTransport) available() (int, error) {
	rc, err := t.conn.SyscallConn()
	if err != nil {
		return 0, err
	}

	var n int
	var opErr error
	err = rc.Control(func(fd uintptr) {
		n, opErr = queued(int(fd))
	})
	if err != nil {
		return 0, err
	}
	return n, opErr
}

// peek reports 1 when a datagram, possibly empty, is waiting on fd.
func peek(fd int) (int, error) {
	var b [1]byte
	_, _, err := unix.Recvfrom(fd, b[:], unix.MSG_PEEK|unix.MSG_DONTWAIT)
	switch {
	case err == nil:
		return 1, nil
	case errors.Is(err, unix.EAGAIN), errors.Is(err, unix.EWOULDBLOCK):
		return 0, nil
	default:
		return 0, err
	}
}

package transport

import (
	"errors"
	"net"
	"syscall"
)

// IsClosed reports whether err was caused by using a closed socket.
func IsClosed(err error) bool {
	return errors.Is(err, net.ErrClosed)
}

// IsTransient reports whether err is a timeout or connection-reset style
// fault that a receive loop should absorb and retry past.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED)
}

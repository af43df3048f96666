//go:build !linux && !darwin

package transport

import (
	"errors"
	"net"
	"time"
)

// readAheadWindow is how long available waits for a datagram before
// reporting an empty socket.
const readAheadWindow = time.Millisecond

// available reads one datagram ahead with a short deadline and keeps it for
// the next ReceiveFrom.
func (t *UDPTransport) available() (int, error) {
	t.pendingMu.Lock()
	defer t.pendingMu.Unlock()

	if t.pending != nil {
		return max(len(t.pending.data), 1), nil
	}

	if err := t.conn.SetReadDeadline(time.Now().Add(readAheadWindow)); err != nil {
		return 0, err
	}
	defer func() { _ = t.conn.SetReadDeadline(time.Time{}) }()

	buf := make([]byte, t.bufferSize)
	n, from, err := t.conn.ReadFromUDPAddrPort(buf)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return 0, nil
		}
		return 0, err
	}

	t.pending = &datagram{data: buf[:n], from: unmap(from)}
	return max(n, 1), nil
}

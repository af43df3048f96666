package transport

import (
	"fmt"
	"net"
	"net/netip"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// DefaultBufferSize is large enough for any UDP payload.
const DefaultBufferSize = 65535

// UDPTransport is a bound UDP socket. It satisfies the Datagram interface.
type UDPTransport struct {
	conn       *net.UDPConn
	localAddr  netip.AddrPort
	bufferSize int

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error

	// pending holds a datagram read ahead by Available on platforms without
	// a readiness ioctl.
	pendingMu sync.Mutex
	pending   *datagram
}

type datagram struct {
	data []byte
	from netip.AddrPort
}

// Listen binds a UDP socket. An empty bindAddress listens on all
// interfaces; port 0 asks the OS for an ephemeral port. bufferSize bounds
// the largest datagram ReceiveFrom can return; zero selects
// DefaultBufferSize.
func Listen(bindAddress string, port, bufferSize int) (*UDPTransport, error) {
	if port < 0 || port > 65535 {
		return nil, fmt.Errorf("transport: invalid port %d", port)
	}
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}

	addr, err := net.ResolveUDPAddr("udp", net.JoinHostPort(bindAddress, strconv.Itoa(port)))
	if err != nil {
		return nil, fmt.Errorf("transport: resolve bind address: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"function": "Listen",
		"package":  "transport",
		"address":  addr.String(),
	}).Debug("Creating UDP socket")

	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("transport: bind %s: %w", addr, err)
	}

	local := conn.LocalAddr().(*net.UDPAddr).AddrPort()
	t := &UDPTransport{
		conn:       conn,
		localAddr:  unmap(local),
		bufferSize: bufferSize,
	}

	logrus.WithFields(logrus.Fields{
		"function":   "Listen",
		"package":    "transport",
		"local_addr": t.localAddr.String(),
	}).Info("UDP socket bound")

	return t, nil
}

// LocalAddr returns the endpoint the socket is bound to, with the port the
// OS actually assigned.
func (t *UDPTransport) LocalAddr() netip.AddrPort {
	return t.localAddr
}

// Enabled reports whether the socket is still open.
func (t *UDPTransport) Enabled() bool {
	return !t.closed.Load()
}

// SendTo writes data as one datagram to the given endpoint.
func (t *UDPTransport) SendTo(data []byte, to netip.AddrPort) (int, error) {
	if t.closed.Load() {
		return 0, fmt.Errorf("transport: send: %w", net.ErrClosed)
	}
	if !to.IsValid() {
		return 0, fmt.Errorf("transport: send: invalid destination %v", to)
	}

	n, err := t.conn.WriteToUDPAddrPort(data, to)
	if err != nil {
		return n, fmt.Errorf("transport: send to %s: %w", to, err)
	}
	return n, nil
}

// ReceiveFrom blocks until a datagram arrives and returns its payload and
// source endpoint. Closing the transport unblocks it with an error.
func (t *UDPTransport) ReceiveFrom() ([]byte, netip.AddrPort, error) {
	if d := t.takePending(); d != nil {
		return d.data, d.from, nil
	}
	if t.closed.Load() {
		return nil, netip.AddrPort{}, fmt.Errorf("transport: receive: %w", net.ErrClosed)
	}

	buf := make([]byte, t.bufferSize)
	n, from, err := t.conn.ReadFromUDPAddrPort(buf)
	if err != nil {
		return nil, netip.AddrPort{}, fmt.Errorf("transport: receive: %w", err)
	}
	return buf[:n], unmap(from), nil
}

// Available reports the number of bytes waiting to be read. It never
// blocks.
func (t *UDPTransport) Available() (int, error) {
	if t.closed.Load() {
		return 0, fmt.Errorf("transport: available: %w", net.ErrClosed)
	}
	n, err := t.available()
	if err != nil {
		return 0, fmt.Errorf("transport: available: %w", err)
	}
	return n, nil
}

// Close releases the socket. Subsequent calls return the result of the
// first.
func (t *UDPTransport) Close() error {
	t.closeOnce.Do(func() {
		t.closed.Store(true)
		t.closeErr = t.conn.Close()

		logrus.WithFields(logrus.Fields{
			"function":   "Close",
			"package":    "transport",
			"local_addr": t.localAddr.String(),
		}).Debug("UDP socket closed")
	})
	return t.closeErr
}

func (t *UDPTransport) takePending() *datagram {
	t.pendingMu.Lock()
	defer t.pendingMu.Unlock()

	d := t.pending
	t.pending = nil
	return d
}

func unmap(ap netip.AddrPort) netip.AddrPort {
	return netip.AddrPortFrom(ap.Addr().Unmap(), ap.Port())
}

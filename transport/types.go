package transport

import "net/netip"

// Datagram is the socket surface the communicator drives. UDPTransport is
// the production implementation; tests substitute fakes to inject faults.
//
// Send may be called from any number of goroutines. Receive and Available
// assume a single reader: concurrent blocking receives on one socket are
// not supported.
type Datagram interface {
	// LocalAddr returns the endpoint the socket is bound to.
	LocalAddr() netip.AddrPort

	// SendTo writes one datagram and returns the number of bytes written.
	SendTo(data []byte, to netip.AddrPort) (int, error)

	// ReceiveFrom blocks until one datagram arrives or the socket is closed.
	ReceiveFrom() ([]byte, netip.AddrPort, error)

	// Available reports how many bytes are waiting to be read without
	// blocking. It is non-zero whenever a datagram, even an empty one, is
	// queued.
	Available() (int, error)

	// Enabled reports whether the socket is open.
	Enabled() bool

	// Close releases the socket. It is safe to call more than once.
	Close() error
}

package communicator

import (
	"errors"
	"net"
	"net/netip"
	"sync"
	"syscall"
)

var errConnReset error = syscall.ECONNRESET

// fakeTransport records sends and lets tests inject faults.
type fakeTransport struct {
	mu        sync.Mutex
	local     netip.AddrPort
	sent      [][]byte
	sendErr   error
	shortSend bool
	availErrs []error
	closed    bool
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{local: netip.MustParseAddrPort("127.0.0.1:40000")}
}

func (f *fakeTransport) LocalAddr() netip.AddrPort { return f.local }

func (f *fakeTransport) SendTo(data []byte, to netip.AddrPort) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return 0, net.ErrClosed
	}
	if f.sendErr != nil {
		return 0, f.sendErr
	}
	f.sent = append(f.sent, append([]byte(nil), data...))
	if f.shortSend {
		return len(data) - 1, nil
	}
	return len(data), nil
}

func (f *fakeTransport) ReceiveFrom() ([]byte, netip.AddrPort, error) {
	return nil, netip.AddrPort{}, errors.New("fake transport does not receive")
}

func (f *fakeTransport) Available() (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return 0, net.ErrClosed
	}
	if len(f.availErrs) > 0 {
		err := f.availErrs[0]
		f.availErrs = f.availErrs[1:]
		return 0, err
	}
	return 0, nil
}

func (f *fakeTransport) Enabled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.closed
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeTransport) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

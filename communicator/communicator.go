// Package communicator ties the UDP transport, the codec and the inbound
// queue together into the datagram messaging endpoint used by the server.
//
// A Communicator is bound when New returns and stays bound until Close.
// One goroutine runs Listen (or calls Receive for request/response waits);
// any number of goroutines may Send, Resend, Enqueue and Dequeue.
//
// Example:
//
//	comm, err := communicator.New(communicator.NewOptions())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer comm.Close()
//
//	go comm.Listen()
//
//	msg, err := comm.WaitMessage(ctx)
package communicator

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/opd-ai/ffpp/codec"
	"github.com/opd-ai/ffpp/logging"
	"github.com/opd-ai/ffpp/message"
	"github.com/opd-ai/ffpp/queue"
	"github.com/opd-ai/ffpp/transport"
)

var (
	// ErrTimeout is returned by Receive when no datagram arrived in time.
	ErrTimeout = errors.New("communicator: no message before timeout")
	// ErrClosed is returned by operations on a closed communicator.
	ErrClosed = errors.New("communicator: closed")
	// ErrResendExhausted is returned by Exchange once the resend ceiling
	// has been reached.
	ErrResendExhausted = errors.New("communicator: resend attempts exhausted")
)

// Communicator exchanges messages over one UDP socket.
type Communicator struct {
	id        uuid.UUID
	options   Options
	transport transport.Datagram
	codec     *codec.Codec
	queue     *queue.Queue
	log       *logging.Logger

	// resendAttempts counts every Resend that was allowed to transmit. It
	// belongs to the communicator, not to a message, and is never reset.
	resendAttempts atomic.Int64

	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// New binds a UDP socket according to opts and returns a ready
// communicator. A nil opts uses NewOptions.
func New(opts *Options) (*Communicator, error) {
	if opts == nil {
		opts = NewOptions()
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	t, err := transport.Listen(opts.BindAddress, opts.LocalPort, opts.ReceiveBufferSize)
	if err != nil {
		return nil, fmt.Errorf("communicator: %w", err)
	}

	c, err := NewWithTransport(t, opts)
	if err != nil {
		_ = t.Close()
		return nil, err
	}
	return c, nil
}

// NewWithTransport builds a communicator around an already bound transport.
// The communicator takes ownership of t and closes it on Close.
func NewWithTransport(t transport.Datagram, opts *Options) (*Communicator, error) {
	if t == nil {
		return nil, errors.New("communicator: nil transport")
	}
	if opts == nil {
		opts = NewOptions()
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	var codecOpts []codec.Option
	if opts.Encryption {
		codecOpts = append(codecOpts, codec.WithEncryption())
	}
	cd, err := codec.New(codecOpts...)
	if err != nil {
		return nil, fmt.Errorf("communicator: %w", err)
	}

	id := uuid.New()
	c := &Communicator{
		id:        id,
		options:   *opts,
		transport: t,
		codec:     cd,
		queue:     queue.New(),
		log:       logging.New("communicator", "New").WithField("communicator_id", id.String()),
		done:      make(chan struct{}),
	}

	c.log.WithField("local_addr", t.LocalAddr().String()).
		WithField("encryption", opts.Encryption).
		Info("Communicator bound")

	return c, nil
}

// ID returns the identifier carried in this communicator's log lines.
func (c *Communicator) ID() uuid.UUID {
	return c.id
}

// LocalAddr returns the bound local endpoint.
func (c *Communicator) LocalAddr() message.Endpoint {
	return c.transport.LocalAddr()
}

// LocalPort returns the bound local port.
func (c *Communicator) LocalPort() int {
	return int(c.transport.LocalAddr().Port())
}

// Enabled reports whether the socket is open.
func (c *Communicator) Enabled() bool {
	return c.transport.Enabled()
}

// Codec returns the codec used on the wire.
func (c *Communicator) Codec() *codec.Codec {
	return c.codec
}

// Close releases the socket and wakes every goroutine waiting in Listen,
// Receive or WaitMessage. It is safe to call more than once.
func (c *Communicator) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		c.closeErr = c.transport.Close()
		c.log.Func("Close").Info("Communicator closed")
	})
	return c.closeErr
}

// pause sleeps for d and reports false if the communicator was closed in
// the meantime.
func (c *Communicator) pause(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-c.done:
		return false
	case <-timer.C:
		return true
	}
}

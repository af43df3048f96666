package communicator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/opd-ai/ffpp/codec"
	"github.com/opd-ai/ffpp/logging"
	"github.com/opd-ai/ffpp/message"
	"github.com/opd-ai/ffpp/transport"
)

// Enqueue pushes msg onto the inbound queue and wakes waiting consumers.
// A nil msg is ignored.
func (c *Communicator) Enqueue(msg *message.Message) {
	c.queue.Enqueue(msg)
}

// Dequeue pops the oldest inbound message without blocking.
func (c *Communicator) Dequeue() (*message.Message, bool) {
	msg, ok := c.queue.Dequeue()
	if ok {
		c.log.Func("Dequeue").WithField("message", msg.String()).Debug("Dequeued message")
	}
	return msg, ok
}

// Count returns the number of messages waiting in the inbound queue.
func (c *Communicator) Count() int {
	return c.queue.Count()
}

// ReceiveOne blocks for exactly one datagram and decodes it. The returned
// message carries the observed source address as its Peer. When the bytes
// cannot be decoded the error wraps codec.ErrDecode: something arrived, but
// it was not a message.
func (c *Communicator) ReceiveOne() (*message.Message, error) {
	log := c.log.Func("ReceiveOne")

	data, from, err := c.transport.ReceiveFrom()
	if err != nil {
		return nil, err
	}
	log = log.WithField("from", from.String())
	log.WithFields(logging.BytesPreview(data, "bytes")).Debug("Bytes received")

	msg, err := c.codec.DecodeAny(data)
	if err != nil {
		log.WithError(err, "decode").Warn("Data received, but could not be decoded")
		return nil, err
	}
	msg.Peer = from

	log.WithField("type", msg.Type.String()).
		WithField("body_len", len(msg.Body)).
		Info("Received message")
	return msg, nil
}

// Listen runs the receive loop until the communicator is closed or an
// unexpected transport fault occurs. Decoded messages are pushed onto the
// inbound queue. Timeouts, connection resets and undecodable datagrams are
// logged and absorbed. Listen returns nil after Close and the fault
// otherwise.
func (c *Communicator) Listen() error {
	log := c.log.Func("Listen")
	log.Debug("Entering listen loop")
	defer log.Debug("Leaving listen loop")

	for c.Enabled() {
		n, err := c.transport.Available()
		if err != nil {
			if stop, fatal := c.classify(err, log); stop {
				return fatal
			}
			if !c.pause(c.options.PollInterval) {
				return nil
			}
			continue
		}

		if n == 0 {
			if !c.pause(c.options.PollInterval) {
				return nil
			}
			continue
		}

		msg, err := c.ReceiveOne()
		if err != nil {
			if errors.Is(err, codec.ErrDecode) {
				continue
			}
			if stop, fatal := c.classify(err, log); stop {
				return fatal
			}
			continue
		}
		c.Enqueue(msg)
	}
	return nil
}

// classify decides what a receive loop does with a transport error. stop is
// true when the loop must end; fatal is the error to report, nil when the
// socket was closed.
func (c *Communicator) classify(err error, log *logging.Logger) (stop bool, fatal error) {
	switch {
	case transport.IsClosed(err):
		log.Debug("Socket closed")
		return true, nil
	case transport.IsTransient(err):
		log.WithError(err, "receive").Debug("Transient socket error")
		return false, nil
	default:
		log.WithError(err, "receive").Error("Unexpected error while receiving datagram")
		return true, err
	}
}

// Receive waits up to timeout for one datagram and decodes it. It returns
// ErrTimeout when nothing arrived, an error wrapping codec.ErrDecode when
// garbage arrived, and ErrClosed when the communicator was closed. Receive
// reads the socket directly and must not run alongside Listen.
func (c *Communicator) Receive(timeout time.Duration) (*message.Message, error) {
	log := c.log.Func("Receive").WithField("timeout", timeout.String())
	log.Debug("Entering receive")

	deadline := time.Now().Add(timeout)
	for {
		if !c.Enabled() {
			return nil, ErrClosed
		}

		n, err := c.transport.Available()
		if err != nil {
			stop, fatal := c.classify(err, log)
			switch {
			case stop && fatal == nil:
				return nil, ErrClosed
			case stop:
				return nil, fatal
			}
		} else if n > 0 {
			msg, err := c.ReceiveOne()
			if err != nil && transport.IsClosed(err) {
				return nil, ErrClosed
			}
			return msg, err
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			log.Debug("No message before timeout")
			return nil, ErrTimeout
		}
		if !c.pause(min(c.options.PollInterval, remaining)) {
			return nil, ErrClosed
		}
	}
}

// WaitMessage returns the next queued message, blocking until Listen
// delivers one, ctx ends or the communicator is closed.
func (c *Communicator) WaitMessage(ctx context.Context) (*message.Message, error) {
	for {
		if msg, ok := c.Dequeue(); ok {
			return msg, nil
		}

		select {
		case <-c.queue.Ready():
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-c.done:
			if msg, ok := c.Dequeue(); ok {
				return msg, nil
			}
			return nil, fmt.Errorf("wait message: %w", ErrClosed)
		}
	}
}

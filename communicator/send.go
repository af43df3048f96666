package communicator

import (
	"context"
	"errors"
	"time"

	"github.com/avast/retry-go"

	"github.com/opd-ai/ffpp/logging"
	"github.com/opd-ai/ffpp/message"
)

var errSendFailed = errors.New("communicator: send failed")

// Send stamps msg with the destination endpoint, encodes it and writes it as
// one datagram. It reports true only when the whole encoded message was
// written. Failures are logged and reported as false, never returned as
// errors.
//
// Send modifies msg.Peer; callers sending one message to several peers
// concurrently should Clone it first.
func (c *Communicator) Send(msg *message.Message, to message.Endpoint) bool {
	if msg == nil {
		return false
	}
	msg.Peer = to
	return c.send(msg)
}

func (c *Communicator) send(msg *message.Message) bool {
	log := c.log.Func("Send").WithField("type", msg.Type.String())

	if !msg.HasPeer() {
		log.Debug("Message has no endpoint, not sending")
		return false
	}
	log = log.WithField("to", msg.Peer.String())

	data, err := c.codec.Encode(msg)
	if err != nil {
		log.WithError(err, "encode").Error("Unexpected error while encoding datagram")
		return false
	}
	log.WithFields(logging.BytesPreview(data, "bytes")).Debug("Bytes sent")

	n, err := c.transport.SendTo(data, msg.Peer)
	if err != nil {
		log.WithError(err, "send").Error("Unexpected error while sending datagram")
		return false
	}

	result := n == len(data)
	log.WithField("body_len", len(msg.Body)).
		WithField("result", result).
		Info("Sent message")
	return result
}

// Resend is Send under the communicator's resend ceiling. Each call that is
// allowed to transmit consumes one attempt from a budget shared by every
// message sent through this communicator. Once the budget is spent Resend
// logs the failure and returns false without transmitting.
func (c *Communicator) Resend(msg *message.Message, to message.Endpoint) bool {
	limit := int64(c.options.MaxResendAttempts)
	for {
		cur := c.resendAttempts.Load()
		if cur >= limit {
			fields := c.log.Func("Resend").WithField("attempts", cur)
			if msg != nil {
				fields = fields.WithField("message", msg.String())
			}
			fields.Warn("Message failed, resend attempts exhausted")
			return false
		}
		if c.resendAttempts.CompareAndSwap(cur, cur+1) {
			break
		}
	}
	return c.Send(msg, to)
}

// ResendAttempts returns how many resend attempts have been used.
func (c *Communicator) ResendAttempts() int {
	return int(c.resendAttempts.Load())
}

// Exchange sends msg to peer and waits up to timeout for one reply,
// resending while the shared resend budget allows. It returns
// ErrResendExhausted once no attempts are left, ErrTimeout if the last
// attempt went unanswered, or ctx's error. Exchange reads the socket
// directly and must not run alongside Listen.
func (c *Communicator) Exchange(ctx context.Context, msg *message.Message, to message.Endpoint, timeout time.Duration) (*message.Message, error) {
	log := c.log.Func("Exchange").WithField("to", to.String())

	var reply *message.Message
	err := retry.Do(
		func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if !c.Resend(msg, to) {
				if c.ResendAttempts() >= c.options.MaxResendAttempts {
					return ErrResendExhausted
				}
				return errSendFailed
			}
			m, err := c.Receive(timeout)
			if err != nil {
				return err
			}
			reply = m
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(max(c.options.MaxResendAttempts, 1))),
		retry.Delay(0),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return !errors.Is(err, ErrResendExhausted) &&
				!errors.Is(err, ErrClosed) &&
				!errors.Is(err, context.Canceled) &&
				!errors.Is(err, context.DeadlineExceeded)
		}),
		retry.OnRetry(func(n uint, err error) {
			log.WithError(err, "exchange").WithField("attempt", n+1).Debug("No reply, resending")
		}),
	)
	if err != nil {
		return nil, err
	}
	return reply, nil
}

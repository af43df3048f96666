package communicator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/ffpp/codec"
	"github.com/opd-ai/ffpp/message"
)

// TestExchangeGetsReply tests the request/response helper against a peer
// that acknowledges whatever it receives.
func TestExchangeGetsReply(t *testing.T) {
	a := newLoopback(t, nil)
	b := newLoopback(t, nil)

	go func() {
		req, err := b.Receive(2 * time.Second)
		if err != nil {
			return
		}
		b.Send(message.New(message.Ack, "got "+req.Body), req.Peer)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	reply, err := a.Exchange(ctx, message.New(message.Join, "player-1"), b.LocalAddr(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, message.Ack, reply.Type)
	assert.Equal(t, "got player-1", reply.Body)
	assert.Equal(t, b.LocalAddr(), reply.Peer)
	assert.Equal(t, 1, a.ResendAttempts())
}

// TestExchangeExhaustsSharedBudget tests that unanswered exchanges spend the
// communicator-wide resend budget.
func TestExchangeExhaustsSharedBudget(t *testing.T) {
	a := newLoopback(t, nil)
	silent := newLoopback(t, nil)

	ctx := context.Background()
	_, err := a.Exchange(ctx, message.New(message.Heartbeat, "anyone?"), silent.LocalAddr(), 20*time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, DefaultMaxResendAttempts, a.ResendAttempts())

	_, err = a.Exchange(ctx, message.New(message.Heartbeat, "still there?"), silent.LocalAddr(), 20*time.Millisecond)
	assert.ErrorIs(t, err, ErrResendExhausted)
	assert.Equal(t, DefaultMaxResendAttempts, a.ResendAttempts())
}

func TestExchangeCancelled(t *testing.T) {
	a := newLoopback(t, nil)
	silent := newLoopback(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.Exchange(ctx, message.New(message.Chat, "x"), silent.LocalAddr(), 20*time.Millisecond)
	assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
	assert.Zero(t, a.ResendAttempts())
}

// TestEncryptedSelfRoundTrip tests that an encrypting communicator can read
// what it sealed itself, and that JOIN still reaches a plain peer.
func TestEncryptedSelfRoundTrip(t *testing.T) {
	opts := loopbackOptions()
	opts.Encryption = true
	enc := newLoopback(t, opts)
	require.True(t, enc.Codec().Encrypted())

	require.True(t, enc.Send(message.New(message.Chat, "note to self"), enc.LocalAddr()))
	msg, err := enc.Receive(time.Second)
	require.NoError(t, err)
	assert.Equal(t, message.Chat, msg.Type)
	assert.Equal(t, "note to self", msg.Body)

	plain := newLoopback(t, nil)
	require.True(t, enc.Send(message.New(message.Join, "hi"), plain.LocalAddr()))
	msg, err = plain.Receive(time.Second)
	require.NoError(t, err)
	assert.Equal(t, message.Join, msg.Type)
}

// TestEncryptedPeersCannotTalk documents the missing key exchange: a second
// encrypting communicator cannot open the first one's CHAT.
func TestEncryptedPeersCannotTalk(t *testing.T) {
	opts := loopbackOptions()
	opts.Encryption = true
	a := newLoopback(t, opts)
	b := newLoopback(t, opts)

	require.True(t, a.Send(message.New(message.Chat, "sealed"), b.LocalAddr()))
	_, err := b.Receive(time.Second)
	assert.ErrorIs(t, err, codec.ErrDecode)
}

// Package queue implements the inbound message queue that decouples the
// receive loop from the code consuming messages.
//
// The queue is an unbounded FIFO. Nothing prunes it: if no consumer drains
// it, it grows for as long as datagrams keep arriving. Operators running a
// listener without a consumer should watch Count.
package queue

import (
	"context"
	"sync"

	"github.com/opd-ai/ffpp/logging"
	"github.com/opd-ai/ffpp/message"
)

// Queue is a FIFO of decoded messages, safe for any number of producers and
// consumers.
//
// Ready delivers a single-slot wake signal: every Enqueue makes the signal
// pending, but several Enqueue calls before a consumer wakes leave only one
// pending signal. A woken consumer must drain with Dequeue until it reports
// empty.
type Queue struct {
	mu    sync.Mutex
	items []*message.Message
	ready chan struct{}
}

// New creates an empty queue.
func New() *Queue {
	return &Queue{
		ready: make(chan struct{}, 1),
	}
}

// Enqueue appends msg and signals waiting consumers. A nil msg is ignored.
func (q *Queue) Enqueue(msg *message.Message) {
	if msg == nil {
		return
	}

	q.mu.Lock()
	q.items = append(q.items, msg)
	n := len(q.items)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}

	logging.New("queue", "Enqueue").
		WithField("type", msg.Type.String()).
		WithField("count", n).
		Debug("Enqueued message")
}

// Dequeue removes and returns the oldest message. It never blocks; ok is
// false when the queue is empty.
func (q *Queue) Dequeue() (msg *message.Message, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return nil, false
	}
	msg = q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	if len(q.items) == 0 {
		// Drop the backing array once drained so a burst does not pin memory.
		q.items = nil
	}
	return msg, true
}

// Count returns the number of queued messages.
func (q *Queue) Count() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Ready returns the wake signal channel.
func (q *Queue) Ready() <-chan struct{} {
	return q.ready
}

// Wait blocks until the wake signal fires or ctx is done.
func (q *Queue) Wait(ctx context.Context) error {
	select {
	case <-q.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Drain removes and returns every queued message in FIFO order.
func (q *Queue) Drain() []*message.Message {
	q.mu.Lock()
	defer q.mu.Unlock()

	items := q.items
	q.items = nil
	return items
}

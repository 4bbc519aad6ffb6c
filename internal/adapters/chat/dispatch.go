package chat

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/velstra/garrison/pkg/metrics"
)

// MessagePredicate decides whether an inbound message qualifies for a
// suspended awaiter.
type MessagePredicate func(Message) bool

// ReactionPredicate decides whether an inbound reaction qualifies.
type ReactionPredicate func(Reaction) bool

type messageWaiter struct {
	id   uuid.UUID
	pred MessagePredicate
	ch   chan Message
}

type reactionWaiter struct {
	id   uuid.UUID
	pred ReactionPredicate
	ch   chan Reaction
}

// Dispatcher routes each inbound event to at most one currently
// suspended awaiter. Events that match no awaiter are dropped, never
// buffered; there is no queueing model between the transport and the
// sessions.
type Dispatcher struct {
	mu              sync.Mutex
	messageWaiters  []*messageWaiter
	reactionWaiters []*reactionWaiter
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// AwaitMessage suspends until a message satisfying pred arrives, the
// timeout elapses, or ctx is canceled. The timeout always resolves to
// ErrAwaitTimeout; cancellation returns ctx.Err().
func (d *Dispatcher) AwaitMessage(ctx context.Context, pred MessagePredicate, timeout time.Duration) (Message, error) {
	w := &messageWaiter{id: uuid.New(), pred: pred, ch: make(chan Message, 1)}
	d.mu.Lock()
	d.messageWaiters = append(d.messageWaiters, w)
	d.mu.Unlock()
	defer d.removeMessageWaiter(w.id)

	start := time.Now()
	defer func() {
		metrics.RecordStepWaitDuration(float64(time.Since(start).Milliseconds()))
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case msg := <-w.ch:
		return msg, nil
	case <-timer.C:
		// Deregister first, then drain: a dispatch that won the race
		// against the timer already reported the event consumed, so it
		// must be delivered rather than dropped.
		d.removeMessageWaiter(w.id)
		select {
		case msg := <-w.ch:
			return msg, nil
		default:
			return Message{}, ErrAwaitTimeout
		}
	case <-ctx.Done():
		return Message{}, ctx.Err()
	}
}

// AwaitReaction suspends until a reaction satisfying pred arrives,
// with the same timeout semantics as AwaitMessage.
func (d *Dispatcher) AwaitReaction(ctx context.Context, pred ReactionPredicate, timeout time.Duration) (Reaction, error) {
	w := &reactionWaiter{id: uuid.New(), pred: pred, ch: make(chan Reaction, 1)}
	d.mu.Lock()
	d.reactionWaiters = append(d.reactionWaiters, w)
	d.mu.Unlock()
	defer d.removeReactionWaiter(w.id)

	start := time.Now()
	defer func() {
		metrics.RecordStepWaitDuration(float64(time.Since(start).Milliseconds()))
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case r := <-w.ch:
		return r, nil
	case <-timer.C:
		d.removeReactionWaiter(w.id)
		select {
		case r := <-w.ch:
			return r, nil
		default:
			return Reaction{}, ErrAwaitTimeout
		}
	case <-ctx.Done():
		return Reaction{}, ctx.Err()
	}
}

// DispatchMessage offers a message to the suspended awaiters in
// registration order. It reports whether an awaiter consumed it.
func (d *Dispatcher) DispatchMessage(msg Message) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i, w := range d.messageWaiters {
		if !w.pred(msg) {
			continue
		}
		// The channel is buffered and each waiter receives at most one
		// event, so this send never blocks.
		w.ch <- msg
		d.messageWaiters = append(d.messageWaiters[:i], d.messageWaiters[i+1:]...)
		return true
	}
	return false
}

// DispatchReaction offers a reaction to the suspended awaiters in
// registration order. It reports whether an awaiter consumed it.
func (d *Dispatcher) DispatchReaction(r Reaction) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i, w := range d.reactionWaiters {
		if !w.pred(r) {
			continue
		}
		w.ch <- r
		d.reactionWaiters = append(d.reactionWaiters[:i], d.reactionWaiters[i+1:]...)
		return true
	}
	return false
}

// Waiting returns the number of suspended awaiters, for stats.
func (d *Dispatcher) Waiting() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.messageWaiters) + len(d.reactionWaiters)
}

func (d *Dispatcher) removeMessageWaiter(id uuid.UUID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, w := range d.messageWaiters {
		if w.id == id {
			d.messageWaiters = append(d.messageWaiters[:i], d.messageWaiters[i+1:]...)
			return
		}
	}
}

func (d *Dispatcher) removeReactionWaiter(id uuid.UUID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, w := range d.reactionWaiters {
		if w.id == id {
			d.reactionWaiters = append(d.reactionWaiters[:i], d.reactionWaiters[i+1:]...)
			return
		}
	}
}

// Package queue defines the contract for enqueuing and consuming
// outbound notifications.
//
// Notification delivery is best-effort by design: a full queue drops
// the notification rather than blocking the workflow that produced it.
package queue

import (
	"context"
	"sync"

	"github.com/velstra/garrison/internal/adapters/chat"
	"github.com/velstra/garrison/internal/domain/model"
	"github.com/velstra/garrison/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultQueueCapacity = 10000
)

// Notification is one outbound best-effort delivery. Exactly one of
// MemberID (direct message) or ChannelID (channel post) is set.
type Notification struct {
	MemberID  model.MemberID
	ChannelID chat.ChannelID
	Text      string
}

// Direct reports whether the notification targets a member DM.
func (n Notification) Direct() bool { return n.MemberID != "" }

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a notification to the queue.
	// Returns false if the queue is full and the notification was dropped.
	Enqueue(ctx context.Context, n Notification) bool

	// Dequeue returns a channel that will receive notifications as they
	// become available. The channel is closed when the queue closes.
	Dequeue(ctx context.Context) <-chan Notification

	// Len returns the current number of queued notifications.
	Len(ctx context.Context) int

	// Close gracefully shuts down the queue.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	notifications chan Notification
	capacity      int
	mu            sync.RWMutex
	closed        bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultQueueCapacity,
	}

	// Apply all options
	for _, opt := range opts {
		opt(q)
	}

	q.notifications = make(chan Notification, q.capacity)

	metrics.UpdateNotifyQueueCapacity(q.capacity)
	metrics.UpdateNotifyQueueSize(0)

	return q
}

// Enqueue adds a notification; a full or closed queue drops it.
func (q *InMemoryQueue) Enqueue(ctx context.Context, n Notification) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordNotifyDropped()
		return false
	}

	select {
	case q.notifications <- n:
		metrics.UpdateNotifyQueueSize(len(q.notifications))
		return true
	case <-ctx.Done():
		metrics.RecordNotifyDropped()
		return false
	default:
		metrics.RecordNotifyDropped()
		return false // queue is full
	}
}

// Dequeue returns a channel that will receive notifications as they
// become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Notification {
	out := make(chan Notification)
	go func() {
		defer close(out)
		for n := range q.notifications {
			select {
			case out <- n:
				metrics.UpdateNotifyQueueSize(len(q.notifications))
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the current number of queued notifications.
func (q *InMemoryQueue) Len(_ context.Context) int {
	size := len(q.notifications)
	metrics.UpdateNotifyQueueSize(size)
	return size
}

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil // already closed
	}

	close(q.notifications)
	q.closed = true

	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

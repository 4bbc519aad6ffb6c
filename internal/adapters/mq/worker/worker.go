// Package worker defines the delivery workers for outbound
// notifications.
//
// Deliveries are best-effort per the error handling policy: a failed
// send is logged and counted, never retried, and never escalates to
// the operation that produced the notification.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/velstra/garrison/internal/adapters/chat"
	"github.com/velstra/garrison/internal/adapters/mq/queue"
	"github.com/velstra/garrison/internal/domain/model"
	"github.com/velstra/garrison/pkg/logger"
	"github.com/velstra/garrison/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerCount  = 4
	poolShutdownTimeout = 30 * time.Second
)

// Sender abstracts the slice of the chat gateway workers deliver through.
type Sender interface {
	Send(ctx context.Context, ch chat.ChannelID, text string) (chat.MessageID, error)
	OpenDM(ctx context.Context, id model.MemberID) (chat.ChannelID, error)
}

// Queue defines how workers receive notifications.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Notification
}

// Worker delivers notifications until stopped.
type Worker struct {
	queue  Queue
	sender Sender
	name   string

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	// Logging
	logger logger.Logger
}

// NewWorker creates a new delivery worker with configuration options.
func NewWorker(q Queue, sender Sender, opts ...Option) *Worker {
	w := &Worker{
		queue:    q,
		sender:   sender,
		name:     "notify-worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("notify-worker"),
	}

	// Apply all options
	for _, opt := range opts {
		opt(w)
	}

	if w.name != "notify-worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the delivery loop until ctx is canceled or the queue closes.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)

	notifications := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case n, ok := <-notifications:
			if !ok {
				return
			}
			w.deliver(ctx, n)
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *Worker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// deliver performs one best-effort send. Failures are swallowed.
func (w *Worker) deliver(ctx context.Context, n queue.Notification) {
	target := n.ChannelID
	if n.Direct() {
		dm, err := w.sender.OpenDM(ctx, n.MemberID)
		if err != nil {
			metrics.RecordNotifyError()
			w.logger.Warn(ctx, "dm channel unavailable",
				logger.String("member", string(n.MemberID)),
				logger.Error(err),
			)
			return
		}
		target = dm
	}

	if _, err := w.sender.Send(ctx, target, n.Text); err != nil {
		metrics.RecordNotifyError()
		w.logger.Warn(ctx, "notification delivery failed",
			logger.String("channel", string(target)),
			logger.Error(err),
		)
		return
	}
	metrics.RecordNotifySent()
}

// Pool manages multiple delivery workers.
type Pool struct {
	workers []*Worker

	// Logging
	logger logger.Logger
}

// NewPool creates a new worker pool.
func NewPool(workerCount int, q Queue, sender Sender) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkerCount
	}

	pool := &Pool{
		workers: make([]*Worker, workerCount),
		logger:  logger.Get().Named("notify-pool"),
	}

	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewWorker(q, sender, WithName("notify-"+strconv.Itoa(i)))
	}

	metrics.UpdateNotifyWorkerCount(workerCount)

	return pool
}

// Start launches every worker.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	p.logger.Info(ctx, "notification workers started", logger.Int("count", len(p.workers)))
}

// Stop shuts the workers down, waiting up to the pool timeout.
func (p *Pool) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), poolShutdownTimeout)
	defer cancel()

	for _, w := range p.workers {
		if err := w.Shutdown(ctx); err != nil {
			p.logger.Warn(ctx, "worker shutdown failed", logger.Error(err))
		}
	}
	metrics.UpdateNotifyWorkerCount(0)
}

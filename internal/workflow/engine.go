// Package workflow runs the conversational state machines: the
// event-logging wizard, the duel challenge and report flows, and the
// assessment flow.
//
// Each session is one goroutine bound to one initiating member and
// one response channel. A step posts a prompt and suspends on the
// dispatcher until a qualifying response arrives or the step's
// timeout elapses; a timeout terminates the whole session. Sessions
// share no mutable state with each other; the ledger is the only
// shared resource.
package workflow

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/velstra/garrison/internal/adapters/chat"
	"github.com/velstra/garrison/internal/adapters/mq/queue"
	"github.com/velstra/garrison/internal/adapters/repository"
	"github.com/velstra/garrison/internal/domain/access"
	"github.com/velstra/garrison/internal/domain/model"
	"github.com/velstra/garrison/pkg/logger"
	"github.com/velstra/garrison/pkg/metrics"
)

// Flow labels for session metrics.
const (
	flowEventWizard   = "event_wizard"
	flowDuelChallenge = "duel_challenge"
	flowDuelReport    = "duel_report"
	flowAssessment    = "assessment"
)

// Default per-step timeouts, overridable per engine.
const (
	defaultSelectTimeout    = 60 * time.Second
	defaultCollectTimeout   = 180 * time.Second
	defaultChallengeTimeout = 60 * time.Second
	defaultAnswerTimeout    = 300 * time.Second
	defaultConfirmTimeout   = 120 * time.Second
)

// Notifier is the outbound best-effort delivery port. A nil notifier
// silently drops notifications, which keeps the engine usable in
// tests that do not care about them.
type Notifier interface {
	Enqueue(ctx context.Context, n queue.Notification) bool
}

// ReviewRegistry learns which member a posted review artifact belongs
// to, so a later verdict can be resolved back to them.
type ReviewRegistry interface {
	Register(msg chat.MessageID, member model.MemberID)
}

// Engine runs workflow sessions. All fields are set at construction
// and never mutated, so a single Engine serves concurrent sessions.
type Engine struct {
	gateway  chat.Gateway
	dispatch *chat.Dispatcher
	ledger   repository.Ledger
	grants   access.Grants

	notifier Notifier
	registry ReviewRegistry

	types         []model.EventType
	questions     []string
	reviewChannel chat.ChannelID
	duelLink      string

	selectTimeout    time.Duration
	collectTimeout   time.Duration
	challengeTimeout time.Duration
	answerTimeout    time.Duration
	confirmTimeout   time.Duration

	active atomic.Int64

	// Logging
	logger logger.Logger
}

// NewEngine creates a workflow engine with configuration options.
func NewEngine(gw chat.Gateway, d *chat.Dispatcher, ledger repository.Ledger, grants access.Grants, opts ...Option) *Engine {
	e := &Engine{
		gateway:          gw,
		dispatch:         d,
		ledger:           ledger,
		grants:           grants,
		types:            model.DefaultEventTypes(),
		selectTimeout:    defaultSelectTimeout,
		collectTimeout:   defaultCollectTimeout,
		challengeTimeout: defaultChallengeTimeout,
		answerTimeout:    defaultAnswerTimeout,
		confirmTimeout:   defaultConfirmTimeout,
		logger:           logger.Get().Named("workflow"),
	}

	// Apply all options
	for _, opt := range opts {
		opt(e)
	}

	return e
}

// begin marks a session as started; the returned func ends it.
func (e *Engine) begin(flow string) func() {
	metrics.RecordSessionStarted(flow)
	metrics.UpdateActiveSessions(int(e.active.Add(1)))
	return func() {
		metrics.UpdateActiveSessions(int(e.active.Add(-1)))
	}
}

// say is a best-effort send. Prompt delivery failures are logged and
// swallowed; the awaiting step's timeout bounds the damage.
func (e *Engine) say(ctx context.Context, ch chat.ChannelID, text string) {
	if _, err := e.gateway.Send(ctx, ch, text); err != nil {
		e.logger.Warn(ctx, "prompt delivery failed",
			logger.String("channel", string(ch)),
			logger.Error(err),
		)
	}
}

// awaitFrom suspends until the member speaks in the channel.
func (e *Engine) awaitFrom(ctx context.Context, author model.MemberID, ch chat.ChannelID, timeout time.Duration) (chat.Message, error) {
	return e.dispatch.AwaitMessage(ctx, func(m chat.Message) bool {
		return m.AuthorID == author && m.ChannelID == ch
	}, timeout)
}

// notify enqueues a best-effort notification if a notifier is wired.
func (e *Engine) notify(ctx context.Context, n queue.Notification) {
	if e.notifier == nil {
		return
	}
	e.notifier.Enqueue(ctx, n)
}

// hasCapability resolves the member's role labels and checks the
// grant table. A role lookup failure reads as "not granted".
func (e *Engine) hasCapability(ctx context.Context, id model.MemberID, c access.Capability) bool {
	roles, err := e.gateway.RoleLabels(ctx, id)
	if err != nil {
		e.logger.Warn(ctx, "role lookup failed",
			logger.String("member", string(id)),
			logger.String("capability", c.String()),
			logger.Error(err),
		)
		return false
	}
	return e.grants.HasCapability(roles, c)
}

// Package review resolves verdicts on posted assessment artifacts.
//
// The gate keeps an in-memory index from artifact message id to the
// submitting member, filled in by the assessment flow when it posts.
// A verdict is a reviewer's approve/reject reaction on the artifact;
// the outcome is written to the ledger and the member is notified
// best-effort. A later verdict overwrites an earlier one; each
// resolution is logged with the reviewer's id.
package review

import (
	"context"
	"fmt"
	"sync"

	"github.com/velstra/garrison/internal/adapters/chat"
	"github.com/velstra/garrison/internal/adapters/mq/queue"
	"github.com/velstra/garrison/internal/domain/access"
	"github.com/velstra/garrison/internal/domain/model"
	"github.com/velstra/garrison/pkg/logger"
	"github.com/velstra/garrison/pkg/metrics"
)

// Ledger is the slice of the store the gate writes through.
type Ledger interface {
	SetAssessmentPassed(ctx context.Context, id model.MemberID, passed bool) error
}

// Notifier delivers the verdict to the member, best-effort.
type Notifier interface {
	Enqueue(ctx context.Context, n queue.Notification) bool
}

// Gate owns the review surface: it maps artifacts to members and
// turns reviewer reactions into durable assessment outcomes.
type Gate struct {
	gateway chat.Gateway
	ledger  Ledger
	grants  access.Grants
	channel chat.ChannelID

	notifier Notifier

	mu    sync.Mutex
	index map[chat.MessageID]model.MemberID

	// Logging
	logger logger.Logger
}

// NewGate creates a review gate for one review channel.
func NewGate(gw chat.Gateway, ledger Ledger, grants access.Grants, channel chat.ChannelID, opts ...Option) *Gate {
	g := &Gate{
		gateway: gw,
		ledger:  ledger,
		grants:  grants,
		channel: channel,
		index:   make(map[chat.MessageID]model.MemberID),
		logger:  logger.Get().Named("review"),
	}

	// Apply all options
	for _, opt := range opts {
		opt(g)
	}

	return g
}

// Register binds a posted artifact to the member it belongs to. The
// binding stays after a verdict so a correcting verdict can land.
func (g *Gate) Register(msg chat.MessageID, member model.MemberID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.index[msg] = member
}

func (g *Gate) lookup(msg chat.MessageID) (model.MemberID, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	member, ok := g.index[msg]
	return member, ok
}

// HandleReaction consumes a reaction event if it is a verdict on a
// known artifact in the review channel. It reports whether the event
// was the gate's to handle.
func (g *Gate) HandleReaction(ctx context.Context, r chat.Reaction) bool {
	if r.ChannelID != g.channel {
		return false
	}
	if r.Symbol != chat.SymbolApprove && r.Symbol != chat.SymbolReject {
		return false
	}

	member, ok := g.lookup(r.MessageID)
	if !ok {
		return false
	}

	// The gate seeds the verdict symbols itself; its own reactions
	// echoed back by the transport are not verdicts.
	if automated, err := g.gateway.IsAutomated(ctx, r.ActorID); err == nil && automated {
		return false
	}

	roles, err := g.gateway.RoleLabels(ctx, r.ActorID)
	if err != nil || !g.grants.HasCapability(roles, access.CapReviewAssessments) {
		metrics.RecordReviewRejected()
		g.logger.Info(ctx, "non-reviewer verdict retracted",
			logger.String("actor", string(r.ActorID)),
			logger.String("artifact", string(r.MessageID)),
		)
		if rmErr := g.gateway.RemoveReaction(ctx, r.ChannelID, r.MessageID, r.Symbol, r.ActorID); rmErr != nil {
			g.logger.Warn(ctx, "reaction retraction failed", logger.Error(rmErr))
		}
		return true
	}

	passed := r.Symbol == chat.SymbolApprove
	if err := g.ledger.SetAssessmentPassed(ctx, member, passed); err != nil {
		g.logger.Error(ctx, "verdict commit failed",
			logger.String("member", string(member)),
			logger.Bool("passed", passed),
			logger.Error(err),
		)
		return true
	}

	verdict := "failed"
	if passed {
		verdict = "passed"
	}
	metrics.RecordReviewResolved(verdict)

	// The log line doubles as the audit trail for overwrites.
	g.logger.Info(ctx, "assessment verdict recorded",
		logger.String("member", string(member)),
		logger.String("reviewer", string(r.ActorID)),
		logger.String("verdict", verdict),
	)

	ack := fmt.Sprintf("Assessment for %s marked %s by %s.", member, verdict, r.ActorID)
	if _, err := g.gateway.Send(ctx, g.channel, ack); err != nil {
		g.logger.Warn(ctx, "verdict acknowledgment failed", logger.Error(err))
	}

	if g.notifier != nil {
		g.notifier.Enqueue(ctx, queue.Notification{
			MemberID: member,
			Text:     fmt.Sprintf("Your assessment has been reviewed: %s.", verdict),
		})
	}
	return true
}

package chat

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/velstra/garrison/internal/domain/model"
	"github.com/velstra/garrison/pkg/logger"
)

// Headless is the gateway the standalone binary runs with when no
// chat transport is attached: outbound traffic is logged and sunk,
// role lookups report no labels. The admin API and the ledger stay
// fully usable; conversational flows simply never start because no
// inbound events exist.
type Headless struct {
	nextID atomic.Int64
	logger logger.Logger
}

// NewHeadless creates a transportless gateway.
func NewHeadless() *Headless {
	return &Headless{logger: logger.Get().Named("headless")}
}

func (h *Headless) id() MessageID {
	return MessageID(fmt.Sprintf("headless-%d", h.nextID.Add(1)))
}

// Send logs and sinks the message.
func (h *Headless) Send(ctx context.Context, ch ChannelID, text string) (MessageID, error) {
	h.logger.Debug(ctx, "sunk outbound message",
		logger.String("channel", string(ch)),
		logger.String("text", text),
	)
	return h.id(), nil
}

// OpenDM returns a synthetic private channel id.
func (h *Headless) OpenDM(_ context.Context, id model.MemberID) (ChannelID, error) {
	return ChannelID("dm:" + string(id)), nil
}

// React is a no-op.
func (h *Headless) React(_ context.Context, _ ChannelID, _ MessageID, _ string) error {
	return nil
}

// RemoveReaction is a no-op.
func (h *Headless) RemoveReaction(_ context.Context, _ ChannelID, _ MessageID, _ string, _ model.MemberID) error {
	return nil
}

// RoleLabels reports no labels without a transport to ask.
func (h *Headless) RoleLabels(_ context.Context, _ model.MemberID) ([]string, error) {
	return nil, nil
}

// IsAutomated reports false without a transport to ask.
func (h *Headless) IsAutomated(_ context.Context, _ model.MemberID) (bool, error) {
	return false, nil
}

// PostReview logs and sinks the artifact.
func (h *Headless) PostReview(ctx context.Context, ch ChannelID, sub model.Submission) (MessageID, error) {
	h.logger.Debug(ctx, "sunk review artifact",
		logger.String("channel", string(ch)),
		logger.String("member", string(sub.MemberID)),
	)
	return h.id(), nil
}

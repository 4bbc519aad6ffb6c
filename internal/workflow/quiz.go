package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/velstra/garrison/internal/adapters/chat"
	"github.com/velstra/garrison/internal/domain/access"
	"github.com/velstra/garrison/internal/domain/model"
	"github.com/velstra/garrison/pkg/logger"
	"github.com/velstra/garrison/pkg/metrics"
)

// StartAssessment runs the assessment flow over a freshly opened DM
// channel: for each configured question, await a free-form answer,
// then a reaction-based confirmation; a reject re-asks the same
// question. After the last confirmation the (question, answer) list
// is posted to the review surface as one immutable artifact and the
// session's local state is discarded.
//
// Any timeout terminates the whole flow; no partial submission is
// ever posted.
func (e *Engine) StartAssessment(ctx context.Context, member model.MemberID, origin chat.ChannelID) error {
	if !e.hasCapability(ctx, member, access.CapTakeAssessment) {
		e.say(ctx, origin, "You do not hold the rank required to take this assessment.")
		metrics.RecordSessionDenied(flowAssessment)
		return ErrDenied
	}
	if len(e.questions) == 0 || e.reviewChannel == "" {
		e.say(ctx, origin, "The assessment is not configured. Please contact an administrator.")
		return fmt.Errorf("assessment unconfigured: %w", ErrSurfaceUnavailable)
	}

	dm, err := e.gateway.OpenDM(ctx, member)
	if err != nil {
		e.say(ctx, origin, "Unable to open a direct channel with you. Please allow direct messages.")
		return fmt.Errorf("open dm: %w", ErrSurfaceUnavailable)
	}
	e.say(ctx, origin, "Check your direct messages for the assessment.")

	end := e.begin(flowAssessment)
	defer end()

	answers := make([]model.Answer, 0, len(e.questions))
	for i, question := range e.questions {
		answer, err := e.collectAnswer(ctx, member, dm, i+1, question)
		if err != nil {
			return err
		}
		answers = append(answers, model.Answer{Question: question, Answer: answer})
	}

	sub := model.Submission{
		MemberID:  member,
		Answers:   answers,
		CreatedAt: time.Now().UTC(),
	}
	artifact, err := e.gateway.PostReview(ctx, e.reviewChannel, sub)
	if err != nil {
		e.logger.Error(ctx, "review surface unreachable",
			logger.String("member", string(member)),
			logger.String("channel", string(e.reviewChannel)),
			logger.Error(err),
		)
		e.say(ctx, dm, "Your assessment is complete, but the review channel is unreachable. Please contact an administrator.")
		return fmt.Errorf("post review: %w", ErrSurfaceUnavailable)
	}

	// Seed the verdict reactions; reviewers click rather than type.
	_ = e.gateway.React(ctx, e.reviewChannel, artifact, chat.SymbolApprove)
	_ = e.gateway.React(ctx, e.reviewChannel, artifact, chat.SymbolReject)

	if e.registry != nil {
		e.registry.Register(artifact, member)
	}

	metrics.RecordSessionCompleted(flowAssessment)
	e.say(ctx, dm, "Your assessment has been submitted for review. You will be notified once it is marked.")
	return nil
}

// collectAnswer loops ask -> await -> confirm until the member
// approves an answer for this question.
func (e *Engine) collectAnswer(ctx context.Context, member model.MemberID, dm chat.ChannelID, number int, question string) (string, error) {
	for {
		e.say(ctx, dm, fmt.Sprintf("Question %d:\n%s", number, question))

		msg, err := e.awaitFrom(ctx, member, dm, e.answerTimeout)
		if err != nil {
			return "", e.stepFailed(ctx, flowAssessment, dm, "Assessment timed out. Run the command again when ready.", err)
		}
		candidate := msg.Content

		confirm, err := e.gateway.Send(ctx, dm, fmt.Sprintf("Your answer:\n%s\nReact with %s to confirm or %s to re-answer.", candidate, chat.SymbolApprove, chat.SymbolReject))
		if err != nil {
			e.say(ctx, dm, "Assessment cancelled: the direct channel became unavailable.")
			return "", fmt.Errorf("confirm prompt: %w", ErrSurfaceUnavailable)
		}
		_ = e.gateway.React(ctx, dm, confirm, chat.SymbolApprove)
		_ = e.gateway.React(ctx, dm, confirm, chat.SymbolReject)

		r, err := e.dispatch.AwaitReaction(ctx, func(r chat.Reaction) bool {
			return r.ActorID == member && r.MessageID == confirm &&
				(r.Symbol == chat.SymbolApprove || r.Symbol == chat.SymbolReject)
		}, e.confirmTimeout)
		if err != nil {
			if errors.Is(err, chat.ErrAwaitTimeout) {
				metrics.RecordSessionTimedOut(flowAssessment)
				e.say(ctx, dm, "Timed out waiting for confirmation. Assessment cancelled.")
				return "", ErrTimedOut
			}
			return "", err
		}

		if r.Symbol == chat.SymbolApprove {
			return candidate, nil
		}
		e.say(ctx, dm, "Okay, re-answer this question.")
	}
}

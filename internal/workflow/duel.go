package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/velstra/garrison/internal/adapters/chat"
	"github.com/velstra/garrison/internal/adapters/mq/queue"
	"github.com/velstra/garrison/internal/domain/access"
	"github.com/velstra/garrison/internal/domain/model"
	"github.com/velstra/garrison/pkg/logger"
	"github.com/velstra/garrison/pkg/metrics"
)

// Challenge runs the duel-challenge flow: ask the opponent to accept
// or decline in the originating channel, and on acceptance notify
// both parties (and the optional supervisor) with the duel link.
//
// The flow records nothing in the ledger; results arrive later
// through ReportDuel.
func (e *Engine) Challenge(ctx context.Context, challenger, opponent model.MemberID, supervisor *model.MemberID, ch chat.ChannelID) error {
	if opponent == challenger {
		e.say(ctx, ch, "You cannot challenge yourself.")
		return fmt.Errorf("self-challenge: %w", ErrValidation)
	}

	automated, err := e.gateway.IsAutomated(ctx, opponent)
	if err != nil {
		e.logger.Warn(ctx, "eligibility lookup failed",
			logger.String("opponent", string(opponent)),
			logger.Error(err),
		)
		e.say(ctx, ch, "Could not verify the opponent. Try again later.")
		return fmt.Errorf("opponent lookup: %w", err)
	}
	if automated {
		e.say(ctx, ch, "You cannot challenge an automated account.")
		return fmt.Errorf("automated opponent: %w", ErrValidation)
	}

	end := e.begin(flowDuelChallenge)
	defer end()

	e.say(ctx, ch, fmt.Sprintf("%s, %s has challenged you to a duel. Reply `yes` or `no`.", opponent, challenger))

	// Only a yes/no token from the challenged party in this channel
	// qualifies; everything else flows past the waiter untouched.
	msg, err := e.dispatch.AwaitMessage(ctx, func(m chat.Message) bool {
		return m.AuthorID == opponent && m.ChannelID == ch && isVerdictToken(m.Content)
	}, e.challengeTimeout)
	if err != nil {
		if errors.Is(err, chat.ErrAwaitTimeout) {
			metrics.RecordSessionTimedOut(flowDuelChallenge)
			e.say(ctx, ch, fmt.Sprintf("%s did not respond in time. Duel cancelled.", opponent))
			return ErrTimedOut
		}
		return err
	}

	if !isAffirmative(msg.Content) {
		metrics.RecordSessionCompleted(flowDuelChallenge)
		e.say(ctx, ch, "Duel declined.")
		return nil
	}

	e.say(ctx, ch, "Duel accepted! Sending the duel link.")

	text := fmt.Sprintf("A duel between %s and %s has been arranged.\nUse this link to set it up: %s", challenger, opponent, e.duelLink)
	e.notify(ctx, queue.Notification{MemberID: challenger, Text: text})
	e.notify(ctx, queue.Notification{MemberID: opponent, Text: text})
	if supervisor != nil {
		e.notify(ctx, queue.Notification{
			MemberID: *supervisor,
			Text:     fmt.Sprintf("You are supervising a duel between %s and %s.\n%s", challenger, opponent, e.duelLink),
		})
	}

	metrics.RecordSessionCompleted(flowDuelChallenge)
	return nil
}

// ReportDuel runs the officer-only result session: select the winner,
// select the loser, then commit. Equal parties are rejected before
// any write.
func (e *Engine) ReportDuel(ctx context.Context, officer model.MemberID, ch chat.ChannelID) error {
	if !e.hasCapability(ctx, officer, access.CapReportDuels) {
		e.say(ctx, ch, "You do not have permission to report duels.")
		metrics.RecordSessionDenied(flowDuelReport)
		return ErrDenied
	}

	end := e.begin(flowDuelReport)
	defer end()

	winner, err := e.selectMember(ctx, officer, ch, "Mention the winner.")
	if err != nil {
		return err
	}
	loser, err := e.selectMember(ctx, officer, ch, "Mention the loser.")
	if err != nil {
		return err
	}

	if winner == loser {
		e.say(ctx, ch, "Winner and loser cannot be the same.")
		return fmt.Errorf("duel %s vs %s: %w", winner, loser, ErrValidation)
	}

	if _, err := e.ledger.RecordDuel(ctx, winner, loser); err != nil {
		e.logger.Error(ctx, "duel commit failed",
			logger.String("winner", string(winner)),
			logger.String("loser", string(loser)),
			logger.Error(err),
		)
		e.say(ctx, ch, "Something went wrong while saving the duel. Nothing was recorded.")
		return fmt.Errorf("record duel: %w", err)
	}

	metrics.RecordSessionCompleted(flowDuelReport)
	e.say(ctx, ch, fmt.Sprintf("Duel result recorded: winner %s, loser %s.", winner, loser))
	return nil
}

// selectMember prompts until the officer's reply carries a mention.
func (e *Engine) selectMember(ctx context.Context, officer model.MemberID, ch chat.ChannelID, prompt string) (model.MemberID, error) {
	e.say(ctx, ch, prompt)
	for {
		msg, err := e.awaitFrom(ctx, officer, ch, e.selectTimeout)
		if err != nil {
			return "", e.stepFailed(ctx, flowDuelReport, ch, "Timed out waiting for a mention. Aborting.", err)
		}
		if len(msg.Mentions) > 0 {
			return msg.Mentions[0], nil
		}
		e.say(ctx, ch, "No mention in that message. Try again.")
	}
}

func isVerdictToken(content string) bool {
	switch strings.ToLower(strings.TrimSpace(content)) {
	case "yes", "no", "y", "n":
		return true
	}
	return false
}

func isAffirmative(content string) bool {
	switch strings.ToLower(strings.TrimSpace(content)) {
	case "yes", "y":
		return true
	}
	return false
}

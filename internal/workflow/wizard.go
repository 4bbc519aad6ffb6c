package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/velstra/garrison/internal/adapters/chat"
	"github.com/velstra/garrison/internal/domain/access"
	"github.com/velstra/garrison/internal/domain/model"
	"github.com/velstra/garrison/pkg/logger"
	"github.com/velstra/garrison/pkg/metrics"
)

// LogEvent runs the event-logging wizard for one host in one channel:
// select a type, name an optional cohost, collect attendee mentions
// until "done", then commit the event to the ledger.
func (e *Engine) LogEvent(ctx context.Context, host model.MemberID, ch chat.ChannelID) error {
	if !e.hasCapability(ctx, host, access.CapLogEvents) {
		e.say(ctx, ch, "You do not have permission to log events.")
		metrics.RecordSessionDenied(flowEventWizard)
		return ErrDenied
	}

	end := e.begin(flowEventWizard)
	defer end()

	eventType, err := e.selectType(ctx, host, ch)
	if err != nil {
		return err
	}

	cohost, err := e.selectCohost(ctx, host, ch)
	if err != nil {
		return err
	}

	attendees, err := e.collectAttendees(ctx, host, ch)
	if err != nil {
		return err
	}

	id, err := e.ledger.RecordEvent(ctx, eventType, host, cohost, attendees)
	if err != nil {
		e.logger.Error(ctx, "event commit failed",
			logger.String("host", string(host)),
			logger.String("type", string(eventType)),
			logger.Error(err),
		)
		e.say(ctx, ch, "Something went wrong while saving the event. Nothing was recorded.")
		return fmt.Errorf("record event: %w", err)
	}

	metrics.RecordSessionCompleted(flowEventWizard)
	e.say(ctx, ch, fmt.Sprintf("Event logged (ID: %d), type: %s.", id, eventType))
	return nil
}

func (e *Engine) selectType(ctx context.Context, host model.MemberID, ch chat.ChannelID) (model.EventType, error) {
	var b strings.Builder
	b.WriteString("Select event type by number or name:\n")
	for i, t := range e.types {
		fmt.Fprintf(&b, "%d. %s\n", i+1, t)
	}
	e.say(ctx, ch, b.String())

	msg, err := e.awaitFrom(ctx, host, ch, e.selectTimeout)
	if err != nil {
		return "", e.stepFailed(ctx, flowEventWizard, ch, "Timed out waiting for event type.", err)
	}

	t, ok := model.ParseEventType(msg.Content, e.types)
	if !ok {
		e.say(ctx, ch, "Invalid event type. Aborting.")
		return "", fmt.Errorf("event type %q: %w", msg.Content, ErrValidation)
	}
	return t, nil
}

func (e *Engine) selectCohost(ctx context.Context, host model.MemberID, ch chat.ChannelID) (*model.MemberID, error) {
	e.say(ctx, ch, "Mention your co-host, or reply `none` if there is no co-host.")

	msg, err := e.awaitFrom(ctx, host, ch, e.selectTimeout)
	if err != nil {
		return nil, e.stepFailed(ctx, flowEventWizard, ch, "Timed out waiting for co-host.", err)
	}

	if strings.EqualFold(strings.TrimSpace(msg.Content), "none") {
		return nil, nil
	}
	if len(msg.Mentions) == 0 {
		e.say(ctx, ch, "No valid mention detected. Assuming no co-host.")
		return nil, nil
	}
	cohost := msg.Mentions[0]
	if cohost == host {
		e.say(ctx, ch, "You cannot co-host your own event. Assuming no co-host.")
		return nil, nil
	}
	return &cohost, nil
}

func (e *Engine) collectAttendees(ctx context.Context, host model.MemberID, ch chat.ChannelID) ([]model.MemberID, error) {
	e.say(ctx, ch, "Mention all attendees. You can mention several per message. Reply `done` when finished.")

	var attendees []model.MemberID
	for {
		msg, err := e.awaitFrom(ctx, host, ch, e.collectTimeout)
		if err != nil {
			return nil, e.stepFailed(ctx, flowEventWizard, ch, "Timed out waiting for attendees. Aborting.", err)
		}

		if strings.EqualFold(strings.TrimSpace(msg.Content), "done") {
			if len(attendees) == 0 {
				e.say(ctx, ch, "At least one attendee is required before finishing.")
				continue
			}
			return attendees, nil
		}

		if len(msg.Mentions) == 0 {
			e.say(ctx, ch, "No mentions in that message. Try again or reply `done`.")
			continue
		}
		attendees = append(attendees, msg.Mentions...)
	}
}

// stepFailed reports an await failure to the user and classifies it.
// Timeouts resolve to ErrTimedOut; context cancellation passes through.
func (e *Engine) stepFailed(ctx context.Context, flow string, ch chat.ChannelID, text string, err error) error {
	if errors.Is(err, chat.ErrAwaitTimeout) {
		metrics.RecordSessionTimedOut(flow)
		e.say(ctx, ch, text)
		return ErrTimedOut
	}
	return err
}

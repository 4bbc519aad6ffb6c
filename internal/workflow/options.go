package workflow

import (
	"time"

	"github.com/velstra/garrison/internal/adapters/chat"
	"github.com/velstra/garrison/internal/domain/model"
	"github.com/velstra/garrison/pkg/logger"
)

// Option configures an Engine.
type Option func(*Engine)

// WithEventTypes sets the ordered selection list for the wizard.
func WithEventTypes(types []model.EventType) Option {
	return func(e *Engine) {
		if len(types) > 0 {
			e.types = types
		}
	}
}

// WithQuestions sets the ordered assessment question list.
func WithQuestions(questions []string) Option {
	return func(e *Engine) {
		e.questions = questions
	}
}

// WithReviewChannel sets the review surface for assessment submissions.
func WithReviewChannel(ch chat.ChannelID) Option {
	return func(e *Engine) {
		e.reviewChannel = ch
	}
}

// WithDuelLink sets the link included in duel-accepted notifications.
func WithDuelLink(link string) Option {
	return func(e *Engine) {
		e.duelLink = link
	}
}

// WithNotifier wires the outbound notification queue.
func WithNotifier(n Notifier) Option {
	return func(e *Engine) {
		e.notifier = n
	}
}

// WithReviewRegistry wires the artifact-to-member index the review
// gate resolves verdicts through.
func WithReviewRegistry(r ReviewRegistry) Option {
	return func(e *Engine) {
		e.registry = r
	}
}

// WithTimeouts overrides the per-step timeouts. A zero value keeps
// the corresponding default.
func WithTimeouts(selectT, collect, challenge, answer, confirm time.Duration) Option {
	return func(e *Engine) {
		if selectT > 0 {
			e.selectTimeout = selectT
		}
		if collect > 0 {
			e.collectTimeout = collect
		}
		if challenge > 0 {
			e.challengeTimeout = challenge
		}
		if answer > 0 {
			e.answerTimeout = answer
		}
		if confirm > 0 {
			e.confirmTimeout = confirm
		}
	}
}

// WithLogger sets a custom logger for the engine.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

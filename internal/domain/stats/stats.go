// Package stats derives per-member counters from the ledger.
//
// Counters are recomputed on every request so they are always
// consistent with the ledger at read time; nothing here caches.
package stats

import (
	"context"
	"fmt"

	"github.com/velstra/garrison/internal/domain/model"
)

// Ledger is the slice of the ledger store the aggregator needs.
type Ledger interface {
	EnsureMember(ctx context.Context, id model.MemberID) error
	AssessmentPassed(ctx context.Context, id model.MemberID) (bool, error)
	CountHosted(ctx context.Context, id model.MemberID, types []model.EventType) (int, error)
	CountAttended(ctx context.Context, id model.MemberID, types []model.EventType) (int, error)
	CountDuelsWon(ctx context.Context, id model.MemberID) (int, error)
}

// Aggregator computes model.Stats for a member.
type Aggregator struct {
	ledger        Ledger
	warfareTypes  []model.EventType
	trainingTypes []model.EventType
}

// Option applies a configuration option to the Aggregator.
type Option func(*Aggregator)

// WithWarfareTypes sets the combat-oriented event type subset.
func WithWarfareTypes(types []model.EventType) Option {
	return func(a *Aggregator) {
		if len(types) > 0 {
			a.warfareTypes = types
		}
	}
}

// WithTrainingTypes sets the training event type subset.
func WithTrainingTypes(types []model.EventType) Option {
	return func(a *Aggregator) {
		if len(types) > 0 {
			a.trainingTypes = types
		}
	}
}

// New constructs an Aggregator over the given ledger. Defaults match
// the original community setup: warfare = raid/defense/scrim,
// training = training.
func New(ledger Ledger, opts ...Option) *Aggregator {
	a := &Aggregator{
		ledger:        ledger,
		warfareTypes:  []model.EventType{model.EventRaid, model.EventDefense, model.EventScrim},
		trainingTypes: []model.EventType{model.EventTraining},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Compute returns the member's derived counters. A never-seen member
// yields all-zero stats and is registered as a side effect.
func (a *Aggregator) Compute(ctx context.Context, id model.MemberID) (model.Stats, error) {
	if err := a.ledger.EnsureMember(ctx, id); err != nil {
		return model.Stats{}, fmt.Errorf("compute stats: %w", err)
	}

	var (
		s   model.Stats
		err error
	)
	if s.TotalHosted, err = a.ledger.CountHosted(ctx, id, nil); err != nil {
		return model.Stats{}, fmt.Errorf("compute stats: %w", err)
	}
	if s.WarfareHosted, err = a.ledger.CountHosted(ctx, id, a.warfareTypes); err != nil {
		return model.Stats{}, fmt.Errorf("compute stats: %w", err)
	}
	if s.TotalAttended, err = a.ledger.CountAttended(ctx, id, nil); err != nil {
		return model.Stats{}, fmt.Errorf("compute stats: %w", err)
	}
	if s.WarfareAttended, err = a.ledger.CountAttended(ctx, id, a.warfareTypes); err != nil {
		return model.Stats{}, fmt.Errorf("compute stats: %w", err)
	}
	if s.TrainingAttended, err = a.ledger.CountAttended(ctx, id, a.trainingTypes); err != nil {
		return model.Stats{}, fmt.Errorf("compute stats: %w", err)
	}
	if s.DuelsWon, err = a.ledger.CountDuelsWon(ctx, id); err != nil {
		return model.Stats{}, fmt.Errorf("compute stats: %w", err)
	}
	if s.AssessmentPassed, err = a.ledger.AssessmentPassed(ctx, id); err != nil {
		return model.Stats{}, fmt.Errorf("compute stats: %w", err)
	}
	return s, nil
}

// Package progression evaluates aggregated stats against the rank
// rule table.
//
// The engine is pure decision logic: it never writes to the ledger
// and never tracks whether a member was already announced, so a
// member who stays eligible produces a fresh PromotionReady on every
// evaluation.
package progression

import (
	"context"
	"fmt"

	"github.com/velstra/garrison/internal/domain/model"
	"github.com/velstra/garrison/internal/domain/rank"
	"github.com/velstra/garrison/pkg/metrics"
)

// StatsSource supplies derived counters for a member.
type StatsSource interface {
	Compute(ctx context.Context, id model.MemberID) (model.Stats, error)
}

// Requirement pairs a counter with its threshold for one tier. A zero
// Required means the counter is not gating promotion.
type Requirement struct {
	Name     string
	Current  int
	Required int
}

// Met reports whether this requirement gates promotion and is satisfied.
func (r Requirement) Met() bool { return r.Required == 0 || r.Current >= r.Required }

// Decision is the outcome of one promotion evaluation.
type Decision struct {
	Ready bool

	// Tier is the member's current tier; Next its promotion target
	// (empty for terminal or unranked tiers).
	Tier rank.Tier
	Next string

	// Requirements lists every numeric requirement with current
	// progress, gating or not, for rendering a progress report.
	Requirements []Requirement

	// AssessmentRequired / AssessmentPassed cover the boolean gate.
	AssessmentRequired bool
	AssessmentPassed   bool

	// Stats are the counters the decision was derived from.
	Stats model.Stats
}

// Engine evaluates promotion readiness.
type Engine struct {
	source StatsSource
	table  *rank.Table
}

// New constructs an Engine from a stats source and the rule table.
func New(source StatsSource, table *rank.Table) *Engine {
	return &Engine{source: source, table: table}
}

// Evaluate compares the member's stats against the requirements of
// the tier named by currentRankLabel. A terminal or unknown tier is
// never ready.
func (e *Engine) Evaluate(ctx context.Context, id model.MemberID, currentRankLabel string) (Decision, error) {
	tier, ok := e.table.Lookup(currentRankLabel)
	if !ok {
		tier = rank.Unranked
	}
	return e.evaluateTier(ctx, id, tier)
}

// EvaluateRoles resolves the member's current tier from their role
// labels (table order is the priority order) and evaluates it.
func (e *Engine) EvaluateRoles(ctx context.Context, id model.MemberID, roleLabels []string) (Decision, error) {
	return e.evaluateTier(ctx, id, e.table.Resolve(roleLabels))
}

func (e *Engine) evaluateTier(ctx context.Context, id model.MemberID, tier rank.Tier) (Decision, error) {
	metrics.RecordPromotionEvaluation()

	s, err := e.source.Compute(ctx, id)
	if err != nil {
		return Decision{}, fmt.Errorf("evaluate promotion for %s: %w", id, err)
	}

	req := tier.Requirements
	d := Decision{
		Tier: tier,
		Next: tier.Next,
		Requirements: []Requirement{
			{Name: "events_attended", Current: s.TotalAttended, Required: req.EventsAttended},
			{Name: "warfare_attended", Current: s.WarfareAttended, Required: req.WarfareAttended},
			{Name: "training_attended", Current: s.TrainingAttended, Required: req.TrainingAttended},
			{Name: "duels_won", Current: s.DuelsWon, Required: req.DuelsWon},
		},
		AssessmentRequired: req.AssessmentRequired,
		AssessmentPassed:   s.AssessmentPassed,
		Stats:              s,
	}

	if tier.Terminal() {
		return d, nil
	}

	for _, r := range d.Requirements {
		if !r.Met() {
			return d, nil
		}
	}
	if req.AssessmentRequired && !s.AssessmentPassed {
		return d, nil
	}

	d.Ready = true
	return d, nil
}

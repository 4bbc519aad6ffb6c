// Package rank holds the static rank rule table.
//
// The table is ordered; order doubles as the priority order used to
// resolve a member's current rank from the role labels the transport
// reports. The table itself never changes at runtime.
package rank

import "github.com/velstra/garrison/internal/config"

// Requirements are the thresholds a member must meet to leave a tier.
// A zero value means the requirement does not apply.
type Requirements struct {
	EventsAttended     int
	WarfareAttended    int
	TrainingAttended   int
	DuelsWon           int
	AssessmentRequired bool
}

// Tier is one named progression stage.
type Tier struct {
	Label        string
	Next         string // empty = terminal tier
	Requirements Requirements
}

// Terminal reports whether there is no next rank to promote into.
func (t Tier) Terminal() bool { return t.Next == "" }

// Unranked is the sentinel tier for members holding no configured
// rank label. It is terminal and carries no requirements.
var Unranked = Tier{Label: "Unranked"}

// Table is the ordered rank rule table.
type Table struct {
	tiers []Tier
}

// NewTable builds a Table from configuration, preserving order.
func NewTable(cfgTiers []config.RankTier) *Table {
	tiers := make([]Tier, 0, len(cfgTiers))
	for _, ct := range cfgTiers {
		tiers = append(tiers, Tier{
			Label: ct.Label,
			Next:  ct.Next,
			Requirements: Requirements{
				EventsAttended:     ct.EventsAttended,
				WarfareAttended:    ct.WarfareAttended,
				TrainingAttended:   ct.TrainingAttended,
				DuelsWon:           ct.DuelsWon,
				AssessmentRequired: ct.AssessmentRequired,
			},
		})
	}
	return &Table{tiers: tiers}
}

// Lookup returns the tier for a rank label.
func (t *Table) Lookup(label string) (Tier, bool) {
	for _, tier := range t.tiers {
		if tier.Label == label {
			return tier, true
		}
	}
	return Tier{}, false
}

// Resolve picks the member's current tier from their role labels.
// The first configured tier whose label the member holds wins; a
// member holding no rank label resolves to Unranked.
func (t *Table) Resolve(roleLabels []string) Tier {
	for _, tier := range t.tiers {
		for _, label := range roleLabels {
			if label == tier.Label {
				return tier
			}
		}
	}
	return Unranked
}

// Tiers returns the ordered tier list.
func (t *Table) Tiers() []Tier { return t.tiers }

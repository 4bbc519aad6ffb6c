// Package access provides typed capability checks over role labels.
//
// Capabilities decouple "may this member do X" decisions from the
// role-id configuration format of any particular chat platform: the
// transport supplies a member's role labels, configuration supplies
// the label sets that grant each capability, and callers only ever
// ask about capabilities.
package access

// Capability enumerates the privileged actions in the system.
type Capability int

const (
	// CapLogEvents allows running the event-logging wizard.
	CapLogEvents Capability = iota
	// CapReportDuels allows recording duel results.
	CapReportDuels
	// CapReviewAssessments allows resolving assessment verdicts.
	CapReviewAssessments
	// CapTakeAssessment allows starting the assessment flow.
	CapTakeAssessment
)

// String returns the capability name for logging.
func (c Capability) String() string {
	switch c {
	case CapLogEvents:
		return "log_events"
	case CapReportDuels:
		return "report_duels"
	case CapReviewAssessments:
		return "review_assessments"
	case CapTakeAssessment:
		return "take_assessment"
	default:
		return "unknown"
	}
}

// Grants maps each capability to the role labels that confer it.
type Grants map[Capability][]string

// NewGrants builds the grant table from the configured role sets.
// Officers both log events and report duels, matching the original
// command gating.
func NewGrants(officerRoles, reviewerRoles []string, assessmentRank string) Grants {
	g := Grants{
		CapLogEvents:         officerRoles,
		CapReportDuels:       officerRoles,
		CapReviewAssessments: reviewerRoles,
	}
	if assessmentRank != "" {
		g[CapTakeAssessment] = []string{assessmentRank}
	}
	return g
}

// HasCapability reports whether any of the member's role labels grant
// the capability. It is a pure predicate; no side effects, no
// platform lookups.
func (g Grants) HasCapability(roles []string, c Capability) bool {
	granting, ok := g[c]
	if !ok || len(granting) == 0 {
		return false
	}
	for _, have := range roles {
		for _, want := range granting {
			if have == want {
				return true
			}
		}
	}
	return false
}

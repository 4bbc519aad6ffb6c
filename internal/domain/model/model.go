// Package model contains domain models passed between layers.
package model

import (
	"strconv"
	"strings"
	"time"
)

// MemberID is the opaque, externally assigned platform user id.
type MemberID string

// EventType names a category of hosted group activity.
type EventType string

// The event types the original community tracks. The wizard presents
// whatever ordered list configuration supplies; these are the defaults.
const (
	EventRaid        EventType = "raid"
	EventDefense     EventType = "defense"
	EventScrim       EventType = "scrim"
	EventTraining    EventType = "training"
	EventGamenight   EventType = "gamenight"
	EventRecruitment EventType = "recruitment"
	EventOther       EventType = "other"
)

// DefaultEventTypes is the ordered selection list shown by the
// event-logging wizard when configuration does not override it.
func DefaultEventTypes() []EventType {
	return []EventType{
		EventRaid,
		EventDefense,
		EventScrim,
		EventTraining,
		EventGamenight,
		EventRecruitment,
		EventOther,
	}
}

// ParseEventType resolves user input against an ordered type list.
// Input may be a 1-based ordinal ("2") or a case-insensitive name
// ("Scrim"). The second return is false when nothing matches; the
// caller decides whether to re-prompt or abort.
func ParseEventType(input string, types []EventType) (EventType, bool) {
	s := strings.ToLower(strings.TrimSpace(input))
	if s == "" {
		return "", false
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n >= 1 && n <= len(types) {
			return types[n-1], true
		}
		return "", false
	}
	for _, t := range types {
		if s == string(t) {
			return t, true
		}
	}
	return "", false
}

// Member is a tracked individual. Created lazily on first reference,
// never deleted.
type Member struct {
	ID               MemberID
	AssessmentPassed bool
	CreatedAt        time.Time
}

// Event is a hosted group activity with its attendee set.
type Event struct {
	ID        int64
	Type      EventType
	HostID    MemberID
	CohostID  *MemberID
	Attendees []MemberID
	CreatedAt time.Time
}

// Duel is a one-on-one competitive result between two distinct members.
type Duel struct {
	ID        int64
	WinnerID  MemberID
	LoserID   MemberID
	CreatedAt time.Time
}

// Stats are the derived per-member counters. Always recomputed from
// the ledger, never stored.
type Stats struct {
	TotalHosted      int
	WarfareHosted    int
	TotalAttended    int
	WarfareAttended  int
	TrainingAttended int
	DuelsWon         int
	AssessmentPassed bool
}

// Answer pairs one assessment question with the member's confirmed answer.
type Answer struct {
	Question string
	Answer   string
}

// Submission is the immutable review artifact produced by a completed
// assessment session. Only the final pass/fail outcome is durable.
type Submission struct {
	MemberID  MemberID
	Answers   []Answer
	CreatedAt time.Time
}

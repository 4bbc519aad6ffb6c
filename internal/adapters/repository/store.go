// Package repository defines the ledger store interface and errors.
//
// The ledger is the sole shared resource between workflow sessions.
// Every write commits before the caller is told it succeeded; an
// event row and its attendance rows appear together or not at all.
package repository

import (
	"context"

	"github.com/velstra/garrison/internal/domain/model"
)

// Ledger is the durable record of members, events, attendance, duels,
// and assessment outcomes.
type Ledger interface {
	// EnsureMember creates a member row with default state if absent.
	// Calling it again for the same id is a no-op.
	EnsureMember(ctx context.Context, id model.MemberID) error

	// RecordEvent ensures all referenced members exist, de-duplicates
	// the attendee set (host and cohost always count as attendees),
	// and atomically creates the event plus its attendance rows.
	// Returns the generated event id.
	RecordEvent(ctx context.Context, t model.EventType, host model.MemberID, cohost *model.MemberID, attendees []model.MemberID) (int64, error)

	// DeleteEvent removes an event; its attendance rows cascade.
	DeleteEvent(ctx context.Context, eventID int64) error

	// RecordDuel ensures both members exist and records the result.
	// Fails with ErrInvalidDuel when winner == loser; no row is created.
	RecordDuel(ctx context.Context, winner, loser model.MemberID) (int64, error)

	// SetAssessmentPassed stores the assessment outcome for a member,
	// creating the member if needed. A later call overwrites.
	SetAssessmentPassed(ctx context.Context, id model.MemberID, passed bool) error

	// AssessmentPassed reads the assessment flag. An unknown member
	// reads as false without error.
	AssessmentPassed(ctx context.Context, id model.MemberID) (bool, error)

	// CountHosted counts events where the member was host or cohost,
	// optionally restricted to a type set (nil or empty = all types).
	CountHosted(ctx context.Context, id model.MemberID, types []model.EventType) (int, error)

	// CountAttended counts attendance rows for the member, optionally
	// restricted to a type set (nil or empty = all types).
	CountAttended(ctx context.Context, id model.MemberID, types []model.EventType) (int, error)

	// CountDuelsWon counts duels the member won.
	CountDuelsWon(ctx context.Context, id model.MemberID) (int, error)

	// CountMembers returns the total number of member rows.
	CountMembers(ctx context.Context) (int, error)

	// Close releases the underlying store.
	Close() error
}

// dedupeAttendees builds the final attendee set for an event: host and
// cohost first, then the mentioned attendees, first occurrence wins.
func dedupeAttendees(host model.MemberID, cohost *model.MemberID, attendees []model.MemberID) []model.MemberID {
	out := make([]model.MemberID, 0, len(attendees)+2)
	seen := make(map[model.MemberID]struct{}, len(attendees)+2)
	add := func(id model.MemberID) {
		if _, dup := seen[id]; dup {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	add(host)
	if cohost != nil {
		add(*cohost)
	}
	for _, id := range attendees {
		add(id)
	}
	return out
}

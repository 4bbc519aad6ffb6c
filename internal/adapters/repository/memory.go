package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/velstra/garrison/internal/domain/model"
	"github.com/velstra/garrison/pkg/metrics"
)

// MemoryLedger implements Ledger in process memory with the same
// semantics as the Postgres ledger, including the attendance cascade.
// It backs tests and the simulator; a single mutex is enough since
// every logical write is one critical section.
type MemoryLedger struct {
	mu sync.Mutex

	members     map[model.MemberID]*model.Member
	events      map[int64]*model.Event
	duels       map[int64]*model.Duel
	nextEventID int64
	nextDuelID  int64
	closed      bool
}

// NewMemoryLedger creates an empty in-memory ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		members: make(map[model.MemberID]*model.Member),
		events:  make(map[int64]*model.Event),
		duels:   make(map[int64]*model.Duel),
	}
}

func (l *MemoryLedger) ensureMemberLocked(id model.MemberID) {
	if _, ok := l.members[id]; ok {
		return
	}
	l.members[id] = &model.Member{ID: id, CreatedAt: time.Now()}
}

// EnsureMember creates the member if absent; idempotent.
func (l *MemoryLedger) EnsureMember(_ context.Context, id model.MemberID) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrClosed
	}
	l.ensureMemberLocked(id)
	return nil
}

// RecordEvent creates the event and its attendance set atomically.
func (l *MemoryLedger) RecordEvent(_ context.Context, t model.EventType, host model.MemberID, cohost *model.MemberID, attendees []model.MemberID) (int64, error) {
	final := dedupeAttendees(host, cohost, attendees)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return 0, ErrClosed
	}

	for _, id := range final {
		l.ensureMemberLocked(id)
	}

	l.nextEventID++
	ev := &model.Event{
		ID:        l.nextEventID,
		Type:      t,
		HostID:    host,
		Attendees: final,
		CreatedAt: time.Now(),
	}
	if cohost != nil {
		c := *cohost
		ev.CohostID = &c
	}
	l.events[ev.ID] = ev
	metrics.RecordEventRecorded()
	return ev.ID, nil
}

// DeleteEvent removes the event and, with it, its attendance set.
func (l *MemoryLedger) DeleteEvent(_ context.Context, eventID int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrClosed
	}
	if _, ok := l.events[eventID]; !ok {
		return fmt.Errorf("delete event %d: %w", eventID, ErrNotFound)
	}
	delete(l.events, eventID)
	return nil
}

// RecordDuel rejects winner == loser before any state changes.
func (l *MemoryLedger) RecordDuel(_ context.Context, winner, loser model.MemberID) (int64, error) {
	if winner == loser {
		return 0, ErrInvalidDuel
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return 0, ErrClosed
	}

	l.ensureMemberLocked(winner)
	l.ensureMemberLocked(loser)

	l.nextDuelID++
	l.duels[l.nextDuelID] = &model.Duel{
		ID:        l.nextDuelID,
		WinnerID:  winner,
		LoserID:   loser,
		CreatedAt: time.Now(),
	}
	metrics.RecordDuelRecorded()
	return l.nextDuelID, nil
}

// SetAssessmentPassed overwrites the flag, creating the member if needed.
func (l *MemoryLedger) SetAssessmentPassed(_ context.Context, id model.MemberID, passed bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrClosed
	}
	l.ensureMemberLocked(id)
	l.members[id].AssessmentPassed = passed
	return nil
}

// AssessmentPassed reads the flag; unknown members read as false.
func (l *MemoryLedger) AssessmentPassed(_ context.Context, id model.MemberID) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return false, ErrClosed
	}
	m, ok := l.members[id]
	if !ok {
		return false, nil
	}
	return m.AssessmentPassed, nil
}

func inTypeSet(t model.EventType, types []model.EventType) bool {
	if len(types) == 0 {
		return true
	}
	for _, want := range types {
		if t == want {
			return true
		}
	}
	return false
}

// CountHosted counts events where the member was host or cohost.
func (l *MemoryLedger) CountHosted(_ context.Context, id model.MemberID, types []model.EventType) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return 0, ErrClosed
	}
	n := 0
	for _, ev := range l.events {
		if !inTypeSet(ev.Type, types) {
			continue
		}
		if ev.HostID == id || (ev.CohostID != nil && *ev.CohostID == id) {
			n++
		}
	}
	return n, nil
}

// CountAttended counts the member's attendance rows.
func (l *MemoryLedger) CountAttended(_ context.Context, id model.MemberID, types []model.EventType) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return 0, ErrClosed
	}
	n := 0
	for _, ev := range l.events {
		if !inTypeSet(ev.Type, types) {
			continue
		}
		for _, attendee := range ev.Attendees {
			if attendee == id {
				n++
				break
			}
		}
	}
	return n, nil
}

// CountDuelsWon counts duels the member won.
func (l *MemoryLedger) CountDuelsWon(_ context.Context, id model.MemberID) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return 0, ErrClosed
	}
	n := 0
	for _, d := range l.duels {
		if d.WinnerID == id {
			n++
		}
	}
	return n, nil
}

// CountMembers returns the total member count.
func (l *MemoryLedger) CountMembers(_ context.Context) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return 0, ErrClosed
	}
	return len(l.members), nil
}

// Event returns a copy of a stored event for inspection in tests.
func (l *MemoryLedger) Event(_ context.Context, eventID int64) (model.Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ev, ok := l.events[eventID]
	if !ok {
		return model.Event{}, fmt.Errorf("event %d: %w", eventID, ErrNotFound)
	}
	out := *ev
	out.Attendees = append([]model.MemberID(nil), ev.Attendees...)
	return out, nil
}

// Close marks the ledger closed; further operations fail with ErrClosed.
func (l *MemoryLedger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	return nil
}

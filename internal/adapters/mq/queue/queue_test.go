package queue

import (
	"context"
	"testing"
)

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}

	n1 := Notification{MemberID: "alice", Text: "your duel is on"}
	if !q.Enqueue(ctx, n1) {
		t.Error("expected enqueue to succeed")
	}

	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	out := q.Dequeue(ctx)
	got := <-out
	if got.MemberID != "alice" {
		t.Errorf("expected alice, got %v", got.MemberID)
	}
	if !got.Direct() {
		t.Error("expected a direct notification")
	}
}

func TestInMemoryQueue_DropsWhenFull(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if !q.Enqueue(ctx, Notification{ChannelID: "promotions", Text: "a"}) {
		t.Error("expected enqueue to succeed")
	}
	if !q.Enqueue(ctx, Notification{ChannelID: "promotions", Text: "b"}) {
		t.Error("expected enqueue to succeed")
	}

	// Best-effort: a full queue drops instead of blocking.
	if q.Enqueue(ctx, Notification{ChannelID: "promotions", Text: "c"}) {
		t.Error("expected enqueue to drop when full")
	}

	if l := q.Len(ctx); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}
}

func TestInMemoryQueue_Close(t *testing.T) {
	q := NewInMemoryQueue()
	ctx := context.Background()

	if q.IsClosed() {
		t.Error("expected queue to start open")
	}
	if err := q.Close(); err != nil {
		t.Errorf("close failed: %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to report closed")
	}
	if err := q.Close(); err != nil {
		t.Errorf("second close failed: %v", err)
	}

	if q.Enqueue(ctx, Notification{MemberID: "alice", Text: "late"}) {
		t.Error("expected enqueue to fail after close")
	}

	// Dequeue channel must drain and close.
	out := q.Dequeue(ctx)
	if _, ok := <-out; ok {
		t.Error("expected closed dequeue channel")
	}
}

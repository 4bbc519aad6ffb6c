package repository_test

import (
	"context"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/velstra/garrison/internal/adapters/repository"
	"github.com/velstra/garrison/internal/domain/model"
)

func TestEnsureMember(t *testing.T) {
	Convey("Given an empty ledger", t, func() {
		ctx := context.Background()
		ledger := repository.NewMemoryLedger()

		Convey("When ensuring the same member twice", func() {
			So(ledger.EnsureMember(ctx, "alice"), ShouldBeNil)
			So(ledger.EnsureMember(ctx, "alice"), ShouldBeNil)

			Convey("Then exactly one member row exists", func() {
				n, err := ledger.CountMembers(ctx)
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 1)
			})
		})
	})
}

func TestRecordEvent(t *testing.T) {
	Convey("Given an empty ledger", t, func() {
		ctx := context.Background()
		ledger := repository.NewMemoryLedger()
		cohost := model.MemberID("bob")

		Convey("When recording an event with duplicated attendees", func() {
			id, err := ledger.RecordEvent(ctx, model.EventRaid, "alice", &cohost,
				[]model.MemberID{"carol", "carol", "alice", "dave"})
			So(err, ShouldBeNil)
			So(id, ShouldBeGreaterThan, 0)

			Convey("Then the attendance set has no duplicates and includes host and cohost", func() {
				ev, err := ledger.Event(ctx, id)
				So(err, ShouldBeNil)
				So(ev.Attendees, ShouldResemble, []model.MemberID{"alice", "bob", "carol", "dave"})
			})

			Convey("Then every referenced member now exists", func() {
				n, err := ledger.CountMembers(ctx)
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 4)
			})
		})

		Convey("When recording an event whose attendees omit the host", func() {
			id, err := ledger.RecordEvent(ctx, model.EventTraining, "alice", nil,
				[]model.MemberID{"carol"})
			So(err, ShouldBeNil)

			ev, err := ledger.Event(ctx, id)
			So(err, ShouldBeNil)
			So(ev.Attendees, ShouldContain, model.MemberID("alice"))
		})

		Convey("When deleting an event", func() {
			id, err := ledger.RecordEvent(ctx, model.EventScrim, "alice", nil,
				[]model.MemberID{"carol"})
			So(err, ShouldBeNil)
			So(ledger.DeleteEvent(ctx, id), ShouldBeNil)

			Convey("Then its attendance no longer counts", func() {
				n, err := ledger.CountAttended(ctx, "carol", nil)
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 0)
			})

			Convey("Then deleting it again reports not found", func() {
				So(ledger.DeleteEvent(ctx, id), ShouldWrap, repository.ErrNotFound)
			})
		})
	})
}

func TestRecordDuel(t *testing.T) {
	Convey("Given an empty ledger", t, func() {
		ctx := context.Background()
		ledger := repository.NewMemoryLedger()

		Convey("When winner and loser are the same member", func() {
			_, err := ledger.RecordDuel(ctx, "alice", "alice")

			Convey("Then the write fails and no duel row is created", func() {
				So(err, ShouldWrap, repository.ErrInvalidDuel)
				n, err := ledger.CountDuelsWon(ctx, "alice")
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 0)
			})
		})

		Convey("When recording valid duels", func() {
			_, err := ledger.RecordDuel(ctx, "alice", "bob")
			So(err, ShouldBeNil)
			_, err = ledger.RecordDuel(ctx, "alice", "carol")
			So(err, ShouldBeNil)
			_, err = ledger.RecordDuel(ctx, "bob", "alice")
			So(err, ShouldBeNil)

			Convey("Then wins count only for the winner", func() {
				aliceWins, err := ledger.CountDuelsWon(ctx, "alice")
				So(err, ShouldBeNil)
				So(aliceWins, ShouldEqual, 2)

				carolWins, err := ledger.CountDuelsWon(ctx, "carol")
				So(err, ShouldBeNil)
				So(carolWins, ShouldEqual, 0)
			})
		})
	})
}

func TestAssessmentFlag(t *testing.T) {
	Convey("Given an empty ledger", t, func() {
		ctx := context.Background()
		ledger := repository.NewMemoryLedger()

		Convey("When reading an unknown member's flag", func() {
			passed, err := ledger.AssessmentPassed(ctx, "ghost")
			So(err, ShouldBeNil)
			So(passed, ShouldBeFalse)
		})

		Convey("When a later verdict contradicts an earlier one", func() {
			So(ledger.SetAssessmentPassed(ctx, "alice", true), ShouldBeNil)
			So(ledger.SetAssessmentPassed(ctx, "alice", false), ShouldBeNil)

			Convey("Then the last write wins", func() {
				passed, err := ledger.AssessmentPassed(ctx, "alice")
				So(err, ShouldBeNil)
				So(passed, ShouldBeFalse)
			})
		})
	})
}

func TestCounting(t *testing.T) {
	Convey("Given a ledger with mixed activity", t, func() {
		ctx := context.Background()
		ledger := repository.NewMemoryLedger()
		warfare := []model.EventType{model.EventRaid, model.EventDefense, model.EventScrim}

		cohost := model.MemberID("bob")
		_, err := ledger.RecordEvent(ctx, model.EventRaid, "alice", &cohost, []model.MemberID{"carol"})
		So(err, ShouldBeNil)
		_, err = ledger.RecordEvent(ctx, model.EventTraining, "bob", nil, []model.MemberID{"alice", "carol"})
		So(err, ShouldBeNil)
		_, err = ledger.RecordEvent(ctx, model.EventGamenight, "alice", nil, []model.MemberID{"bob"})
		So(err, ShouldBeNil)

		Convey("Then hosted counts include cohost roles", func() {
			n, err := ledger.CountHosted(ctx, "bob", nil)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 2) // cohosted the raid, hosted the training
		})

		Convey("Then hosted counts respect a type filter", func() {
			n, err := ledger.CountHosted(ctx, "bob", warfare)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 1)
		})

		Convey("Then attended counts cover all events the member appears in", func() {
			n, err := ledger.CountAttended(ctx, "alice", nil)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 3)

			n, err = ledger.CountAttended(ctx, "carol", warfare)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 1)
		})
	})
}

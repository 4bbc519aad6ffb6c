package stats_test

import (
	"context"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/velstra/garrison/internal/adapters/repository"
	"github.com/velstra/garrison/internal/domain/model"
	"github.com/velstra/garrison/internal/domain/stats"
)

func TestComputeStats(t *testing.T) {
	Convey("Given a ledger with recorded activity", t, func() {
		ctx := context.Background()
		ledger := repository.NewMemoryLedger()
		agg := stats.New(ledger)

		cohost := model.MemberID("bob")
		_, err := ledger.RecordEvent(ctx, model.EventRaid, "alice", &cohost, []model.MemberID{"carol"})
		So(err, ShouldBeNil)
		_, err = ledger.RecordEvent(ctx, model.EventScrim, "bob", nil, []model.MemberID{"alice"})
		So(err, ShouldBeNil)
		_, err = ledger.RecordEvent(ctx, model.EventTraining, "carol", nil, []model.MemberID{"alice", "bob"})
		So(err, ShouldBeNil)
		_, err = ledger.RecordDuel(ctx, "alice", "bob")
		So(err, ShouldBeNil)
		So(ledger.SetAssessmentPassed(ctx, "alice", true), ShouldBeNil)

		Convey("When computing stats for an active member", func() {
			got, err := agg.Compute(ctx, "alice")
			So(err, ShouldBeNil)

			Convey("Then the counters reflect the ledger", func() {
				So(got, ShouldResemble, model.Stats{
					TotalHosted:      1,
					WarfareHosted:    1,
					TotalAttended:    3,
					WarfareAttended:  2,
					TrainingAttended: 1,
					DuelsWon:         1,
					AssessmentPassed: true,
				})
			})
		})

		Convey("When computing stats for a cohost", func() {
			got, err := agg.Compute(ctx, "bob")
			So(err, ShouldBeNil)

			Convey("Then cohosting counts as hosting", func() {
				So(got.TotalHosted, ShouldEqual, 2)
				So(got.WarfareHosted, ShouldEqual, 2)
				So(got.DuelsWon, ShouldEqual, 0)
				So(got.AssessmentPassed, ShouldBeFalse)
			})
		})

		Convey("When computing stats for a never-seen member", func() {
			got, err := agg.Compute(ctx, "ghost")
			So(err, ShouldBeNil)

			Convey("Then all counters are zero", func() {
				So(got, ShouldResemble, model.Stats{})
			})

			Convey("Then the member now exists", func() {
				before, err := ledger.CountMembers(ctx)
				So(err, ShouldBeNil)

				_, err = agg.Compute(ctx, "ghost")
				So(err, ShouldBeNil)

				after, err := ledger.CountMembers(ctx)
				So(err, ShouldBeNil)
				So(after, ShouldEqual, before)
				So(after, ShouldEqual, 4) // alice, bob, carol, ghost
			})
		})

		Convey("When configuration narrows the warfare set", func() {
			narrow := stats.New(ledger, stats.WithWarfareTypes([]model.EventType{model.EventRaid}))
			got, err := narrow.Compute(ctx, "alice")
			So(err, ShouldBeNil)
			So(got.WarfareAttended, ShouldEqual, 1)
		})
	})
}

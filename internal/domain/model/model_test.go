package model_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/velstra/garrison/internal/domain/model"
)

func TestParseEventType(t *testing.T) {
	Convey("Given the default ordered event type list", t, func() {
		types := model.DefaultEventTypes()
		So(len(types), ShouldEqual, 7)

		Convey("When selecting by 1-based ordinal", func() {
			got, ok := model.ParseEventType("2", types)
			So(ok, ShouldBeTrue)
			So(got, ShouldEqual, model.EventDefense)
		})

		Convey("When selecting the first and last ordinals", func() {
			first, ok := model.ParseEventType("1", types)
			So(ok, ShouldBeTrue)
			So(first, ShouldEqual, model.EventRaid)

			last, ok := model.ParseEventType("7", types)
			So(ok, ShouldBeTrue)
			So(last, ShouldEqual, model.EventOther)
		})

		Convey("When selecting by name, case-insensitively", func() {
			got, ok := model.ParseEventType("Scrim", types)
			So(ok, ShouldBeTrue)
			So(got, ShouldEqual, model.EventScrim)

			got, ok = model.ParseEventType("  TRAINING  ", types)
			So(ok, ShouldBeTrue)
			So(got, ShouldEqual, model.EventTraining)
		})

		Convey("When input is out of range or unknown", func() {
			_, ok := model.ParseEventType("0", types)
			So(ok, ShouldBeFalse)

			_, ok = model.ParseEventType("8", types)
			So(ok, ShouldBeFalse)

			_, ok = model.ParseEventType("picnic", types)
			So(ok, ShouldBeFalse)

			_, ok = model.ParseEventType("", types)
			So(ok, ShouldBeFalse)
		})

		Convey("When the configured list is shorter", func() {
			short := []model.EventType{model.EventRaid, model.EventTraining}

			got, ok := model.ParseEventType("2", short)
			So(ok, ShouldBeTrue)
			So(got, ShouldEqual, model.EventTraining)

			_, ok = model.ParseEventType("3", short)
			So(ok, ShouldBeFalse)
		})
	})
}

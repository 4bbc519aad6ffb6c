package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsOptions(t *testing.T) {
	Convey("Given metrics options", t, func() {
		Convey("When creating options", func() {
			namespaceOpt := WithNamespace("test-namespace")
			subsystemOpt := WithSubsystem("test-subsystem")
			histogramBucketsOpt := WithHistogramBuckets([]float64{0.1, 0.5, 1.0})
			metricsEnabledOpt := WithMetricsEnabled(true)
			refreshIntervalOpt := WithRefreshInterval(5 * time.Second)
			customLabelsOpt := WithCustomLabels(map[string]string{"env": "test"})

			Convey("Then they should be valid functions", func() {
				So(namespaceOpt, ShouldNotBeNil)
				So(subsystemOpt, ShouldNotBeNil)
				So(histogramBucketsOpt, ShouldNotBeNil)
				So(metricsEnabledOpt, ShouldNotBeNil)
				So(refreshIntervalOpt, ShouldNotBeNil)
				So(customLabelsOpt, ShouldNotBeNil)
			})
		})
	})
}

func TestManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "garrison")
				So(manager.subsystem, ShouldEqual, "core")
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test-namespace"),
				WithSubsystem("test-subsystem"),
				WithPrometheusRegistry(registry),
			)

			Convey("Then options should be applied", func() {
				So(manager.namespace, ShouldEqual, "test-namespace")
				So(manager.subsystem, ShouldEqual, "test-subsystem")
			})
		})
	})
}

func TestGlobalHelpers(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording workflow metrics", func() {
			So(func() {
				RecordSessionStarted("event_wizard")
				RecordSessionCompleted("event_wizard")
				RecordSessionTimedOut("duel_challenge")
				RecordSessionDenied("assessment")
				UpdateActiveSessions(3)
				RecordStepWaitDuration(120.0)
			}, ShouldNotPanic)
		})

		Convey("When recording ledger and review metrics", func() {
			So(func() {
				RecordEventRecorded()
				RecordDuelRecorded()
				RecordLedgerError()
				UpdateTotalMembers(42)
				RecordReviewResolved("passed")
				RecordReviewRejected()
				RecordPromotionAnnounced()
				RecordPromotionEvaluation()
			}, ShouldNotPanic)
		})

		Convey("When recording notification metrics", func() {
			So(func() {
				UpdateNotifyQueueSize(5)
				UpdateNotifyQueueCapacity(1000)
				RecordNotifySent()
				RecordNotifyError()
				RecordNotifyDropped()
				UpdateNotifyWorkerCount(4)
			}, ShouldNotPanic)
		})

		Convey("When fetching the registry", func() {
			So(GetRegistry(), ShouldNotBeNil)
		})
	})
}

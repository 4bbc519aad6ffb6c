package service_test

import (
	"context"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/velstra/garrison/internal/adapters/chat"
	"github.com/velstra/garrison/internal/adapters/chat/chattest"
	"github.com/velstra/garrison/internal/adapters/repository"
	service "github.com/velstra/garrison/internal/app"
	"github.com/velstra/garrison/internal/config"
	"github.com/velstra/garrison/internal/domain/model"
	"github.com/velstra/garrison/pkg/logger"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

func testConfig() *config.Config {
	cfg := config.New()
	cfg.NotifyWorkerCount = 2
	cfg.NotifyQueueSize = 64
	cfg.AssessmentQuestions = []string{"First question?", "Second question?"}
	return cfg
}

func waitForSessions(svc *service.Service, n int) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if waiting, ok := svc.GetStats()["waitingSessions"].(int); ok && waiting >= n {
			return true
		}
		time.Sleep(time.Millisecond)
	}
	return false
}

func waitForMessage(gw *chattest.Gateway, ch chat.ChannelID, n int) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(gw.MessagesTo(ch)) >= n {
			return true
		}
		time.Sleep(time.Millisecond)
	}
	return false
}

func TestServiceLifecycle(t *testing.T) {
	Convey("Given a configured service", t, func() {
		ctx := context.Background()
		gw := chattest.NewGateway()
		svc := service.New(testConfig(),
			service.WithGateway(gw),
			service.WithLedger(repository.NewMemoryLedger()),
		)

		Convey("When started twice and stopped", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)

			st := svc.GetStats()
			So(st["started"], ShouldBeTrue)
			So(st["waitingSessions"], ShouldEqual, 0)
			So(st["totalMembers"], ShouldEqual, 0)

			svc.Stop()
			So(svc.GetStats()["started"], ShouldBeFalse)
		})

		Convey("When no gateway is wired", func() {
			bare := service.New(testConfig())
			So(bare.Start(ctx), ShouldNotBeNil)
		})
	})
}

func TestServiceEventWizard(t *testing.T) {
	Convey("Given a running service and an officer", t, func() {
		ctx := context.Background()
		gw := chattest.NewGateway()
		gw.SetRoles("olive", "Officer")
		ledger := repository.NewMemoryLedger()
		svc := service.New(testConfig(),
			service.WithGateway(gw),
			service.WithLedger(ledger),
		)
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When the wizard conversation runs through the service", func() {
			done := make(chan error, 1)
			go func() { done <- svc.LogEvent(ctx, "olive", "ops") }()

			say := func(content string, mentions ...model.MemberID) {
				So(waitForSessions(svc, 1), ShouldBeTrue)
				So(svc.HandleMessage(chat.Message{
					ChannelID: "ops", AuthorID: "olive", Content: content, Mentions: mentions,
				}), ShouldBeTrue)
			}

			say("training")
			say("none")
			say("attendees", "bob", "carol")
			say("done")

			So(<-done, ShouldBeNil)

			Convey("Then the event lands in the ledger", func() {
				n, err := ledger.CountAttended(ctx, "bob", []model.EventType{model.EventTraining})
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 1)
			})
		})

		Convey("When a stray message arrives with no session waiting", func() {
			So(svc.HandleMessage(chat.Message{
				ChannelID: "ops", AuthorID: "olive", Content: "hello",
			}), ShouldBeFalse)
		})
	})
}

func TestServiceAssessmentRoundTrip(t *testing.T) {
	Convey("Given a running service, a candidate, and a reviewer", t, func() {
		ctx := context.Background()
		gw := chattest.NewGateway()
		gw.SetRoles("mia", "Minor I")
		gw.SetRoles("ruth", "High Command")
		ledger := repository.NewMemoryLedger()
		svc := service.New(testConfig(),
			service.WithGateway(gw),
			service.WithLedger(ledger),
		)
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		dm := chattest.DMChannel("mia")

		Convey("When the full assessment and review play out", func() {
			done := make(chan error, 1)
			go func() { done <- svc.StartAssessment(ctx, "mia", "hall") }()

			answer := func(text string) {
				So(waitForSessions(svc, 1), ShouldBeTrue)
				So(svc.HandleMessage(chat.Message{
					ChannelID: dm, AuthorID: "mia", Content: text,
				}), ShouldBeTrue)

				So(waitForSessions(svc, 1), ShouldBeTrue)
				confirm, ok := gw.LastMessageTo(dm)
				So(ok, ShouldBeTrue)
				So(svc.HandleReaction(ctx, chat.Reaction{
					MessageID: confirm.ID, ChannelID: dm, ActorID: "mia", Symbol: chat.SymbolApprove,
				}), ShouldBeTrue)
			}

			answer("Answer one")
			answer("Answer two")
			So(<-done, ShouldBeNil)
			So(gw.Reviews, ShouldHaveLength, 1)
			artifact := gw.Reviews[0].ID

			// The reviewer's verdict is not claimed by any session, so
			// it falls through to the review gate.
			So(svc.HandleReaction(ctx, chat.Reaction{
				MessageID: artifact,
				ChannelID: chat.ChannelID(testConfig().ReviewChannelID),
				ActorID:   "ruth",
				Symbol:    chat.SymbolApprove,
			}), ShouldBeTrue)

			Convey("Then the outcome is durable and the member is told", func() {
				passed, err := ledger.AssessmentPassed(ctx, "mia")
				So(err, ShouldBeNil)
				So(passed, ShouldBeTrue)

				// Verdict DM goes through the notify pipeline.
				So(waitForMessage(gw, dm, 1), ShouldBeTrue)
			})
		})
	})
}

func TestServiceProgress(t *testing.T) {
	Convey("Given a member who has met every Minor I requirement", t, func() {
		ctx := context.Background()
		gw := chattest.NewGateway()
		gw.SetRoles("mia", "Minor I")
		ledger := repository.NewMemoryLedger()
		cfg := testConfig()
		svc := service.New(cfg,
			service.WithGateway(gw),
			service.WithLedger(ledger),
		)
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		// Seven attended events: three warfare, two training, two social.
		for _, et := range []model.EventType{
			model.EventRaid, model.EventDefense, model.EventScrim,
			model.EventTraining, model.EventTraining,
			model.EventGamenight, model.EventOther,
		} {
			_, err := ledger.RecordEvent(ctx, et, "host", nil, []model.MemberID{"mia"})
			So(err, ShouldBeNil)
		}
		for i := 0; i < 2; i++ {
			_, err := ledger.RecordDuel(ctx, "mia", "sparring-partner")
			So(err, ShouldBeNil)
		}
		So(ledger.SetAssessmentPassed(ctx, "mia", true), ShouldBeNil)

		Convey("When progress is requested", func() {
			So(svc.Progress(ctx, "mia", "hall"), ShouldBeNil)

			Convey("Then the report and the announcement both land", func() {
				report, ok := gw.LastMessageTo("hall")
				So(ok, ShouldBeTrue)
				So(report.Text, ShouldContainSubstring, "Promotion ready")
				So(report.Text, ShouldContainSubstring, "events_attended: 7/7")

				So(waitForMessage(gw, chat.ChannelID(cfg.AnnounceChannelID), 1), ShouldBeTrue)
				ann, _ := gw.LastMessageTo(chat.ChannelID(cfg.AnnounceChannelID))
				So(ann.Text, ShouldContainSubstring, "Major III")
			})
		})

		Convey("When an unranked member asks for progress", func() {
			So(svc.Progress(ctx, "nobody", "hall"), ShouldBeNil)

			report, ok := gw.LastMessageTo("hall")
			So(ok, ShouldBeTrue)
			So(report.Text, ShouldContainSubstring, "Unranked")
			So(len(gw.MessagesTo(chat.ChannelID(cfg.AnnounceChannelID))), ShouldEqual, 0)
		})
	})
}

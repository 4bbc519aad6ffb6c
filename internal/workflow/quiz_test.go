package workflow_test

import (
	"context"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/velstra/garrison/internal/adapters/chat"
	"github.com/velstra/garrison/internal/adapters/chat/chattest"
	"github.com/velstra/garrison/internal/adapters/repository"
	"github.com/velstra/garrison/internal/domain/model"
	"github.com/velstra/garrison/internal/workflow"
)

type recordingRegistry struct {
	mu      sync.Mutex
	entries map[chat.MessageID]model.MemberID
}

func newRecordingRegistry() *recordingRegistry {
	return &recordingRegistry{entries: make(map[chat.MessageID]model.MemberID)}
}

func (r *recordingRegistry) Register(msg chat.MessageID, member model.MemberID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[msg] = member
}

func (r *recordingRegistry) lookup(msg chat.MessageID) (model.MemberID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.entries[msg]
	return m, ok
}

// confirmPromptID returns the id of the latest message in the DM,
// which after an answer is always the confirmation prompt.
func confirmPromptID(gw *chattest.Gateway, dm chat.ChannelID) chat.MessageID {
	got, ok := gw.LastMessageTo(dm)
	if !ok {
		return ""
	}
	return got.ID
}

func react(d *chat.Dispatcher, actor model.MemberID, dm chat.ChannelID, msg chat.MessageID, symbol string) bool {
	return d.DispatchReaction(chat.Reaction{
		MessageID: msg,
		ChannelID: dm,
		ActorID:   actor,
		Symbol:    symbol,
	})
}

func TestStartAssessment(t *testing.T) {
	Convey("Given an eligible member starting the assessment", t, func() {
		ctx := context.Background()
		gw := chattest.NewGateway()
		gw.SetRoles("mia", "Minor I")
		d := chat.NewDispatcher()
		ledger := repository.NewMemoryLedger()
		registry := newRecordingRegistry()
		e := newTestEngine(gw, d, ledger, workflow.WithReviewRegistry(registry))
		dm := chattest.DMChannel("mia")

		Convey("When every answer is confirmed", func() {
			done := make(chan error, 1)
			go func() { done <- e.StartAssessment(ctx, "mia", "hall") }()

			// Question 1.
			So(waitForWaiting(d, 1), ShouldBeTrue)
			So(reply(d, "mia", dm, "Answer one"), ShouldBeTrue)
			So(waitForWaiting(d, 1), ShouldBeTrue)
			So(react(d, "mia", dm, confirmPromptID(gw, dm), chat.SymbolApprove), ShouldBeTrue)

			// Question 2.
			So(waitForWaiting(d, 1), ShouldBeTrue)
			So(reply(d, "mia", dm, "Answer two"), ShouldBeTrue)
			So(waitForWaiting(d, 1), ShouldBeTrue)
			So(react(d, "mia", dm, confirmPromptID(gw, dm), chat.SymbolApprove), ShouldBeTrue)

			So(<-done, ShouldBeNil)

			Convey("Then one artifact reaches the review surface", func() {
				So(gw.Reviews, ShouldHaveLength, 1)
				posted := gw.Reviews[0]
				So(posted.Channel, ShouldEqual, chat.ChannelID("review"))
				So(posted.Submission.MemberID, ShouldEqual, model.MemberID("mia"))
				So(posted.Submission.Answers, ShouldResemble, []model.Answer{
					{Question: "First question?", Answer: "Answer one"},
					{Question: "Second question?", Answer: "Answer two"},
				})

				member, ok := registry.lookup(posted.ID)
				So(ok, ShouldBeTrue)
				So(member, ShouldEqual, model.MemberID("mia"))
			})
		})

		Convey("When an answer is rejected at confirmation", func() {
			done := make(chan error, 1)
			go func() { done <- e.StartAssessment(ctx, "mia", "hall") }()

			So(waitForWaiting(d, 1), ShouldBeTrue)
			So(reply(d, "mia", dm, "First try"), ShouldBeTrue)
			So(waitForWaiting(d, 1), ShouldBeTrue)
			So(react(d, "mia", dm, confirmPromptID(gw, dm), chat.SymbolReject), ShouldBeTrue)

			// Same question again; the first try must not be kept.
			So(waitForWaiting(d, 1), ShouldBeTrue)
			So(reply(d, "mia", dm, "Second try"), ShouldBeTrue)
			So(waitForWaiting(d, 1), ShouldBeTrue)
			So(react(d, "mia", dm, confirmPromptID(gw, dm), chat.SymbolApprove), ShouldBeTrue)

			So(waitForWaiting(d, 1), ShouldBeTrue)
			So(reply(d, "mia", dm, "Answer two"), ShouldBeTrue)
			So(waitForWaiting(d, 1), ShouldBeTrue)
			So(react(d, "mia", dm, confirmPromptID(gw, dm), chat.SymbolApprove), ShouldBeTrue)

			So(<-done, ShouldBeNil)

			So(gw.Reviews, ShouldHaveLength, 1)
			So(gw.Reviews[0].Submission.Answers[0].Answer, ShouldEqual, "Second try")
			So(gw.Reviews[0].Submission.Answers, ShouldHaveLength, 2)
		})

		Convey("When a confirmation never arrives", func() {
			fast := newTestEngine(gw, d, ledger,
				workflow.WithTimeouts(time.Second, time.Second, time.Second, time.Second, 30*time.Millisecond))

			done := make(chan error, 1)
			go func() { done <- fast.StartAssessment(ctx, "mia", "hall") }()

			So(waitForWaiting(d, 1), ShouldBeTrue)
			So(reply(d, "mia", dm, "Answer one"), ShouldBeTrue)

			Convey("Then the whole flow ends with no partial submission", func() {
				So(<-done, ShouldEqual, workflow.ErrTimedOut)
				So(gw.Reviews, ShouldBeEmpty)
			})
		})

		Convey("When the DM channel cannot be opened", func() {
			gw.FailDM("mia")

			err := e.StartAssessment(ctx, "mia", "hall")

			Convey("Then the member is told in the origin channel", func() {
				So(err, ShouldWrap, workflow.ErrSurfaceUnavailable)
				got, ok := gw.LastMessageTo("hall")
				So(ok, ShouldBeTrue)
				So(got.Text, ShouldContainSubstring, "direct")
			})
		})

		Convey("When the review surface is down at submission time", func() {
			gw.FailChannel("review")

			done := make(chan error, 1)
			go func() { done <- e.StartAssessment(ctx, "mia", "hall") }()

			So(waitForWaiting(d, 1), ShouldBeTrue)
			So(reply(d, "mia", dm, "Answer one"), ShouldBeTrue)
			So(waitForWaiting(d, 1), ShouldBeTrue)
			So(react(d, "mia", dm, confirmPromptID(gw, dm), chat.SymbolApprove), ShouldBeTrue)
			So(waitForWaiting(d, 1), ShouldBeTrue)
			So(reply(d, "mia", dm, "Answer two"), ShouldBeTrue)
			So(waitForWaiting(d, 1), ShouldBeTrue)
			So(react(d, "mia", dm, confirmPromptID(gw, dm), chat.SymbolApprove), ShouldBeTrue)

			Convey("Then the member is told instead of silently dropping it", func() {
				So(<-done, ShouldWrap, workflow.ErrSurfaceUnavailable)
				got, ok := gw.LastMessageTo(dm)
				So(ok, ShouldBeTrue)
				So(got.Text, ShouldContainSubstring, "administrator")
			})
		})
	})
}

func TestStartAssessmentEligibility(t *testing.T) {
	Convey("Given a member without the pre-assessment rank", t, func() {
		ctx := context.Background()
		gw := chattest.NewGateway()
		gw.SetRoles("bob", "Major III")
		d := chat.NewDispatcher()
		e := newTestEngine(gw, d, repository.NewMemoryLedger())

		err := e.StartAssessment(ctx, "bob", "hall")

		Convey("Then the flow denies before opening a DM", func() {
			So(err, ShouldEqual, workflow.ErrDenied)
			_, ok := gw.LastMessageTo(chattest.DMChannel("bob"))
			So(ok, ShouldBeFalse)
		})
	})
}

package chat_test

import (
	"context"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/velstra/garrison/internal/adapters/chat"
)

func fromAuthorInChannel(author, channel string) chat.MessagePredicate {
	return func(m chat.Message) bool {
		return string(m.AuthorID) == author && string(m.ChannelID) == channel
	}
}

func TestAwaitMessage(t *testing.T) {
	Convey("Given a dispatcher with one suspended awaiter", t, func() {
		ctx := context.Background()
		d := chat.NewDispatcher()

		Convey("When a qualifying message arrives", func() {
			got := make(chan chat.Message, 1)
			errs := make(chan error, 1)
			go func() {
				m, err := d.AwaitMessage(ctx, fromAuthorInChannel("alice", "general"), time.Second)
				got <- m
				errs <- err
			}()

			// Wait for the awaiter to register before dispatching.
			So(waitForWaiting(d, 1), ShouldBeTrue)

			consumed := d.DispatchMessage(chat.Message{
				ChannelID: "general",
				AuthorID:  "alice",
				Content:   "2",
			})

			Convey("Then it is consumed and delivered", func() {
				So(consumed, ShouldBeTrue)
				So((<-got).Content, ShouldEqual, "2")
				So(<-errs, ShouldBeNil)
			})
		})

		Convey("When a non-qualifying message arrives", func() {
			errs := make(chan error, 1)
			go func() {
				_, err := d.AwaitMessage(ctx, fromAuthorInChannel("alice", "general"), 80*time.Millisecond)
				errs <- err
			}()
			So(waitForWaiting(d, 1), ShouldBeTrue)

			consumed := d.DispatchMessage(chat.Message{
				ChannelID: "general",
				AuthorID:  "mallory",
				Content:   "yes",
			})

			Convey("Then it is ignored, not consumed, and the awaiter times out", func() {
				So(consumed, ShouldBeFalse)
				So(<-errs, ShouldWrap, chat.ErrAwaitTimeout)
			})
		})

		Convey("When no awaiter exists at all", func() {
			consumed := d.DispatchMessage(chat.Message{ChannelID: "general", AuthorID: "alice"})

			Convey("Then the event is dropped, not buffered", func() {
				So(consumed, ShouldBeFalse)

				errs := make(chan error, 1)
				go func() {
					_, err := d.AwaitMessage(ctx, fromAuthorInChannel("alice", "general"), 80*time.Millisecond)
					errs <- err
				}()
				So(<-errs, ShouldWrap, chat.ErrAwaitTimeout)
			})
		})

		Convey("When the context is canceled while suspended", func() {
			cctx, cancel := context.WithCancel(ctx)
			errs := make(chan error, 1)
			go func() {
				_, err := d.AwaitMessage(cctx, fromAuthorInChannel("alice", "general"), time.Minute)
				errs <- err
			}()
			So(waitForWaiting(d, 1), ShouldBeTrue)
			cancel()

			So(<-errs, ShouldWrap, context.Canceled)
		})
	})
}

func TestAwaitReaction(t *testing.T) {
	Convey("Given a dispatcher awaiting a reaction on one message", t, func() {
		ctx := context.Background()
		d := chat.NewDispatcher()

		pred := func(r chat.Reaction) bool {
			return r.MessageID == "msg-7" && r.ActorID == "alice" &&
				(r.Symbol == chat.SymbolApprove || r.Symbol == chat.SymbolReject)
		}

		got := make(chan chat.Reaction, 1)
		go func() {
			r, _ := d.AwaitReaction(ctx, pred, time.Second)
			got <- r
		}()
		So(waitForWaiting(d, 1), ShouldBeTrue)

		Convey("When reactions from other actors or messages arrive first", func() {
			So(d.DispatchReaction(chat.Reaction{MessageID: "msg-7", ActorID: "bob", Symbol: chat.SymbolApprove}), ShouldBeFalse)
			So(d.DispatchReaction(chat.Reaction{MessageID: "msg-8", ActorID: "alice", Symbol: chat.SymbolApprove}), ShouldBeFalse)

			Convey("And the qualifying reaction is still delivered", func() {
				So(d.DispatchReaction(chat.Reaction{MessageID: "msg-7", ActorID: "alice", Symbol: chat.SymbolReject}), ShouldBeTrue)
				So((<-got).Symbol, ShouldEqual, chat.SymbolReject)
			})
		})
	})
}

func TestDispatchDeliversToEarliestMatch(t *testing.T) {
	Convey("Given two awaiters whose predicates both match", t, func() {
		ctx := context.Background()
		d := chat.NewDispatcher()

		first := make(chan chat.Message, 1)
		second := make(chan chat.Message, 1)
		go func() {
			m, _ := d.AwaitMessage(ctx, func(chat.Message) bool { return true }, time.Second)
			first <- m
		}()
		So(waitForWaiting(d, 1), ShouldBeTrue)
		go func() {
			m, _ := d.AwaitMessage(ctx, func(chat.Message) bool { return true }, time.Second)
			second <- m
		}()
		So(waitForWaiting(d, 2), ShouldBeTrue)

		Convey("When one message is dispatched", func() {
			So(d.DispatchMessage(chat.Message{Content: "hello"}), ShouldBeTrue)

			Convey("Then only the earliest registered awaiter receives it", func() {
				So((<-first).Content, ShouldEqual, "hello")
				select {
				case <-second:
					So(true, ShouldBeFalse) // second awaiter must still be suspended
				case <-time.After(50 * time.Millisecond):
				}
			})
		})
	})
}

func TestConsumedMessageSurvivesTimeout(t *testing.T) {
	Convey("Given an awaiter whose timer races an inbound dispatch", t, func() {
		ctx := context.Background()
		d := chat.NewDispatcher()

		got := make(chan chat.Message, 1)
		errs := make(chan error, 1)
		done := make(chan struct{})
		go func() {
			m, err := d.AwaitMessage(ctx, fromAuthorInChannel("alice", "general"), time.Nanosecond)
			got <- m
			errs <- err
			close(done)
		}()

		msg := chat.Message{ChannelID: "general", AuthorID: "alice", Content: "after the bell"}
		consumed := false
		for !consumed {
			select {
			case <-done:
			default:
				consumed = d.DispatchMessage(msg)
				continue
			}
			break
		}

		Convey("Then a dispatch reported consumed is always delivered", func() {
			m, err := <-got, <-errs
			if consumed {
				So(err, ShouldBeNil)
				So(m.Content, ShouldEqual, "after the bell")
			} else {
				So(err, ShouldEqual, chat.ErrAwaitTimeout)
			}
		})
	})
}

// waitForWaiting polls until the dispatcher reports n suspended awaiters.
func waitForWaiting(d *chat.Dispatcher, n int) bool {
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if d.Waiting() >= n {
			return true
		}
		time.Sleep(time.Millisecond)
	}
	return false
}

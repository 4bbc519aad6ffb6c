package sim

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/velstra/garrison/internal/adapters/chat"
	"github.com/velstra/garrison/internal/adapters/chat/chattest"
	service "github.com/velstra/garrison/internal/app"
	"github.com/velstra/garrison/internal/domain/model"
)

const sessionPollDeadline = 5 * time.Second

// driver plays the member side of a conversation against a running
// service, feeding scripted messages and reactions to whatever
// session is currently suspended.
type driver struct {
	svc *service.Service
	gw  *chattest.Gateway
}

// waitSession polls until a session is suspended on the dispatcher.
func (d *driver) waitSession() error {
	deadline := time.Now().Add(sessionPollDeadline)
	for time.Now().Before(deadline) {
		if waiting, ok := d.svc.GetStats()["waitingSessions"].(int); ok && waiting >= 1 {
			return nil
		}
		time.Sleep(time.Millisecond)
	}
	return fmt.Errorf("no session suspended within %s", sessionPollDeadline)
}

// message waits for a suspended session and feeds it a reply.
func (d *driver) message(ch chat.ChannelID, author model.MemberID, content string, mentions ...model.MemberID) error {
	if err := d.waitSession(); err != nil {
		return err
	}
	if !d.svc.HandleMessage(chat.Message{
		ChannelID: ch,
		AuthorID:  author,
		Content:   content,
		Mentions:  mentions,
	}) {
		return fmt.Errorf("message %q in %s was not claimed", content, ch)
	}
	return nil
}

// react waits for a suspended session and feeds it a reaction on the
// latest confirmation prompt in the channel. Matching on the prompt
// text keeps the script immune to notification DMs landing in the
// same channel in between.
func (d *driver) react(ctx context.Context, ch chat.ChannelID, actor model.MemberID, symbol string) error {
	if err := d.waitSession(); err != nil {
		return err
	}
	var target chattest.Sent
	found := false
	for _, sent := range d.gw.MessagesTo(ch) {
		if strings.Contains(sent.Text, "React with") {
			target = sent
			found = true
		}
	}
	if !found {
		return fmt.Errorf("no confirmation prompt to react to in %s", ch)
	}
	if !d.svc.HandleReaction(ctx, chat.Reaction{
		MessageID: target.ID,
		ChannelID: ch,
		ActorID:   actor,
		Symbol:    symbol,
	}) {
		return fmt.Errorf("reaction %s in %s was not claimed", symbol, ch)
	}
	return nil
}

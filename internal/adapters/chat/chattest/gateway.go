// Package chattest provides a scripted in-memory Gateway for tests
// and the simulator.
package chattest

import (
	"context"
	"fmt"
	"sync"

	"github.com/velstra/garrison/internal/adapters/chat"
	"github.com/velstra/garrison/internal/domain/model"
)

// Sent captures one outbound message.
type Sent struct {
	Channel chat.ChannelID
	ID      chat.MessageID
	Text    string
}

// PostedReview captures one review artifact posting.
type PostedReview struct {
	Channel    chat.ChannelID
	ID         chat.MessageID
	Submission model.Submission
}

// AddedReaction captures a bot-added reaction.
type AddedReaction struct {
	Channel chat.ChannelID
	Message chat.MessageID
	Symbol  string
}

// RemovedReaction captures a retracted reaction.
type RemovedReaction struct {
	Channel chat.ChannelID
	Message chat.MessageID
	Symbol  string
	Actor   model.MemberID
}

// Gateway is an in-memory chat.Gateway that records everything sent
// through it. Failure modes are opt-in per channel or member so tests
// can exercise best-effort delivery paths.
type Gateway struct {
	mu sync.Mutex

	SentMessages []Sent
	Reviews      []PostedReview
	Reactions    []AddedReaction
	Removals     []RemovedReaction

	roles     map[model.MemberID][]string
	automated map[model.MemberID]bool
	dmFail    map[model.MemberID]bool
	sendFail  map[chat.ChannelID]bool

	nextID int
}

// NewGateway creates an empty scripted gateway.
func NewGateway() *Gateway {
	return &Gateway{
		roles:     make(map[model.MemberID][]string),
		automated: make(map[model.MemberID]bool),
		dmFail:    make(map[model.MemberID]bool),
		sendFail:  make(map[chat.ChannelID]bool),
	}
}

// SetRoles scripts a member's role labels.
func (g *Gateway) SetRoles(id model.MemberID, roles ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.roles[id] = roles
}

// SetAutomated marks a member as an automated account.
func (g *Gateway) SetAutomated(id model.MemberID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.automated[id] = true
}

// FailDM makes OpenDM fail for a member.
func (g *Gateway) FailDM(id model.MemberID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.dmFail[id] = true
}

// FailChannel makes Send fail for a channel.
func (g *Gateway) FailChannel(ch chat.ChannelID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sendFail[ch] = true
}

// DMChannel returns the channel id OpenDM yields for a member.
func DMChannel(id model.MemberID) chat.ChannelID {
	return chat.ChannelID("dm:" + string(id))
}

func (g *Gateway) nextMessageID() chat.MessageID {
	g.nextID++
	return chat.MessageID(fmt.Sprintf("msg-%d", g.nextID))
}

// Send records the message and returns a generated id.
func (g *Gateway) Send(_ context.Context, ch chat.ChannelID, text string) (chat.MessageID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.sendFail[ch] {
		return "", fmt.Errorf("send to %s: %w", ch, chat.ErrUnavailable)
	}
	id := g.nextMessageID()
	g.SentMessages = append(g.SentMessages, Sent{Channel: ch, ID: id, Text: text})
	return id, nil
}

// OpenDM returns the member's scripted DM channel.
func (g *Gateway) OpenDM(_ context.Context, id model.MemberID) (chat.ChannelID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.dmFail[id] {
		return "", fmt.Errorf("open dm with %s: %w", id, chat.ErrUnavailable)
	}
	return DMChannel(id), nil
}

// React records a bot-added reaction.
func (g *Gateway) React(_ context.Context, ch chat.ChannelID, msg chat.MessageID, symbol string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Reactions = append(g.Reactions, AddedReaction{Channel: ch, Message: msg, Symbol: symbol})
	return nil
}

// RemoveReaction records a retraction.
func (g *Gateway) RemoveReaction(_ context.Context, ch chat.ChannelID, msg chat.MessageID, symbol string, actor model.MemberID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Removals = append(g.Removals, RemovedReaction{Channel: ch, Message: msg, Symbol: symbol, Actor: actor})
	return nil
}

// RoleLabels returns the scripted role labels.
func (g *Gateway) RoleLabels(_ context.Context, id model.MemberID) ([]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.roles[id], nil
}

// IsAutomated reports the scripted automation flag.
func (g *Gateway) IsAutomated(_ context.Context, id model.MemberID) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.automated[id], nil
}

// PostReview records the artifact and returns its message id.
func (g *Gateway) PostReview(_ context.Context, ch chat.ChannelID, sub model.Submission) (chat.MessageID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.sendFail[ch] {
		return "", fmt.Errorf("post review to %s: %w", ch, chat.ErrUnavailable)
	}
	id := g.nextMessageID()
	g.Reviews = append(g.Reviews, PostedReview{Channel: ch, ID: id, Submission: sub})
	return id, nil
}

// MessagesTo returns every message sent to a channel, in order.
func (g *Gateway) MessagesTo(ch chat.ChannelID) []Sent {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []Sent
	for _, s := range g.SentMessages {
		if s.Channel == ch {
			out = append(out, s)
		}
	}
	return out
}

// LastMessageTo returns the most recent message sent to a channel.
func (g *Gateway) LastMessageTo(ch chat.ChannelID) (Sent, bool) {
	msgs := g.MessagesTo(ch)
	if len(msgs) == 0 {
		return Sent{}, false
	}
	return msgs[len(msgs)-1], true
}

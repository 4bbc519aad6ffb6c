// Package chat defines the port to the external chat transport and
// the dispatcher that feeds inbound events to suspended workflow
// sessions.
//
// The transport itself (delivery, rendering, session bootstrap) is an
// external collaborator; everything the engines need from it is
// expressed by the Gateway interface.
package chat

import (
	"context"

	"github.com/velstra/garrison/internal/domain/model"
)

// ChannelID identifies a conversation context on the transport.
type ChannelID string

// MessageID identifies a previously sent message on the transport.
type MessageID string

// Reaction symbols used for confirmations and verdicts.
const (
	SymbolApprove = "✅"
	SymbolReject  = "❌"
)

// Message is an inbound chat message event.
type Message struct {
	ID        MessageID
	ChannelID ChannelID
	AuthorID  model.MemberID
	Content   string
	// Mentions are the member references the transport extracted from
	// the message body, in order of appearance.
	Mentions []model.MemberID
}

// Reaction is an inbound reaction event scoped to one message.
type Reaction struct {
	MessageID MessageID
	ChannelID ChannelID
	ActorID   model.MemberID
	Symbol    string
}

// Gateway is everything the engines consume from the chat transport.
type Gateway interface {
	// Send posts a message into a channel and returns its id.
	Send(ctx context.Context, ch ChannelID, text string) (MessageID, error)

	// OpenDM opens (or returns) a private one-to-one channel.
	OpenDM(ctx context.Context, id model.MemberID) (ChannelID, error)

	// React adds a reaction symbol to a previously sent message.
	React(ctx context.Context, ch ChannelID, msg MessageID, symbol string) error

	// RemoveReaction retracts an actor's reaction where the transport
	// allows it.
	RemoveReaction(ctx context.Context, ch ChannelID, msg MessageID, symbol string, actor model.MemberID) error

	// RoleLabels returns the member's current role labels.
	RoleLabels(ctx context.Context, id model.MemberID) ([]string, error)

	// IsAutomated reports whether the member is an automated account.
	IsAutomated(ctx context.Context, id model.MemberID) (bool, error)

	// PostReview posts an assessment submission to the review surface
	// and returns the artifact's message id.
	PostReview(ctx context.Context, ch ChannelID, sub model.Submission) (MessageID, error)
}

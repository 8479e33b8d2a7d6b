// Package transport defines the boundary to the WhatsApp connection. The
// core only sees this interface; the whatsmeow-backed implementation lives
// in client.go and test code substitutes fakes.
package transport

import (
	"context"
	"time"

	"raven-md/internal/wa"
)

// Outgoing is the content of one outbound message. Text-only for now; media
// senders wrap Send themselves.
type Outgoing struct {
	Text     string
	Mentions []string

	// QuoteID/QuoteSender/QuoteChat reference the message being replied to.
	// Empty QuoteID sends without a quote.
	QuoteID     string
	QuoteSender string
	QuoteChat   string
	Quoted      *wa.Payload
}

// Receipt acknowledges an accepted send. Delivery is not guaranteed.
type Receipt struct {
	ID        string
	Timestamp time.Time
}

// Sender is the outbound half of the transport.
type Sender interface {
	Send(ctx context.Context, chatJID string, msg Outgoing) (Receipt, error)
}

// GroupFetcher resolves group metadata on demand.
type GroupFetcher interface {
	GroupMetadata(ctx context.Context, chatJID string) (*wa.GroupMetadata, error)
}

// ParticipantAction is a group membership change.
type ParticipantAction string

const (
	ActionRemove  ParticipantAction = "remove"
	ActionPromote ParticipantAction = "promote"
	ActionDemote  ParticipantAction = "demote"
)

// GroupManager applies membership changes. The bot must be a group admin.
type GroupManager interface {
	UpdateParticipants(ctx context.Context, chatJID string, jids []string, action ParticipantAction) error
}

// Transport is the full connection surface the dispatcher depends on.
type Transport interface {
	Sender
	GroupFetcher
	GroupManager

	// SelfJID returns the bot's own bare user JID.
	SelfJID() string
}

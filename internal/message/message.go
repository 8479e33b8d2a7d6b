// /internal/message/message.go
package message

import (
	"context"
	"time"

	"raven-md/internal/transport"
	"raven-md/internal/wa"
)

// Message is the normalized view of one inbound event. All fields are
// computed once during serialization; group metadata is the only lazy part
// and is fetched on first use.
type Message struct {
	ID        string
	Chat      string
	Sender    string
	FromMe    bool
	IsGroup   bool
	PushName  string
	Timestamp time.Time

	Kind     wa.Kind
	Body     string
	Mentions []string

	// Prefix, Command and Args are set when Body starts with the configured
	// prefix; otherwise all three stay empty.
	Prefix  string
	Command string
	Args    []string

	// Media is set when the payload carries an attachment.
	Media *MediaInfo

	Quoted *Quoted

	raw    *wa.Event
	sender transport.Sender
	groups *GroupCache
	self   string
}

// MediaInfo describes an attachment without its bytes.
type MediaInfo struct {
	Mimetype string
	Size     uint64
	Width    uint32
	Height   uint32
	Seconds  uint32
}

// Quoted is the one-level flattened view of a replied-to message.
type Quoted struct {
	ID      string
	Sender  string
	Chat    string
	Kind    wa.Kind
	Body    string
	Payload *wa.Payload
}

// Raw returns the underlying event, untouched by normalization.
func (m *Message) Raw() *wa.Event { return m.raw }

// Reply sends text into the message's chat, quoting the message.
func (m *Message) Reply(ctx context.Context, text string) error {
	_, err := m.sender.Send(ctx, m.Chat, transport.Outgoing{
		Text:        text,
		QuoteID:     m.ID,
		QuoteSender: m.Sender,
		QuoteChat:   m.Chat,
		Quoted:      m.raw.Message,
	})
	return err
}

// Send sends text into the message's chat without quoting.
func (m *Message) Send(ctx context.Context, text string, mentions ...string) error {
	_, err := m.sender.Send(ctx, m.Chat, transport.Outgoing{Text: text, Mentions: mentions})
	return err
}

// GroupMeta fetches the chat's group metadata. Returns nil for non-group
// chats.
func (m *Message) GroupMeta(ctx context.Context) (*wa.GroupMetadata, error) {
	if !m.IsGroup {
		return nil, nil
	}
	return m.groups.Get(ctx, m.Chat)
}

// Admins returns the bare JIDs of the chat's admins.
func (m *Message) Admins(ctx context.Context) ([]string, error) {
	meta, err := m.GroupMeta(ctx)
	if err != nil || meta == nil {
		return nil, err
	}
	var admins []string
	for _, p := range meta.Participants {
		if p.IsAdmin() {
			admins = append(admins, p.ID)
		}
	}
	return admins, nil
}

// IsAdmin reports whether jid holds an admin rank in the chat.
func (m *Message) IsAdmin(ctx context.Context, jid string) (bool, error) {
	meta, err := m.GroupMeta(ctx)
	if err != nil || meta == nil {
		return false, err
	}
	bare := wa.Bare(jid)
	for _, p := range meta.Participants {
		if p.ID == bare && p.IsAdmin() {
			return true, nil
		}
	}
	return false, nil
}

// IsSenderAdmin reports whether the message's sender is a chat admin.
func (m *Message) IsSenderAdmin(ctx context.Context) (bool, error) {
	return m.IsAdmin(ctx, m.Sender)
}

// IsBotAdmin reports whether the bot itself is a chat admin.
func (m *Message) IsBotAdmin(ctx context.Context) (bool, error) {
	return m.IsAdmin(ctx, m.self)
}

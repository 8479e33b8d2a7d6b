// /internal/message/serialize.go
package message

import (
	"strings"
	"time"

	"raven-md/internal/transport"
	"raven-md/internal/wa"
)

// Serializer turns raw events into normalized Messages. Serialization is a
// pure function of the event plus the bot's own identity; serializing the
// same event twice yields equal Messages.
type Serializer struct {
	Self   string
	Prefix string
	Sender transport.Sender
	Groups *GroupCache
}

// ParseCommand splits text into an invocation name and arguments. ok is
// false when text does not start with the prefix or carries no name after
// it. The name comes back lowercased; arguments keep their case.
func ParseCommand(text, prefix string) (name string, args []string, ok bool) {
	if prefix == "" || !strings.HasPrefix(text, prefix) {
		return "", nil, false
	}
	fields := strings.Fields(strings.TrimSpace(text[len(prefix):]))
	if len(fields) == 0 {
		return "", nil, false
	}
	return strings.ToLower(fields[0]), fields[1:], true
}

// Serialize normalizes one event. Events without a payload normalize to a
// Message of unknown kind with an empty body; they are never dropped here,
// the dispatcher decides what to ignore.
func (s *Serializer) Serialize(ev *wa.Event) *Message {
	m := &Message{
		ID:        ev.Key.ID,
		Chat:      wa.Bare(ev.Key.RemoteJID),
		FromMe:    ev.Key.FromMe,
		IsGroup:   wa.IsGroup(ev.Key.RemoteJID),
		PushName:  ev.PushName,
		Timestamp: time.Unix(ev.Timestamp, 0),
		Kind:      ev.Message.Kind(),
		Body:      bodyOf(ev.Message),
		Media:     mediaOf(ev.Message),
		raw:       ev,
		sender:    s.Sender,
		groups:    s.Groups,
		self:      s.Self,
	}

	if name, args, ok := ParseCommand(m.Body, s.Prefix); ok {
		m.Prefix = s.Prefix
		m.Command = name
		m.Args = args
	}

	switch {
	case ev.Key.FromMe:
		m.Sender = s.Self
	case m.IsGroup:
		m.Sender = wa.Bare(ev.Key.Participant)
	default:
		m.Sender = m.Chat
	}

	if ci := ev.Message.Context(); ci != nil {
		m.Mentions = ci.MentionedJID
		if ci.Quoted != nil {
			chat := ci.RemoteJID
			if chat == "" {
				chat = m.Chat
			}
			m.Quoted = &Quoted{
				ID:      ci.StanzaID,
				Sender:  wa.Bare(ci.Participant),
				Chat:    wa.Bare(chat),
				Kind:    ci.Quoted.Kind(),
				Body:    bodyOf(ci.Quoted),
				Payload: ci.Quoted,
			}
		}
	}
	return m
}

// bodyOf extracts the canonical text body. The priority order is fixed:
// plain conversation first, then extended text, media captions, and the
// interactive selections with their display fallbacks last.
func bodyOf(p *wa.Payload) string {
	if p == nil {
		return ""
	}
	if p.Conversation != "" {
		return p.Conversation
	}
	if p.ExtendedText != nil && p.ExtendedText.Text != "" {
		return p.ExtendedText.Text
	}
	if p.Image != nil && p.Image.Caption != "" {
		return p.Image.Caption
	}
	if p.Video != nil && p.Video.Caption != "" {
		return p.Video.Caption
	}
	if p.Document != nil && p.Document.Caption != "" {
		return p.Document.Caption
	}
	if p.ButtonsResponse != nil {
		if p.ButtonsResponse.SelectedButtonID != "" {
			return p.ButtonsResponse.SelectedButtonID
		}
	}
	if p.ListResponse != nil && p.ListResponse.SingleSelectReply != nil {
		if p.ListResponse.SingleSelectReply.SelectedRowID != "" {
			return p.ListResponse.SingleSelectReply.SelectedRowID
		}
	}
	if p.TemplateButtonReply != nil {
		if p.TemplateButtonReply.SelectedID != "" {
			return p.TemplateButtonReply.SelectedID
		}
	}
	if p.ButtonsResponse != nil && p.ButtonsResponse.SelectedDisplayText != "" {
		return p.ButtonsResponse.SelectedDisplayText
	}
	if p.TemplateButtonReply != nil && p.TemplateButtonReply.SelectedDisplayText != "" {
		return p.TemplateButtonReply.SelectedDisplayText
	}
	if p.ListResponse != nil && p.ListResponse.Title != "" {
		return p.ListResponse.Title
	}
	return ""
}

// mediaOf builds the attachment descriptor, or nil for text-only payloads.
func mediaOf(p *wa.Payload) *MediaInfo {
	if p == nil {
		return nil
	}
	var m *wa.Media
	switch {
	case p.Image != nil:
		m = p.Image
	case p.Video != nil:
		m = p.Video
	case p.Audio != nil:
		m = p.Audio
	case p.Sticker != nil:
		m = p.Sticker
	case p.Document != nil:
		return &MediaInfo{Mimetype: p.Document.Mimetype, Size: p.Document.FileLength}
	default:
		return nil
	}
	return &MediaInfo{
		Mimetype: m.Mimetype,
		Size:     m.FileLength,
		Width:    m.Width,
		Height:   m.Height,
		Seconds:  m.Seconds,
	}
}

// /internal/message/serialize_test.go
package message

import (
	"context"
	"testing"

	"raven-md/internal/transport"
	"raven-md/internal/wa"
)

type fakeSender struct {
	sent []transport.Outgoing
}

func (f *fakeSender) Send(_ context.Context, _ string, msg transport.Outgoing) (transport.Receipt, error) {
	f.sent = append(f.sent, msg)
	return transport.Receipt{ID: "SENT1"}, nil
}

func newTestSerializer() *Serializer {
	return &Serializer{Self: "999@s.whatsapp.net", Prefix: ".", Sender: &fakeSender{}}
}

func textEvent(chat, participant, text string) *wa.Event {
	return &wa.Event{
		Key: wa.Key{RemoteJID: chat, ID: "MSG1", Participant: participant},
		Message: &wa.Payload{
			ExtendedText: &wa.ExtendedText{Text: text},
		},
	}
}

func TestBodyPriority(t *testing.T) {
	tests := []struct {
		name    string
		payload *wa.Payload
		want    string
	}{
		{"nil payload", nil, ""},
		{"conversation", &wa.Payload{Conversation: "hello"}, "hello"},
		{
			"conversation wins over extended text",
			&wa.Payload{Conversation: "plain", ExtendedText: &wa.ExtendedText{Text: "rich"}},
			"plain",
		},
		{"extended text", &wa.Payload{ExtendedText: &wa.ExtendedText{Text: "rich"}}, "rich"},
		{"image caption", &wa.Payload{Image: &wa.Media{Caption: "pic"}}, "pic"},
		{"video caption", &wa.Payload{Video: &wa.Media{Caption: "vid"}}, "vid"},
		{"document caption", &wa.Payload{Document: &wa.Document{Caption: "doc"}}, "doc"},
		{
			"button id wins over display text",
			&wa.Payload{ButtonsResponse: &wa.ButtonsResponse{SelectedButtonID: ".ping", SelectedDisplayText: "Ping"}},
			".ping",
		},
		{
			"button display text fallback",
			&wa.Payload{ButtonsResponse: &wa.ButtonsResponse{SelectedDisplayText: "Ping"}},
			"Ping",
		},
		{
			"list row id",
			&wa.Payload{ListResponse: &wa.ListResponse{
				Title:             "Menu",
				SingleSelectReply: &wa.SelectReply{SelectedRowID: ".menu"},
			}},
			".menu",
		},
		{
			"list title fallback",
			&wa.Payload{ListResponse: &wa.ListResponse{Title: "Menu"}},
			"Menu",
		},
		{
			"template reply id",
			&wa.Payload{TemplateButtonReply: &wa.TemplateButtonReply{SelectedID: ".help"}},
			".help",
		},
		{"caption-less image", &wa.Payload{Image: &wa.Media{Mimetype: "image/jpeg"}}, ""},
		{"protocol stub", &wa.Payload{ProtocolStub: &wa.ProtocolStub{Type: "REVOKE"}}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := bodyOf(tt.payload); got != tt.want {
				t.Errorf("bodyOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSerializeSenderResolution(t *testing.T) {
	s := newTestSerializer()

	t.Run("group message uses participant", func(t *testing.T) {
		m := s.Serialize(textEvent("123-456@g.us", "111@s.whatsapp.net", "hi"))
		if !m.IsGroup {
			t.Error("group chat not detected")
		}
		if m.Sender != "111@s.whatsapp.net" {
			t.Errorf("Sender = %q", m.Sender)
		}
		if m.Chat != "123-456@g.us" {
			t.Errorf("Chat = %q", m.Chat)
		}
	})

	t.Run("private message uses chat jid", func(t *testing.T) {
		m := s.Serialize(textEvent("111@s.whatsapp.net", "", "hi"))
		if m.IsGroup {
			t.Error("private chat detected as group")
		}
		if m.Sender != "111@s.whatsapp.net" {
			t.Errorf("Sender = %q", m.Sender)
		}
	})

	t.Run("own message uses self", func(t *testing.T) {
		ev := textEvent("111@s.whatsapp.net", "", "hi")
		ev.Key.FromMe = true
		m := s.Serialize(ev)
		if m.Sender != s.Self {
			t.Errorf("Sender = %q, want %q", m.Sender, s.Self)
		}
	})

	t.Run("device suffix stripped", func(t *testing.T) {
		m := s.Serialize(textEvent("123-456@g.us", "111:2@s.whatsapp.net", "hi"))
		if m.Sender != "111@s.whatsapp.net" {
			t.Errorf("Sender = %q", m.Sender)
		}
	})
}

func TestSerializeCommandParsing(t *testing.T) {
	s := newTestSerializer()

	t.Run("prefixed body yields command and args", func(t *testing.T) {
		ev := textEvent("123-456@g.us", "111@s.whatsapp.net", ".Menu group")
		m := s.Serialize(ev)
		if m.Prefix != "." || m.Command != "menu" {
			t.Errorf("Prefix=%q Command=%q", m.Prefix, m.Command)
		}
		if len(m.Args) != 1 || m.Args[0] != "group" {
			t.Errorf("Args = %v", m.Args)
		}
	})

	t.Run("non-prefixed body yields no command", func(t *testing.T) {
		m := s.Serialize(textEvent("123-456@g.us", "111@s.whatsapp.net", "menu group"))
		if m.Prefix != "" || m.Command != "" || m.Args != nil {
			t.Errorf("Prefix=%q Command=%q Args=%v", m.Prefix, m.Command, m.Args)
		}
	})

	t.Run("bare prefix yields no command", func(t *testing.T) {
		m := s.Serialize(textEvent("123-456@g.us", "111@s.whatsapp.net", ".   "))
		if m.Command != "" {
			t.Errorf("Command = %q", m.Command)
		}
	})
}

func TestSerializeMediaDescriptor(t *testing.T) {
	s := newTestSerializer()

	ev := textEvent("123-456@g.us", "111@s.whatsapp.net", "")
	ev.Message = &wa.Payload{Image: &wa.Media{
		Caption: "look", Mimetype: "image/jpeg", FileLength: 2048, Width: 640, Height: 480,
	}}
	m := s.Serialize(ev)
	if m.Media == nil {
		t.Fatal("no media descriptor for an image payload")
	}
	if m.Media.Mimetype != "image/jpeg" || m.Media.Size != 2048 || m.Media.Width != 640 || m.Media.Height != 480 {
		t.Errorf("media = %+v", m.Media)
	}

	if plain := s.Serialize(textEvent("123-456@g.us", "111@s.whatsapp.net", "hi")); plain.Media != nil {
		t.Errorf("text payload got media descriptor %+v", plain.Media)
	}
}

func TestSerializeIdempotent(t *testing.T) {
	s := newTestSerializer()
	ev := textEvent("123-456@g.us", "111@s.whatsapp.net", ".ping now")

	a := s.Serialize(ev)
	b := s.Serialize(ev)

	if a.ID != b.ID || a.Chat != b.Chat || a.Sender != b.Sender || a.Body != b.Body || a.Kind != b.Kind {
		t.Errorf("serializing twice diverged: %+v vs %+v", a, b)
	}
}

func TestSerializeQuotedOneLevel(t *testing.T) {
	s := newTestSerializer()

	inner := &wa.Payload{Conversation: "deepest"}
	quoted := &wa.Payload{
		ExtendedText: &wa.ExtendedText{
			Text: "middle",
			ContextInfo: &wa.ContextInfo{
				StanzaID: "MSG0",
				Quoted:   inner,
			},
		},
	}
	ev := &wa.Event{
		Key: wa.Key{RemoteJID: "123-456@g.us", ID: "MSG2", Participant: "111@s.whatsapp.net"},
		Message: &wa.Payload{
			ExtendedText: &wa.ExtendedText{
				Text: "reply",
				ContextInfo: &wa.ContextInfo{
					StanzaID:    "MSG1",
					Participant: "222:1@s.whatsapp.net",
					Quoted:      quoted,
				},
			},
		},
	}

	m := s.Serialize(ev)
	if m.Quoted == nil {
		t.Fatal("quoted message missing")
	}
	if m.Quoted.ID != "MSG1" || m.Quoted.Body != "middle" {
		t.Errorf("Quoted = %+v", m.Quoted)
	}
	if m.Quoted.Sender != "222@s.whatsapp.net" {
		t.Errorf("Quoted.Sender = %q", m.Quoted.Sender)
	}
	if m.Quoted.Chat != "123-456@g.us" {
		t.Errorf("Quoted.Chat = %q", m.Quoted.Chat)
	}
	// the quote chain is flattened to one level: the normalized quoted view
	// itself carries no further Quoted
	if m.Quoted.Payload != quoted {
		t.Error("quoted payload not preserved")
	}
}

func TestSerializeMentions(t *testing.T) {
	s := newTestSerializer()
	ev := &wa.Event{
		Key: wa.Key{RemoteJID: "123-456@g.us", ID: "MSG3", Participant: "111@s.whatsapp.net"},
		Message: &wa.Payload{
			ExtendedText: &wa.ExtendedText{
				Text:        "@222 hello",
				ContextInfo: &wa.ContextInfo{MentionedJID: []string{"222@s.whatsapp.net"}},
			},
		},
	}
	m := s.Serialize(ev)
	if len(m.Mentions) != 1 || m.Mentions[0] != "222@s.whatsapp.net" {
		t.Errorf("Mentions = %v", m.Mentions)
	}
}

func TestReplyQuotesOriginal(t *testing.T) {
	fs := &fakeSender{}
	s := &Serializer{Self: "999@s.whatsapp.net", Sender: fs}
	m := s.Serialize(textEvent("123-456@g.us", "111@s.whatsapp.net", "hi"))

	if err := m.Reply(context.Background(), "pong"); err != nil {
		t.Fatalf("Reply: %v", err)
	}
	if len(fs.sent) != 1 {
		t.Fatalf("sent %d messages", len(fs.sent))
	}
	out := fs.sent[0]
	if out.Text != "pong" || out.QuoteID != "MSG1" || out.QuoteSender != "111@s.whatsapp.net" {
		t.Errorf("outgoing = %+v", out)
	}
}

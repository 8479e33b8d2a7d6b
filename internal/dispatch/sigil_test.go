// /internal/dispatch/sigil_test.go
package dispatch

import (
	"context"
	"strings"
	"testing"

	"raven-md/internal/command"
)

func TestSigilQueryEvent(t *testing.T) {
	env := newTestEnv(t)

	env.d.HandleEvent(context.Background(), groupEvent(ownerJID, "=> key.id"))

	replies := env.sender.to(groupChat)
	if len(replies) != 1 {
		t.Fatalf("got %d replies, want 1", len(replies))
	}
	if !strings.Contains(replies[0].Msg.Text, "M1") {
		t.Errorf("query reply = %q, want the message id", replies[0].Msg.Text)
	}
}

func TestSigilQueryNoMatch(t *testing.T) {
	env := newTestEnv(t)

	env.d.HandleEvent(context.Background(), groupEvent(ownerJID, "=> no.such.path"))

	replies := env.sender.to(groupChat)
	if len(replies) != 1 || !strings.Contains(replies[0].Msg.Text, "no match") {
		t.Errorf("replies = %v", replies)
	}
}

func TestSigilStats(t *testing.T) {
	env := newTestEnv(t)
	def := &command.Definition{Name: "ping", Aliases: []string{"p"}, Run: func(*command.Invocation) error { return nil }}
	env.reg.Register(def)
	def.RecordUse()
	def.RecordUse()

	env.d.HandleEvent(context.Background(), groupEvent(ownerJID, ">"))

	replies := env.sender.to(groupChat)
	if len(replies) != 1 {
		t.Fatalf("got %d replies, want 1", len(replies))
	}
	text := replies[0].Msg.Text
	if !strings.Contains(text, "ping") || !strings.Contains(text, "2") {
		t.Errorf("stats reply = %q", text)
	}
}

func TestSigilUnknownProbeListsProbes(t *testing.T) {
	env := newTestEnv(t)

	env.d.HandleEvent(context.Background(), groupEvent(ownerJID, "$ nope"))

	replies := env.sender.to(groupChat)
	if len(replies) != 1 || !strings.Contains(replies[0].Msg.Text, "Probes:") {
		t.Errorf("replies = %v", replies)
	}
}

func TestSigilsIgnoredForNonOwners(t *testing.T) {
	env := newTestEnv(t)

	env.d.HandleEvent(context.Background(), groupEvent(userJID, "=> key.id"))
	env.d.HandleEvent(context.Background(), groupEvent(userJID, "> stats"))
	env.d.HandleEvent(context.Background(), groupEvent(userJID, "$ mem"))

	if len(env.sender.sent) != 0 {
		t.Errorf("non-owner sigils produced output: %v", env.sender.sent)
	}
}

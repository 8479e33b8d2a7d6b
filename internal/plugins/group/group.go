// /internal/plugins/group/group.go
package group

import (
	"fmt"
	"strings"

	"raven-md/internal/command"
	"raven-md/internal/plugins"
	"raven-md/internal/transport"
	"raven-md/internal/wa"
)

func init() {
	plugins.Register(
		&command.Definition{
			Name:        "kick",
			Description: "Remove a member from the group",
			Category:    "group",
			Usage:       "kick @user",
			Example:     "kick @628123456789",
			Cooldown:    -1,
			GroupOnly:   true,
			AdminOnly:   true,
			BotAdmin:    true,
			Run:         membershipAction(transport.ActionRemove, "removed"),
		},
		&command.Definition{
			Name:        "promote",
			Description: "Make a member a group admin",
			Category:    "group",
			Usage:       "promote @user",
			Cooldown:    -1,
			GroupOnly:   true,
			AdminOnly:   true,
			BotAdmin:    true,
			Run:         membershipAction(transport.ActionPromote, "promoted"),
		},
		&command.Definition{
			Name:        "demote",
			Description: "Take admin away from a member",
			Category:    "group",
			Usage:       "demote @user",
			Cooldown:    -1,
			GroupOnly:   true,
			AdminOnly:   true,
			BotAdmin:    true,
			Run:         membershipAction(transport.ActionDemote, "demoted"),
		},
		&command.Definition{
			Name:        "tagall",
			Aliases:     []string{"everyone"},
			Description: "Mention every group member",
			Category:    "group",
			Usage:       "tagall [note]",
			Cooldown:    5,
			GroupOnly:   true,
			AdminOnly:   true,
			Run:         tagall,
		},
	)
}

// target resolves who a moderation command acts on: the first mention, or
// the sender of the quoted message.
func target(inv *command.Invocation) string {
	if len(inv.Msg.Mentions) > 0 {
		return wa.Bare(inv.Msg.Mentions[0])
	}
	if inv.Msg.Quoted != nil && inv.Msg.Quoted.Sender != "" {
		return inv.Msg.Quoted.Sender
	}
	return ""
}

func membershipAction(action transport.ParticipantAction, past string) command.HandlerFunc {
	return func(inv *command.Invocation) error {
		jid := target(inv)
		if jid == "" {
			return inv.Msg.Reply(inv.Ctx, "Mention a user or reply to their message.")
		}
		// never act on the bot itself or an owner
		if inv.Transport != nil && jid == inv.Transport.SelfJID() {
			return inv.Msg.Reply(inv.Ctx, "Not doing that to myself.")
		}
		if inv.Config.IsOwner(wa.User(jid)) {
			return inv.Msg.Reply(inv.Ctx, "Not doing that to my owner.")
		}

		if err := inv.Transport.UpdateParticipants(inv.Ctx, inv.Msg.Chat, []string{jid}, action); err != nil {
			return fmt.Errorf("%s %s: %w", action, jid, err)
		}
		return inv.Msg.Send(inv.Ctx, fmt.Sprintf("@%s %s.", wa.User(jid), past), jid)
	}
}

func tagall(inv *command.Invocation) error {
	meta, err := inv.Msg.GroupMeta(inv.Ctx)
	if err != nil {
		return err
	}
	if meta == nil || len(meta.Participants) == 0 {
		return inv.Msg.Reply(inv.Ctx, "No members found.")
	}

	note := strings.TrimSpace(inv.RawArgs)
	if note == "" {
		note = "📣 Attention everyone!"
	}

	var b strings.Builder
	b.WriteString(note)
	b.WriteString("\n\n")
	mentions := make([]string, 0, len(meta.Participants))
	for _, p := range meta.Participants {
		fmt.Fprintf(&b, "@%s\n", wa.User(p.ID))
		mentions = append(mentions, p.ID)
	}
	return inv.Msg.Send(inv.Ctx, b.String(), mentions...)
}

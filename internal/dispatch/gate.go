// /internal/dispatch/gate.go
package dispatch

import (
	"context"
	"fmt"

	"raven-md/internal/command"
	"raven-md/internal/config"
	"raven-md/internal/message"
	"raven-md/internal/storage"
	"raven-md/internal/wa"
)

// Denial is the reason a command was refused. The zero value means allowed.
type Denial int

const (
	DenyNone Denial = iota
	DenyDisabled
	DenyOwner
	DenyGroup
	DenyPrivate
	DenyAdmin
	DenyBotAdmin
)

// Notice returns the user-facing string for the denial.
func (d Denial) Notice(m config.Messages) string {
	switch d {
	case DenyDisabled:
		return m.Disabled
	case DenyOwner:
		return m.OwnerOnly
	case DenyGroup:
		return m.GroupOnly
	case DenyPrivate:
		return m.PrivateOnly
	case DenyAdmin:
		return m.AdminOnly
	case DenyBotAdmin:
		return m.BotAdmin
	default:
		return ""
	}
}

func (d Denial) String() string {
	switch d {
	case DenyNone:
		return "allowed"
	case DenyDisabled:
		return "disabled"
	case DenyOwner:
		return "owner_only"
	case DenyGroup:
		return "group_only"
	case DenyPrivate:
		return "private_only"
	case DenyAdmin:
		return "admin_only"
	case DenyBotAdmin:
		return "bot_not_admin"
	default:
		return "unknown"
	}
}

// Gate decides whether a sender may run a command in a chat. Checks run in
// a fixed order and the first failing one wins; the cheap checks come first
// so group metadata is only fetched when an admin flag requires it.
type Gate struct {
	cfg   *config.Config
	store *storage.Storage
}

func NewGate(cfg *config.Config, store *storage.Storage) *Gate {
	return &Gate{cfg: cfg, store: store}
}

// Check evaluates the command's gating flags against the message. A
// non-nil error means a check could not be evaluated (metadata fetch
// failure); the command must not run in that case.
func (g *Gate) Check(ctx context.Context, def *command.Definition, m *message.Message) (Denial, error) {
	isOwner := g.cfg.IsOwner(wa.User(m.Sender))

	// disabled is checked first and binds everyone, owners included; enable
	// and disable themselves can never be disabled, so there is always a way
	// back
	if def.Disabled {
		return DenyDisabled, nil
	}
	disabled, err := g.store.IsCommandDisabled(m.Chat, def.Name)
	if err != nil {
		return DenyNone, fmt.Errorf("disabled lookup: %w", err)
	}
	if disabled {
		return DenyDisabled, nil
	}

	if def.OwnerOnly && !isOwner {
		return DenyOwner, nil
	}
	if def.GroupOnly && !m.IsGroup {
		return DenyGroup, nil
	}
	if def.PrivateOnly && m.IsGroup {
		return DenyPrivate, nil
	}

	if def.AdminOnly && m.IsGroup && !isOwner {
		admin, err := m.IsSenderAdmin(ctx)
		if err != nil {
			return DenyNone, fmt.Errorf("admin check: %w", err)
		}
		if !admin {
			return DenyAdmin, nil
		}
	}
	if def.BotAdmin && m.IsGroup {
		admin, err := m.IsBotAdmin(ctx)
		if err != nil {
			return DenyNone, fmt.Errorf("bot admin check: %w", err)
		}
		if !admin {
			return DenyBotAdmin, nil
		}
	}
	return DenyNone, nil
}

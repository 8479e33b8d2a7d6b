// /internal/plugins/admin/admin.go
package admin

import (
	"fmt"
	"strings"

	"raven-md/internal/command"
	"raven-md/internal/plugins"
)

func init() {
	plugins.Register(
		&command.Definition{
			Name:        "disable",
			Description: "Disable a command in this chat",
			Category:    "admin",
			Usage:       "disable <command>",
			Example:     "disable tagall",
			Cooldown:    -1,
			AdminOnly:   true,
			Run:         disable,
		},
		&command.Definition{
			Name:        "enable",
			Description: "Re-enable a command in this chat",
			Category:    "admin",
			Usage:       "enable <command>",
			Cooldown:    -1,
			AdminOnly:   true,
			Run:         enable,
		},
		&command.Definition{
			Name:        "disabled",
			Description: "List commands disabled in this chat",
			Category:    "admin",
			Cooldown:    -1,
			Run:         listDisabled,
		},
	)
}

func disable(inv *command.Invocation) error {
	name, err := targetCommand(inv)
	if err != nil {
		return inv.Msg.Reply(inv.Ctx, err.Error())
	}
	// enable and disable themselves stay reachable, otherwise a chat could
	// lock itself out
	if name == "enable" || name == "disable" {
		return inv.Msg.Reply(inv.Ctx, fmt.Sprintf("%s cannot be disabled.", name))
	}
	if err := inv.Storage.DisableCommand(inv.Msg.Chat, name); err != nil {
		return err
	}
	return inv.Msg.Reply(inv.Ctx, fmt.Sprintf("%s disabled in this chat.", name))
}

func enable(inv *command.Invocation) error {
	name, err := targetCommand(inv)
	if err != nil {
		return inv.Msg.Reply(inv.Ctx, err.Error())
	}
	if err := inv.Storage.EnableCommand(inv.Msg.Chat, name); err != nil {
		return err
	}
	return inv.Msg.Reply(inv.Ctx, fmt.Sprintf("%s enabled in this chat.", name))
}

func listDisabled(inv *command.Invocation) error {
	names, err := inv.Storage.DisabledCommands(inv.Msg.Chat)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return inv.Msg.Reply(inv.Ctx, "Nothing is disabled in this chat.")
	}
	return inv.Msg.Reply(inv.Ctx, "Disabled here: "+strings.Join(names, ", "))
}

// targetCommand validates the first argument as a known command, resolving
// aliases to the primary name.
func targetCommand(inv *command.Invocation) (string, error) {
	if len(inv.Args) == 0 {
		return "", fmt.Errorf("Name a command, e.g. %s%s ping", inv.Config.Prefix, inv.Def.Name)
	}
	def, ok := inv.Registry.Resolve(inv.Args[0])
	if !ok {
		return "", fmt.Errorf("Unknown command %q.", inv.Args[0])
	}
	return def.Name, nil
}

// Reload builds the owner-only reload command. The reload closure is wired
// in main, where the manifest loader lives.
func Reload(reload func() error) *command.Definition {
	return &command.Definition{
		Name:        "reload",
		Description: "Reload command manifests from disk",
		Category:    "admin",
		Cooldown:    0,
		OwnerOnly:   true,
		Run: func(inv *command.Invocation) error {
			if err := reload(); err != nil {
				return inv.Msg.Reply(inv.Ctx, fmt.Sprintf("Reload failed, keeping the previous set:\n%v", err))
			}
			return inv.Msg.Reply(inv.Ctx, fmt.Sprintf("Reloaded. %d commands active.", len(inv.Registry.Commands())))
		},
	}
}

// /internal/plugins/core/core.go
package core

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"raven-md/internal/command"
	"raven-md/internal/config"
	"raven-md/internal/plugins"
	"raven-md/internal/wa"
)

func init() {
	plugins.Register(
		&command.Definition{
			Name:        "ping",
			Aliases:     []string{"p"},
			Description: "Check whether the bot is alive",
			Category:    "core",
			Cooldown:    -1,
			Run:         ping,
		},
		&command.Definition{
			Name:        "menu",
			Aliases:     []string{"help"},
			Description: "List all commands",
			Category:    "core",
			Cooldown:    -1,
			Run:         menu,
		},
		&command.Definition{
			Name:        "owner",
			Description: "Show the bot owner's contact",
			Category:    "core",
			Cooldown:    -1,
			Run:         owner,
		},
		&command.Definition{
			Name:        "stats",
			Description: "Show command usage for this chat",
			Category:    "core",
			Cooldown:    -1,
			Run:         stats,
		},
	)
}

func ping(inv *command.Invocation) error {
	latency := time.Since(inv.Msg.Timestamp).Round(time.Millisecond)
	return inv.Msg.Reply(inv.Ctx, fmt.Sprintf("🏓 Pong! %s", latency))
}

func menu(inv *command.Invocation) error {
	prefix := inv.Config.Prefix
	byCategory := inv.Registry.Categories()

	categories := make([]string, 0, len(byCategory))
	for cat := range byCategory {
		categories = append(categories, cat)
	}
	sort.Slice(categories, func(i, j int) bool {
		wi, wj := categoryWeight(categories[i]), categoryWeight(categories[j])
		if wi != wj {
			return wi < wj
		}
		return categories[i] < categories[j]
	})

	var b strings.Builder
	fmt.Fprintf(&b, "*%s*\n", inv.Config.BotName)
	for _, cat := range categories {
		fmt.Fprintf(&b, "\n*%s*\n", strings.ToUpper(cat))
		for _, d := range byCategory[cat] {
			if d.Hidden {
				continue
			}
			label := d.Name
			if d.Usage != "" {
				label = d.Usage
			}
			fmt.Fprintf(&b, "%s%s", prefix, label)
			if d.Description != "" {
				fmt.Fprintf(&b, " — %s", d.Description)
			}
			b.WriteString("\n")
		}
	}
	return inv.Msg.Reply(inv.Ctx, b.String())
}

func categoryWeight(cat string) int {
	if w, ok := config.CategoryWeights[cat]; ok {
		return w
	}
	return 1 << 16
}

func owner(inv *command.Invocation) error {
	var b strings.Builder
	b.WriteString("*Owner*\n")
	mentions := make([]string, 0, len(inv.Config.OwnerNumbers))
	for _, n := range inv.Config.OwnerNumbers {
		fmt.Fprintf(&b, "@%s\n", n)
		mentions = append(mentions, wa.UserJID(n))
	}
	return inv.Msg.Send(inv.Ctx, b.String(), mentions...)
}

func stats(inv *command.Invocation) error {
	hist, err := inv.Storage.History(inv.Msg.Chat)
	if err != nil {
		return err
	}
	counts := make(map[string]int)
	for _, h := range hist {
		counts[h.Command]++
	}
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	fmt.Fprintf(&b, "*Recent commands in this chat* (last %d)\n", len(hist))
	for _, name := range names {
		fmt.Fprintf(&b, "%s: %d\n", name, counts[name])
	}
	if len(hist) > 0 {
		last := hist[len(hist)-1]
		fmt.Fprintf(&b, "\nlast: %s%s at %s", inv.Config.Prefix, last.Command, last.Datetime.Format("15:04:05"))
	}
	return inv.Msg.Reply(inv.Ctx, b.String())
}

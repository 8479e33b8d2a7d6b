// /internal/dispatch/sigil.go
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/tidwall/gjson"

	"raven-md/internal/command"
	"raven-md/internal/message"
)

// SigilRunner handles the owner-only prefix sigils. They replace the old
// habit of evaluating raw code from chat with three fixed, inspectable
// surfaces:
//
//	=> <path>   query the raw inbound event with a gjson path
//	$ <probe>   read one named host diagnostic
//	>           dump registry and usage stats
//
// Every invocation lands in the audit log.
type SigilRunner struct {
	registry *command.Registry
	audit    zerolog.Logger
	started  time.Time
}

func NewSigilRunner(registry *command.Registry, audit zerolog.Logger) *SigilRunner {
	return &SigilRunner{
		registry: registry,
		audit:    audit,
		started:  time.Now(),
	}
}

// TryRun dispatches a sigil if text starts with one. Returns false when the
// text is not a sigil invocation; the caller continues with normal command
// parsing. Only called for owner messages.
func (s *SigilRunner) TryRun(ctx context.Context, m *message.Message, text string) bool {
	var sigil, arg, out string
	var err error

	switch {
	case strings.HasPrefix(text, "=>"):
		sigil, arg = "=>", strings.TrimSpace(text[2:])
		out, err = s.query(m, arg)
	case strings.HasPrefix(text, "$"):
		sigil, arg = "$", strings.TrimSpace(text[1:])
		out, err = s.probe(arg)
	case strings.HasPrefix(text, ">"):
		sigil = ">"
		out = s.stats()
	default:
		return false
	}

	s.audit.Info().
		Str("sigil", sigil).
		Str("arg", arg).
		Str("sender", m.Sender).
		Str("chat", m.Chat).
		Bool("ok", err == nil).
		Msg("owner sigil")

	if err != nil {
		s.replyErr(ctx, m, err)
		return true
	}
	if replyErr := m.Reply(ctx, out); replyErr != nil {
		s.audit.Error().Err(replyErr).Msg("sigil reply failed")
	}
	return true
}

// query evaluates a gjson path against the raw event JSON.
func (s *SigilRunner) query(m *message.Message, path string) (string, error) {
	raw, err := json.Marshal(m.Raw())
	if err != nil {
		return "", fmt.Errorf("marshal event: %w", err)
	}
	if path == "" {
		return fmt.Sprintf("```%s```", raw), nil
	}
	res := gjson.GetBytes(raw, path)
	if !res.Exists() {
		return "no match for `" + path + "`", nil
	}
	return fmt.Sprintf("```%s```", res.Raw), nil
}

// probe reads one named host diagnostic. Unknown names list the available
// probes instead of erroring.
func (s *SigilRunner) probe(name string) (string, error) {
	switch name {
	case "mem":
		v, err := mem.VirtualMemory()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Memory: %.1f%% used (%d MiB of %d MiB)",
			v.UsedPercent, v.Used/1024/1024, v.Total/1024/1024), nil
	case "cpu":
		pcts, err := cpu.Percent(time.Second, false)
		if err != nil {
			return "", err
		}
		if len(pcts) == 0 {
			return "CPU: no data", nil
		}
		return fmt.Sprintf("CPU: %.1f%%", pcts[0]), nil
	case "disk":
		u, err := disk.Usage("/")
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Disk: %.1f%% used (%d GiB of %d GiB)",
			u.UsedPercent, u.Used/1024/1024/1024, u.Total/1024/1024/1024), nil
	case "host":
		info, err := host.Info()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Host: %s (%s %s), up %s",
			info.Hostname, info.Platform, info.PlatformVersion,
			(time.Duration(info.Uptime) * time.Second).String()), nil
	case "uptime":
		return fmt.Sprintf("Bot uptime: %s", time.Since(s.started).Round(time.Second)), nil
	case "go":
		var ms runtime.MemStats
		runtime.ReadMemStats(&ms)
		return fmt.Sprintf("Go: %s, %d goroutines, %d MiB heap",
			runtime.Version(), runtime.NumGoroutine(), ms.HeapAlloc/1024/1024), nil
	default:
		return "Probes: mem, cpu, disk, host, uptime, go", nil
	}
}

// stats renders the registry with per-command usage counts.
func (s *SigilRunner) stats() string {
	cmds := s.registry.Commands()
	var b strings.Builder
	fmt.Fprintf(&b, "*%d commands*\n", len(cmds))
	var total int64
	for _, d := range cmds {
		uses := d.Uses()
		total += uses
		fmt.Fprintf(&b, "%s", d.Name)
		if len(d.Aliases) > 0 {
			fmt.Fprintf(&b, " (%s)", strings.Join(d.Aliases, ", "))
		}
		fmt.Fprintf(&b, ": %d\n", uses)
	}
	fmt.Fprintf(&b, "total dispatches: %d", total)
	return b.String()
}

func (s *SigilRunner) replyErr(ctx context.Context, m *message.Message, err error) {
	if replyErr := m.Reply(ctx, fmt.Sprintf("❌ *Error:*\n```%v```", err)); replyErr != nil {
		s.audit.Error().Err(replyErr).Msg("sigil error reply failed")
	}
}

// /internal/dispatch/dispatcher.go
package dispatch

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"raven-md/internal/command"
	"raven-md/internal/config"
	"raven-md/internal/message"
	"raven-md/internal/storage"
	"raven-md/internal/transport"
	"raven-md/internal/wa"
)

// Dispatcher routes inbound events to command handlers. HandleEvent is
// synchronous; the transport binding runs it on its own goroutine per
// event.
type Dispatcher struct {
	cfg        *config.Config
	msgs       config.Messages
	registry   *command.Registry
	cooldowns  *command.CooldownTracker
	gate       *Gate
	serializer *message.Serializer
	store      *storage.Storage
	sender     transport.Sender
	conn       transport.Transport
	sigils     *SigilRunner
	log        zerolog.Logger
}

type Deps struct {
	Config     *config.Config
	Messages   config.Messages
	Registry   *command.Registry
	Cooldowns  *command.CooldownTracker
	Gate       *Gate
	Serializer *message.Serializer
	Storage    *storage.Storage
	Sender     transport.Sender
	Transport  transport.Transport
	Sigils     *SigilRunner
	Log        zerolog.Logger
}

func New(d Deps) *Dispatcher {
	return &Dispatcher{
		cfg:        d.Config,
		msgs:       d.Messages,
		registry:   d.Registry,
		cooldowns:  d.Cooldowns,
		gate:       d.Gate,
		serializer: d.Serializer,
		store:      d.Storage,
		sender:     d.Sender,
		conn:       d.Transport,
		sigils:     d.Sigils,
		log:        d.Log.With().Str("component", "dispatch").Logger(),
	}
}

// HandleEvent processes one inbound event end to end: normalize, gate,
// cooldown, run. Everything that is not a command is ignored silently.
func (d *Dispatcher) HandleEvent(ctx context.Context, ev *wa.Event) {
	if ev == nil || ev.Message == nil {
		return
	}
	if ev.Message.Kind() == wa.KindStub {
		return
	}
	if wa.IsStatusBroadcast(ev.Key.RemoteJID) || wa.IsNewsletter(ev.Key.RemoteJID) {
		return
	}

	m := d.serializer.Serialize(ev)
	if m.FromMe {
		return
	}
	text := m.Body
	if text == "" {
		return
	}

	d.log.Debug().
		Str("chat", m.Chat).
		Str("sender", m.Sender).
		Str("kind", m.Kind.String()).
		Msg("message")

	isOwner := d.cfg.IsOwner(wa.User(m.Sender))
	if isOwner && d.sigils != nil {
		if d.sigils.TryRun(ctx, m, text) {
			return
		}
	}

	// a leading mention of the bot is tolerated before the prefix, so the
	// stripped text goes through the same parser the normalizer uses
	name, args := m.Command, m.Args
	if name == "" {
		var ok bool
		if name, args, ok = message.ParseCommand(d.stripSelfMention(text), d.cfg.Prefix); !ok {
			return
		}
	}

	def, ok := d.registry.Resolve(name)
	if !ok {
		return
	}

	// the cooldown is armed at check time, inside one tracker lock, so two
	// near-simultaneous events from one sender cannot both pass the check
	// while the gate below suspends on a metadata fetch; a refused
	// invocation gives the slot back
	cd := time.Duration(def.CooldownSeconds(d.cfg.DefaultCooldown)) * time.Second
	armed := false
	if !isOwner && cd > 0 {
		remaining, ok := d.cooldowns.Arm(def.Name, m.Sender, cd)
		if !ok {
			secs := int((remaining + time.Second - 1) / time.Second)
			d.reply(ctx, m, fmt.Sprintf(d.msgs.Cooldown, secs))
			return
		}
		armed = true
	}
	release := func() {
		if armed {
			d.cooldowns.Set(def.Name, m.Sender, 0)
		}
	}

	denial, err := d.gate.Check(ctx, def, m)
	if err != nil {
		release()
		d.log.Error().Err(err).Str("command", def.Name).Msg("gate check failed")
		d.reply(ctx, m, d.msgs.Failed)
		return
	}
	if denial != DenyNone {
		release()
		d.log.Info().
			Str("command", def.Name).
			Str("sender", m.Sender).
			Str("denied", denial.String()).
			Msg("command refused")
		d.reply(ctx, m, denial.Notice(d.msgs))
		return
	}

	// usage is recorded before the handler runs so a slow or failing
	// handler cannot be spammed; the cooldown is already armed above
	def.RecordUse()
	if err := d.store.AppendHistory(storage.HistoryRecord{
		ChatJID:  m.Chat,
		Sender:   m.Sender,
		PushName: m.PushName,
		Command:  def.Name,
		Args:     strings.Join(args, " "),
		Datetime: time.Now(),
	}); err != nil {
		d.log.Warn().Err(err).Msg("history append failed")
	}

	d.log.Info().
		Str("command", def.Name).
		Str("sender", m.Sender).
		Str("chat", m.Chat).
		Msg("dispatching")

	inv := &command.Invocation{
		Ctx:       ctx,
		Msg:       m,
		Def:       def,
		Args:      args,
		RawArgs:   strings.Join(args, " "),
		Config:    d.cfg,
		Messages:  d.msgs,
		Storage:   d.store,
		Registry:  d.registry,
		Transport: d.conn,
		Log:       d.log.With().Str("command", def.Name).Logger(),
	}
	if err := d.run(inv); err != nil {
		d.log.Error().Err(err).Str("command", def.Name).Msg("command failed")
		d.reportToOwner(ctx, m, def.Name, err)
		d.reply(ctx, m, d.msgs.Failed)
	}
}

// maxStackBytes caps the stack trace carried in a panic diagnostic so the
// owner report stays within a single message.
const maxStackBytes = 3072

// run invokes the handler, converting panics into errors so one broken
// command cannot take the bot down.
func (d *Dispatcher) run(inv *command.Invocation) (err error) {
	defer func() {
		if r := recover(); r != nil {
			stack := debug.Stack()
			if len(stack) > maxStackBytes {
				stack = append(stack[:maxStackBytes], "... [truncated]"...)
			}
			err = fmt.Errorf("panic: %v\n%s", r, stack)
		}
	}()
	return inv.Def.Run(inv)
}

// stripSelfMention removes a leading mention of the bot's own number, so
// "@<bot> .ping" dispatches like ".ping".
func (d *Dispatcher) stripSelfMention(text string) string {
	self := d.serializer.Self
	if self == "" {
		return text
	}
	mention := "@" + wa.User(self)
	if rest, ok := strings.CutPrefix(text, mention); ok {
		return strings.TrimLeft(rest, " ")
	}
	return text
}

// reportToOwner sends the diagnostic to the first configured owner, the
// designated diagnostic channel.
func (d *Dispatcher) reportToOwner(ctx context.Context, m *message.Message, cmdName string, cmdErr error) {
	if len(d.cfg.OwnerNumbers) == 0 {
		return
	}
	text := fmt.Sprintf(
		"❌ *Command error*\n\n*Command:* %s\n*Error:* %v\n*Time:* %s\n*User:* @%s\n*Chat:* %s",
		cmdName, cmdErr, time.Now().Format(time.RFC3339), wa.User(m.Sender), m.Chat,
	)
	owner := d.cfg.OwnerNumbers[0]
	_, err := d.sender.Send(ctx, wa.UserJID(owner), transport.Outgoing{
		Text:     text,
		Mentions: []string{m.Sender},
	})
	if err != nil {
		d.log.Error().Err(err).Str("owner", owner).Msg("owner report failed")
	}
}

func (d *Dispatcher) reply(ctx context.Context, m *message.Message, text string) {
	if text == "" {
		return
	}
	if err := m.Reply(ctx, text); err != nil {
		d.log.Error().Err(err).Str("chat", m.Chat).Msg("reply failed")
	}
}

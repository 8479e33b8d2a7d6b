// /internal/command/command.go
package command

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"raven-md/internal/config"
	"raven-md/internal/message"
	"raven-md/internal/storage"
	"raven-md/internal/transport"
)

// HandlerFunc executes one command invocation.
type HandlerFunc func(inv *Invocation) error

// Invocation is everything a handler gets when it runs.
type Invocation struct {
	Ctx     context.Context
	Msg     *message.Message
	Def     *Definition
	Args    []string
	RawArgs string

	Config    *config.Config
	Messages  config.Messages
	Storage   *storage.Storage
	Registry  *Registry
	Transport transport.Transport
	Log       zerolog.Logger
}

// Definition describes one command: identity, gating flags and the bound
// handler. Cooldown below zero means "use the configured default".
type Definition struct {
	Name        string
	Aliases     []string
	Description string
	Category    string
	Usage       string
	Example     string

	Cooldown int // seconds; 0 disables, < 0 uses the default

	OwnerOnly   bool
	GroupOnly   bool
	PrivateOnly bool
	AdminOnly   bool
	BotAdmin    bool

	// Hidden keeps the command out of the menu and the generated README;
	// it still dispatches. Disabled turns the command off everywhere,
	// independent of per-chat toggles.
	Hidden   bool
	Disabled bool

	Run HandlerFunc

	uses     atomic.Int64
	lastUsed atomic.Int64 // unix nanos, 0 = never
}

// RecordUse bumps the usage counter and stamps the invocation time.
func (d *Definition) RecordUse() {
	d.uses.Add(1)
	d.lastUsed.Store(time.Now().UnixNano())
}

// Uses returns how many times the command has been dispatched.
func (d *Definition) Uses() int64 { return d.uses.Load() }

// LastUsed returns the time of the most recent dispatch, or the zero time.
func (d *Definition) LastUsed() time.Time {
	ns := d.lastUsed.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

// CooldownSeconds resolves the effective cooldown against the default.
func (d *Definition) CooldownSeconds(defaultSeconds int) int {
	if d.Cooldown < 0 {
		return defaultSeconds
	}
	return d.Cooldown
}

// Catalog maps handler names to compiled-in handler functions. Manifests
// bind commands to handlers through it.
type Catalog struct {
	handlers map[string]HandlerFunc
}

func NewCatalog() *Catalog {
	return &Catalog{handlers: make(map[string]HandlerFunc)}
}

// Bind registers a named handler. Binding the same name twice is a
// programming error and panics during startup.
func (c *Catalog) Bind(name string, fn HandlerFunc) {
	if _, dup := c.handlers[name]; dup {
		panic(fmt.Sprintf("handler %q bound twice", name))
	}
	c.handlers[name] = fn
}

// Lookup resolves a handler by name.
func (c *Catalog) Lookup(name string) (HandlerFunc, bool) {
	fn, ok := c.handlers[name]
	return fn, ok
}

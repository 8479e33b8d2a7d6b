// /internal/command/registry.go
package command

import (
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Registry holds the active command set. Lookups read an immutable map
// through an atomic pointer, so dispatch never blocks on a reload; writers
// serialize on a mutex and swap in a fully rebuilt map.
type Registry struct {
	mu        sync.Mutex
	builtins  []*Definition
	manifests []*Definition
	lookup    atomic.Pointer[map[string]*Definition]
	log       zerolog.Logger
}

func NewRegistry(log zerolog.Logger) *Registry {
	r := &Registry{log: log}
	empty := map[string]*Definition{}
	r.lookup.Store(&empty)
	return r
}

// Register adds built-in commands. Later registrations win on name
// collisions, and manifest-loaded commands override builtins of the same
// name. Definitions without a name or handler are dropped with a warning;
// one malformed plugin never stops the rest from registering.
func (r *Registry) Register(defs ...*Definition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range defs {
		if d == nil || d.Name == "" || d.Run == nil {
			name := "<nil>"
			if d != nil {
				name = d.Name
			}
			r.log.Warn().Str("name", name).Msg("dropping malformed command definition")
			continue
		}
		r.builtins = append(r.builtins, d)
	}
	r.rebuild()
}

// SetManifests replaces the manifest-derived command set in one swap.
func (r *Registry) SetManifests(defs []*Definition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.manifests = defs
	r.rebuild()
}

// Unregister removes a built-in command by primary name. All of its aliases
// vanish in the same swap.
func (r *Registry) Unregister(name string) {
	name = strings.ToLower(name)
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.builtins[:0]
	for _, d := range r.builtins {
		if strings.ToLower(d.Name) != name {
			kept = append(kept, d)
		}
	}
	r.builtins = kept
	r.rebuild()
}

// rebuild composes builtins plus manifests into a fresh lookup map. Caller
// holds r.mu.
func (r *Registry) rebuild() {
	m := make(map[string]*Definition)
	insert := func(d *Definition) {
		key := strings.ToLower(d.Name)
		if prev, clash := m[key]; clash && prev.Name != d.Name {
			r.log.Warn().Str("name", d.Name).Str("shadows", prev.Name).Msg("command name collision")
		}
		m[key] = d
		for _, a := range d.Aliases {
			key := strings.ToLower(a)
			if prev, clash := m[key]; clash {
				r.log.Warn().Str("alias", a).Str("command", d.Name).Str("shadows", prev.Name).Msg("alias collision, last registration wins")
			}
			m[key] = d
		}
	}
	// manifests last so they override builtins of the same name
	for _, d := range r.builtins {
		insert(d)
	}
	for _, d := range r.manifests {
		insert(d)
	}
	r.lookup.Store(&m)
}

// Resolve finds a command by name or alias, case-insensitively.
func (r *Registry) Resolve(name string) (*Definition, bool) {
	m := *r.lookup.Load()
	d, ok := m[strings.ToLower(name)]
	return d, ok
}

// Commands returns the distinct active commands sorted by name.
func (r *Registry) Commands() []*Definition {
	m := *r.lookup.Load()
	seen := make(map[*Definition]bool, len(m))
	list := make([]*Definition, 0, len(m))
	for _, d := range m {
		if seen[d] {
			continue
		}
		seen[d] = true
		list = append(list, d)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

// Categories returns the active commands grouped by category, categories
// sorted alphabetically.
func (r *Registry) Categories() map[string][]*Definition {
	out := make(map[string][]*Definition)
	for _, d := range r.Commands() {
		cat := d.Category
		if cat == "" {
			cat = "misc"
		}
		out[cat] = append(out[cat], d)
	}
	return out
}

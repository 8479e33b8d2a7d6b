// /internal/command/manifest.go
package command

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Manifest is the on-disk description of one command. Manifests live as
// JSON files in the commands directory and bind to compiled-in handlers by
// name; dropping or editing a file and reloading changes the live command
// set without a restart.
type Manifest struct {
	Name        string   `json:"name"`
	Aliases     []string `json:"aliases,omitempty"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category,omitempty"`
	Usage       string   `json:"usage,omitempty"`
	Example     string   `json:"example,omitempty"`

	// Handler names the compiled-in handler; defaults to Name.
	Handler string `json:"handler,omitempty"`

	// Cooldown in seconds. Absent means the configured default, zero
	// disables the cooldown for this command.
	Cooldown *int `json:"cooldown,omitempty"`

	OwnerOnly   bool `json:"owner_only,omitempty"`
	GroupOnly   bool `json:"group_only,omitempty"`
	PrivateOnly bool `json:"private_only,omitempty"`
	AdminOnly   bool `json:"admin_only,omitempty"`
	BotAdmin    bool `json:"bot_admin,omitempty"`
	Hidden      bool `json:"hidden,omitempty"`
	Disabled    bool `json:"disabled,omitempty"`
}

// Definition converts the manifest, resolving its handler in the catalog.
func (m *Manifest) Definition(catalog *Catalog) (*Definition, error) {
	if m.Name == "" {
		return nil, fmt.Errorf("manifest has no name")
	}
	handlerName := m.Handler
	if handlerName == "" {
		handlerName = m.Name
	}
	fn, ok := catalog.Lookup(handlerName)
	if !ok {
		return nil, fmt.Errorf("command %q references unknown handler %q", m.Name, handlerName)
	}
	cooldown := -1
	if m.Cooldown != nil {
		if *m.Cooldown < 0 {
			return nil, fmt.Errorf("command %q has negative cooldown", m.Name)
		}
		cooldown = *m.Cooldown
	}
	return &Definition{
		Name:        strings.ToLower(m.Name),
		Aliases:     m.Aliases,
		Description: m.Description,
		Category:    m.Category,
		Usage:       m.Usage,
		Example:     m.Example,
		Cooldown:    cooldown,
		OwnerOnly:   m.OwnerOnly,
		GroupOnly:   m.GroupOnly,
		PrivateOnly: m.PrivateOnly,
		AdminOnly:   m.AdminOnly,
		BotAdmin:    m.BotAdmin,
		Hidden:      m.Hidden,
		Disabled:    m.Disabled,
		Run:         fn,
	}, nil
}

// LoadDir parses every .json manifest in dir. Any unreadable or invalid
// file fails the whole load; callers keep the previous command set in that
// case. A missing directory loads as an empty set.
func LoadDir(dir string, catalog *Catalog) ([]*Definition, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read commands dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	defs := make([]*Definition, 0, len(names))
	seen := make(map[string]string, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		var m Manifest
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		def, err := m.Definition(catalog)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if prev, dup := seen[def.Name]; dup {
			return nil, fmt.Errorf("%s: command %q already defined in %s", name, def.Name, prev)
		}
		seen[def.Name] = name
		defs = append(defs, def)
	}
	return defs, nil
}

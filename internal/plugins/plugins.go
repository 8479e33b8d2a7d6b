// /internal/plugins/plugins.go

// Package plugins collects the built-in command set. Each plugin package
// registers its definitions from init, so importing a package for side
// effects is all it takes to ship its commands.
package plugins

import (
	"raven-md/internal/command"
)

var defs []*command.Definition

// Register adds built-in command definitions. Called from plugin package
// init functions.
func Register(d ...*command.Definition) {
	defs = append(defs, d...)
}

// All returns every registered built-in definition.
func All() []*command.Definition {
	return defs
}

// BindAll exposes each built-in handler in the catalog under the command's
// name, so manifests can rebind or reconfigure them.
func BindAll(c *command.Catalog) {
	for _, d := range defs {
		c.Bind(d.Name, d.Run)
	}
}

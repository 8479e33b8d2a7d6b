// /internal/docs/readme.go
package docs

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"raven-md/internal/command"
)

// UpdateReadme regenerates README.md from the built-in command set.
// categoryWeights orders the sections (lower first); unknown categories sort
// last alphabetically.
func UpdateReadme(defs []*command.Definition, categoryWeights map[string]int, prefix string) error {
	sorted := make([]*command.Definition, len(defs))
	copy(sorted, defs)
	sort.Slice(sorted, func(i, j int) bool {
		wi, wj := weight(categoryWeights, sorted[i].Category), weight(categoryWeights, sorted[j].Category)
		if wi != wj {
			return wi < wj
		}
		if sorted[i].Category != sorted[j].Category {
			return sorted[i].Category < sorted[j].Category
		}
		return sorted[i].Name < sorted[j].Name
	})

	var buf bytes.Buffer
	currentCategory := ""
	for _, d := range sorted {
		if d.Hidden {
			continue
		}
		if d.Category != currentCategory {
			if currentCategory != "" {
				buf.WriteString("\n")
			}
			currentCategory = d.Category
			fmt.Fprintf(&buf, "### %s\n\n", currentCategory)
		}
		fmt.Fprintf(&buf, "- **%s%s**", prefix, d.Name)
		if len(d.Aliases) > 0 {
			fmt.Fprintf(&buf, " (%s)", strings.Join(d.Aliases, ", "))
		}
		fmt.Fprintf(&buf, " — %s\n", d.Description)
	}

	tmpl, err := template.ParseFiles(filepath.Join(".", "README.md.tmpl"))
	if err != nil {
		return err
	}
	f, err := os.Create(filepath.Join(".", "README.md"))
	if err != nil {
		return err
	}
	defer f.Close()

	data := struct{ CommandSections string }{CommandSections: buf.String()}
	return tmpl.Execute(f, data)
}

func weight(weights map[string]int, category string) int {
	if w, ok := weights[category]; ok {
		return w
	}
	return 1 << 16
}

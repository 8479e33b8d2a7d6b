// /internal/config/categories.go
package config

// CategoryWeights orders command categories in the menu and the generated
// README; lower comes first, unknown categories sort last.
var CategoryWeights = map[string]int{
	"core":  0,
	"group": 10,
	"admin": 20,
	"misc":  90,
}

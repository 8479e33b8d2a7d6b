// cmd/build-readme/main.go
package main

import (
	"log"

	_ "raven-md/internal/plugins/admin"
	_ "raven-md/internal/plugins/core"
	_ "raven-md/internal/plugins/group"

	"raven-md/internal/config"
	"raven-md/internal/docs"
	"raven-md/internal/plugins"
)

func main() {
	if err := docs.UpdateReadme(plugins.All(), config.CategoryWeights, "."); err != nil {
		log.Fatal(err)
	}
	log.Println("[INFO] README.md updated with current commands")
}

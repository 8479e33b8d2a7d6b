// /internal/command/manifest_test.go
package command

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func writeManifest(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func testCatalog() *Catalog {
	c := NewCatalog()
	c.Bind("ping", func(*Invocation) error { return nil })
	c.Bind("kick", func(*Invocation) error { return nil })
	return c
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "ping.json", `{
		"name": "Ping",
		"aliases": ["p"],
		"description": "latency check",
		"category": "core"
	}`)
	writeManifest(t, dir, "kick.json", `{
		"name": "kick",
		"handler": "kick",
		"cooldown": 10,
		"group_only": true,
		"admin_only": true,
		"bot_admin": true
	}`)
	writeManifest(t, dir, "notes.txt", "ignored")

	defs, err := LoadDir(dir, testCatalog())
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if len(defs) != 2 {
		t.Fatalf("loaded %d defs, want 2", len(defs))
	}

	// sorted by filename: kick.json first
	kick, ping := defs[0], defs[1]
	if kick.Name != "kick" || !kick.GroupOnly || !kick.AdminOnly || !kick.BotAdmin || kick.Cooldown != 10 {
		t.Errorf("kick = %+v", kick)
	}
	if ping.Name != "ping" {
		t.Errorf("manifest name not lowercased: %q", ping.Name)
	}
	if ping.Cooldown != -1 {
		t.Errorf("absent cooldown = %d, want -1 (default marker)", ping.Cooldown)
	}
	if ping.Run == nil {
		t.Error("handler not bound")
	}
}

func TestLoadDirMissingDirectory(t *testing.T) {
	defs, err := LoadDir(filepath.Join(t.TempDir(), "nope"), testCatalog())
	if err != nil {
		t.Fatalf("LoadDir on missing dir: %v", err)
	}
	if len(defs) != 0 {
		t.Errorf("got %d defs from missing dir", len(defs))
	}
}

func TestLoadDirUnknownHandler(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "mystery.json", `{"name": "mystery"}`)

	if _, err := LoadDir(dir, testCatalog()); err == nil {
		t.Fatal("LoadDir accepted a manifest with no matching handler")
	}
}

func TestLoadDirInvalidJSON(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "ping.json", `{"name": "ping"`)

	if _, err := LoadDir(dir, testCatalog()); err == nil {
		t.Fatal("LoadDir accepted invalid JSON")
	}
}

func TestLoadDirDuplicateNames(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "a.json", `{"name": "ping"}`)
	writeManifest(t, dir, "b.json", `{"name": "PING"}`)

	if _, err := LoadDir(dir, testCatalog()); err == nil {
		t.Fatal("LoadDir accepted duplicate command names")
	}
}

func TestReloadFailureRetainsPreviousSet(t *testing.T) {
	dir := t.TempDir()
	catalog := testCatalog()
	r := NewRegistry(zerolog.Nop())

	writeManifest(t, dir, "ping.json", `{"name": "ping", "aliases": ["p"]}`)
	defs, err := LoadDir(dir, catalog)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	r.SetManifests(defs)

	// break the directory and reload the way the watcher does: failed loads
	// never reach SetManifests
	writeManifest(t, dir, "ping.json", `{"name": "ping", "handler": "gone"}`)
	if defs, err = LoadDir(dir, catalog); err == nil {
		r.SetManifests(defs)
		t.Fatal("LoadDir accepted a broken manifest")
	}

	if _, ok := r.Resolve("p"); !ok {
		t.Error("previous command set lost after failed reload")
	}
}

// /internal/command/watch.go
package command

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Watcher polls the commands directory and triggers a reload when manifest
// files appear, change or vanish. Polling keeps the watcher portable and is
// cheap at the scale of a command directory.
type Watcher struct {
	dir      string
	interval time.Duration
	reload   func() error
	log      zerolog.Logger

	lastFingerprint string
}

func NewWatcher(dir string, interval time.Duration, reload func() error, log zerolog.Logger) *Watcher {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Watcher{
		dir:      dir,
		interval: interval,
		reload:   reload,
		log:      log.With().Str("component", "watcher").Logger(),
	}
}

// Run polls until ctx is done. A failed reload is logged and the previous
// command set stays live; the watcher keeps polling so a fixed file gets
// picked up on the next tick.
func (w *Watcher) Run(ctx context.Context) {
	w.lastFingerprint = w.fingerprint()
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fp := w.fingerprint()
			if fp == w.lastFingerprint {
				continue
			}
			w.lastFingerprint = fp
			w.log.Info().Str("dir", w.dir).Msg("command manifests changed, reloading")
			if err := w.reload(); err != nil {
				w.log.Error().Err(err).Msg("reload failed, keeping previous command set")
			}
		}
	}
}

// fingerprint summarizes the manifest files by name, size and modtime.
func (w *Watcher) fingerprint() string {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return "unreadable:" + err.Error()
	}
	var parts []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		info, err := os.Stat(filepath.Join(w.dir, e.Name()))
		if err != nil {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s:%d:%d", e.Name(), info.Size(), info.ModTime().UnixNano()))
	}
	sort.Strings(parts)
	return strings.Join(parts, "|")
}

// /internal/command/cooldown.go
package command

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// CooldownTracker keeps per-command, per-sender cooldown deadlines in
// memory. Expired entries are reaped by a background sweeper.
type CooldownTracker struct {
	mu      sync.Mutex
	entries map[cooldownKey]time.Time
	now     func() time.Time
}

type cooldownKey struct {
	command string
	sender  string
}

func NewCooldownTracker() *CooldownTracker {
	return &CooldownTracker{
		entries: make(map[cooldownKey]time.Time),
		now:     time.Now,
	}
}

// Check returns the remaining cooldown for a sender on a command. Zero
// remaining means the command may run.
func (t *CooldownTracker) Check(command, sender string) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	deadline, ok := t.entries[cooldownKey{command, sender}]
	if !ok {
		return 0
	}
	remaining := deadline.Sub(t.now())
	if remaining <= 0 {
		delete(t.entries, cooldownKey{command, sender})
		return 0
	}
	return remaining
}

// Arm checks and starts a cooldown in one step. If the key is already
// cooling down it reports the remaining time and false; otherwise the
// deadline is set under the same lock, so two concurrent invocations for
// one (command, sender) key can never both pass the check. Callers that
// later refuse the invocation release the slot with Set(command, sender, 0).
func (t *CooldownTracker) Arm(command, sender string, d time.Duration) (time.Duration, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	key := cooldownKey{command, sender}
	if deadline, ok := t.entries[key]; ok {
		if remaining := deadline.Sub(t.now()); remaining > 0 {
			return remaining, false
		}
		delete(t.entries, key)
	}
	if d > 0 {
		t.entries[key] = t.now().Add(d)
	}
	return 0, true
}

// Set arms the cooldown. A non-positive duration clears any existing entry.
func (t *CooldownTracker) Set(command, sender string, d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	key := cooldownKey{command, sender}
	if d <= 0 {
		delete(t.entries, key)
		return
	}
	t.entries[key] = t.now().Add(d)
}

// Sweep removes expired entries and reports how many were dropped.
func (t *CooldownTracker) Sweep() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	dropped := 0
	for key, deadline := range t.entries {
		if deadline.Before(now) {
			delete(t.entries, key)
			dropped++
		}
	}
	return dropped
}

// RunSweeper reaps expired cooldowns every minute until ctx is done. Call
// from main.
func (t *CooldownTracker) RunSweeper(ctx context.Context, log zerolog.Logger) {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := t.Sweep(); n > 0 {
				log.Debug().Int("expired", n).Msg("swept cooldowns")
			}
		}
	}
}

// /internal/command/cooldown_test.go
package command

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func newTrackerAt(now *time.Time) *CooldownTracker {
	t := NewCooldownTracker()
	t.now = func() time.Time { return *now }
	return t
}

func TestCooldownCheckAndExpiry(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tr := newTrackerAt(&now)

	if got := tr.Check("ping", "111"); got != 0 {
		t.Errorf("unarmed cooldown = %v", got)
	}

	tr.Set("ping", "111", 3*time.Second)
	if got := tr.Check("ping", "111"); got != 3*time.Second {
		t.Errorf("remaining = %v, want 3s", got)
	}

	now = now.Add(2 * time.Second)
	if got := tr.Check("ping", "111"); got != time.Second {
		t.Errorf("remaining = %v, want 1s", got)
	}

	now = now.Add(2 * time.Second)
	if got := tr.Check("ping", "111"); got != 0 {
		t.Errorf("expired cooldown = %v", got)
	}
}

func TestCooldownIsPerSenderAndCommand(t *testing.T) {
	now := time.Now()
	tr := newTrackerAt(&now)

	tr.Set("ping", "111", 5*time.Second)
	if tr.Check("ping", "222") != 0 {
		t.Error("cooldown leaked to another sender")
	}
	if tr.Check("menu", "111") != 0 {
		t.Error("cooldown leaked to another command")
	}
}

func TestCooldownZeroClears(t *testing.T) {
	now := time.Now()
	tr := newTrackerAt(&now)

	tr.Set("ping", "111", 5*time.Second)
	tr.Set("ping", "111", 0)
	if tr.Check("ping", "111") != 0 {
		t.Error("zero duration did not clear the cooldown")
	}
}

func TestSweepDropsOnlyExpired(t *testing.T) {
	now := time.Now()
	tr := newTrackerAt(&now)

	tr.Set("ping", "111", time.Second)
	tr.Set("menu", "111", time.Hour)

	now = now.Add(2 * time.Second)
	if dropped := tr.Sweep(); dropped != 1 {
		t.Errorf("Sweep dropped %d, want 1", dropped)
	}
	if tr.Check("menu", "111") == 0 {
		t.Error("live cooldown swept away")
	}
}

func TestArmChecksAndSetsAtomically(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tr := newTrackerAt(&now)

	if remaining, ok := tr.Arm("ping", "111", 30*time.Second); !ok || remaining != 0 {
		t.Fatalf("first Arm = (%v, %v), want (0, true)", remaining, ok)
	}
	if remaining, ok := tr.Arm("ping", "111", 30*time.Second); ok || remaining != 30*time.Second {
		t.Errorf("second Arm = (%v, %v), want (30s, false)", remaining, ok)
	}

	// releasing the slot re-opens it
	tr.Set("ping", "111", 0)
	if _, ok := tr.Arm("ping", "111", 30*time.Second); !ok {
		t.Error("Arm after release refused")
	}

	now = now.Add(31 * time.Second)
	if _, ok := tr.Arm("ping", "111", 30*time.Second); !ok {
		t.Error("Arm after expiry refused")
	}
}

func TestArmConcurrentCallersAdmitOne(t *testing.T) {
	tr := NewCooldownTracker()

	const n = 16
	var admitted atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := tr.Arm("ping", "111", time.Minute); ok {
				admitted.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := admitted.Load(); got != 1 {
		t.Errorf("%d callers admitted, want 1", got)
	}
}

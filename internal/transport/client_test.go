package transport

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"raven-md/internal/wa"
)

func TestOnEventRegistrationIsSafeDuringDelivery(t *testing.T) {
	c := &Client{}
	ev := &wa.Event{Key: wa.Key{RemoteJID: "111@s.whatsapp.net", ID: "M1"}}
	ctx := context.Background()

	// deliveries start before any handler is registered; they must be
	// dropped, never panic
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			for j := 0; j < 100; j++ {
				c.emit(ctx, ev)
			}
		}()
	}

	var received atomic.Int32
	close(start)
	c.OnEvent(func(_ context.Context, got *wa.Event) {
		if got.Key.ID == "M1" {
			received.Add(1)
		}
	})
	wg.Wait()

	// after registration every delivery reaches the handler
	for i := 0; i < 10; i++ {
		c.emit(ctx, ev)
	}
	if got := received.Load(); got < 10 {
		t.Errorf("received %d events after registration, want at least 10", got)
	}
}

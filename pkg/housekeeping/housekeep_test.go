package housekeeping

import (
	"context"
	"testing"
	"time"

	"github.com/retrigger-io/retrigger/pkg/logging"
)

// TestRunPeriodicallyInitialPass tests that RunPeriodically invokes task
// immediately, before any tick has elapsed.
func TestRunPeriodicallyInitialPass(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var calls int
	done := make(chan struct{})
	go func() {
		RunPeriodically(ctx, time.Hour, "test task", func() {
			calls++
			if calls == 1 {
				cancel()
			}
		}, logging.RootLogger)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("RunPeriodically did not return after cancellation")
	}

	if calls != 1 {
		t.Fatalf("expected exactly one task invocation, got %d", calls)
	}
}

// TestRunPeriodicallyTicks tests that RunPeriodically invokes task again once
// the interval elapses.
func TestRunPeriodicallyTicks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := make(chan struct{}, 8)
	go RunPeriodically(ctx, time.Millisecond, "test task", func() {
		select {
		case calls <- struct{}{}:
		default:
		}
	}, logging.RootLogger)

	timeout := time.After(5 * time.Second)
	for i := 0; i < 2; i++ {
		select {
		case <-calls:
		case <-timeout:
			t.Fatal("timed out waiting for periodic invocation")
		}
	}
}

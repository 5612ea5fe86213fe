package clock

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSleepWithContext(t *testing.T) {
	start := time.Now()
	if err := SleepWithContext(context.Background(), 10*time.Millisecond); err != nil {
		t.Fatalf("SleepWithContext() = %v", err)
	}
	if elapsed := time.Since(start); elapsed < 10*time.Millisecond {
		t.Fatalf("returned after %v, want at least 10ms", elapsed)
	}
}

func TestSleepWithContext_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(5*time.Millisecond, cancel)

	start := time.Now()
	err := SleepWithContext(ctx, time.Second)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("SleepWithContext() = %v, want context.Canceled", err)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Fatalf("cancellation took %v", elapsed)
	}
}

func TestEvery(t *testing.T) {
	calls := 0
	stop := errors.New("stop")
	err := Every(context.Background(), time.Millisecond, func(context.Context) error {
		calls++
		if calls == 3 {
			return stop
		}
		return nil
	})
	if !errors.Is(err, stop) {
		t.Fatalf("Every() = %v, want stop sentinel", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestEvery_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Every(ctx, time.Hour, func(context.Context) error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Every() = %v, want context.Canceled", err)
	}
}

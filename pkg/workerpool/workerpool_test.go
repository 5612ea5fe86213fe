package workerpool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestProcess_AllItems(t *testing.T) {
	var (
		mu   sync.Mutex
		seen = map[int]bool{}
	)
	items := []int{1, 2, 3, 4, 5, 6, 7}
	err := Process(context.Background(), 3, items, func(_ context.Context, n int) error {
		mu.Lock()
		seen[n] = true
		mu.Unlock()
		return nil
	})
	if err != nil {
		t.Fatalf("Process() = %v", err)
	}
	if len(seen) != len(items) {
		t.Fatalf("processed %d items, want %d", len(seen), len(items))
	}
}

func TestProcess_FirstErrorStopsWork(t *testing.T) {
	boom := errors.New("boom")
	var processed atomic.Int64
	items := make([]int, 1000)
	for i := range items {
		items[i] = i
	}

	err := Process(context.Background(), 4, items, func(_ context.Context, n int) error {
		if n == 5 {
			return boom
		}
		processed.Add(1)
		return nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Process() = %v, want boom", err)
	}
	if got := processed.Load(); got == int64(len(items)-1) {
		t.Errorf("all items processed despite error (%d)", got)
	}
}

func TestProcess_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Process(ctx, 2, []int{1, 2, 3}, func(context.Context, int) error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Process() = %v, want context.Canceled", err)
	}
}

func TestProcess_EmptyItems(t *testing.T) {
	if err := Process(context.Background(), 2, nil, func(context.Context, int) error {
		t.Error("process called for empty input")
		return nil
	}); err != nil {
		t.Fatalf("Process() = %v", err)
	}
}

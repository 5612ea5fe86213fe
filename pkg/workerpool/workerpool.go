// Package workerpool runs a bounded number of goroutines over a fixed
// set of work items.
package workerpool

import (
	"context"
	"sync"
)

// Process fans items out to workerCount goroutines, invoking process for
// each item. The first error cancels the remaining work and is returned;
// otherwise Process waits for all items and returns nil. Item order is not
// preserved, so process must write results keyed by item.
func Process[T any](ctx context.Context, workerCount int, items []T, process func(context.Context, T) error) error {
	if len(items) == 0 {
		return ctx.Err()
	}
	if workerCount < 1 {
		workerCount = 1
	}
	if workerCount > len(items) {
		workerCount = len(items)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	tasks := make(chan T)
	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)

	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range tasks {
				if ctx.Err() != nil {
					return
				}
				if err := process(ctx, item); err != nil {
					errOnce.Do(func() {
						firstErr = err
						cancel()
					})
					return
				}
			}
		}()
	}

	for _, item := range items {
		select {
		case <-ctx.Done():
		case tasks <- item:
			continue
		}
		break
	}
	close(tasks)
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}

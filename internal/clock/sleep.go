// Package clock provides context-aware time helpers for long-running loops.
package clock

import (
	"context"
	"time"
)

// SleepWithContext blocks for d or until the context is canceled, whichever
// comes first, returning the context error on early wakeup.
func SleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Every invokes fn once per interval until the context is canceled or fn
// returns an error. The first invocation happens after the first interval.
func Every(ctx context.Context, interval time.Duration, fn func(context.Context) error) error {
	for {
		if err := SleepWithContext(ctx, interval); err != nil {
			return err
		}
		if err := fn(ctx); err != nil {
			return err
		}
	}
}

// Package batcher buffers items and flushes them in batches, bounded by
// size, interval and a rate limit on the sink.
package batcher

import (
	"context"
	"sync"
	"time"

	"go.uber.org/ratelimit"
	"go.uber.org/zap"
)

// Sink receives a full batch. Errors are logged by the batcher; items in a
// failed batch are dropped, so sinks that cannot lose data must retry
// internally.
type Sink[T any] func(ctx context.Context, batch []T) error

// Batcher accumulates items and hands them to its sink once flushSize is
// reached or flushInterval elapses, whichever comes first.
type Batcher[T any] struct {
	sink          Sink[T]
	flushSize     int
	flushInterval time.Duration
	limiter       ratelimit.Limiter
	logger        *zap.Logger

	in   chan T
	stop chan struct{}
	wg   sync.WaitGroup
}

// New constructs a Batcher flushing at most rps batches per second.
func New[T any](logger *zap.Logger, sink Sink[T], flushSize int, flushInterval time.Duration, rps int) *Batcher[T] {
	return &Batcher[T]{
		sink:          sink,
		flushSize:     flushSize,
		flushInterval: flushInterval,
		limiter:       ratelimit.New(rps),
		logger:        logger,
		in:            make(chan T, flushSize*2),
		stop:          make(chan struct{}),
	}
}

// Start launches the background flush loop.
func (b *Batcher[T]) Start(ctx context.Context) {
	b.wg.Add(1)
	go b.loop(ctx)
}

// Stop flushes whatever is buffered and waits for the loop to exit.
func (b *Batcher[T]) Stop() {
	close(b.stop)
	b.wg.Wait()
}

// Add queues one item. It fails only when the batcher has been stopped or
// the context ends while the buffer is full.
func (b *Batcher[T]) Add(ctx context.Context, item T) error {
	select {
	case <-b.stop:
		return context.Canceled
	default:
	}

	select {
	case b.in <- item:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Batcher[T]) loop(ctx context.Context) {
	defer b.wg.Done()

	ticker := time.NewTicker(b.flushInterval)
	defer ticker.Stop()

	batch := make([]T, 0, b.flushSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		b.limiter.Take()
		if err := b.sink(ctx, batch); err != nil {
			b.logger.Error("batch flush failed", zap.Int("size", len(batch)), zap.Error(err))
		} else {
			b.logger.Debug("batch flushed", zap.Int("size", len(batch)))
		}
		batch = batch[:0]
	}

	for {
		select {
		case item := <-b.in:
			batch = append(batch, item)
			if len(batch) >= b.flushSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-b.stop:
			b.drain(&batch)
			flush()
			return
		case <-ctx.Done():
			flush()
			return
		}
	}
}

// drain pulls whatever is still queued so Stop does not lose items that
// were accepted by Add but not yet picked up by the loop.
func (b *Batcher[T]) drain(batch *[]T) {
	for {
		select {
		case item := <-b.in:
			*batch = append(*batch, item)
		default:
			return
		}
	}
}

// Package service wires the ledger engine to its side effects: snapshot
// persistence, the analytical archive and upstream sync.
package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/goodnatureofminers/cveledger-backend/internal/ledger"
	"github.com/goodnatureofminers/cveledger-backend/internal/model"
)

// Ledger serializes all engine access behind one mutex. The engine itself
// does no locking, and Mine must see a frozen queue between drain and
// append, so every write path goes through here.
type Ledger struct {
	mu       sync.RWMutex
	engine   *ledger.Engine
	store    SnapshotStore
	archiver Archiver
	metrics  LedgerMetrics
	logger   *zap.Logger
}

// NewLedger builds the ledger service. archiver may be nil when no archive
// backend is configured.
func NewLedger(
	engine *ledger.Engine,
	store SnapshotStore,
	archiver Archiver,
	metrics LedgerMetrics,
	logger *zap.Logger,
) *Ledger {
	return &Ledger{
		engine:   engine,
		store:    store,
		archiver: archiver,
		metrics:  metrics,
		logger:   logger,
	}
}

// Submit validates and stages a record for the next block, then persists
// the snapshot so pending records survive a restart.
func (l *Ledger) Submit(r model.Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	err := l.engine.Submit(r)
	l.metrics.ObserveSubmit(err)
	if err != nil {
		return err
	}

	l.persist()
	l.logger.Info("record staged", zap.String("cve_id", r.ID), zap.String("severity", string(r.Severity)))
	return nil
}

// Mine drains up to maxBatch pending records (0 = all) into a new block.
// It returns (nil, nil) when the queue is empty. A committed block is
// persisted and exported to the archive before the lock is released.
func (l *Ledger) Mine(ctx context.Context, maxBatch int) (*ledger.Block, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	started := time.Now()
	block, err := l.engine.Mine(ctx, maxBatch)
	records := 0
	if block != nil {
		records = len(block.Records)
	}
	l.metrics.ObserveMine(err, records, started)
	if err != nil {
		return nil, err
	}
	if block == nil {
		return nil, nil
	}

	l.persist()
	l.export(ctx, *block)
	l.logger.Info("block mined",
		zap.Uint64("index", block.Index),
		zap.String("hash", block.Hash),
		zap.Uint64("nonce", block.Nonce),
		zap.Int("records", records),
		zap.Duration("took", time.Since(started)))
	return block, nil
}

// Status reports the engine summary.
func (l *Ledger) Status() ledger.Status {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.engine.Status()
}

// Get returns a committed record by id, or ledger.ErrRecordNotFound.
func (l *Ledger) Get(id string) (model.Record, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.engine.Record(id)
}

// Has reports whether the id is pending or committed.
func (l *Ledger) Has(id string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.engine.HasRecord(id)
}

// List returns committed records honoring the filter.
func (l *Ledger) List(f ledger.Filter) []model.Record {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.engine.Records(f)
}

// Blocks returns a copy of the full block sequence.
func (l *Ledger) Blocks() []ledger.Block {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.engine.Chain().Blocks()
}

// Pending returns the staged records in queue order.
func (l *Ledger) Pending() []model.Record {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.engine.Queue().Records()
}

// Validate runs a full chain scan.
func (l *Ledger) Validate() error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.engine.Validate()
}

// persist saves the snapshot under the held write lock. Failure is logged
// rather than returned: the in-memory state has already advanced and the
// next successful save will capture it.
func (l *Ledger) persist() {
	if err := l.store.Save(l.engine); err != nil {
		l.logger.Error("snapshot save failed", zap.Error(err))
	}
}

// export hands the block's records to the archive. Failure is logged; the
// archive is derived data and can be rebuilt from the chain.
func (l *Ledger) export(ctx context.Context, block ledger.Block) {
	if l.archiver == nil {
		return
	}
	if err := l.archiver.Archive(ctx, ArchiveRows(block)); err != nil {
		l.logger.Error("archive export failed", zap.Uint64("index", block.Index), zap.Error(err))
	}
}

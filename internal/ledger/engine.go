package ledger

import (
	"context"
	"time"

	"github.com/goodnatureofminers/cveledger-backend/internal/model"
)

// Status summarizes the engine state.
type Status struct {
	Height     uint64 `json:"height"`
	TipHash    string `json:"tip_hash"`
	Difficulty int    `json:"difficulty"`
	Pending    int    `json:"pending_count"`
	Valid      bool   `json:"is_valid"`
}

// Engine bundles a chain and its pending queue. It is an explicitly
// constructed instance, never a package singleton, so tests can run
// isolated ledgers side by side.
//
// The engine itself does no locking: it expects a single writer, and the
// wrapping service must serialize Submit and Mine behind one mutex because
// Mine performs drain, solve and append as a single logical transaction.
type Engine struct {
	chain *Chain
	queue *PendingQueue
	now   func() time.Time
}

// NewEngine returns a fresh engine holding only the genesis block.
func NewEngine(difficulty int) *Engine {
	return &Engine{
		chain: NewChain(difficulty),
		queue: NewPendingQueue(),
		now:   time.Now,
	}
}

// NewEngineFromState wires an engine around restored chain and queue state.
func NewEngineFromState(chain *Chain, queue *PendingQueue) *Engine {
	return &Engine{chain: chain, queue: queue, now: time.Now}
}

// Submit validates a record and stages it for the next block. Records whose
// id is already pending or committed anywhere in the chain are rejected
// with a DuplicateError, never merged or overwritten.
func (e *Engine) Submit(r model.Record) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if e.chain.HasRecord(r.ID) {
		return &DuplicateError{ID: r.ID}
	}
	return e.queue.Enqueue(r)
}

// Mine drains up to maxBatch pending records (0 = all), solves a candidate
// block over them and appends it. An empty queue is not an error: Mine
// returns (nil, nil) and leaves all state untouched.
//
// The operation is all-or-nothing: if solving is cancelled or the append is
// rejected, the drained records are restored to the front of the queue in
// their original order and the failure is returned.
func (e *Engine) Mine(ctx context.Context, maxBatch int) (*Block, error) {
	batch := e.queue.Drain(maxBatch)
	if len(batch) == 0 {
		return nil, nil
	}
	candidate := NewCandidate(e.chain.Height(), e.now(), batch, e.chain.Tip().Hash)
	mined, err := Solve(ctx, candidate, e.chain.Difficulty())
	if err != nil {
		e.queue.Restore(batch)
		return nil, err
	}
	if err := e.chain.Append(mined); err != nil {
		e.queue.Restore(batch)
		return nil, err
	}
	return &mined, nil
}

// Status reports height, tip hash, difficulty, pending count and whether a
// full validation pass succeeds.
func (e *Engine) Status() Status {
	return Status{
		Height:     e.chain.Height(),
		TipHash:    e.chain.Tip().Hash,
		Difficulty: e.chain.Difficulty(),
		Pending:    e.queue.Size(),
		Valid:      e.chain.Validate() == nil,
	}
}

// Record returns a committed record by id, or ErrRecordNotFound.
func (e *Engine) Record(id string) (model.Record, error) {
	r, ok := e.chain.Record(id)
	if !ok {
		return model.Record{}, ErrRecordNotFound
	}
	return r, nil
}

// HasRecord reports whether the id is pending or committed.
func (e *Engine) HasRecord(id string) bool {
	return e.queue.Has(id) || e.chain.HasRecord(id)
}

// Records lists committed records honoring the filter.
func (e *Engine) Records(f Filter) []model.Record {
	return e.chain.Records(f)
}

// Validate runs a full chain scan.
func (e *Engine) Validate() error {
	return e.chain.Validate()
}

// Chain exposes the underlying chain for snapshotting and status surfaces.
func (e *Engine) Chain() *Chain {
	return e.chain
}

// Queue exposes the pending queue for snapshotting.
func (e *Engine) Queue() *PendingQueue {
	return e.queue
}

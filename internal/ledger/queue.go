package ledger

import (
	"github.com/goodnatureofminers/cveledger-backend/internal/model"
)

// PendingQueue stages admitted records until they are committed into a
// block. Insertion order is preserved so batch composition is deterministic.
// The queue does no locking; see Engine.
type PendingQueue struct {
	records []model.Record
	ids     map[string]struct{}
}

// NewPendingQueue returns an empty queue.
func NewPendingQueue() *PendingQueue {
	return &PendingQueue{ids: make(map[string]struct{})}
}

// NewPendingQueueFromRecords rebuilds a queue from a persisted snapshot,
// keeping the stored order. Duplicate ids in the input are rejected.
func NewPendingQueueFromRecords(records []model.Record) (*PendingQueue, error) {
	q := NewPendingQueue()
	for _, r := range records {
		if err := q.Enqueue(r); err != nil {
			return nil, err
		}
	}
	return q, nil
}

// Enqueue appends a record, rejecting ids already staged. Callers are
// responsible for checking the committed chain before enqueueing.
func (q *PendingQueue) Enqueue(r model.Record) error {
	if _, ok := q.ids[r.ID]; ok {
		return &DuplicateError{ID: r.ID}
	}
	q.records = append(q.records, r)
	q.ids[r.ID] = struct{}{}
	return nil
}

// Has reports whether the id is currently staged.
func (q *PendingQueue) Has(id string) bool {
	_, ok := q.ids[id]
	return ok
}

// Drain removes and returns up to max records in FIFO order; max <= 0
// drains everything. If the subsequent mine fails the caller must Restore
// the drained records.
func (q *PendingQueue) Drain(max int) []model.Record {
	n := len(q.records)
	if max > 0 && max < n {
		n = max
	}
	if n == 0 {
		return nil
	}
	drained := make([]model.Record, n)
	copy(drained, q.records[:n])
	q.records = append([]model.Record(nil), q.records[n:]...)
	for _, r := range drained {
		delete(q.ids, r.ID)
	}
	return drained
}

// Restore puts previously drained records back at the front of the queue
// in their original order. Records are not re-validated.
func (q *PendingQueue) Restore(records []model.Record) {
	if len(records) == 0 {
		return
	}
	q.records = append(append([]model.Record(nil), records...), q.records...)
	for _, r := range records {
		q.ids[r.ID] = struct{}{}
	}
}

// Size returns the number of staged records.
func (q *PendingQueue) Size() int {
	return len(q.records)
}

// Records returns a copy of the staged records in order.
func (q *PendingQueue) Records() []model.Record {
	out := make([]model.Record, len(q.records))
	copy(out, q.records)
	return out
}

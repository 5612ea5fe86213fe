package ledger

import (
	"errors"
	"fmt"
)

// ErrRecordNotFound is returned when a record id is not committed anywhere
// in the chain.
var ErrRecordNotFound = errors.New("record not found")

// DuplicateError rejects a record whose id is already pending or committed.
type DuplicateError struct {
	ID string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("record %s already pending or committed", e.ID)
}

// IntegrityError reports the first block at which the chain breaks one of
// its invariants. It is fatal to the operation that detected it; the chain
// is never auto-repaired.
type IntegrityError struct {
	Index  uint64
	Reason string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("chain integrity violated at block %d: %s", e.Index, e.Reason)
}

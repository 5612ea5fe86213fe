package ledger

import (
	"fmt"

	"github.com/goodnatureofminers/cveledger-backend/internal/model"
)

// Filter narrows record listings. Zero values match everything.
type Filter struct {
	Severity model.Severity
	Source   string
}

type location struct {
	block int
	pos   int
}

// Chain is the ordered block sequence. It owns its blocks exclusively and
// maintains an id->location index for O(1) lookups. No internal locking;
// see Engine.
type Chain struct {
	blocks     []Block
	index      map[string]location
	difficulty int
}

// NewChain starts a chain from the genesis block at the given difficulty.
func NewChain(difficulty int) *Chain {
	return &Chain{
		blocks:     []Block{Genesis()},
		index:      make(map[string]location),
		difficulty: difficulty,
	}
}

// NewChainFromBlocks rebuilds a chain from persisted blocks, including the
// record index, and verifies every invariant before accepting it.
func NewChainFromBlocks(blocks []Block, difficulty int) (*Chain, error) {
	if len(blocks) == 0 {
		return nil, fmt.Errorf("empty block sequence")
	}
	c := &Chain{
		blocks:     append([]Block(nil), blocks...),
		index:      make(map[string]location),
		difficulty: difficulty,
	}
	for i, b := range c.blocks {
		for j, r := range b.Records {
			if _, ok := c.index[r.ID]; ok {
				return nil, &IntegrityError{Index: b.Index, Reason: fmt.Sprintf("record %s committed twice", r.ID)}
			}
			c.index[r.ID] = location{block: i, pos: j}
		}
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Height returns the number of blocks, genesis included.
func (c *Chain) Height() uint64 {
	return uint64(len(c.blocks))
}

// Tip returns the most recently appended block.
func (c *Chain) Tip() Block {
	return c.blocks[len(c.blocks)-1]
}

// Difficulty returns the active difficulty parameter.
func (c *Chain) Difficulty() int {
	return c.difficulty
}

// Blocks returns a copy of the block sequence.
func (c *Chain) Blocks() []Block {
	out := make([]Block, len(c.blocks))
	copy(out, c.blocks)
	return out
}

// Append accepts a mined block if it links to the current tip, its stored
// hash matches a recomputation, and the hash satisfies the active
// difficulty. The record index is updated incrementally.
func (c *Chain) Append(b Block) error {
	tip := c.Tip()
	if b.Index != c.Height() {
		return &IntegrityError{Index: b.Index, Reason: fmt.Sprintf("expected index %d", c.Height())}
	}
	if b.PrevHash != tip.Hash {
		return &IntegrityError{Index: b.Index, Reason: "previous hash does not match tip"}
	}
	if len(b.Records) == 0 {
		return &IntegrityError{Index: b.Index, Reason: "empty payload"}
	}
	if got := b.ComputeHash(); got != b.Hash {
		return &IntegrityError{Index: b.Index, Reason: "stored hash does not match recomputation"}
	}
	if !MeetsDifficulty(b.Hash, c.difficulty) {
		return &IntegrityError{Index: b.Index, Reason: fmt.Sprintf("hash does not meet difficulty %d", c.difficulty)}
	}
	for _, r := range b.Records {
		if _, ok := c.index[r.ID]; ok {
			return &IntegrityError{Index: b.Index, Reason: fmt.Sprintf("record %s already committed", r.ID)}
		}
	}
	pos := len(c.blocks)
	c.blocks = append(c.blocks, b)
	for j, r := range b.Records {
		c.index[r.ID] = location{block: pos, pos: j}
	}
	return nil
}

// Validate rescans the whole chain: genesis shape, parent links, hash
// recomputation, and the difficulty predicate for every mined block. It
// returns an IntegrityError naming the first violating block.
func (c *Chain) Validate() error {
	g := c.blocks[0]
	if g.Index != 0 || g.PrevHash != GenesisPrevHash || len(g.Records) != 0 {
		return &IntegrityError{Index: 0, Reason: "malformed genesis block"}
	}
	if g.ComputeHash() != g.Hash {
		return &IntegrityError{Index: 0, Reason: "stored hash does not match recomputation"}
	}
	for i := 1; i < len(c.blocks); i++ {
		b := c.blocks[i]
		if b.Index != uint64(i) {
			return &IntegrityError{Index: b.Index, Reason: fmt.Sprintf("index out of sequence, expected %d", i)}
		}
		if b.PrevHash != c.blocks[i-1].Hash {
			return &IntegrityError{Index: b.Index, Reason: "broken link to previous block"}
		}
		if len(b.Records) == 0 {
			return &IntegrityError{Index: b.Index, Reason: "empty payload"}
		}
		if b.ComputeHash() != b.Hash {
			return &IntegrityError{Index: b.Index, Reason: "stored hash does not match recomputation"}
		}
		if !MeetsDifficulty(b.Hash, c.difficulty) {
			return &IntegrityError{Index: b.Index, Reason: fmt.Sprintf("hash does not meet difficulty %d", c.difficulty)}
		}
	}
	return nil
}

// HasRecord reports whether the id is committed anywhere in the chain.
func (c *Chain) HasRecord(id string) bool {
	_, ok := c.index[id]
	return ok
}

// Record looks up a committed record by id via the maintained index.
func (c *Chain) Record(id string) (model.Record, bool) {
	loc, ok := c.index[id]
	if !ok {
		return model.Record{}, false
	}
	return c.blocks[loc.block].Records[loc.pos], true
}

// Records returns committed records matching the filter, in block order
// and then in-block order.
func (c *Chain) Records(f Filter) []model.Record {
	var out []model.Record
	for _, b := range c.blocks {
		for _, r := range b.Records {
			if f.Severity != "" && r.Severity != f.Severity {
				continue
			}
			if f.Source != "" && r.Source != f.Source {
				continue
			}
			out = append(out, r)
		}
	}
	return out
}

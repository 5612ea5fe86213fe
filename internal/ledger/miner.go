package ledger

import (
	"context"
	"fmt"
)

// How many nonce attempts between context checks. Hashing dominates the
// loop, so the check adds no measurable overhead at this stride.
const cancelCheckStride = 4096

// Solve searches nonces from zero upward until the block hash has at least
// difficulty leading '0' hex characters, and returns the block with nonce
// and hash set. The search is sequential, so the result is deterministic
// for identical inputs. It is CPU-bound and unbounded in the worst case;
// cancel the context to abandon it without committing any state.
func Solve(ctx context.Context, candidate Block, difficulty int) (Block, error) {
	if difficulty < 0 {
		return Block{}, fmt.Errorf("negative difficulty %d", difficulty)
	}
	for nonce := uint64(0); ; nonce++ {
		if nonce%cancelCheckStride == 0 {
			if err := ctx.Err(); err != nil {
				return Block{}, err
			}
		}
		candidate.Nonce = nonce
		h := candidate.ComputeHash()
		if MeetsDifficulty(h, difficulty) {
			candidate.Hash = h
			return candidate, nil
		}
	}
}

// MeetsDifficulty reports whether a hex digest has at least difficulty
// leading '0' characters.
func MeetsDifficulty(hexHash string, difficulty int) bool {
	if difficulty > len(hexHash) {
		return false
	}
	for i := 0; i < difficulty; i++ {
		if hexHash[i] != '0' {
			return false
		}
	}
	return true
}

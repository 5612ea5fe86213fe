// Package safe provides checked numeric conversions and parsing.
package safe

import (
	"fmt"
	"math"
	"strconv"
)

// IntFromUint64 converts v to int, failing instead of wrapping around on
// platforms where int is narrower than 64 bits.
func IntFromUint64(v uint64) (int, error) {
	if v > math.MaxInt {
		return 0, fmt.Errorf("value %d out of int range", v)
	}
	return int(v), nil
}

// PositiveIntParam parses a decimal query parameter and enforces
// 1 <= n <= max. Empty input yields the fallback.
func PositiveIntParam(raw string, fallback, max int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", raw)
	}
	if n < 1 || n > max {
		return 0, fmt.Errorf("value %d outside [1, %d]", n, max)
	}
	return n, nil
}

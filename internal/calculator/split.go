// Package calculator holds the pure money math: the even-split allocator and
// balance/spend aggregation. No I/O, no shared state; every function is safe
// to call concurrently.
package calculator

import (
	"fmt"

	"github.com/tallyhq/tally/internal/models"
)

// Split divides amount evenly across n participants, in minor currency
// units. The entries always sum to exactly amount and differ from each other
// by at most one unit. The remainder goes to the first entries in order, so
// the result is deterministic and stable.
//
// Negative amounts split by magnitude and the sign is applied afterwards.
func Split(amount int64, n int) ([]int64, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: split requires at least one participant, got %d", models.ErrInvalidArgument, n)
	}

	magnitude := amount
	negative := amount < 0
	if negative {
		magnitude = -magnitude
	}

	base := magnitude / int64(n)
	remainder := magnitude % int64(n)

	shares := make([]int64, n)
	for i := range shares {
		shares[i] = base
		if int64(i) < remainder {
			shares[i]++
		}
		if negative {
			shares[i] = -shares[i]
		}
	}
	return shares, nil
}

package logmerge

import (
	"context"
	"fmt"
)

// primeBarrier collects the first fetch of every source and releases them
// together, once all have settled
type primeBarrier struct {
	expected int
	results  chan primeResult
}

func newPrimeBarrier(expected int) *primeBarrier {
	return &primeBarrier{
		expected: expected,
		results:  make(chan primeResult, expected),
	}
}

// settle records one finished fetch. It never blocks.
func (b *primeBarrier) settle(res primeResult) {
	b.results <- res
}

func (b *primeBarrier) close() {
	close(b.results)
}

// release waits until every fetch has settled and returns the results in
// registration order, independent of completion order
func (b *primeBarrier) release(ctx context.Context) ([]primeResult, error) {
	ordered := make([]primeResult, b.expected)
	settled := 0
	for res := range b.results {
		ordered[res.cursor.id] = res
		settled++
	}

	// Check if context was cancelled
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if settled != b.expected {
		return nil, fmt.Errorf("barrier expected %d settled fetches, got %d", b.expected, settled)
	}

	return ordered, nil
}

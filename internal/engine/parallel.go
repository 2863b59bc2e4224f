package engine

import (
	"context"

	"golang.org/x/sync/errgroup"

	"customer-insights-engine/internal/dataset"
)

// span is a contiguous customer range. Partitions never overlap, so workers
// read disjoint slices of an immutable snapshot and need no locking.
type span struct{ lo, hi int }

// partition splits n customers into at most parts contiguous spans of
// near-equal size. Fewer customers than parts means one span per customer.
func partition(n, parts int) []span {
	if parts > n {
		parts = n
	}
	if parts < 1 {
		return nil
	}
	spans := make([]span, 0, parts)
	size, rem := n/parts, n%parts
	lo := 0
	for i := 0; i < parts; i++ {
		hi := lo + size
		if i < rem {
			hi++
		}
		spans = append(spans, span{lo: lo, hi: hi})
		lo = hi
	}
	return spans
}

// BigSpenders returns the customers whose total spending strictly exceeds
// threshold, computed with a partitioned pass over the snapshot. Each worker
// filters its own range with the same spendingAbove reducer as the serial
// query, and the per-range results are concatenated in range order, so the
// output matches CustomersSpendingOver for any worker count.
func (e *Engine) BigSpenders(ctx context.Context, threshold float64) ([]dataset.Customer, error) {
	cs, err := e.customers(ctx)
	if err != nil {
		return nil, err
	}
	spans := partition(len(cs), e.workers)
	if len(spans) == 0 {
		return []dataset.Customer{}, nil
	}

	parts := make([][]dataset.Customer, len(spans))
	g, ctx := errgroup.WithContext(ctx)
	for i, sp := range spans {
		i, sp := i, sp // per-iteration copies; required under go <1.22
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			parts[i] = spendingAbove(cs[sp.lo:sp.hi], threshold)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := []dataset.Customer{}
	for _, p := range parts {
		out = append(out, p...)
	}
	return out, nil
}

// TotalRevenueParallel computes the same sum as TotalRevenue with per-range
// partial sums, combined in range order. Float addition is not associative,
// so with more than one range the last bits can differ from the serial fold.
func (e *Engine) TotalRevenueParallel(ctx context.Context) (float64, error) {
	cs, err := e.customers(ctx)
	if err != nil {
		return 0, err
	}
	spans := partition(len(cs), e.workers)
	if len(spans) == 0 {
		return 0, nil
	}

	partials := make([]float64, len(spans))
	g, ctx := errgroup.WithContext(ctx)
	for i, sp := range spans {
		i, sp := i, sp // per-iteration copies; required under go <1.22
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			partials[i] = revenueOf(cs[sp.lo:sp.hi])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	var total float64
	for _, p := range partials {
		total += p
	}
	return total, nil
}

package fibonacci

import (
	"cmp"
	"context"
	"runtime"
	"slices"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/agbru/fibbench/internal/memtrack"
)

// Batch computes F(i) for every index in indices and returns the values in
// input order. The indices are visited in ascending order during a single
// iterative sweep, so the cost is O(max(indices)) regardless of how many are
// requested or how they are ordered. Duplicates are allowed.
//
// The returned slice is tracked by memtrack.Global; hand it to ReleaseBatch
// once it is no longer needed.
func Batch(indices []uint64) []Value {
	rec := memtrack.Global()
	out := memtrack.Alloc[Value](rec, len(indices))
	if len(indices) == 0 {
		return out
	}

	order := memtrack.Alloc[int](rec, len(indices))
	defer memtrack.Free(rec, order)
	for i := range order {
		order[i] = i
	}
	slices.SortFunc(order, func(x, y int) int {
		return cmp.Compare(indices[x], indices[y])
	})

	a, b := zero, one
	var cur uint64
	for _, pos := range order {
		n := indices[pos]
		a, b = iterateFrom(a, b, n-cur)
		cur = n
		out[pos] = a
	}
	return out
}

// ReleaseBatch hands a slice returned by Batch or BatchVariant back to the
// tracker.
func ReleaseBatch(values []Value) {
	memtrack.Free(memtrack.Global(), values)
}

// BatchVariant computes F(i) for every index with variant v, running up to
// limit calculations concurrently (GOMAXPROCS when limit <= 0). Results keep
// input order. Cancelling ctx stops scheduling further indices and returns
// the context error.
func BatchVariant(ctx context.Context, v Variant, indices []uint64, limit int) ([]Value, error) {
	if !v.Valid() {
		return nil, &UnknownVariantError{Input: strconv.Itoa(int(v))}
	}
	if v == VariantIterative {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return Batch(indices), nil
	}
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	out := memtrack.Alloc[Value](memtrack.Global(), len(indices))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, n := range indices {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = v.Calculate(n)
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		ReleaseBatch(out)
		return nil, err
	}
	return out, nil
}

// Package parallel splits index ranges across workers and runs scattered
// positioned reads to completion.
package parallel

import (
	"golang.org/x/sync/errgroup"
)

// Range is a contiguous run of indices [Start, Start+Count).
type Range struct {
	Start int64
	Count int64
}

// End returns the exclusive end index.
func (r Range) End() int64 { return r.Start + r.Count }

// Partition splits [start, start+count) into at most n contiguous, disjoint
// ranges of near-equal size. The first count%n ranges get one extra index.
// No range is empty, so fewer than n ranges are returned when count < n.
func Partition(start, count int64, n int) []Range {
	if count <= 0 {
		return nil
	}
	if n < 1 {
		n = 1
	}
	if int64(n) > count {
		n = int(count)
	}

	base := count / int64(n)
	rem := count % int64(n)

	out := make([]Range, n)
	pos := start
	for i := range out {
		size := base
		if int64(i) < rem {
			size++
		}
		out[i] = Range{Start: pos, Count: size}
		pos += size
	}
	return out
}

// Run calls fn(i) for i in [0, n) on at most workers goroutines. Every call
// runs to completion even after another fails; the first error returned is
// the one reported.
func Run(n, workers int, fn func(i int) error) error {
	if n <= 0 {
		return nil
	}
	if workers < 1 {
		workers = 1
	}
	if n == 1 || workers == 1 {
		var first error
		for i := 0; i < n; i++ {
			if err := fn(i); err != nil && first == nil {
				first = err
			}
		}
		return first
	}

	// No shared context: a failing task must not cancel its siblings, which
	// may still be writing into the caller's buffer.
	var g errgroup.Group
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		g.Go(func() error { return fn(i) })
	}
	return g.Wait()
}

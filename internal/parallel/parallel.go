// Package parallel runs fork-join fan-outs over index ranges on a shared worker pool.
package parallel

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/alitto/pond/v2"
)

// Range is a half-open span of indices [Min, Max) handled by one task.
type Range struct {
	Min int
	Max int
}

// Len returns the number of indices in the range.
func (r Range) Len() int {
	return r.Max - r.Min
}

var (
	poolOnce sync.Once
	pool     pond.Pool
)

// Pool returns the shared pool, sized to the number of logical CPUs.
func Pool() pond.Pool {
	poolOnce.Do(func() {
		pool = pond.NewPool(runtime.NumCPU())
	})
	return pool
}

// Split partitions [0, total) into contiguous ranges of groupSize indices.
// The last range holds the remainder.
func Split(total, groupSize int) []Range {
	if total <= 0 {
		return nil
	}
	if groupSize <= 0 {
		groupSize = total
	}

	ranges := make([]Range, 0, (total+groupSize-1)/groupSize)
	for start := 0; start < total; start += groupSize {
		end := start + groupSize
		if end > total {
			end = total
		}
		ranges = append(ranges, Range{Min: start, Max: end})
	}
	return ranges
}

// GroupSize returns the range size that spreads total indices over the pool's workers.
func GroupSize(total int) int {
	workers := runtime.NumCPU()
	if workers < 1 {
		workers = 1
	}
	size := (total + workers - 1) / workers
	if size < 1 {
		size = 1
	}
	return size
}

// ForEach submits fn once per range and blocks until every task finished.
// Tasks must only write to state owned by their own range. A panicking task
// is reported as an error wrapping pond.ErrPanic.
func ForEach(ranges []Range, fn func(r Range)) error {
	if len(ranges) == 0 {
		return nil
	}
	// Nothing to gain from the pool for a single range
	if len(ranges) == 1 {
		return runInline(ranges[0], fn)
	}

	group := Pool().NewGroup()
	for _, r := range ranges {
		group.Submit(func() {
			fn(r)
		})
	}
	return group.Wait()
}

// runInline calls fn on the current goroutine, converting a panic the same way the pool does.
func runInline(r Range, fn func(r Range)) (err error) {
	defer func() {
		if p := recover(); p != nil {
			if e, ok := p.(error); ok {
				err = fmt.Errorf("%w: %w", pond.ErrPanic, e)
			} else {
				err = fmt.Errorf("%w: %v", pond.ErrPanic, p)
			}
		}
	}()
	fn(r)
	return nil
}

// Map runs fn for every index in [0, count) and returns the results in index order.
func Map[T any](count int, fn func(i int) T) ([]T, error) {
	results := make([]T, count)
	if count == 0 {
		return results, nil
	}

	ranges := Split(count, 1)
	err := ForEach(ranges, func(r Range) {
		results[r.Min] = fn(r.Min)
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

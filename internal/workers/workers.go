package workers

import (
	"context"
	"runtime"
	"sync"
)

// MixedMultiplier is the worker-to-CPU ratio for jobs that combine file I/O
// with image processing.
const MixedMultiplier = 1.5

// Count returns the optimal number of workers for a given task type.
// It respects container CPU limits via GOMAXPROCS (Go 1.19+).
//
// The limit parameter caps the worker count to prevent resource exhaustion.
// Use 0 for no limit.
func Count(multiplier float64, limit int) int {
	// GOMAXPROCS is automatically set to container CPU limit in Go 1.19+
	available := runtime.GOMAXPROCS(0)

	workers := int(float64(available) * multiplier)

	if workers < 1 {
		workers = 1
	}
	if limit > 0 && workers > limit {
		workers = limit
	}

	return workers
}

// Size returns the pool size for a batch of jobs. A positive configured
// value wins over the automatic count. The result never exceeds jobs and is
// at least 1.
func Size(configured, jobs int) int {
	n := configured
	if n <= 0 {
		n = Count(MixedMultiplier, jobs)
	}
	if jobs > 0 && n > jobs {
		n = jobs
	}
	if n < 1 {
		n = 1
	}
	return n
}

// Run calls fn for every job using at most n goroutines and returns the
// results in the same order as jobs.
//
// Once ctx is done no further jobs are started; running jobs see the
// cancelled ctx. If any job was skipped Run returns ctx.Err().
func Run[J, R any](ctx context.Context, n int, jobs []J, fn func(context.Context, J) R) ([]R, error) {
	results := make([]R, len(jobs))
	if len(jobs) == 0 {
		return results, nil
	}
	if n < 1 {
		n = 1
	}
	if n > len(jobs) {
		n = len(jobs)
	}

	indexes := make(chan int)
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				results[i] = fn(ctx, jobs[i])
			}
		}()
	}

	var skipped bool
feed:
	for i := range jobs {
		// Checked first so a cancelled ctx never races a ready worker.
		if ctx.Err() != nil {
			skipped = true
			break
		}
		select {
		case indexes <- i:
		case <-ctx.Done():
			skipped = true
			break feed
		}
	}
	close(indexes)
	wg.Wait()

	if skipped {
		return results, ctx.Err()
	}
	return results, nil
}

/*
Package workers sizes and runs the bounded goroutine pool that processes a
batch of thumbnail requests.

# Sizing

Thumbnail generation reads a file, decodes and resizes it, and writes the
result, so the pool defaults to a mixed-workload multiplier of 1.5 workers per
available CPU. The count is derived from runtime.GOMAXPROCS, which follows
container CPU limits, rather than runtime.NumCPU:

	n := workers.Size(0, len(sources)) // automatic, capped at the batch size
	n := workers.Size(4, len(sources))  // explicit, still capped

# Running

Run hands each job to one of n goroutines and returns the results in job
order, so callers can report outcomes in the order the sources were given:

	results, err := workers.Run(ctx, n, sources, func(ctx context.Context, src string) outcome {
		res, err := gen.Create(ctx, thumbnail.Request{Source: src, ...})
		return outcome{res, err}
	})

Jobs that have not started when ctx is cancelled are skipped. Their slots in
the result slice hold the zero value and Run returns ctx.Err().
*/
package workers

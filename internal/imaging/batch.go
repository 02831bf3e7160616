package imaging

import (
	"context"

	"github.com/sourcegraph/conc/pool"
)

// BatchResult pairs a job outcome with its error
type BatchResult struct {
	Result *Result
	Err    error
}

// CompressAll runs independent jobs on at most maxWorkers goroutines.
// Results keep the order of jobs.
func (c *Compressor) CompressAll(ctx context.Context, jobs []Job, maxWorkers int) []BatchResult {
	if maxWorkers < 1 {
		maxWorkers = 1
	}

	out := make([]BatchResult, len(jobs))
	p := pool.New().WithMaxGoroutines(maxWorkers)
	for i, job := range jobs {
		p.Go(func() {
			res, err := c.Compress(ctx, job)
			out[i] = BatchResult{Result: res, Err: err}
		})
	}
	p.Wait()
	return out
}

package worker

import (
	"context"
	"sync"
)

type Job interface{}

// ProcessFunc runs one job and returns its value or error.
type ProcessFunc func(ctx context.Context, job Job) (any, error)

// Result pairs a job with its outcome. Jobs never observe each other's
// failures; a Result carries exactly one of Value or Err.
type Result struct {
	Job   Job
	Value any
	Err   error
}

// Pool fans a fixed job set out over numWorkers goroutines and collects every
// outcome. It holds no state between runs.
type Pool struct {
	numWorkers int
	processor  ProcessFunc
}

func NewPool(numWorkers int, processor ProcessFunc) *Pool {
	if numWorkers < 1 {
		numWorkers = 1
	}
	return &Pool{
		numWorkers: numWorkers,
		processor:  processor,
	}
}

// Run processes all jobs and returns one Result per job. Result order is not
// guaranteed. Run returns once every job has finished; cancellation is the
// processor's responsibility via ctx.
func (p *Pool) Run(ctx context.Context, jobs []Job) []Result {
	if len(jobs) == 0 {
		return nil
	}

	jobCh := make(chan Job, len(jobs))
	resultCh := make(chan Result, len(jobs))

	workers := p.numWorkers
	if workers > len(jobs) {
		workers = len(jobs)
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobCh {
				value, err := p.processor(ctx, job)
				resultCh <- Result{Job: job, Value: value, Err: err}
			}
		}()
	}

	for _, job := range jobs {
		jobCh <- job
	}
	close(jobCh)

	wg.Wait()
	close(resultCh)

	results := make([]Result, 0, len(jobs))
	for r := range resultCh {
		results = append(results, r)
	}
	return results
}

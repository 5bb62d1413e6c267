package worker

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestPool_RunCollectsAllResults(t *testing.T) {
	pool := NewPool(3, func(_ context.Context, job Job) (any, error) {
		return job.(int) * 2, nil
	})

	jobs := make([]Job, 10)
	for i := range jobs {
		jobs[i] = i
	}

	results := pool.Run(context.Background(), jobs)
	if len(results) != len(jobs) {
		t.Fatalf("expected %d results, got %d", len(jobs), len(results))
	}

	var values []int
	for _, r := range results {
		if r.Err != nil {
			t.Fatalf("unexpected error for job %v: %v", r.Job, r.Err)
		}
		values = append(values, r.Value.(int))
	}
	sort.Ints(values)
	for i, v := range values {
		if v != i*2 {
			t.Errorf("expected %d at position %d, got %d", i*2, i, v)
		}
	}
}

func TestPool_ErrorIsolation(t *testing.T) {
	boom := errors.New("job failed")
	pool := NewPool(2, func(_ context.Context, job Job) (any, error) {
		if job.(int)%2 == 0 {
			return nil, fmt.Errorf("job %d: %w", job.(int), boom)
		}
		return "ok", nil
	})

	jobs := []Job{0, 1, 2, 3, 4, 5}
	results := pool.Run(context.Background(), jobs)
	if len(results) != len(jobs) {
		t.Fatalf("expected %d results, got %d", len(jobs), len(results))
	}

	var failed, succeeded int
	for _, r := range results {
		if r.Err != nil {
			if !errors.Is(r.Err, boom) {
				t.Errorf("unexpected error: %v", r.Err)
			}
			failed++
		} else {
			succeeded++
		}
	}
	if failed != 3 || succeeded != 3 {
		t.Errorf("expected 3 failed and 3 succeeded, got %d and %d", failed, succeeded)
	}
}

func TestPool_FewerWorkersThanJobs(t *testing.T) {
	var inFlight, peak atomic.Int64
	pool := NewPool(2, func(_ context.Context, _ Job) (any, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		inFlight.Add(-1)
		return nil, nil
	})

	jobs := make([]Job, 8)
	for i := range jobs {
		jobs[i] = i
	}

	results := pool.Run(context.Background(), jobs)
	if len(results) != len(jobs) {
		t.Fatalf("expected %d results, got %d", len(jobs), len(results))
	}
	if p := peak.Load(); p > 2 {
		t.Errorf("expected at most 2 concurrent jobs, saw %d", p)
	}
}

func TestPool_EmptyJobs(t *testing.T) {
	pool := NewPool(4, func(_ context.Context, _ Job) (any, error) {
		t.Error("processor must not run for an empty job set")
		return nil, nil
	})

	if results := pool.Run(context.Background(), nil); results != nil {
		t.Errorf("expected nil results, got %v", results)
	}
}

func TestPool_MoreWorkersThanJobs(t *testing.T) {
	var processed atomic.Int64
	pool := NewPool(16, func(_ context.Context, _ Job) (any, error) {
		processed.Add(1)
		return nil, nil
	})

	results := pool.Run(context.Background(), []Job{"a", "b"})
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if processed.Load() != 2 {
		t.Errorf("expected 2 jobs processed, got %d", processed.Load())
	}
}

func TestPool_ContextReachesProcessor(t *testing.T) {
	type ctxKey struct{}
	ctx := context.WithValue(context.Background(), ctxKey{}, "marker")

	pool := NewPool(1, func(ctx context.Context, _ Job) (any, error) {
		return ctx.Value(ctxKey{}), nil
	})

	results := pool.Run(ctx, []Job{struct{}{}})
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Value != "marker" {
		t.Errorf("expected the run context to reach the processor, got %v", results[0].Value)
	}
}

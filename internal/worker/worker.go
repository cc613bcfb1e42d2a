package worker

import (
	"context"
	"sync"
)

// Job is one unit of work tagged with its position in the input.
type Job[T any] struct {
	Index int
	Input T
}

// Result pairs a job's output with its input position.
type Result[R any] struct {
	Index  int
	Output R
}

// Run fans inputs out to n workers and returns the outputs in input order.
// n < 1 is treated as 1. Jobs not yet started when ctx is cancelled are
// skipped and keep their zero value; onDone, if set, is called once per
// finished job from the collecting goroutine.
func Run[T, R any](ctx context.Context, n int, inputs []T, fn func(ctx context.Context, in T) R, onDone func(Result[R])) []R {
	if n < 1 {
		n = 1
	}
	if n > len(inputs) {
		n = len(inputs)
	}

	jobs := make(chan Job[T])
	results := make(chan Result[R])

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				results <- Result[R]{Index: job.Index, Output: fn(ctx, job.Input)}
			}
		}()
	}

	// Producer
	go func() {
		defer close(jobs)
		for i, in := range inputs {
			if ctx.Err() != nil {
				return
			}
			select {
			case jobs <- Job[T]{Index: i, Input: in}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	out := make([]R, len(inputs))
	for res := range results {
		out[res.Index] = res.Output
		if onDone != nil {
			onDone(res)
		}
	}
	return out
}

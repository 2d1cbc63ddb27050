// Package worker provides a bounded worker pool with shared rate limiting,
// used to fan extraction requests out to the OpenAI API without tripping
// its rate limits.
package worker

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Task is one unit of work producing a value of type T.
type Task[T any] func(ctx context.Context) (T, error)

// Outcome pairs a task's value with its error, in submission order.
type Outcome[T any] struct {
	Index int
	Value T
	Err   error
}

// Pool runs tasks on a fixed number of workers. A non-nil limiter gates
// every task start, shared across all workers.
type Pool[T any] struct {
	workers int
	limiter *rate.Limiter
}

// NewPool creates a pool. Workers below 1 are clamped to 1. A zero rps
// disables rate limiting.
func NewPool[T any](workers int, rps float64, burst int) *Pool[T] {
	if workers <= 0 {
		workers = 1
	}
	var limiter *rate.Limiter
	if rps > 0 {
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
	return &Pool[T]{workers: workers, limiter: limiter}
}

// Run executes all tasks and returns one outcome per task, ordered by
// submission index. Individual task errors land in their outcome; Run only
// returns an error when the context is cancelled before completion.
func (p *Pool[T]) Run(ctx context.Context, tasks []Task[T]) ([]Outcome[T], error) {
	outcomes := make([]Outcome[T], len(tasks))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < p.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				outcomes[i] = p.execute(ctx, i, tasks[i])
			}
		}()
	}

	submitted := 0
loop:
	for i := range tasks {
		select {
		case jobs <- i:
			submitted++
		case <-ctx.Done():
			break loop
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil && submitted < len(tasks) {
		return outcomes[:submitted], err
	}
	return outcomes, nil
}

func (p *Pool[T]) execute(ctx context.Context, index int, task Task[T]) Outcome[T] {
	out := Outcome[T]{Index: index}
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			out.Err = err
			return out
		}
	}
	out.Value, out.Err = task(ctx)
	return out
}

package worker

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"
)

func TestPoolRunsAllTasks(t *testing.T) {
	pool := NewPool[int](4, 0, 0)

	var tasks []Task[int]
	for i := 0; i < 20; i++ {
		i := i
		tasks = append(tasks, func(ctx context.Context) (int, error) {
			return i * 2, nil
		})
	}

	outcomes, err := pool.Run(context.Background(), tasks)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(outcomes) != 20 {
		t.Fatalf("expected 20 outcomes, got %d", len(outcomes))
	}
	for i, out := range outcomes {
		if out.Err != nil {
			t.Errorf("task %d failed: %v", i, out.Err)
		}
		if out.Value != i*2 {
			t.Errorf("outcome %d out of order: got %d", i, out.Value)
		}
	}
}

func TestPoolIsolatesTaskErrors(t *testing.T) {
	pool := NewPool[string](2, 0, 0)
	boom := errors.New("boom")

	tasks := []Task[string]{
		func(ctx context.Context) (string, error) { return "ok", nil },
		func(ctx context.Context) (string, error) { return "", boom },
		func(ctx context.Context) (string, error) { return "ok", nil },
	}

	outcomes, err := pool.Run(context.Background(), tasks)
	if err != nil {
		t.Fatalf("task errors must not fail the run: %v", err)
	}
	if !errors.Is(outcomes[1].Err, boom) {
		t.Errorf("error lost: %v", outcomes[1].Err)
	}
	if outcomes[0].Err != nil || outcomes[2].Err != nil {
		t.Errorf("healthy tasks affected by failing sibling")
	}
}

func TestPoolBoundsConcurrency(t *testing.T) {
	const workers = 3
	pool := NewPool[struct{}](workers, 0, 0)

	var active, peak int64
	var tasks []Task[struct{}]
	for i := 0; i < 30; i++ {
		tasks = append(tasks, func(ctx context.Context) (struct{}, error) {
			n := atomic.AddInt64(&active, 1)
			for {
				p := atomic.LoadInt64(&peak)
				if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt64(&active, -1)
			return struct{}{}, nil
		})
	}

	if _, err := pool.Run(context.Background(), tasks); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := atomic.LoadInt64(&peak); got > workers {
		t.Errorf("concurrency exceeded worker count: peak %d > %d", got, workers)
	}
}

func TestPoolCancellation(t *testing.T) {
	pool := NewPool[int](1, 0, 0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var tasks []Task[int]
	for i := 0; i < 100; i++ {
		tasks = append(tasks, func(ctx context.Context) (int, error) {
			cancel()
			return 0, nil
		})
	}

	_, err := pool.Run(ctx, tasks)
	if err == nil {
		t.Fatal("cancelled run should report the context error")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestPoolRateLimiterThrottles(t *testing.T) {
	// 5 tasks at 100 rps with burst 1 needs at least ~40ms.
	pool := NewPool[int](4, 100, 1)

	var tasks []Task[int]
	for i := 0; i < 5; i++ {
		tasks = append(tasks, func(ctx context.Context) (int, error) { return 0, nil })
	}

	start := time.Now()
	if _, err := pool.Run(context.Background(), tasks); err != nil {
		t.Fatalf("run: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Errorf("rate limiter not applied: finished in %v", elapsed)
	}
}

func ExamplePool() {
	pool := NewPool[string](2, 0, 0)
	outcomes, _ := pool.Run(context.Background(), []Task[string]{
		func(ctx context.Context) (string, error) { return "a", nil },
		func(ctx context.Context) (string, error) { return "b", nil },
	})
	fmt.Println(outcomes[0].Value, outcomes[1].Value)
	// Output: a b
}

package workflow

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Task is one unit of concurrent work.
type Task[T any] func(ctx context.Context) (T, error)

// Settled is the outcome of one task run by SettleAll.
type Settled[T any] struct {
	Index int
	Value T
	Err   error
}

// SettleAll runs every task concurrently and waits for all of them to finish.
// Failures are reported per task and never stop the others. Outcomes are in
// task order.
func SettleAll[T any](ctx context.Context, tasks []Task[T]) []Settled[T] {
	out := make([]Settled[T], len(tasks))
	var wg sync.WaitGroup

	for i, task := range tasks {
		wg.Add(1)
		go func(i int, task Task[T]) {
			defer wg.Done()
			v, err := runTask(ctx, task)
			out[i] = Settled[T]{Index: i, Value: v, Err: err}
		}(i, task)
	}

	wg.Wait()
	return out
}

// Fulfilled keeps the values of successful outcomes, preserving order.
func Fulfilled[T any](settled []Settled[T]) []T {
	var out []T
	for _, s := range settled {
		if s.Err == nil {
			out = append(out, s.Value)
		}
	}
	return out
}

// FailFast runs every task concurrently. The first failure cancels the
// context shared by the batch and is returned; no partial results are
// returned with it. On success values are in task order.
func FailFast[T any](ctx context.Context, tasks []Task[T]) ([]T, error) {
	out := make([]T, len(tasks))
	g, gctx := errgroup.WithContext(ctx)

	for i, task := range tasks {
		g.Go(func() error {
			v, err := runTask(gctx, task)
			if err != nil {
				return err
			}
			out[i] = v
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func runTask[T any](ctx context.Context, task Task[T]) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	return task(ctx)
}

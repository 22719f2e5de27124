// Package pool runs a set of independent tasks with a bounded amount of
// concurrency. It exists for the fan-out downloads (libraries, assets):
// hundreds of small files where unbounded goroutines would exhaust file
// descriptors and hammer the CDN.
package pool

import (
	"context"
	"sync"
)

// DefaultLimit is the download concurrency ceiling. Going higher buys
// nothing on typical connections and risks fd exhaustion.
const DefaultLimit = 64

// Do runs every task with at most limit of them in flight at once and
// returns their results in no particular order. The first task error
// cancels the context handed to the remaining tasks, and Do returns
// that error after all in-flight tasks have finished. A limit below 1
// falls back to DefaultLimit.
func Do[T any](ctx context.Context, limit int, tasks []func(context.Context) (T, error)) ([]T, error) {
	if limit < 1 {
		limit = DefaultLimit
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		results  = make([]T, 0, len(tasks))
		firstErr error
	)

	sem := make(chan struct{}, limit)
	for _, task := range tasks {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			wg.Wait()
			mu.Lock()
			err := firstErr
			mu.Unlock()
			if err != nil {
				return nil, err
			}
			return nil, ctx.Err()
		}

		wg.Add(1)
		go func(task func(context.Context) (T, error)) {
			defer wg.Done()
			defer func() { <-sem }()

			out, err := task(ctx)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
					cancel()
				}
				return
			}
			results = append(results, out)
		}(task)
	}

	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return results, nil
}

// Run is Do for tasks that produce no value.
func Run(ctx context.Context, limit int, tasks []func(context.Context) error) error {
	wrapped := make([]func(context.Context) (struct{}, error), len(tasks))
	for i, task := range tasks {
		wrapped[i] = func(ctx context.Context) (struct{}, error) {
			return struct{}{}, task(ctx)
		}
	}

	_, err := Do(ctx, limit, wrapped)
	return err
}

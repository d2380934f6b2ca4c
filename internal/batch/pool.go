package batch

import (
	"context"
	"runtime"
	"sync"
)

// forEach calls fn(i) for i in [0,n) on up to workers goroutines. Indexes
// not yet started when ctx is cancelled are skipped and reported false in
// the returned slice.
func forEach(ctx context.Context, workers, n int, fn func(i int)) []bool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = min(workers, n)

	started := make([]bool, n)
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				fn(i)
			}
		}()
	}

feed:
	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			break feed
		default:
		}
		select {
		case jobs <- i:
			started[i] = true
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()
	return started
}

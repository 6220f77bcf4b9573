package run

import (
	"context"
	"sync"
)

// forEachSeason 以 workers 个 goroutine 并发处理 seasons，季内串行。
// fn 的返回值按完成顺序交给 done（在调用方 goroutine 中执行，无需加锁）。
// ctx 取消后不再派发新的季；已派发的季照常交给 fn（由 fn 自行感知 ctx）。
func forEachSeason[T any](ctx context.Context, seasons []int, workers int, fn func(season int) T, done func(T)) {
	if workers < 1 {
		workers = 1
	}
	if workers > len(seasons) {
		workers = len(seasons)
	}

	jobs := make(chan int)
	results := make(chan T, len(seasons))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for s := range jobs {
				results <- fn(s)
			}
		}()
	}

	go func() {
		defer func() {
			close(jobs)
			wg.Wait()
			close(results)
		}()
		for _, s := range seasons {
			select {
			case jobs <- s:
			case <-ctx.Done():
				return
			}
		}
	}()

	for r := range results {
		done(r)
	}
}

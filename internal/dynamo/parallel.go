package dynamo

import (
	"runtime"
	"sync"
)

// Workers is the number of goroutines ParallelFor splits work across.
var Workers = runtime.NumCPU()

// ParallelFor executes a function in parallel over a range [0, n).
// Chunks are disjoint, so fn may mutate element i for i in [start, end)
// without synchronization.
func ParallelFor(n, minChunk int, fn func(start, end int)) {
	numWorkers := Workers
	if n <= minChunk || numWorkers <= 1 {
		fn(0, n)
		return
	}

	workers := numWorkers
	if n/minChunk < workers {
		workers = n / minChunk
	}
	if workers < 1 {
		workers = 1
	}

	chunkSize := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * chunkSize
		if start >= n {
			break
		}
		end := start + chunkSize
		if end > n {
			end = n
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}

	wg.Wait()
}

// Package parallel provides the work dispatcher for PS-ROI pooling kernels.
//
// A kernel launch partitions a flat logical index space (one index per
// output element) into chunks executed by worker goroutines. Units are
// independent; no ordering between them is guaranteed, and the caller
// blocks until the whole batch has completed.
package parallel

import (
	"runtime"
	"sync"
)

// Config controls kernel dispatch behavior.
type Config struct {
	Enabled      bool // Whether parallel execution is enabled.
	NumWorkers   int  // Number of worker goroutines to fan out to.
	MinChunkSize int  // Minimum units per goroutine to avoid spawn overhead.
}

// DefaultConfig returns sensible defaults based on CPU count.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 64,
	}
}

// For executes unit(i) for i in [0, n), chunked across worker goroutines.
// Falls back to sequential execution if parallelism is disabled or n is
// too small to amortize goroutine startup.
//
// unit must not depend on any other unit's result within the same call.
func For(n int, unit func(i int), cfg Config) {
	if !cfg.Enabled || n < cfg.MinChunkSize {
		for i := 0; i < n; i++ {
			unit(i)
		}
		return
	}

	workers := cfg.NumWorkers
	if workers < 1 {
		workers = 1
	}
	chunk := max((n+workers-1)/workers, cfg.MinChunkSize)

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for i := s; i < e; i++ {
				unit(i)
			}
		}(start, end)
	}
	wg.Wait()
}

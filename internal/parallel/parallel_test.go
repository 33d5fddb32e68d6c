package parallel

import (
	"sync/atomic"
	"testing"
)

func TestForCoversIndexSpaceExactlyOnce(t *testing.T) {
	cfg := DefaultConfig()
	n := 4096

	counts := make([]int32, n)
	For(n, func(i int) {
		atomic.AddInt32(&counts[i], 1)
	}, cfg)

	for i, c := range counts {
		if c != 1 {
			t.Fatalf("unit %d executed %d times, want exactly once", i, c)
		}
	}
}

func TestForSequentialFallback(t *testing.T) {
	cfg := Config{Enabled: false}

	var counter int64
	For(100, func(_ int) {
		atomic.AddInt64(&counter, 1)
	}, cfg)

	if counter != 100 {
		t.Errorf("executed %d units, want 100", counter)
	}
}

func TestForBelowMinChunkSize(t *testing.T) {
	cfg := DefaultConfig()
	n := cfg.MinChunkSize - 1

	var counter int64
	For(n, func(_ int) {
		atomic.AddInt64(&counter, 1)
	}, cfg)

	if counter != int64(n) {
		t.Errorf("executed %d units, want %d", counter, n)
	}
}

func TestForZeroUnits(t *testing.T) {
	For(0, func(_ int) {
		t.Error("unit executed for empty index space")
	}, DefaultConfig())
}

func TestForSingleWorkerClamp(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 0, MinChunkSize: 1}

	var counter int64
	For(256, func(_ int) {
		atomic.AddInt64(&counter, 1)
	}, cfg)

	if counter != 256 {
		t.Errorf("executed %d units, want 256", counter)
	}
}

func BenchmarkFor(b *testing.B) {
	cfg := DefaultConfig()
	n := 10000

	b.Run("parallel", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			var sum int64
			For(n, func(i int) {
				atomic.AddInt64(&sum, int64(i))
			}, cfg)
		}
	})

	b.Run("sequential", func(b *testing.B) {
		cfgSeq := cfg
		cfgSeq.Enabled = false
		for i := 0; i < b.N; i++ {
			var sum int64
			For(n, func(i int) {
				atomic.AddInt64(&sum, int64(i))
			}, cfgSeq)
		}
	})
}

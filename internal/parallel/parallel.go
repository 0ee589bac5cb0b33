// Package parallel runs per-node passes across worker goroutines.
package parallel

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// minChunk is the smallest slice of work handed to a goroutine.
const minChunk = 256

// Workers returns n when positive, otherwise the number of usable CPUs.
func Workers(n int) int {
	if n > 0 {
		return n
	}
	return runtime.GOMAXPROCS(0)
}

// For splits [0, n) into contiguous chunks and calls fn once per chunk,
// running up to workers chunks at a time. It returns when every chunk is
// done. fn must only write state owned by indices in its own chunk.
func For(n, workers int, fn func(lo, hi int)) {
	if n <= 0 {
		return
	}
	if workers <= 1 || n < 2*minChunk {
		fn(0, n)
		return
	}
	chunk := max((n+workers-1)/workers, minChunk)

	var g errgroup.Group
	g.SetLimit(workers)
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		g.Go(func() error {
			fn(lo, hi)
			return nil
		})
	}
	_ = g.Wait()
}

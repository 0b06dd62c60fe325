package rhs

import "sync"

// Team runs the level tier of one element. ForLevels returns only after fn
// has completed for every level in [0,n), so each call is a barrier.
type Team interface {
	ForLevels(n int, fn func(l int))
}

// SerialTeam visits levels in increasing order on the calling goroutine.
type SerialTeam struct{}

func (SerialTeam) ForLevels(n int, fn func(l int)) {
	for l := 0; l < n; l++ {
		fn(l)
	}
}

// ForkJoinTeam splits the levels into Width contiguous chunks, each run on its
// own goroutine, and joins them before returning.
type ForkJoinTeam struct {
	Width int
}

func (t ForkJoinTeam) ForLevels(n int, fn func(l int)) {
	width := t.Width
	if width > n {
		width = n
	}
	if width <= 1 {
		SerialTeam{}.ForLevels(n, fn)
		return
	}
	var wg sync.WaitGroup
	chunk := (n + width - 1) / width
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for l := start; l < end; l++ {
				fn(l)
			}
		}(start, end)
	}
	wg.Wait()
}

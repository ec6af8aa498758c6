package workers

import (
	"runtime"
)

// Count sizes a worker pool from GOMAXPROCS, which follows container CPU
// limits, scaled by multiplier and capped by limit (0 for no cap).
//
// A positive override, usually INDEX_WORKERS from the configuration, wins
// over the computed value but is still capped.
func Count(override int, multiplier float64, limit int) int {
	workers := override
	if workers <= 0 {
		workers = int(float64(runtime.GOMAXPROCS(0)) * multiplier)
	}
	if workers < 1 {
		workers = 1
	}
	if limit > 0 && workers > limit {
		workers = limit
	}
	return workers
}

// ForIO returns two workers per CPU, for stat- and readdir-bound walks.
func ForIO(override, limit int) int {
	return Count(override, 2.0, limit)
}

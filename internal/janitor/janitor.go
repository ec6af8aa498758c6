// Package janitor removes staging directories abandoned by interrupted
// ingestions.
//
// Every ingestion stages its thumbnails in a fresh directory below the
// staging root and removes it on every exit path, so a directory that is
// still there after the configured age belongs to a process that crashed
// between staging and commit. The janitor sweeps those on a cron schedule.
package janitor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"media-catalog/internal/filesystem"
	"media-catalog/internal/logging"
	"media-catalog/internal/metrics"
)

// Recorder persists when the last sweep ran.
type Recorder interface {
	SetLastStagingGC(ctx context.Context, t time.Time) error
}

// Janitor sweeps stale staging directories.
type Janitor struct {
	dir      string
	maxAge   time.Duration
	recorder Recorder
	now      func() time.Time

	cron *cron.Cron
	mu   sync.Mutex
}

// printfLogger routes cron's own messages through the application logger.
type printfLogger struct{}

func (printfLogger) Printf(format string, args ...interface{}) {
	logging.Debug("cron: "+format, args...)
}

// New returns a janitor for dir. recorder may be nil.
func New(dir string, maxAge time.Duration, recorder Recorder) *Janitor {
	logger := cron.PrintfLogger(printfLogger{})
	return &Janitor{
		dir:      dir,
		maxAge:   maxAge,
		recorder: recorder,
		now:      time.Now,
		cron: cron.New(
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
	}
}

// Start schedules the sweep using a standard cron spec or descriptor such
// as "@hourly".
func (j *Janitor) Start(schedule string) error {
	_, err := j.cron.AddFunc(schedule, func() {
		if _, err := j.Sweep(context.Background()); err != nil {
			logging.Error("Staging sweep failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid staging gc schedule %q: %w", schedule, err)
	}
	j.cron.Start()
	return nil
}

// Stop halts the schedule and waits for a running sweep, up to ctx.
func (j *Janitor) Stop(ctx context.Context) error {
	done := j.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Sweep removes staging directories older than the configured age and
// returns how many it removed.
func (j *Janitor) Sweep(ctx context.Context) (int, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	entries, err := filesystem.ReadDirWithRetry(j.dir, filesystem.DefaultRetryConfig())
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read staging dir: %w", err)
	}

	now := j.now()
	cutoff := now.Add(-j.maxAge)
	removed := 0
	for _, entry := range entries {
		if ctx.Err() != nil {
			break
		}
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			logging.Debug("Skipping staging entry %s: %v", entry.Name(), err)
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}

		path := filepath.Join(j.dir, entry.Name())
		if err := filesystem.RemoveDir(path); err != nil {
			logging.Warn("Failed to remove stale staging dir %s: %v", path, err)
			continue
		}
		removed++
		metrics.StagingDirsRemoved.Inc()
	}

	metrics.StagingGCLastRun.Set(float64(now.Unix()))
	if j.recorder != nil {
		if err := j.recorder.SetLastStagingGC(ctx, now); err != nil {
			logging.Warn("Failed to record staging sweep time: %v", err)
		}
	}
	if removed > 0 {
		logging.Info("Removed %d stale staging directories from %s", removed, j.dir)
	}
	return removed, ctx.Err()
}

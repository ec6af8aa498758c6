package importer

import (
	"context"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"media-catalog/internal/logging"
	"media-catalog/internal/mediatypes"
	"media-catalog/internal/metrics"
	"media-catalog/internal/workers"
)

// WalkerConfig configures the discovery walker.
type WalkerConfig struct {
	// NumWorkers is the number of stat workers (0 = two per CPU, capped).
	NumWorkers int
	// ChannelBuffer is the size of the job and result channels.
	ChannelBuffer int
	// SkipHidden skips files and directories starting with ".".
	SkipHidden bool
	// Exclude lists directories that are never descended into, such as the
	// catalog's own thumbnail and staging trees.
	Exclude []string
}

// DefaultWalkerConfig returns defaults sized for the current CPU limit.
func DefaultWalkerConfig(override int) WalkerConfig {
	return WalkerConfig{
		NumWorkers:    workers.ForIO(override, 16),
		ChannelBuffer: 1000,
		SkipHidden:    true,
	}
}

// Candidate is a file the walker recognized as media by its extension.
type Candidate struct {
	Path      string
	MediaType mediatypes.MediaType
	Size      int64
	ModTime   time.Time
}

type walkJob struct {
	path  string
	entry fs.DirEntry
}

// Walker discovers media files below a root in parallel.
type Walker struct {
	config WalkerConfig

	jobs    chan walkJob
	results chan Candidate
	wg      sync.WaitGroup

	filesSeen    atomic.Int64
	filesMatched atomic.Int64
	errorsCount  atomic.Int64
}

// NewWalker returns a walker. A walker runs one Walk.
func NewWalker(config WalkerConfig) *Walker {
	if config.NumWorkers <= 0 {
		config.NumWorkers = 1
	}
	return &Walker{
		config:  config,
		jobs:    make(chan walkJob, config.ChannelBuffer),
		results: make(chan Candidate, config.ChannelBuffer),
	}
}

// Walk returns every media file below root, sorted by path so that imports
// are reproducible.
func (w *Walker) Walk(ctx context.Context, root string) ([]Candidate, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	logging.Info("Discovering media below %s with %d workers", root, w.config.NumWorkers)
	start := time.Now()
	metrics.ImportWalkerWorkers.Set(float64(w.config.NumWorkers))

	for i := 0; i < w.config.NumWorkers; i++ {
		w.wg.Add(1)
		go w.worker(ctx)
	}

	var found []Candidate
	done := make(chan struct{})
	go func() {
		defer close(done)
		for c := range w.results {
			found = append(found, c)
		}
	}()

	err = w.enqueue(ctx, root)
	close(w.jobs)
	w.wg.Wait()
	close(w.results)
	<-done

	sort.Slice(found, func(i, j int) bool { return found[i].Path < found[j].Path })

	duration := time.Since(start)
	metrics.ImportWalkDuration.Observe(duration.Seconds())
	logging.Info("Discovery complete: %d media files of %d seen in %v (errors: %d)",
		w.filesMatched.Load(), w.filesSeen.Load(), duration, w.errorsCount.Load())

	if err == nil {
		err = ctx.Err()
	}
	return found, err
}

func (w *Walker) enqueue(ctx context.Context, root string) error {
	excluded := make(map[string]bool, len(w.config.Exclude))
	for _, dir := range w.config.Exclude {
		if abs, err := filepath.Abs(dir); err == nil {
			excluded[abs] = true
		}
	}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return fs.SkipAll
		}
		if err != nil {
			w.errorsCount.Add(1)
			logging.Warn("Error accessing path %s: %v", path, err)
			return nil
		}
		if path == root {
			return nil
		}
		if d.IsDir() {
			if excluded[path] || (w.config.SkipHidden && strings.HasPrefix(d.Name(), ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if w.config.SkipHidden && strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		w.filesSeen.Add(1)
		if !mediatypes.IsMediaFile(strings.ToLower(filepath.Ext(path))) {
			return nil
		}

		select {
		case w.jobs <- walkJob{path: path, entry: d}:
		case <-ctx.Done():
			return fs.SkipAll
		}
		return nil
	})
}

func (w *Walker) worker(ctx context.Context) {
	defer w.wg.Done()

	for job := range w.jobs {
		mediaType, _ := mediatypes.FromExtension(strings.ToLower(filepath.Ext(job.path)))
		if !job.entry.Type().IsRegular() {
			continue
		}
		info, err := job.entry.Info()
		if err != nil {
			w.errorsCount.Add(1)
			logging.Debug("Error getting info for %s: %v", job.path, err)
			continue
		}

		w.filesMatched.Add(1)
		select {
		case w.results <- Candidate{Path: job.path, MediaType: mediaType, Size: info.Size(), ModTime: info.ModTime()}:
		case <-ctx.Done():
			return
		}
	}
}

// Stats returns the walk counters.
func (w *Walker) Stats() (seen, matched, errors int64) {
	return w.filesSeen.Load(), w.filesMatched.Load(), w.errorsCount.Load()
}

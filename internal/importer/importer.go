package importer

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"media-catalog/internal/catalog"
	"media-catalog/internal/errs"
	"media-catalog/internal/logging"
	"media-catalog/internal/metrics"
)

// Outcome classifies what happened to one file.
type Outcome string

const (
	Created       Outcome = "created"
	AlreadyExists Outcome = "already_exists"
	Duplicate     Outcome = "duplicate"
	InvalidFile   Outcome = "invalid_file"
	Failed        Outcome = "failed"
)

// Ingester is the part of the catalog an import drives.
type Ingester interface {
	Create(ctx context.Context, req catalog.CreateRequest) (*catalog.Entry, error)
}

// Result is the outcome for one file.
type Result struct {
	Path        string  `json:"path"`
	Outcome     Outcome `json:"outcome"`
	ReferenceID int64   `json:"referenceId,omitempty"`
	// ExistingPath names the file already holding the content of a duplicate.
	ExistingPath string `json:"existingPath,omitempty"`
	Error        string `json:"error,omitempty"`
}

// Report summarizes an import run.
type Report struct {
	Root     string          `json:"root"`
	Results  []Result        `json:"results"`
	Counts   map[Outcome]int `json:"counts"`
	Duration time.Duration   `json:"duration"`
}

// Options tunes an import run.
type Options struct {
	// Tags are attached to every created reference.
	Tags   []string
	Walker WalkerConfig
	// Progress, when set, is called after each file.
	Progress func(done, total int, r Result)
}

// Importer ingests every media file below a directory, one file at a time.
// Expected outcomes are recorded per file; an Unexpected error aborts the run.
type Importer struct {
	ingester Ingester
	running  atomic.Bool
}

// New returns an Importer over ingester.
func New(ingester Ingester) *Importer {
	return &Importer{ingester: ingester}
}

// Run imports root. It returns the partial report together with the error
// that stopped it when the run was aborted.
func (imp *Importer) Run(ctx context.Context, root string, opts Options) (*Report, error) {
	if !imp.running.CompareAndSwap(false, true) {
		return nil, errs.AlreadyExistsf("an import is already running")
	}
	defer imp.running.Store(false)

	metrics.ImportRunsTotal.Inc()
	metrics.ImportIsRunning.Set(1)
	defer metrics.ImportIsRunning.Set(0)

	start := time.Now()
	report := &Report{Root: root, Results: []Result{}, Counts: make(map[Outcome]int)}

	candidates, err := NewWalker(opts.Walker).Walk(ctx, root)
	if err != nil {
		return report, fmt.Errorf("discover %s: %w", root, err)
	}

	for i, c := range candidates {
		if err := ctx.Err(); err != nil {
			report.Duration = time.Since(start)
			return report, err
		}

		entry, err := imp.ingester.Create(ctx, catalog.CreateRequest{Path: c.Path, Tags: opts.Tags})
		r := classify(c.Path, entry, err)
		report.Results = append(report.Results, r)
		report.Counts[r.Outcome]++
		metrics.ImportFilesTotal.WithLabelValues(string(r.Outcome)).Inc()

		if opts.Progress != nil {
			opts.Progress(i+1, len(candidates), r)
		}
		if abort(err) {
			report.Duration = time.Since(start)
			logging.Error("Import of %s aborted at %s: %v", root, c.Path, err)
			return report, err
		}
	}

	report.Duration = time.Since(start)
	logging.Info("Imported %s in %v: %d created, %d already present, %d duplicates, %d invalid, %d failed",
		root, report.Duration, report.Counts[Created], report.Counts[AlreadyExists],
		report.Counts[Duplicate], report.Counts[InvalidFile], report.Counts[Failed])
	return report, nil
}

func classify(path string, entry *catalog.Entry, err error) Result {
	r := Result{Path: path}
	if err == nil {
		r.Outcome = Created
		r.ReferenceID = entry.Reference.ID
		return r
	}

	r.Error = err.Error()
	switch errs.KindOf(err) {
	case errs.AlreadyExists:
		r.Outcome = AlreadyExists
	case errs.DuplicateContent:
		r.Outcome = Duplicate
		var e *errs.Error
		if errors.As(err, &e) {
			r.ExistingPath = e.ExistingPath
		}
	case errs.InvalidFile:
		r.Outcome = InvalidFile
	default:
		r.Outcome = Failed
		logging.Warn("Failed to import %s: %v", path, err)
	}
	return r
}

// abort reports whether err must stop the run: internal invariant
// violations and cancellation. Subprocess failures and vanished files are
// recorded and skipped.
func abort(err error) bool {
	if err == nil {
		return false
	}
	if errs.Is(err, errs.Unexpected) {
		return true
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

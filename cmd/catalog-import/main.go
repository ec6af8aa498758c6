package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"media-catalog/internal/catalog"
	"media-catalog/internal/database"
	"media-catalog/internal/importer"
	"media-catalog/internal/logging"
	"media-catalog/internal/media"
	"media-catalog/internal/startup"
)

// Exit codes.
const (
	exitOK      = 0
	exitAborted = 1
	exitUsage   = 2
	// exitPartial means the run finished but some files failed.
	exitPartial = 3
)

type options struct {
	root    string
	tags    []string
	workers int
	hidden  bool
	asJSON  bool
	quiet   bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseArgs(args, stderr)
	if err != nil {
		return exitUsage
	}

	// Create a context that cancels on interrupt signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			fmt.Fprintln(stderr, "\nInterrupted, stopping after the current file...")
			cancel()
		case <-ctx.Done():
		}
	}()

	startup.LoadEnvFile()
	config, err := startup.LoadConfig()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitAborted
	}

	db, err := database.New(ctx, config.DatabasePath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: Failed to open catalog database: %v\n", err)
		fmt.Fprintf(stderr, "Make sure CATALOG_DIR or DATABASE_PATH is set correctly (current: %s)\n", config.DatabasePath)
		return exitAborted
	}
	defer func() {
		if err := db.Close(); err != nil {
			fmt.Fprintf(stderr, "Warning: failed to close database: %v\n", err)
		}
	}()

	runner := media.ExecRunner{}
	cat := catalog.New(db,
		media.NewProber(runner, config.FFprobePath),
		media.NewThumbnailGenerator(runner, config.FFmpegPath, config.ThumbnailCount, config.ThumbnailSize),
		catalog.Config{ThumbnailDir: config.ThumbnailDir, StagingDir: config.StagingDir})

	walker := importer.DefaultWalkerConfig(opts.workers)
	if opts.workers == 0 {
		walker = importer.DefaultWalkerConfig(config.IndexWorkers)
	}
	walker.SkipHidden = !opts.hidden
	// the catalog's own trees may live below the import root
	walker.Exclude = []string{config.ThumbnailDir, config.StagingDir}

	importOpts := importer.Options{Tags: opts.tags, Walker: walker}
	if !opts.quiet && !opts.asJSON {
		importOpts.Progress = func(done, total int, r importer.Result) {
			fmt.Fprintf(stdout, "[%d/%d] %-14s %s\n", done, total, r.Outcome, r.Path)
		}
	}

	report, runErr := importer.New(cat).Run(ctx, opts.root, importOpts)
	if report != nil {
		if opts.asJSON {
			enc := json.NewEncoder(stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(report); err != nil {
				logging.Error("failed to encode report: %v", err)
			}
		} else {
			printSummary(stdout, report)
		}
	}
	if runErr != nil {
		fmt.Fprintf(stderr, "Import aborted: %v\n", runErr)
		return exitAborted
	}
	if report.Counts[importer.Failed] > 0 {
		return exitPartial
	}
	return exitOK
}

func parseArgs(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("catalog-import", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Media Catalog Bulk Import")
		fmt.Fprintln(stderr, "")
		fmt.Fprintln(stderr, "Usage: catalog-import [flags] <directory>")
		fmt.Fprintln(stderr, "")
		fmt.Fprintln(stderr, "Every media file below <directory> is ingested one at a time.")
		fmt.Fprintln(stderr, "Files already cataloged, duplicates and unreadable files are")
		fmt.Fprintln(stderr, "reported and skipped; an internal error stops the run.")
		fmt.Fprintln(stderr, "")
		fmt.Fprintln(stderr, "Flags:")
		fs.PrintDefaults()
		fmt.Fprintln(stderr, "")
		fmt.Fprintln(stderr, "Environment: the same variables as the server (CATALOG_DIR, FFMPEG_PATH, ...).")
	}

	opts := &options{}
	var tags string
	fs.StringVar(&tags, "tags", "", "comma-separated tags attached to every imported file, e.g. \"source:scan,unsorted\"")
	fs.IntVar(&opts.workers, "workers", 0, "discovery workers (0 = INDEX_WORKERS or CPU based)")
	fs.BoolVar(&opts.hidden, "hidden", false, "include hidden files and directories")
	fs.BoolVar(&opts.asJSON, "json", false, "print the full report as JSON")
	fs.BoolVar(&opts.quiet, "quiet", false, "print only the summary")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return nil, fmt.Errorf("expected one directory, got %d arguments", fs.NArg())
	}
	if opts.workers < 0 {
		fmt.Fprintln(stderr, "Error: -workers must not be negative")
		return nil, fmt.Errorf("negative workers")
	}

	opts.root = fs.Arg(0)
	opts.tags = splitTags(tags)
	return opts, nil
}

func splitTags(s string) []string {
	var tags []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func printSummary(w io.Writer, report *importer.Report) {
	fmt.Fprintln(w, "")
	fmt.Fprintf(w, "Imported %s in %v\n", report.Root, report.Duration.Round(time.Millisecond))
	for _, o := range []importer.Outcome{importer.Created, importer.AlreadyExists, importer.Duplicate, importer.InvalidFile, importer.Failed} {
		fmt.Fprintf(w, "  %-15s %d\n", o, report.Counts[o])
	}
	for _, r := range report.Results {
		switch r.Outcome {
		case importer.Duplicate:
			fmt.Fprintf(w, "  duplicate: %s (same content as %s)\n", r.Path, r.ExistingPath)
		case importer.Failed, importer.InvalidFile:
			fmt.Fprintf(w, "  %s: %s: %s\n", r.Outcome, r.Path, r.Error)
		}
	}
}

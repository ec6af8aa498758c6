// Package metrics provides Prometheus instrumentation for the media catalog.
//
// All metrics are prefixed with "media_catalog_" and registered through
// promauto at package init. InitializeMetrics pre-creates the expected label
// combinations so dashboards see zero values before the first event.
//
// # Metric Categories
//
// ## HTTP Metrics
//
//   - HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight
//
// ## Database Metrics
//
//   - DBQueryTotal, DBQueryDuration: per-operation query counts and latency
//   - DBTransactionDuration: write transactions by catalog operation
//   - DBConnectionsOpen, DBSizeBytes
//
// ## Ingestion Metrics
//
//   - IngestionsTotal: create attempts by outcome (created, already_exists,
//     duplicate_content, invalid_file, subprocess, unexpected)
//   - IngestionDuration: per-stage timings (probe, checksum, thumbnails,
//     commit, move)
//   - ThumbnailGenerationsTotal, ThumbnailGenerationDuration,
//     ThumbnailFramesWritten, KeypointCapturesTotal
//   - SubprocessDuration, SubprocessFailures: ffprobe and ffmpeg calls
//
// ## Query Metrics
//
//   - QueryResultsReturned: page sizes for search and group
//   - QueryErrors: rejected queries by error kind
//
// ## Catalog Content
//
// Updated periodically by Collector from a StatsProvider (the database):
//   - CatalogReferencesTotal, CatalogFilesTotal, CatalogTagsTotal,
//     CatalogThumbnailsTotal
//
// ## Filesystem Metrics
//
// Recorded through the filesystem.Observer returned by NewFilesystemObserver:
//   - FilesystemOperationDuration, FilesystemOperationErrors
//   - FilesystemRetryAttempts, FilesystemRetrySuccess,
//     FilesystemRetryFailures, FilesystemRetryDuration, FilesystemStaleErrors
//
// # Usage
//
//	metrics.InitializeMetrics()
//	filesystem.SetObserver(metrics.NewFilesystemObserver())
//	http.Handle("/metrics", promhttp.Handler())
package metrics

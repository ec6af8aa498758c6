package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_catalog_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_catalog_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_catalog_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_catalog_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_catalog_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBTransactionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_catalog_db_transaction_duration_seconds",
			Help:    "Duration of catalog write transactions in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"operation"},
	)

	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_catalog_db_connections_open",
			Help: "Number of open database connections",
		},
	)

	DBSizeBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "media_catalog_db_size_bytes",
			Help: "Size of SQLite database files in bytes",
		},
		[]string{"file"}, // "main", "wal", "shm"
	)
)

// Ingestion metrics
var (
	IngestionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_catalog_ingestions_total",
			Help: "Total number of create attempts by outcome",
		},
		[]string{"outcome"},
	)

	IngestionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_catalog_ingestion_stage_duration_seconds",
			Help:    "Duration of each ingestion stage in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"stage"}, // "probe", "checksum", "thumbnails", "commit", "move"
	)

	DeletionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_catalog_deletions_total",
			Help: "Total number of catalog deletions",
		},
		[]string{"status"},
	)
)

// Thumbnail metrics
var (
	ThumbnailGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_catalog_thumbnail_generations_total",
			Help: "Total number of thumbnail generations",
		},
		[]string{"type", "status"},
	)

	ThumbnailGenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_catalog_thumbnail_generation_duration_seconds",
			Help:    "Thumbnail generation duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"type"},
	)

	ThumbnailFramesWritten = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "media_catalog_thumbnail_frames_written",
			Help:    "Number of preview frames written per generation",
			Buckets: []float64{1, 2, 4, 8, 12, 16, 18, 24, 32},
		},
	)

	KeypointCapturesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_catalog_keypoint_captures_total",
			Help: "Total number of single-frame keypoint captures",
		},
		[]string{"status"},
	)
)

// Subprocess metrics
var (
	SubprocessDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_catalog_subprocess_duration_seconds",
			Help:    "Duration of ffprobe/ffmpeg invocations in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"program"},
	)

	SubprocessFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_catalog_subprocess_failures_total",
			Help: "Total number of failed ffprobe/ffmpeg invocations",
		},
		[]string{"program"},
	)
)

// Query metrics
var (
	QueryResultsReturned = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_catalog_query_results_returned",
			Help:    "Number of rows returned per search or group page",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 500},
		},
		[]string{"operation"},
	)

	QueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_catalog_query_errors_total",
			Help: "Total number of rejected or failed queries",
		},
		[]string{"operation", "kind"},
	)
)

// Catalog content metrics
var (
	CatalogReferencesTotal = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "media_catalog_references_total",
			Help: "Number of catalog references by kind",
		},
		[]string{"kind"}, // "item", "series"
	)

	CatalogFilesTotal = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "media_catalog_files_total",
			Help: "Number of media files by media type",
		},
		[]string{"media_type"},
	)

	CatalogTagsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_catalog_tags_total",
			Help: "Number of distinct tags",
		},
	)

	CatalogThumbnailsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_catalog_thumbnails_total",
			Help: "Number of thumbnail rows",
		},
	)
)

// Importer metrics
var (
	ImportRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_catalog_import_runs_total",
			Help: "Total number of bulk import runs",
		},
	)

	ImportFilesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_catalog_import_files_total",
			Help: "Files handled by bulk import by result",
		},
		[]string{"result"},
	)

	ImportIsRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_catalog_import_running",
			Help: "Whether a bulk import is running (1 = running, 0 = idle)",
		},
	)

	ImportWalkerWorkers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_catalog_import_walker_workers",
			Help: "Number of workers used by the last discovery walk",
		},
	)

	ImportWalkDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "media_catalog_import_walk_duration_seconds",
			Help:    "Time spent discovering files for a bulk import",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
		},
	)
)

// Staging janitor metrics
var (
	StagingDirsRemoved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_catalog_staging_dirs_removed_total",
			Help: "Total number of stale staging directories removed",
		},
	)

	StagingGCLastRun = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_catalog_staging_gc_last_run_timestamp",
			Help: "Timestamp of the last staging garbage collection",
		},
	)
)

// Filesystem metrics
var (
	FilesystemOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_catalog_filesystem_operation_duration_seconds",
			Help:    "Filesystem operation duration in seconds",
			Buckets: []float64{0.0001, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"volume", "operation"},
	)

	FilesystemOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_catalog_filesystem_operation_errors_total",
			Help: "Total number of failed filesystem operations",
		},
		[]string{"volume", "operation"},
	)

	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_catalog_filesystem_retry_attempts_total",
			Help: "Total number of NFS retry attempts",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_catalog_filesystem_retry_success_total",
			Help: "Operations that succeeded after at least one retry",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_catalog_filesystem_retry_failures_total",
			Help: "Operations that failed after exhausting retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_catalog_filesystem_retry_duration_seconds",
			Help:    "Total time spent in a retried filesystem operation",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.5, 1, 2},
		},
		[]string{"operation", "volume"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_catalog_filesystem_stale_errors_total",
			Help: "Total number of ESTALE errors observed",
		},
		[]string{"operation", "volume"},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "media_catalog_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	for _, file := range []string{"main", "wal", "shm"} {
		DBSizeBytes.WithLabelValues(file)
	}

	volumes := []string{"catalog", "thumbnails", "staging", "database", "unknown"}
	for _, vol := range volumes {
		for _, op := range []string{"move", "remove"} {
			FilesystemOperationDuration.WithLabelValues(vol, op)
			FilesystemOperationErrors.WithLabelValues(vol, op)
		}
		for _, op := range []string{"stat", "open", "readdir"} {
			FilesystemRetryAttempts.WithLabelValues(op, vol)
			FilesystemRetrySuccess.WithLabelValues(op, vol)
			FilesystemRetryFailures.WithLabelValues(op, vol)
			FilesystemStaleErrors.WithLabelValues(op, vol)
			FilesystemRetryDuration.WithLabelValues(op, vol)
		}
	}

	for _, outcome := range []string{"created", "already_exists", "duplicate_content",
		"invalid_file", "subprocess", "bad_input", "unexpected", "other"} {
		IngestionsTotal.WithLabelValues(outcome)
	}
	for _, stage := range []string{"probe", "checksum", "thumbnails", "commit", "move"} {
		IngestionDuration.WithLabelValues(stage)
	}

	for _, t := range []string{"image", "video", "audio"} {
		ThumbnailGenerationsTotal.WithLabelValues(t, "success")
		ThumbnailGenerationsTotal.WithLabelValues(t, "error")
		ThumbnailGenerationDuration.WithLabelValues(t)
	}

	for _, program := range []string{"ffprobe", "ffmpeg"} {
		SubprocessDuration.WithLabelValues(program)
		SubprocessFailures.WithLabelValues(program)
	}

	for _, op := range []string{"search", "group"} {
		QueryResultsReturned.WithLabelValues(op)
	}

	for _, op := range []string{"create_reference", "update_reference", "delete_reference",
		"get_reference", "search", "count", "group", "begin_transaction", "commit", "rollback"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}

	for _, t := range []string{"create", "update", "delete", "series", "keypoint", "thumbnails"} {
		DBTransactionDuration.WithLabelValues(t)
	}
}

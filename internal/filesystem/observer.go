package filesystem

// Observer records filesystem operation metrics. The metrics package provides
// the Prometheus-backed implementation.
type Observer interface {
	// ObserveOperation records duration and error status for a filesystem operation.
	// volume is the resolved mount label ("catalog", "thumbnails", "staging").
	ObserveOperation(volume, operation string, durationSeconds float64, err error)

	// retryOp is one of "stat", "open", "readdir", "rename".
	ObserveRetryAttempt(retryOp, volume string)
	ObserveRetrySuccess(retryOp, volume string)
	ObserveRetryFailure(retryOp, volume string)
	ObserveRetryDuration(retryOp, volume string, durationSeconds float64)
	ObserveStaleError(retryOp, volume string)
}

// nil means metric recording is skipped, which is what tests get.
var defaultObserver Observer

// SetObserver sets the package-level metrics observer.
func SetObserver(o Observer) {
	defaultObserver = o
}

func observe() Observer {
	return defaultObserver
}

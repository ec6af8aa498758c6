package database

import (
	"context"

	"media-catalog/internal/logging"
	"media-catalog/internal/metrics"
)

// GetStats returns catalog totals for the metrics collector.
func (d *Database) GetStats() metrics.Stats {
	done := observeQuery("stats")

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var s metrics.Stats
	err := d.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM media_reference WHERE media_series_reference = 0),
			(SELECT COUNT(*) FROM media_reference WHERE media_series_reference = 1),
			(SELECT COUNT(*) FROM media_file WHERE media_type = 'IMAGE'),
			(SELECT COUNT(*) FROM media_file WHERE media_type = 'VIDEO'),
			(SELECT COUNT(*) FROM media_file WHERE media_type = 'AUDIO'),
			(SELECT COUNT(*) FROM tag),
			(SELECT COUNT(*) FROM media_thumbnail)
	`).Scan(&s.TotalItems, &s.TotalSeries, &s.TotalImages, &s.TotalVideos, &s.TotalAudio,
		&s.TotalTags, &s.TotalThumbnails)
	done(err)
	if err != nil {
		logging.Warn("Failed to collect catalog stats: %v", err)
	}
	return s
}

package metrics

import (
	"time"

	"media-catalog/internal/logging"
)

// StatsProvider interface for collecting stats
type StatsProvider interface {
	GetStats() Stats
}

// dbMetricsUpdater is implemented by providers that also report storage
// engine gauges (connections, file sizes).
type dbMetricsUpdater interface {
	UpdateDBMetrics()
}

// Stats holds the current catalog counts
type Stats struct {
	TotalItems      int
	TotalSeries     int
	TotalImages     int
	TotalVideos     int
	TotalAudio      int
	TotalTags       int
	TotalThumbnails int
}

// Collector periodically collects and updates metrics
type Collector struct {
	statsProvider StatsProvider
	interval      time.Duration
	stopChan      chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.statsProvider == nil {
		return
	}

	stats := c.statsProvider.GetStats()
	if u, ok := c.statsProvider.(dbMetricsUpdater); ok {
		u.UpdateDBMetrics()
	}

	CatalogReferencesTotal.WithLabelValues("item").Set(float64(stats.TotalItems))
	CatalogReferencesTotal.WithLabelValues("series").Set(float64(stats.TotalSeries))
	CatalogFilesTotal.WithLabelValues("IMAGE").Set(float64(stats.TotalImages))
	CatalogFilesTotal.WithLabelValues("VIDEO").Set(float64(stats.TotalVideos))
	CatalogFilesTotal.WithLabelValues("AUDIO").Set(float64(stats.TotalAudio))
	CatalogTagsTotal.Set(float64(stats.TotalTags))
	CatalogThumbnailsTotal.Set(float64(stats.TotalThumbnails))

	logging.Debug("Metrics collected: items=%d, series=%d, tags=%d, thumbnails=%d",
		stats.TotalItems, stats.TotalSeries, stats.TotalTags, stats.TotalThumbnails)
}

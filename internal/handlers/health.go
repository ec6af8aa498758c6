package handlers

import (
	"net/http"
	"runtime"
	"time"

	"media-catalog/internal/logging"
	"media-catalog/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusDegraded = "degraded"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	Uptime        string `json:"uptime"`
	LastStagingGC string `json:"lastStagingGc,omitempty"`
	Error         string `json:"error,omitempty"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`

	// Catalog summary
	TotalItems      int `json:"totalItems"`
	TotalSeries     int `json:"totalSeries"`
	TotalTags       int `json:"totalTags"`
	TotalThumbnails int `json:"totalThumbnails"`
}

// HealthCheck returns the health status of the service. It reports
// degraded, with 503, when the catalog database cannot be read.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:       statusHealthy,
		Version:      startup.Version,
		Uptime:       time.Since(h.startTime).Round(time.Second).String(),
		GoVersion:    runtime.Version(),
		NumCPU:       runtime.NumCPU(),
		NumGoroutine: runtime.NumGoroutine(),
	}

	lastGC, err := h.db.GetLastStagingGC(r.Context())
	if err != nil {
		logging.Warn("Health check could not read the catalog: %v", err)
		response.Status = statusDegraded
		response.Error = "catalog database unavailable"
		writeJSONStatusCode(w, response, http.StatusServiceUnavailable)
		return
	}
	if !lastGC.IsZero() {
		response.LastStagingGC = lastGC.Format(time.RFC3339)
	}

	stats := h.db.GetStats()
	response.TotalItems = stats.TotalItems
	response.TotalSeries = stats.TotalSeries
	response.TotalTags = stats.TotalTags
	response.TotalThumbnails = stats.TotalThumbnails

	writeJSONStatusCode(w, response, http.StatusOK)
}

// LivenessCheck is a simple liveness probe (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	// For HEAD requests, only send headers (no body)
	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{
			"status": "alive",
		})
	}
}

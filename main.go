package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"media-catalog/internal/catalog"
	"media-catalog/internal/database"
	"media-catalog/internal/filesystem"
	"media-catalog/internal/handlers"
	"media-catalog/internal/janitor"
	"media-catalog/internal/logging"
	"media-catalog/internal/media"
	"media-catalog/internal/metrics"
	"media-catalog/internal/middleware"
	"media-catalog/internal/startup"

	"github.com/gorilla/mux"
)

func main() {
	startTime := time.Now()

	startup.LoadEnvFile()

	// Load configuration
	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	metrics.InitializeMetrics()
	metrics.AppInfo.WithLabelValues(startup.Version, startup.Commit, startup.GoVersion).Set(1)
	filesystem.SetObserver(metrics.NewFilesystemObserver())
	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(map[string]string{
		"catalog":    config.CatalogDir,
		"thumbnails": config.ThumbnailDir,
		"staging":    config.StagingDir,
	}))

	// Initialize database
	dbStart := time.Now()
	db, err := database.New(context.Background(), config.DatabasePath)
	if err != nil {
		startup.LogFatal("Failed to initialize database: %v", err)
	}
	defer db.Close()
	startup.LogDatabaseInit(time.Since(dbStart))

	// Initialize the ingestion pipeline and query engine
	startup.LogMediaToolsInit(config.FFmpegPath, config.FFprobePath)
	runner := media.ExecRunner{}
	cat := catalog.New(db,
		media.NewProber(runner, config.FFprobePath),
		media.NewThumbnailGenerator(runner, config.FFmpegPath, config.ThumbnailCount, config.ThumbnailSize),
		catalog.Config{ThumbnailDir: config.ThumbnailDir, StagingDir: config.StagingDir})

	// Sweep staging left behind by interrupted ingestions
	jan := janitor.New(config.StagingDir, config.StagingMaxAge, db)
	if _, err := jan.Sweep(context.Background()); err != nil {
		logging.Warn("Initial staging sweep failed: %v", err)
	}
	if err := jan.Start(config.StagingGC); err != nil {
		startup.LogFatal("Failed to start staging janitor: %v", err)
	}
	startup.LogJanitorInit(config.StagingGC, config.StagingMaxAge)

	var collector *metrics.Collector
	if config.MetricsEnabled {
		collector = metrics.NewCollector(db, time.Minute)
		collector.Start()
	}

	// Initialize handlers
	h := handlers.New(cat, db)

	// Setup router
	router := setupRouter(h, config.MetricsEnabled)

	// Log routes dynamically
	startup.LogHTTPRoutes(router)

	handler := middleware.Logger(middleware.DefaultLoggingConfig())(router)

	// Create server
	srv := &http.Server{
		Addr:              ":" + config.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		// ingestion runs ffmpeg inside the request
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	// Start graceful shutdown handler
	done := make(chan struct{})
	go handleShutdown(srv, jan, collector, done)

	// Start server
	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		startup.LogFatal("Server error: %v", err)
	}
	<-done
}

func setupRouter(h *handlers.Handlers, metricsEnabled bool) *mux.Router {
	r := mux.NewRouter()

	// Health check and version routes
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")
	if metricsEnabled {
		r.Handle("/metrics", h.MetricsHandler()).Methods("GET")
	}

	api := r.PathPrefix("/api").Subrouter()
	if metricsEnabled {
		api.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))
	}

	// Media
	api.HandleFunc("/media", h.CreateMedia).Methods("POST")
	api.HandleFunc("/media", h.GetMediaByPath).Methods("GET").Queries("path", "{path}")
	api.HandleFunc("/media/{id:[0-9]+}", h.GetMedia).Methods("GET")
	api.HandleFunc("/media/{id:[0-9]+}", h.UpdateMedia).Methods("PATCH")
	api.HandleFunc("/media/{id:[0-9]+}", h.DeleteMedia).Methods("DELETE")
	api.HandleFunc("/media/{id:[0-9]+}/view", h.MarkViewed).Methods("POST")
	api.HandleFunc("/media/{id:[0-9]+}/keypoints", h.AddKeypoint).Methods("POST")
	api.HandleFunc("/media/{id:[0-9]+}/thumbnails/regenerate", h.RegenerateThumbnails).Methods("POST")
	api.HandleFunc("/keypoints/{id:[0-9]+}", h.DeleteKeypoint).Methods("DELETE")

	// Series
	api.HandleFunc("/series", h.CreateSeries).Methods("POST")
	api.HandleFunc("/series/{id:[0-9]+}/items", h.AddSeriesItem).Methods("POST")
	api.HandleFunc("/series/items/{id:[0-9]+}", h.RemoveSeriesItem).Methods("DELETE")

	// Queries
	api.HandleFunc("/search", h.Search).Methods("POST")
	api.HandleFunc("/group", h.Group).Methods("POST")
	api.HandleFunc("/tags", h.ListTags).Methods("GET")

	return r
}

func handleShutdown(srv *http.Server, jan *janitor.Janitor, collector *metrics.Collector, done chan<- struct{}) {
	defer close(done)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	startup.LogShutdownStep("Stopping staging janitor")
	if err := jan.Stop(ctx); err != nil {
		logging.Warn("Staging janitor stop error: %v", err)
	} else {
		startup.LogShutdownStepComplete("Staging janitor stopped")
	}

	if collector != nil {
		startup.LogShutdownStep("Stopping metrics collector")
		collector.Stop()
		startup.LogShutdownStepComplete("Metrics collector stopped")
	}

	startup.LogShutdownComplete()
}

package startup

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"media-catalog/internal/logging"
	"media-catalog/internal/media"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// Config holds all application configuration
type Config struct {
	CatalogDir     string
	DatabasePath   string
	ThumbnailDir   string
	StagingDir     string
	Port           string
	FFmpegPath     string
	FFprobePath    string
	ThumbnailCount int
	ThumbnailSize  int
	StagingMaxAge  time.Duration
	StagingGC      string
	MetricsEnabled bool
	IndexWorkers   int
}

// LoadEnvFile seeds the environment from a .env file when one exists.
// Variables already set in the environment win.
func LoadEnvFile(paths ...string) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			logging.Warn("Failed to load %s: %v", p, err)
			continue
		}
		logging.Debug("Loaded environment from %s", p)
	}
}

// LoadConfig loads and validates configuration from environment variables
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	catalogDir := getEnv("CATALOG_DIR", "/catalog")
	databasePath := getEnv("DATABASE_PATH", filepath.Join(catalogDir, "catalog.db"))
	thumbnailDir := getEnv("THUMBNAIL_DIR", filepath.Join(catalogDir, "thumbnails"))
	stagingDir := getEnv("STAGING_DIR", filepath.Join(catalogDir, "staging"))
	port := getEnv("PORT", "8080")
	ffmpegPath := getEnv("FFMPEG_PATH", "ffmpeg")
	ffprobePath := getEnv("FFPROBE_PATH", "ffprobe")
	thumbnailCount := getEnvInt("THUMBNAIL_COUNT", media.DefaultThumbnailCount)
	thumbnailSize := getEnvInt("THUMBNAIL_SIZE", media.DefaultThumbnailSize)
	stagingMaxAgeStr := getEnv("STAGING_MAX_AGE", "24h")
	stagingGC := getEnv("STAGING_GC_SCHEDULE", "@hourly")
	metricsEnabled := getEnvBool("METRICS_ENABLED", true)
	indexWorkers := getEnvInt("INDEX_WORKERS", 0)

	logging.Info("  CATALOG_DIR:          %s", catalogDir)
	logging.Info("  DATABASE_PATH:        %s", databasePath)
	logging.Info("  THUMBNAIL_DIR:        %s", thumbnailDir)
	logging.Info("  STAGING_DIR:          %s", stagingDir)
	logging.Info("  PORT:                 %s", port)
	logging.Info("  FFMPEG_PATH:          %s", ffmpegPath)
	logging.Info("  FFPROBE_PATH:         %s", ffprobePath)
	logging.Info("  THUMBNAIL_COUNT:      %d", thumbnailCount)
	logging.Info("  THUMBNAIL_SIZE:       %d", thumbnailSize)
	logging.Info("  STAGING_MAX_AGE:      %s", stagingMaxAgeStr)
	logging.Info("  STAGING_GC_SCHEDULE:  %s", stagingGC)
	logging.Info("  METRICS_ENABLED:      %v", metricsEnabled)
	logging.Info("  LOG_LEVEL:            %s", logging.GetLevel())

	stagingMaxAge, err := time.ParseDuration(stagingMaxAgeStr)
	if err != nil || stagingMaxAge <= 0 {
		logging.Warn("  Invalid STAGING_MAX_AGE, using default: 24h")
		stagingMaxAge = 24 * time.Hour
	}
	if thumbnailCount < 2 {
		return nil, fmt.Errorf("THUMBNAIL_COUNT must be at least 2, got %d", thumbnailCount)
	}
	if thumbnailSize < 16 {
		return nil, fmt.Errorf("THUMBNAIL_SIZE must be at least 16, got %d", thumbnailSize)
	}

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	config := &Config{
		Port:           port,
		FFmpegPath:     ffmpegPath,
		FFprobePath:    ffprobePath,
		ThumbnailCount: thumbnailCount,
		ThumbnailSize:  thumbnailSize,
		StagingMaxAge:  stagingMaxAge,
		StagingGC:      stagingGC,
		MetricsEnabled: metricsEnabled,
		IndexWorkers:   indexWorkers,
	}

	dirs := []struct {
		dst  *string
		path string
		name string
	}{
		{&config.CatalogDir, catalogDir, "catalog"},
		{&config.ThumbnailDir, thumbnailDir, "thumbnail"},
		{&config.StagingDir, stagingDir, "staging"},
	}
	for _, d := range dirs {
		abs, err := filepath.Abs(d.path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s directory path: %w", d.name, err)
		}
		if err := ensureDirectory(abs, d.name); err != nil {
			return nil, fmt.Errorf("%s directory error: %w", d.name, err)
		}
		if err := testWriteAccess(abs); err != nil {
			return nil, fmt.Errorf("%s directory is not writable: %w", d.name, err)
		}
		logging.Info("  [OK] %s directory: %s", d.name, abs)
		*d.dst = abs
	}

	config.DatabasePath, err = filepath.Abs(databasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve database path: %w", err)
	}
	if err := ensureDirectory(filepath.Dir(config.DatabasePath), "database"); err != nil {
		return nil, fmt.Errorf("database directory error: %w", err)
	}

	return config, nil
}

// LogDatabaseInit logs database initialization
func LogDatabaseInit(duration time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DATABASE INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  [OK] Database initialized in %v", duration)
}

// LogMediaToolsInit checks that ffmpeg and ffprobe can be run.
func LogMediaToolsInit(ffmpegPath, ffprobePath string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("MEDIA TOOLS")
	logging.Info("------------------------------------------------------------")

	for _, tool := range []string{ffprobePath, ffmpegPath} {
		if err := checkTool(tool); err != nil {
			logging.Warn("  %s check failed: %v", tool, err)
			logging.Warn("  Ingestion will fail until it is installed")
			continue
		}
		logging.Info("  [OK] %s is available", tool)
	}
}

// LogJanitorInit logs the staging garbage collector schedule
func LogJanitorInit(schedule string, maxAge time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("STAGING JANITOR")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Schedule: %s", schedule)
	logging.Info("  Max age:  %v", maxAge)
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   route.GetName(),
			})
		}
		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs all registered HTTP routes at debug level
func LogHTTPRoutes(router *mux.Router) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP SERVER SETUP")
	logging.Info("------------------------------------------------------------")

	if !logging.IsDebugEnabled() {
		return
	}

	routes, err := GetRoutes(router)
	if err != nil {
		logging.Warn("error walking routes: %v", err)
	}
	logging.Debug("  Registered routes (%d total):", len(routes))

	groups := make(map[string][]RouteInfo)
	for _, route := range routes {
		prefix := getRouteGroup(route.Path)
		groups[prefix] = append(groups[prefix], route)
	}
	groupKeys := make([]string, 0, len(groups))
	for k := range groups {
		groupKeys = append(groupKeys, k)
	}
	sort.Strings(groupKeys)

	for _, group := range groupKeys {
		if group != "" {
			logging.Debug("  [%s]", group)
		} else {
			logging.Debug("  [root]")
		}
		for _, route := range groups[group] {
			logging.Debug("    %-6s %s", route.Method, route.Path)
		}
	}
}

// getRouteGroup extracts a group name from a route path
func getRouteGroup(path string) string {
	path = strings.TrimPrefix(path, "/")
	parts := strings.SplitN(path, "/", 2)
	first := parts[0]

	if first == "api" && len(parts) > 1 {
		subParts := strings.SplitN(parts[1], "/", 2)
		return "api/" + subParts[0]
	}
	return first
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Port            string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs successful server start with all endpoint information
func LogServerStarted(config ServerConfig) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("  API:             http://0.0.0.0:%s/api", config.Port)
	if config.MetricsEnabled {
		logging.Info("  Metrics:         http://0.0.0.0:%s/metrics", config.Port)
	} else {
		logging.Info("  Metrics:         DISABLED")
	}
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

func printBanner() {
	fmt.Println(`
------------------------------------------------------------
  media-catalog
------------------------------------------------------------`)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if logging.IsDebugEnabled() {
		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}
		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}
	logging.Info("")
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}

func checkTool(name string) error {
	path, err := exec.LookPath(name)
	if err != nil {
		return fmt.Errorf("%s not found in PATH", name)
	}
	logging.Debug("  %s path: %s", name, path)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	output, err := exec.CommandContext(ctx, path, "-version").Output()
	if err != nil {
		return fmt.Errorf("failed to get %s version: %w", name, err)
	}
	if first, _, _ := strings.Cut(string(output), "\n"); first != "" {
		logging.Debug("  %s version: %s", name, strings.TrimSpace(first))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		logging.Warn("Invalid integer value for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

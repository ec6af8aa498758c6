// Package startup loads configuration and writes the startup and shutdown
// log sections.
//
// # Configuration
//
// [LoadConfig] reads environment variables, optionally seeded from a .env
// file by [LoadEnvFile]:
//
//   - CATALOG_DIR: Root for the database, thumbnails and staging (default: /catalog)
//   - DATABASE_PATH: SQLite file (default: $CATALOG_DIR/catalog.db)
//   - THUMBNAIL_DIR: Content-addressed thumbnail tree (default: $CATALOG_DIR/thumbnails)
//   - STAGING_DIR: In-progress thumbnail output (default: $CATALOG_DIR/staging)
//   - PORT: HTTP server port (default: 8080)
//   - FFMPEG_PATH, FFPROBE_PATH: Media tool binaries (default: from PATH)
//   - THUMBNAIL_COUNT: Preview frames per animated file (default: 18)
//   - THUMBNAIL_SIZE: Long edge of a preview frame in pixels (default: 500)
//   - STAGING_MAX_AGE: Age after which staging output is collected (default: 24h)
//   - STAGING_GC_SCHEDULE: Cron spec for the staging janitor (default: @hourly)
//   - METRICS_ENABLED: Serve /metrics (default: true)
//   - INDEX_WORKERS: Discovery walker workers for bulk imports (default: 2 per CPU)
//   - LOG_LEVEL: debug, info, warn, error (default: info)
//
// STAGING_DIR should live on the same filesystem as THUMBNAIL_DIR so that
// committed thumbnails are moved by rename.
//
// # Build Information
//
// Version, Commit and BuildTime are injected via ldflags and exposed via
// [GetBuildInfo].
package startup

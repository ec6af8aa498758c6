// Package logging provides a simple leveled logging interface for the
// media catalog.
//
// It supports the following log levels:
//   - DEBUG: Pipeline stages, subprocess output on failure
//   - INFO: Committed ingestions and deletions, startup
//   - WARN: Recoverable problems
//   - ERROR: Failures after a commit that need attention
//   - FATAL: Fatal errors that terminate the application
//
// The log level is configured via the LOG_LEVEL environment variable, or
// forced to debug with DEBUG=true.
package logging

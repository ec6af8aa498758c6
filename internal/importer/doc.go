// Package importer bulk-loads a directory tree into the catalog.
//
// Discovery runs in parallel: a walker feeds directory entries to a pool of
// workers that keep files whose extension names a supported media type.
// Ingestion then runs one file at a time through the catalog's Create, so
// every file sees the duplicate checks of the files before it.
//
// Each file ends in one of five outcomes:
//   - created: a new reference was committed
//   - already_exists: the path is already cataloged
//   - duplicate: the same content is cataloged under another path
//   - invalid_file: ffprobe rejected the file
//   - failed: any other expected error, such as an ffmpeg failure
//
// An Unexpected error or cancellation stops the run; the report returned
// alongside the error covers the files handled so far.
package importer

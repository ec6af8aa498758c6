// Package catalog ingests media files into the catalog and answers queries
// over it.
//
// Create probes and hashes a file concurrently, rejects known content before
// any thumbnail work, stages the preview frames, commits every row in one
// transaction and only then moves the frames into the content-addressed
// thumbnail tree. A crash between commit and move leaves a row whose frames
// RegenerateThumbnails can restore; a crash before commit leaves only inert
// staging output for the janitor.
//
// Search and Group resolve tag names to ids and delegate to the database's
// keyset-paginated queries.
package catalog

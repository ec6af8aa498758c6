// Package database is the SQLite catalog store.
//
// It holds media references (standalone items and series), their files,
// thumbnails, tags grouped into tag groups, series items and keypoints.
// Mutations run inside Database.WithTx, one writer at a time; the tag,
// group and series counters are updated by the same Tx method that changes
// the underlying link rows, and deletes check every row count they remove.
//
// Search and Group page through the catalog with keyset cursors built by a
// single SortKey type, so both share one continuation predicate.
//
// The database uses WAL mode with foreign keys enabled.
package database

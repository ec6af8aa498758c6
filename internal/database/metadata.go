package database

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

func getMetadata(ctx context.Context, q querier, key string) (string, error) {
	var value sql.NullString
	err := q.QueryRowContext(ctx, "SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if err != nil {
		return "", err
	}
	return value.String, nil
}

func setMetadata(ctx context.Context, q querier, key, value string) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

// GetMetadata retrieves a metadata value by key.
// Returns sql.ErrNoRows if the key doesn't exist.
func (d *Database) GetMetadata(ctx context.Context, key string) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return getMetadata(ctx, d.db, key)
}

// SetMetadata sets a metadata key-value pair.
func (d *Database) SetMetadata(ctx context.Context, key, value string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return setMetadata(ctx, d.db, key, value)
}

// GetLastStagingGC returns when stale staging directories were last swept.
// Returns zero time if never run.
func (d *Database) GetLastStagingGC(ctx context.Context) (time.Time, error) {
	value, err := d.GetMetadata(ctx, "last_staging_gc")
	if errors.Is(err, sql.ErrNoRows) || (err == nil && value == "") {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339, value)
}

// SetLastStagingGC stores the time of the last staging sweep.
func (d *Database) SetLastStagingGC(ctx context.Context, t time.Time) error {
	return d.SetMetadata(ctx, "last_staging_gc", t.UTC().Format(time.RFC3339))
}

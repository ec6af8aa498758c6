package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"media-catalog/internal/errs"
)

// InsertKeypoint records a keypoint and sets k.ID.
func (tx *Tx) InsertKeypoint(k *Keypoint) error {
	if k.MediaTimestamp < 0 {
		return errs.BadInputf("keypoint timestamp %v is negative", k.MediaTimestamp)
	}
	if k.Duration != nil && *k.Duration < 0 {
		return errs.BadInputf("keypoint duration %v is negative", *k.Duration)
	}
	result, err := tx.tx.ExecContext(tx.ctx, `
		INSERT INTO media_keypoint (media_file_id, tag_id, media_timestamp, duration)
		VALUES (?, ?, ?, ?)`, k.FileID, k.TagID, k.MediaTimestamp, k.Duration)
	if err != nil {
		return fmt.Errorf("insert keypoint: %w", err)
	}
	if k.ID, err = result.LastInsertId(); err != nil {
		return err
	}
	return tx.adjustCounter("media_file", "keypoint_count", k.FileID, 1)
}

// DeleteKeypoint removes a keypoint. When no other keypoint on the file sits
// at the same timestamp the matching keypoint thumbnail row is removed too and
// its path is returned so the caller can delete the image after commit.
func (tx *Tx) DeleteKeypoint(id int64) (string, error) {
	var fileID int64
	var ts float64
	err := tx.tx.QueryRowContext(tx.ctx,
		"SELECT media_file_id, media_timestamp FROM media_keypoint WHERE id = ?", id).Scan(&fileID, &ts)
	if errors.Is(err, sql.ErrNoRows) {
		return "", errs.NotFoundf("keypoint %d", id)
	}
	if err != nil {
		return "", err
	}
	if err := tx.deleteExpected("keypoint", 1, "DELETE FROM media_keypoint WHERE id = ?", id); err != nil {
		return "", err
	}
	if err := tx.adjustCounter("media_file", "keypoint_count", fileID, -1); err != nil {
		return "", err
	}

	var shared int
	if err := tx.tx.QueryRowContext(tx.ctx,
		"SELECT COUNT(*) FROM media_keypoint WHERE media_file_id = ? AND media_timestamp = ?", fileID, ts).
		Scan(&shared); err != nil {
		return "", err
	}
	if shared > 0 {
		return "", nil
	}

	var thumbID int64
	var path string
	err = tx.tx.QueryRowContext(tx.ctx, `
		SELECT id, filepath FROM media_thumbnail
		WHERE media_file_id = ? AND kind = ? AND media_timestamp = ?`,
		fileID, string(ThumbnailKeypoint), ts).Scan(&thumbID, &path)
	if errors.Is(err, sql.ErrNoRows) {
		// Audio keypoints have no capture.
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if err := tx.deleteExpected("keypoint thumbnail", 1, "DELETE FROM media_thumbnail WHERE id = ?", thumbID); err != nil {
		return "", err
	}
	if err := tx.adjustCounter("media_file", "thumbnail_count", fileID, -1); err != nil {
		return "", err
	}
	return path, nil
}

// HasKeypointThumbnail reports whether a capture at ts is already stored for fileID.
func (tx *Tx) HasKeypointThumbnail(fileID int64, ts float64) (bool, error) {
	var n int
	err := tx.tx.QueryRowContext(tx.ctx, `
		SELECT COUNT(*) FROM media_thumbnail
		WHERE media_file_id = ? AND kind = ? AND media_timestamp = ?`,
		fileID, string(ThumbnailKeypoint), ts).Scan(&n)
	return n > 0, err
}

// ListKeypoints returns a file's keypoints in timeline order.
func (d *Database) ListKeypoints(ctx context.Context, fileID int64) ([]Keypoint, error) {
	done := observeQuery("list_keypoints")

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, `
		SELECT k.id, k.media_file_id, k.tag_id, g.name, t.name, k.media_timestamp, k.duration
		FROM media_keypoint k
		JOIN tag t ON t.id = k.tag_id
		JOIN tag_group g ON g.id = t.tag_group_id
		WHERE k.media_file_id = ?
		ORDER BY k.media_timestamp, k.id`, fileID)
	if err != nil {
		done(err)
		return nil, err
	}
	defer rows.Close()

	keypoints := []Keypoint{}
	for rows.Next() {
		var k Keypoint
		var group, name string
		var dur sql.NullFloat64
		if err := rows.Scan(&k.ID, &k.FileID, &k.TagID, &group, &name, &k.MediaTimestamp, &dur); err != nil {
			done(err)
			return nil, err
		}
		k.Tag = Tag{Group: group, Name: name}.String()
		if dur.Valid {
			v := dur.Float64
			k.Duration = &v
		}
		keypoints = append(keypoints, k)
	}
	err = rows.Err()
	done(err)
	return keypoints, err
}

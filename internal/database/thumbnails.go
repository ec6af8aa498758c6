package database

import (
	"context"
	"fmt"
)

// InsertThumbnail records one thumbnail image for a file.
func (tx *Tx) InsertThumbnail(t *Thumbnail) error {
	result, err := tx.tx.ExecContext(tx.ctx, `
		INSERT INTO media_thumbnail (media_file_id, filepath, media_timestamp, kind)
		VALUES (?, ?, ?, ?)`, t.FileID, t.Filepath, t.MediaTimestamp, string(t.Kind))
	if err != nil {
		return fmt.Errorf("insert thumbnail %s: %w", t.Filepath, err)
	}
	if t.ID, err = result.LastInsertId(); err != nil {
		return err
	}
	return tx.adjustCounter("media_file", "thumbnail_count", t.FileID, 1)
}

// ReplaceStandardThumbnails swaps a file's generated thumbnails for thumbs.
// Keypoint captures are kept.
func (tx *Tx) ReplaceStandardThumbnails(fileID int64, thumbs []Thumbnail) error {
	if err := tx.deleteStandardThumbnails(fileID); err != nil {
		return err
	}
	for i := range thumbs {
		thumbs[i].FileID = fileID
		thumbs[i].Kind = ThumbnailStandard
		if err := tx.InsertThumbnail(&thumbs[i]); err != nil {
			return err
		}
	}
	return nil
}

func (tx *Tx) deleteStandardThumbnails(fileID int64) error {
	result, err := tx.tx.ExecContext(tx.ctx,
		"DELETE FROM media_thumbnail WHERE media_file_id = ? AND kind = ?", fileID, string(ThumbnailStandard))
	if err != nil {
		return fmt.Errorf("delete standard thumbnails: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	return tx.adjustCounter("media_file", "thumbnail_count", fileID, -int(n))
}

// ListThumbnails returns a window of a file's thumbnails ordered by media
// timestamp, with the file's total thumbnail count. A limit of zero returns
// only the total.
func (d *Database) ListThumbnails(ctx context.Context, fileID int64, limit, offset int) (*ThumbnailPage, error) {
	done := observeQuery("list_thumbnails")

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	page := &ThumbnailPage{Results: []Thumbnail{}}
	err := d.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM media_thumbnail WHERE media_file_id = ?", fileID).Scan(&page.Total)
	if err != nil || limit <= 0 {
		done(err)
		return page, err
	}

	rows, err := d.db.QueryContext(ctx, `
		SELECT id, media_file_id, filepath, media_timestamp, kind
		FROM media_thumbnail WHERE media_file_id = ?
		ORDER BY media_timestamp, id
		LIMIT ? OFFSET ?`, fileID, limit, offset)
	if err != nil {
		done(err)
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var t Thumbnail
		var kind string
		if err := rows.Scan(&t.ID, &t.FileID, &t.Filepath, &t.MediaTimestamp, &kind); err != nil {
			done(err)
			return nil, err
		}
		t.Kind = ThumbnailKind(kind)
		page.Results = append(page.Results, t)
	}
	err = rows.Err()
	done(err)
	return page, err
}

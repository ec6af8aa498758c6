package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"media-catalog/internal/errs"
	"media-catalog/internal/logging"
	"media-catalog/internal/mediatypes"
)

const referenceColumns = `r.id, r.media_series_reference, r.series_name, r.title, r.description,
	r.source_url, r.source_created_at, r.metadata, r.stars, r.view_count, r.last_viewed_at,
	r.tag_count, r.media_series_length, r.media_series_membership_count, r.created_at, r.updated_at`

const fileColumns = `f.id, f.media_reference_id, f.filepath, f.filename, f.checksum, f.media_type,
	f.codec, f.content_type, f.width, f.height, f.animated, f.audio, f.duration, f.framerate,
	f.framecount, f.filesize_bytes, f.thumbnail_directory_path, f.thumbnail_count, f.keypoint_count,
	f.created_at`

// referenceRow holds the nullable scan targets for one reference row.
type referenceRow struct {
	ref                     Reference
	seriesName, title, desc sql.NullString
	sourceURL, metadata     sql.NullString
	sourceCreated, viewed   sql.NullInt64
	created, updated        int64
}

func (r *referenceRow) dest() []any {
	return []any{
		&r.ref.ID, &r.ref.IsSeries, &r.seriesName, &r.title, &r.desc,
		&r.sourceURL, &r.sourceCreated, &r.metadata, &r.ref.Stars, &r.ref.ViewCount, &r.viewed,
		&r.ref.TagCount, &r.ref.SeriesLength, &r.ref.MembershipCount, &r.created, &r.updated,
	}
}

func (r *referenceRow) reference() *Reference {
	ref := r.ref
	ref.SeriesName = stringFromNull(r.seriesName)
	ref.Title = stringFromNull(r.title)
	ref.Description = stringFromNull(r.desc)
	ref.SourceURL = stringFromNull(r.sourceURL)
	ref.Metadata = stringFromNull(r.metadata)
	ref.SourceCreatedAt = timeFromNull(r.sourceCreated)
	ref.LastViewedAt = timeFromNull(r.viewed)
	ref.CreatedAt = time.Unix(r.created, 0)
	ref.UpdatedAt = time.Unix(r.updated, 0)
	return &ref
}

// fileRow holds the scan targets for a file row that may be absent (LEFT JOIN).
type fileRow struct {
	id, referenceID, framecount, size, created sql.NullInt64
	thumbnails, keypoints                      sql.NullInt64
	path, name, checksum, mediaType            sql.NullString
	codec, contentType, thumbDir               sql.NullString
	width, height                              sql.NullInt64
	animated, audio                            sql.NullBool
	duration, framerate                        sql.NullFloat64
}

func (f *fileRow) dest() []any {
	return []any{
		&f.id, &f.referenceID, &f.path, &f.name, &f.checksum, &f.mediaType,
		&f.codec, &f.contentType, &f.width, &f.height, &f.animated, &f.audio, &f.duration, &f.framerate,
		&f.framecount, &f.size, &f.thumbDir, &f.thumbnails, &f.keypoints, &f.created,
	}
}

func (f *fileRow) file() *File {
	if !f.id.Valid {
		return nil
	}
	file := &File{
		ID:                     f.id.Int64,
		ReferenceID:            f.referenceID.Int64,
		Filepath:               f.path.String,
		Filename:               f.name.String,
		Checksum:               f.checksum.String,
		MediaType:              mediatypes.MediaType(f.mediaType.String),
		Codec:                  f.codec.String,
		ContentType:            f.contentType.String,
		Animated:               f.animated.Bool,
		Audio:                  f.audio.Bool,
		Duration:               f.duration.Float64,
		Framerate:              f.framerate.Float64,
		Framecount:             int(f.framecount.Int64),
		FilesizeBytes:          f.size.Int64,
		ThumbnailDirectoryPath: f.thumbDir.String,
		ThumbnailCount:         int(f.thumbnails.Int64),
		KeypointCount:          int(f.keypoints.Int64),
		CreatedAt:              time.Unix(f.created.Int64, 0),
	}
	if f.width.Valid {
		w := int(f.width.Int64)
		file.Width = &w
	}
	if f.height.Valid {
		h := int(f.height.Int64)
		file.Height = &h
	}
	return file
}

func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique
}

func getReference(ctx context.Context, q querier, id int64) (*Reference, error) {
	var row referenceRow
	err := q.QueryRowContext(ctx, "SELECT "+referenceColumns+" FROM media_reference r WHERE r.id = ?", id).
		Scan(row.dest()...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.NotFoundf("reference %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get reference %d: %w", id, err)
	}
	return row.reference(), nil
}

func getFile(ctx context.Context, q querier, where string, arg any) (*File, error) {
	var row fileRow
	err := q.QueryRowContext(ctx, "SELECT "+fileColumns+" FROM media_file f WHERE "+where, arg).Scan(row.dest()...)
	if err != nil {
		return nil, err
	}
	return row.file(), nil
}

// InsertReference creates a reference row. A series must carry a name.
func (tx *Tx) InsertReference(isSeries bool, seriesName *string, fields ReferenceFields) (int64, error) {
	if isSeries && (seriesName == nil || *seriesName == "") {
		return 0, errs.BadInputf("a series needs a name")
	}
	if !isSeries && seriesName != nil {
		return 0, errs.BadInputf("only a series can have a series name")
	}

	now := time.Now().Unix()
	viewCount := 0
	if fields.ViewCount != nil {
		if *fields.ViewCount < 0 {
			return 0, errs.BadInputf("view count %d is negative", *fields.ViewCount)
		}
		viewCount = *fields.ViewCount
	}
	stars := 0
	if fields.Stars != nil {
		if *fields.Stars < 0 {
			return 0, errs.BadInputf("stars %d is negative", *fields.Stars)
		}
		stars = *fields.Stars
	}

	done := observeQuery("create_reference")
	result, err := tx.tx.ExecContext(tx.ctx, `
		INSERT INTO media_reference (
			media_series_reference, series_name, title, description, source_url,
			source_created_at, metadata, stars, view_count, last_viewed_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		isSeries, seriesName, fields.Title, fields.Description, fields.SourceURL,
		unixOrNil(fields.SourceCreatedAt), fields.Metadata, stars, viewCount,
		unixOrNil(fields.LastViewedAt), now, now)
	done(err)
	if isUniqueViolation(err) {
		return 0, errs.Wrap(errs.AlreadyExists, err, "series %q", *seriesName)
	}
	if err != nil {
		return 0, fmt.Errorf("insert reference: %w", err)
	}
	return result.LastInsertId()
}

// UpdateReference merges the supplied fields into a reference. Fields left
// nil keep their stored value.
func (tx *Tx) UpdateReference(id int64, fields ReferenceFields) error {
	done := observeQuery("update_reference")

	current, err := getReference(tx.ctx, tx.tx, id)
	if err != nil {
		done(err)
		return err
	}

	if fields.Stars != nil && *fields.Stars < 0 {
		err = errs.BadInputf("stars %d is negative", *fields.Stars)
		done(err)
		return err
	}
	if fields.ViewCount != nil {
		if *fields.ViewCount < 0 {
			err = errs.BadInputf("view count %d is negative", *fields.ViewCount)
			done(err)
			return err
		}
		switch {
		case current.ViewCount == 0 && *fields.ViewCount > 0:
			err = tx.shiftUnread(id, -1)
		case current.ViewCount > 0 && *fields.ViewCount == 0:
			err = tx.shiftUnread(id, 1)
		}
		if err != nil {
			done(err)
			return err
		}
	}

	_, err = tx.tx.ExecContext(tx.ctx, `
		UPDATE media_reference SET
			title = COALESCE(?, title),
			description = COALESCE(?, description),
			source_url = COALESCE(?, source_url),
			source_created_at = COALESCE(?, source_created_at),
			metadata = COALESCE(?, metadata),
			stars = COALESCE(?, stars),
			view_count = COALESCE(?, view_count),
			last_viewed_at = COALESCE(?, last_viewed_at),
			updated_at = ?
		WHERE id = ?`,
		fields.Title, fields.Description, fields.SourceURL, unixOrNil(fields.SourceCreatedAt),
		fields.Metadata, fields.Stars, fields.ViewCount, unixOrNil(fields.LastViewedAt),
		time.Now().Unix(), id)
	done(err)
	return err
}

// InsertFile creates the file row for a non-series reference and sets f.ID.
func (tx *Tx) InsertFile(f *File) error {
	if f.MediaType.Graphical() && (f.Width == nil || f.Height == nil || *f.Width <= 0 || *f.Height <= 0) {
		return errs.Unexpectedf("%s file %s has no dimensions", f.MediaType, f.Filepath)
	}

	result, err := tx.tx.ExecContext(tx.ctx, `
		INSERT INTO media_file (
			media_reference_id, filepath, filename, checksum, media_type, codec, content_type,
			width, height, animated, audio, duration, framerate, framecount, filesize_bytes,
			thumbnail_directory_path, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ReferenceID, f.Filepath, f.Filename, f.Checksum, string(f.MediaType), f.Codec, f.ContentType,
		f.Width, f.Height, f.Animated, f.Audio, f.Duration, f.Framerate, f.Framecount, f.FilesizeBytes,
		f.ThumbnailDirectoryPath, time.Now().Unix())
	if isUniqueViolation(err) {
		return errs.Wrap(errs.AlreadyExists, err, "file %s", f.Filepath)
	}
	if err != nil {
		return fmt.Errorf("insert file %s: %w", f.Filepath, err)
	}
	f.ID, err = result.LastInsertId()
	return err
}

// Reference reads a reference inside the transaction.
func (tx *Tx) Reference(id int64) (*Reference, error) {
	return getReference(tx.ctx, tx.tx, id)
}

// FileForReference reads a reference's file inside the transaction.
func (tx *Tx) FileForReference(referenceID int64) (*File, error) {
	f, err := getFile(tx.ctx, tx.tx, "f.media_reference_id = ?", referenceID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.NotFoundf("file for reference %d", referenceID)
	}
	return f, err
}

// GetReference returns a reference by id.
func (d *Database) GetReference(ctx context.Context, id int64) (*Reference, error) {
	done := observeQuery("get_reference")

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	ref, err := getReference(ctx, d.db, id)
	done(err)
	return ref, err
}

// GetFileByChecksum returns the file holding the given content.
func (d *Database) GetFileByChecksum(ctx context.Context, checksum string) (*File, error) {
	return d.lookupFile(ctx, "f.checksum = ?", checksum, "checksum "+checksum)
}

// GetFileByPath returns the file stored at path.
func (d *Database) GetFileByPath(ctx context.Context, path string) (*File, error) {
	return d.lookupFile(ctx, "f.filepath = ?", path, "file "+path)
}

// GetFileByReference returns the file behind a non-series reference.
func (d *Database) GetFileByReference(ctx context.Context, referenceID int64) (*File, error) {
	return d.lookupFile(ctx, "f.media_reference_id = ?", referenceID, fmt.Sprintf("file for reference %d", referenceID))
}

func (d *Database) lookupFile(ctx context.Context, where string, arg any, what string) (*File, error) {
	done := observeQuery("get_file")

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	f, err := getFile(ctx, d.db, where, arg)
	done(err)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.NotFoundf("%s", what)
	}
	return f, err
}

// DeleteReference removes a reference and everything hanging off it. Every
// step checks the rows it removed against the count derived from the stored
// entity; a mismatch aborts the transaction with an Unexpected error.
// It returns the thumbnail directory to remove once the transaction commits,
// or "" for a series.
func (tx *Tx) DeleteReference(id int64) (string, error) {
	done := observeQuery("delete_reference")
	dir, err := tx.deleteReference(id)
	done(err)
	return dir, err
}

func (tx *Tx) deleteReference(id int64) (string, error) {
	ref, err := getReference(tx.ctx, tx.tx, id)
	if err != nil {
		return "", err
	}

	tags, err := referenceTags(tx.ctx, tx.tx, id)
	if err != nil {
		return "", err
	}
	if len(tags) != ref.TagCount {
		return "", errs.Unexpectedf("reference %d has %d tag links but tag_count %d", id, len(tags), ref.TagCount)
	}
	for i := range tags {
		removed, err := tx.DetachTag(id, &tags[i])
		if err != nil {
			return "", err
		}
		if !removed {
			return "", errs.Unexpectedf("tag link %d on reference %d vanished during delete", tags[i].ID, id)
		}
	}

	thumbDir := ""
	var file *File
	if !ref.IsSeries {
		file, err = tx.FileForReference(id)
		if err != nil && !errs.Is(err, errs.NotFound) {
			return "", err
		}
	}
	if file != nil {
		thumbDir = file.ThumbnailDirectoryPath
		if err := tx.deleteExpected("thumbnail", file.ThumbnailCount,
			"DELETE FROM media_thumbnail WHERE media_file_id = ?", file.ID); err != nil {
			return "", err
		}
		if err := tx.deleteExpected("keypoint", file.KeypointCount,
			"DELETE FROM media_keypoint WHERE media_file_id = ?", file.ID); err != nil {
			return "", err
		}
	}

	// Memberships in other series shorten those series.
	if _, err := tx.tx.ExecContext(tx.ctx, `
		UPDATE media_reference SET media_series_length = media_series_length - (
			SELECT COUNT(*) FROM media_series_item si
			WHERE si.series_id = media_reference.id AND si.media_reference_id = ?
		)
		WHERE id IN (SELECT series_id FROM media_series_item WHERE media_reference_id = ?)`, id, id); err != nil {
		return "", fmt.Errorf("shorten series: %w", err)
	}
	if err := tx.deleteExpected("series membership", ref.MembershipCount,
		"DELETE FROM media_series_item WHERE media_reference_id = ?", id); err != nil {
		return "", err
	}

	if ref.IsSeries {
		if _, err := tx.tx.ExecContext(tx.ctx, `
			UPDATE media_reference SET media_series_membership_count = media_series_membership_count - (
				SELECT COUNT(*) FROM media_series_item si
				WHERE si.series_id = ? AND si.media_reference_id = media_reference.id
			)
			WHERE id IN (SELECT media_reference_id FROM media_series_item WHERE series_id = ?)`, id, id); err != nil {
			return "", fmt.Errorf("release series members: %w", err)
		}
		if err := tx.deleteExpected("series items", ref.SeriesLength,
			"DELETE FROM media_series_item WHERE series_id = ?", id); err != nil {
			return "", err
		}
	}

	if file != nil {
		if err := tx.deleteExpected("file", 1, "DELETE FROM media_file WHERE id = ?", file.ID); err != nil {
			return "", err
		}
	}
	if err := tx.deleteExpected("reference", 1, "DELETE FROM media_reference WHERE id = ?", id); err != nil {
		return "", err
	}

	logging.Debug("Deleted reference %d (series=%v, tags=%d)", id, ref.IsSeries, len(tags))
	return thumbDir, nil
}

// adjustCounter moves a denormalized counter column on one row.
func (tx *Tx) adjustCounter(table, column string, id int64, delta int) error {
	result, err := tx.tx.ExecContext(tx.ctx,
		"UPDATE "+table+" SET "+column+" = "+column+" + ? WHERE id = ?", delta, id)
	if err != nil {
		return fmt.Errorf("adjust %s.%s: %w", table, column, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n != 1 {
		return errs.Unexpectedf("adjust %s.%s: row %d missing", table, column, id)
	}
	return nil
}

func (tx *Tx) deleteExpected(what string, expected int, query string, args ...any) error {
	result, err := tx.tx.ExecContext(tx.ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete %s: %w", what, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if int(n) != expected {
		return errs.Unexpectedf("deleted %d %s rows, expected %d", n, what, expected)
	}
	return nil
}

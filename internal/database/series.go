package database

import (
	"database/sql"
	"errors"
	"fmt"

	"media-catalog/internal/errs"
)

// AddSeriesItem places member at index inside series. A nil index appends
// after the current last item. The same member may appear at several indexes.
func (tx *Tx) AddSeriesItem(seriesID, memberID int64, index *int) (*SeriesItem, error) {
	series, err := getReference(tx.ctx, tx.tx, seriesID)
	if err != nil {
		return nil, err
	}
	if !series.IsSeries {
		return nil, errs.BadInputf("reference %d is not a series", seriesID)
	}
	member, err := getReference(tx.ctx, tx.tx, memberID)
	if err != nil {
		return nil, err
	}
	if member.IsSeries {
		return nil, errs.BadInputf("series %d cannot be a series member", memberID)
	}

	item := &SeriesItem{SeriesID: seriesID, ReferenceID: memberID}
	if index != nil {
		if *index < 0 {
			return nil, errs.BadInputf("series index %d is negative", *index)
		}
		item.SeriesIndex = *index
	} else {
		if err := tx.tx.QueryRowContext(tx.ctx,
			"SELECT COALESCE(MAX(series_index) + 1, 0) FROM media_series_item WHERE series_id = ?",
			seriesID).Scan(&item.SeriesIndex); err != nil {
			return nil, fmt.Errorf("next series index: %w", err)
		}
	}

	result, err := tx.tx.ExecContext(tx.ctx, `
		INSERT INTO media_series_item (series_id, media_reference_id, series_index)
		VALUES (?, ?, ?)`, seriesID, memberID, item.SeriesIndex)
	if isUniqueViolation(err) {
		return nil, errs.Wrap(errs.AlreadyExists, err, "series %d index %d", seriesID, item.SeriesIndex)
	}
	if err != nil {
		return nil, fmt.Errorf("insert series item: %w", err)
	}
	if item.ID, err = result.LastInsertId(); err != nil {
		return nil, err
	}

	if err := tx.adjustCounter("media_reference", "media_series_length", seriesID, 1); err != nil {
		return nil, err
	}
	if err := tx.adjustCounter("media_reference", "media_series_membership_count", memberID, 1); err != nil {
		return nil, err
	}
	return item, nil
}

// RemoveSeriesItem deletes one series item and shortens its series.
func (tx *Tx) RemoveSeriesItem(itemID int64) (*SeriesItem, error) {
	item := &SeriesItem{ID: itemID}
	err := tx.tx.QueryRowContext(tx.ctx,
		"SELECT series_id, media_reference_id, series_index FROM media_series_item WHERE id = ?", itemID).
		Scan(&item.SeriesID, &item.ReferenceID, &item.SeriesIndex)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.NotFoundf("series item %d", itemID)
	}
	if err != nil {
		return nil, err
	}

	if err := tx.deleteExpected("series item", 1, "DELETE FROM media_series_item WHERE id = ?", itemID); err != nil {
		return nil, err
	}
	if err := tx.adjustCounter("media_reference", "media_series_length", item.SeriesID, -1); err != nil {
		return nil, err
	}
	if err := tx.adjustCounter("media_reference", "media_series_membership_count", item.ReferenceID, -1); err != nil {
		return nil, err
	}
	return item, nil
}

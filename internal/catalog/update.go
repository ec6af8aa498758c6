package catalog

import (
	"context"
	"time"

	"media-catalog/internal/database"
	"media-catalog/internal/errs"
	"media-catalog/internal/filesystem"
	"media-catalog/internal/logging"
	"media-catalog/internal/metrics"
)

// UpdateRequest changes a reference. Nil fields in Fields keep their values.
type UpdateRequest struct {
	Fields     database.ReferenceFields
	AddTags    []string
	RemoveTags []string
}

// Update merges the supplied fields into a reference and adds or removes
// tags. Adding a tag already attached is a no-op; removing a tag that exists
// but is not attached is a no-op; removing an unknown tag is NotFound.
func (c *Catalog) Update(ctx context.Context, id int64, req UpdateRequest) (*Entry, error) {
	add, err := parseTags(req.AddTags)
	if err != nil {
		return nil, err
	}
	remove, err := parseTags(req.RemoveTags)
	if err != nil {
		return nil, err
	}

	err = c.db.WithTx(ctx, "update", func(tx *database.Tx) error {
		if err := tx.UpdateReference(id, req.Fields); err != nil {
			return err
		}
		if err := attachTags(tx, id, add); err != nil {
			return err
		}
		for _, t := range remove {
			tag, err := tx.FindTag(t[0], t[1])
			if err != nil {
				return err
			}
			if _, err := tx.DetachTag(id, tag); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logging.Debug("Updated reference %d (+%d/-%d tags)", id, len(add), len(remove))
	return c.Get(ctx, id, DefaultThumbnailPage, 0)
}

// MarkViewed increments a reference's view count and stamps last_viewed_at.
func (c *Catalog) MarkViewed(ctx context.Context, id int64) (*database.Reference, error) {
	var ref *database.Reference
	err := c.db.WithTx(ctx, "mark_viewed", func(tx *database.Tx) error {
		current, err := tx.Reference(id)
		if err != nil {
			return err
		}
		views := current.ViewCount + 1
		now := time.Now()
		if err := tx.UpdateReference(id, database.ReferenceFields{ViewCount: &views, LastViewedAt: &now}); err != nil {
			return err
		}
		ref, err = tx.Reference(id)
		return err
	})
	return ref, err
}

// Delete removes a reference with its file, thumbnails, keypoints, tag links
// and series memberships, then removes its thumbnail folder from disk.
func (c *Catalog) Delete(ctx context.Context, id int64) error {
	var dir string
	err := c.db.WithTx(ctx, "delete", func(tx *database.Tx) error {
		var err error
		dir, err = tx.DeleteReference(id)
		return err
	})
	if err != nil {
		metrics.DeletionsTotal.WithLabelValues(errs.KindOf(err).String()).Inc()
		return err
	}
	metrics.DeletionsTotal.WithLabelValues("deleted").Inc()
	logging.Info("Deleted reference %d", id)

	if dir == "" {
		return nil
	}
	if err := filesystem.RemoveDir(dir); err != nil {
		logging.Error("Failed to remove thumbnail folder %s of deleted reference %d: %v", dir, id, err)
	}
	return nil
}

// SeriesRequest creates a named series.
type SeriesRequest struct {
	Name   string
	Fields database.ReferenceFields
	Tags   []string
}

// CreateSeries creates an empty series. Series names are unique.
func (c *Catalog) CreateSeries(ctx context.Context, req SeriesRequest) (*Entry, error) {
	if req.Name == "" {
		return nil, errs.BadInputf("series name is required")
	}
	tags, err := parseTags(req.Tags)
	if err != nil {
		return nil, err
	}

	var id int64
	err = c.db.WithTx(ctx, "create_series", func(tx *database.Tx) error {
		var err error
		id, err = tx.InsertReference(true, &req.Name, req.Fields)
		if err != nil {
			return err
		}
		return attachTags(tx, id, tags)
	})
	if err != nil {
		return nil, err
	}
	logging.Info("Created series %q as reference %d", req.Name, id)
	return c.Get(ctx, id, 0, 0)
}

// AddToSeries places member inside series at index, or after the last item
// when index is nil.
func (c *Catalog) AddToSeries(ctx context.Context, seriesID, memberID int64, index *int) (*database.SeriesItem, error) {
	var item *database.SeriesItem
	err := c.db.WithTx(ctx, "add_to_series", func(tx *database.Tx) error {
		var err error
		item, err = tx.AddSeriesItem(seriesID, memberID, index)
		return err
	})
	return item, err
}

// RemoveFromSeries removes one series item. The member reference is kept and
// reappears in top-level listings once it belongs to no series.
func (c *Catalog) RemoveFromSeries(ctx context.Context, itemID int64) (*database.SeriesItem, error) {
	var item *database.SeriesItem
	err := c.db.WithTx(ctx, "remove_from_series", func(tx *database.Tx) error {
		var err error
		item, err = tx.RemoveSeriesItem(itemID)
		return err
	})
	return item, err
}

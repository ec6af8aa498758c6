package database

import (
	"context"
	"testing"

	"media-catalog/internal/errs"
)

func TestUpdateReference_MergesSuppliedFields(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()
	id := insertItem(t, db, testItem{path: "/media/a.mp4", stars: 2})

	title, desc := "first", "about"
	err := db.WithTx(ctx, "update", func(tx *Tx) error {
		return tx.UpdateReference(id, ReferenceFields{Title: &title, Description: &desc})
	})
	if err != nil {
		t.Fatal(err)
	}

	title2 := "second"
	err = db.WithTx(ctx, "update", func(tx *Tx) error {
		return tx.UpdateReference(id, ReferenceFields{Title: &title2})
	})
	if err != nil {
		t.Fatal(err)
	}

	ref, err := db.GetReference(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if ref.Title == nil || *ref.Title != "second" {
		t.Errorf("Title = %v, want second", ref.Title)
	}
	if ref.Description == nil || *ref.Description != "about" {
		t.Errorf("Description = %v, want about (untouched)", ref.Description)
	}
	if ref.Stars != 2 {
		t.Errorf("Stars = %d, want 2 (untouched)", ref.Stars)
	}
}

func TestUpdateReference_NotFound(t *testing.T) {
	db, _ := setupTestDB(t)
	err := db.WithTx(context.Background(), "update", func(tx *Tx) error {
		return tx.UpdateReference(42, ReferenceFields{})
	})
	if !errs.Is(err, errs.NotFound) {
		t.Errorf("UpdateReference() error = %v, want NotFound", err)
	}
}

func TestReferenceFields_RejectNegative(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()
	id := insertItem(t, db, testItem{path: "/media/a.mp4", stars: 2})
	neg := -1

	tests := []struct {
		name   string
		fields ReferenceFields
	}{
		{"stars", ReferenceFields{Stars: &neg}},
		{"view count", ReferenceFields{ViewCount: &neg}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := db.WithTx(ctx, "update", func(tx *Tx) error {
				return tx.UpdateReference(id, tt.fields)
			})
			if !errs.Is(err, errs.BadInput) {
				t.Errorf("UpdateReference() error = %v, want BadInput", err)
			}
			err = db.WithTx(ctx, "insert", func(tx *Tx) error {
				_, err := tx.InsertReference(false, nil, tt.fields)
				return err
			})
			if !errs.Is(err, errs.BadInput) {
				t.Errorf("InsertReference() error = %v, want BadInput", err)
			}
		})
	}

	ref, err := db.GetReference(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if ref.Stars != 2 || ref.ViewCount != 0 {
		t.Errorf("stars=%d views=%d, want 2 and 0 (untouched)", ref.Stars, ref.ViewCount)
	}
}

func TestInsertReference_SeriesNames(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()
	insertSeries(t, db, "saga")

	name := "saga"
	err := db.WithTx(ctx, "series", func(tx *Tx) error {
		_, err := tx.InsertReference(true, &name, ReferenceFields{})
		return err
	})
	if !errs.Is(err, errs.AlreadyExists) {
		t.Errorf("duplicate series name error = %v, want AlreadyExists", err)
	}

	err = db.WithTx(ctx, "series", func(tx *Tx) error {
		_, err := tx.InsertReference(true, nil, ReferenceFields{})
		return err
	})
	if !errs.Is(err, errs.BadInput) {
		t.Errorf("unnamed series error = %v, want BadInput", err)
	}
}

func TestSeriesItems(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()
	series := insertSeries(t, db, "saga")
	a := insertItem(t, db, testItem{path: "/media/a.mp4"})
	b := insertItem(t, db, testItem{path: "/media/b.mp4"})

	first := addToSeries(t, db, series, a, nil)
	second := addToSeries(t, db, series, b, nil)
	// The same member may appear again at another index.
	ten := 10
	again := addToSeries(t, db, series, a, &ten)

	if first.SeriesIndex != 0 || second.SeriesIndex != 1 || again.SeriesIndex != 10 {
		t.Errorf("indexes = %d, %d, %d; want 0, 1, 10", first.SeriesIndex, second.SeriesIndex, again.SeriesIndex)
	}

	ref, _ := db.GetReference(ctx, series)
	if ref.SeriesLength != 3 {
		t.Errorf("SeriesLength = %d, want 3", ref.SeriesLength)
	}

	tests := []struct {
		name   string
		series int64
		member int64
		index  *int
		kind   errs.Kind
	}{
		{"taken index", series, b, &ten, errs.AlreadyExists},
		{"not a series", a, b, nil, errs.BadInput},
		{"series as member", series, series, nil, errs.BadInput},
		{"missing member", series, 999, nil, errs.NotFound},
		{"missing series", 999, a, nil, errs.NotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := db.WithTx(ctx, "series", func(tx *Tx) error {
				_, err := tx.AddSeriesItem(tt.series, tt.member, tt.index)
				return err
			})
			if !errs.Is(err, tt.kind) {
				t.Errorf("AddSeriesItem() error = %v, want %s", err, tt.kind)
			}
		})
	}

	err := db.WithTx(ctx, "series", func(tx *Tx) error {
		_, err := tx.RemoveSeriesItem(second.ID)
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	ref, _ = db.GetReference(ctx, series)
	if ref.SeriesLength != 2 {
		t.Errorf("SeriesLength after removal = %d, want 2", ref.SeriesLength)
	}

	err = db.WithTx(ctx, "series", func(tx *Tx) error {
		_, err := tx.RemoveSeriesItem(second.ID)
		return err
	})
	if !errs.Is(err, errs.NotFound) {
		t.Errorf("second removal error = %v, want NotFound", err)
	}
}

func TestDeleteReference(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()

	series := insertSeries(t, db, "saga")
	a := insertItem(t, db, testItem{path: "/media/a.mp4", tags: []string{"artist:alice", "cat"}})
	addToSeries(t, db, series, a, nil)
	addToSeries(t, db, series, a, nil)

	err := db.WithTx(ctx, "thumbnails", func(tx *Tx) error {
		file, err := tx.FileForReference(a)
		if err != nil {
			return err
		}
		for i, ts := range []float64{0, 1.5, 3} {
			th := &Thumbnail{FileID: file.ID, Filepath: "/thumbs/a/" + string(rune('0'+i)) + ".jpg", MediaTimestamp: ts, Kind: ThumbnailStandard}
			if err := tx.InsertThumbnail(th); err != nil {
				return err
			}
		}
		tag, err := tx.GetOrCreateTag("scene", "intro")
		if err != nil {
			return err
		}
		return tx.InsertKeypoint(&Keypoint{FileID: file.ID, TagID: tag.ID, MediaTimestamp: 1})
	})
	if err != nil {
		t.Fatal(err)
	}

	var dir string
	err = db.WithTx(ctx, "delete", func(tx *Tx) error {
		var err error
		dir, err = tx.DeleteReference(a)
		return err
	})
	if err != nil {
		t.Fatalf("DeleteReference() error = %v", err)
	}
	if dir != "/thumbs/a.mp4" {
		t.Errorf("thumbnail dir = %s", dir)
	}

	if _, err := db.GetReference(ctx, a); !errs.Is(err, errs.NotFound) {
		t.Errorf("GetReference after delete error = %v, want NotFound", err)
	}
	if _, err := db.GetFileByPath(ctx, "/media/a.mp4"); !errs.Is(err, errs.NotFound) {
		t.Errorf("GetFileByPath after delete error = %v, want NotFound", err)
	}
	if tag := findTag(t, db, "artist:alice"); tag.ReferenceCount != 0 || tag.UnreadReferenceCount != 0 {
		t.Errorf("tag counters after delete = %d/%d", tag.ReferenceCount, tag.UnreadReferenceCount)
	}
	if g := findGroup(t, db, "artist"); g.ReferenceCount != 0 {
		t.Errorf("group count after delete = %d", g.ReferenceCount)
	}
	ref, _ := db.GetReference(ctx, series)
	if ref.SeriesLength != 0 {
		t.Errorf("SeriesLength after member delete = %d, want 0", ref.SeriesLength)
	}
	if s := db.GetStats(); s.TotalThumbnails != 0 {
		t.Errorf("TotalThumbnails = %d, want 0", s.TotalThumbnails)
	}

	// Deleting the now-empty series.
	err = db.WithTx(ctx, "delete", func(tx *Tx) error {
		dir, err := tx.DeleteReference(series)
		if dir != "" {
			t.Errorf("series delete returned dir %q", dir)
		}
		return err
	})
	if err != nil {
		t.Fatalf("DeleteReference(series) error = %v", err)
	}
}

func TestDeleteReference_CountMismatch(t *testing.T) {
	// Each case corrupts one denormalized counter behind the store's back.
	tests := []struct {
		name    string
		corrupt string
	}{
		{"tag links", "UPDATE media_reference SET tag_count = 5 WHERE id = ?"},
		{"thumbnails", "UPDATE media_file SET thumbnail_count = thumbnail_count + 1 WHERE media_reference_id = ?"},
		{"keypoints", "UPDATE media_file SET keypoint_count = 0 WHERE media_reference_id = ?"},
		{"series memberships", "UPDATE media_reference SET media_series_membership_count = 3 WHERE id = ?"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, _ := setupTestDB(t)
			ctx := context.Background()
			series := insertSeries(t, db, "saga")
			a := insertItem(t, db, testItem{path: "/media/a.mp4", tags: []string{"cat"}})
			addToSeries(t, db, series, a, nil)

			err := db.WithTx(ctx, "seed", func(tx *Tx) error {
				file, err := tx.FileForReference(a)
				if err != nil {
					return err
				}
				if err := tx.InsertThumbnail(&Thumbnail{FileID: file.ID, Filepath: "/t/0000.jpg", Kind: ThumbnailStandard}); err != nil {
					return err
				}
				tag, err := tx.GetOrCreateTag("scene", "intro")
				if err != nil {
					return err
				}
				return tx.InsertKeypoint(&Keypoint{FileID: file.ID, TagID: tag.ID, MediaTimestamp: 1})
			})
			if err != nil {
				t.Fatal(err)
			}

			if _, err := db.db.ExecContext(ctx, tt.corrupt, a); err != nil {
				t.Fatal(err)
			}

			err = db.WithTx(ctx, "delete", func(tx *Tx) error {
				_, err := tx.DeleteReference(a)
				return err
			})
			if !errs.Is(err, errs.Unexpected) {
				t.Fatalf("DeleteReference() error = %v, want Unexpected", err)
			}
			if _, err := db.GetReference(ctx, a); err != nil {
				t.Errorf("reference should survive the rolled back delete: %v", err)
			}
		})
	}
}

func TestSeriesCounters(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()
	saga := insertSeries(t, db, "saga")
	other := insertSeries(t, db, "other")
	a := insertItem(t, db, testItem{path: "/media/a.mp4"})

	first := addToSeries(t, db, saga, a, nil)
	addToSeries(t, db, saga, a, nil)
	addToSeries(t, db, other, a, nil)

	ref, _ := db.GetReference(ctx, a)
	if ref.MembershipCount != 3 {
		t.Fatalf("MembershipCount = %d, want 3", ref.MembershipCount)
	}

	err := db.WithTx(ctx, "remove", func(tx *Tx) error {
		_, err := tx.RemoveSeriesItem(first.ID)
		return err
	})
	if err != nil {
		t.Fatal(err)
	}

	// Deleting a series releases its members.
	err = db.WithTx(ctx, "delete", func(tx *Tx) error {
		_, err := tx.DeleteReference(saga)
		return err
	})
	if err != nil {
		t.Fatalf("DeleteReference(series) error = %v", err)
	}
	ref, _ = db.GetReference(ctx, a)
	if ref.MembershipCount != 1 {
		t.Errorf("MembershipCount after series delete = %d, want 1", ref.MembershipCount)
	}

	err = db.WithTx(ctx, "delete", func(tx *Tx) error {
		_, err := tx.DeleteReference(a)
		return err
	})
	if err != nil {
		t.Fatalf("DeleteReference(member) error = %v", err)
	}
	if ref, _ := db.GetReference(ctx, other); ref.SeriesLength != 0 {
		t.Errorf("other SeriesLength = %d, want 0", ref.SeriesLength)
	}
}

func TestThumbnailsAndKeypoints(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()
	a := insertItem(t, db, testItem{path: "/media/a.mp4", duration: 10})
	file, err := db.GetFileByReference(ctx, a)
	if err != nil {
		t.Fatal(err)
	}

	var kpA, kpB int64
	err = db.WithTx(ctx, "thumbnails", func(tx *Tx) error {
		thumbs := []Thumbnail{
			{Filepath: "/t/0000.jpg", MediaTimestamp: 0},
			{Filepath: "/t/0001.jpg", MediaTimestamp: 5},
		}
		if err := tx.ReplaceStandardThumbnails(file.ID, thumbs); err != nil {
			return err
		}
		if err := tx.InsertThumbnail(&Thumbnail{FileID: file.ID, Filepath: "/t/keypoints/0002.5.jpg", MediaTimestamp: 2.5, Kind: ThumbnailKeypoint}); err != nil {
			return err
		}
		tag, err := tx.GetOrCreateTag("", "highlight")
		if err != nil {
			return err
		}
		a := &Keypoint{FileID: file.ID, TagID: tag.ID, MediaTimestamp: 2.5}
		b := &Keypoint{FileID: file.ID, TagID: tag.ID, MediaTimestamp: 2.5}
		if err := tx.InsertKeypoint(a); err != nil {
			return err
		}
		if err := tx.InsertKeypoint(b); err != nil {
			return err
		}
		kpA, kpB = a.ID, b.ID
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	fileCounts := func(thumbs, keypoints int) {
		t.Helper()
		f, err := db.GetFileByReference(ctx, a)
		if err != nil {
			t.Fatal(err)
		}
		if f.ThumbnailCount != thumbs || f.KeypointCount != keypoints {
			t.Errorf("counters = %d thumbnails, %d keypoints, want %d, %d",
				f.ThumbnailCount, f.KeypointCount, thumbs, keypoints)
		}
	}
	fileCounts(3, 2)

	page, err := db.ListThumbnails(ctx, file.ID, 2, 0)
	if err != nil {
		t.Fatal(err)
	}
	if page.Total != 3 || len(page.Results) != 2 {
		t.Fatalf("ListThumbnails() = total %d, %d results", page.Total, len(page.Results))
	}
	if page.Results[1].Kind != ThumbnailKeypoint {
		t.Errorf("second thumbnail kind = %s, want keypoint (ordered by timestamp)", page.Results[1].Kind)
	}

	// Regeneration keeps keypoint captures.
	err = db.WithTx(ctx, "thumbnails", func(tx *Tx) error {
		return tx.ReplaceStandardThumbnails(file.ID, []Thumbnail{{Filepath: "/t2/0000.jpg"}})
	})
	if err != nil {
		t.Fatal(err)
	}
	page, _ = db.ListThumbnails(ctx, file.ID, 10, 0)
	if page.Total != 2 {
		t.Errorf("total after regenerate = %d, want 2", page.Total)
	}
	fileCounts(2, 2)

	keypoints, err := db.ListKeypoints(ctx, file.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(keypoints) != 2 || keypoints[0].Tag != "highlight" {
		t.Fatalf("ListKeypoints() = %+v", keypoints)
	}

	// The capture is shared until the last keypoint at its timestamp goes.
	var removed string
	deleteKeypoint := func(id int64) {
		t.Helper()
		err := db.WithTx(ctx, "keypoint", func(tx *Tx) error {
			var err error
			removed, err = tx.DeleteKeypoint(id)
			return err
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	deleteKeypoint(kpA)
	if removed != "" {
		t.Errorf("first delete removed %q, want nothing", removed)
	}
	deleteKeypoint(kpB)
	if removed != "/t/keypoints/0002.5.jpg" {
		t.Errorf("second delete removed %q", removed)
	}
	fileCounts(1, 0)

	err = db.WithTx(ctx, "keypoint", func(tx *Tx) error {
		_, err := tx.DeleteKeypoint(kpA)
		return err
	})
	if !errs.Is(err, errs.NotFound) {
		t.Errorf("DeleteKeypoint(missing) error = %v, want NotFound", err)
	}
}

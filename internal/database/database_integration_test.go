package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"media-catalog/internal/errs"
	"media-catalog/internal/mediatypes"
)

// Integration tests for database operations with real SQLite database

// setupTestDB creates a test database in a temporary directory.
func setupTestDB(t testing.TB) (db *Database, dbPath string) {
	t.Helper()

	dbPath = filepath.Join(t.TempDir(), "test.db")
	db, err := New(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, dbPath
}

// testItem describes a catalog item seeded by insertItem.
type testItem struct {
	path          string
	mediaType     mediatypes.MediaType
	duration      float64
	tags          []string
	stars         int
	viewCount     int
	sourceCreated *time.Time
}

// insertItem creates a reference with its file and tags and returns the
// reference id.
func insertItem(t testing.TB, db *Database, item testItem) int64 {
	t.Helper()
	id, err := createItem(db, item)
	if err != nil {
		t.Fatalf("insertItem(%s) failed: %v", item.path, err)
	}
	return id
}

func createItem(db *Database, item testItem) (int64, error) {
	if item.mediaType == "" {
		item.mediaType = mediatypes.Video
	}
	var id int64
	err := db.WithTx(context.Background(), "create", func(tx *Tx) error {
		var err error
		id, err = tx.InsertReference(false, nil, ReferenceFields{
			Stars:           &item.stars,
			ViewCount:       &item.viewCount,
			SourceCreatedAt: item.sourceCreated,
		})
		if err != nil {
			return err
		}

		f := &File{
			ReferenceID:            id,
			Filepath:               item.path,
			Filename:               filepath.Base(item.path),
			Checksum:               "sum:" + item.path,
			MediaType:              item.mediaType,
			Codec:                  "h264",
			ContentType:            "video/mp4",
			Duration:               item.duration,
			FilesizeBytes:          1024,
			ThumbnailDirectoryPath: "/thumbs/" + filepath.Base(item.path),
		}
		if item.mediaType.Graphical() {
			w, h := 640, 480
			f.Width, f.Height = &w, &h
		}
		if err := tx.InsertFile(f); err != nil {
			return err
		}

		for _, s := range item.tags {
			group, name, err := ParseTag(s)
			if err != nil {
				return err
			}
			tag, err := tx.GetOrCreateTag(group, name)
			if err != nil {
				return err
			}
			if _, err := tx.AttachTag(id, tag); err != nil {
				return err
			}
		}
		return nil
	})
	return id, err
}

func insertSeries(t testing.TB, db *Database, name string) int64 {
	t.Helper()
	var id int64
	err := db.WithTx(context.Background(), "series", func(tx *Tx) error {
		var err error
		id, err = tx.InsertReference(true, &name, ReferenceFields{})
		return err
	})
	if err != nil {
		t.Fatalf("insertSeries(%s) failed: %v", name, err)
	}
	return id
}

func addToSeries(t testing.TB, db *Database, seriesID, memberID int64, index *int) *SeriesItem {
	t.Helper()
	var item *SeriesItem
	err := db.WithTx(context.Background(), "series", func(tx *Tx) error {
		var err error
		item, err = tx.AddSeriesItem(seriesID, memberID, index)
		return err
	})
	if err != nil {
		t.Fatalf("AddSeriesItem(%d, %d) failed: %v", seriesID, memberID, err)
	}
	return item
}

func tagID(t testing.TB, db *Database, s string) int64 {
	t.Helper()
	group, name, err := ParseTag(s)
	if err != nil {
		t.Fatal(err)
	}
	tag, err := db.FindTag(context.Background(), group, name)
	if err != nil {
		t.Fatalf("FindTag(%s) failed: %v", s, err)
	}
	return tag.ID
}

func TestNewDatabase(t *testing.T) {
	db, dbPath := setupTestDB(t)

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}

	ctx := context.Background()
	if err := db.db.PingContext(ctx); err != nil {
		t.Errorf("Database ping failed: %v", err)
	}

	var fk int
	if err := db.db.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatal(err)
	}
	if fk != 1 {
		t.Errorf("foreign_keys = %d, want 1", fk)
	}
}

func TestNewDatabase_Reopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "reopen.db")
	ctx := context.Background()

	db, err := New(ctx, dbPath)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	insertItem(t, db, testItem{path: "/media/a.mp4", duration: 1})
	db.Close()

	db, err = New(ctx, dbPath)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer db.Close()

	if _, err := db.GetFileByPath(ctx, "/media/a.mp4"); err != nil {
		t.Errorf("GetFileByPath after reopen: %v", err)
	}
}

func TestNewDatabase_RejectsNewerSchema(t *testing.T) {
	db, dbPath := setupTestDB(t)
	if err := db.SetMetadata(context.Background(), "schema_version", "99"); err != nil {
		t.Fatal(err)
	}
	db.Close()

	if _, err := New(context.Background(), dbPath); err == nil {
		t.Error("New() accepted an unknown schema version")
	}
}

func TestMetadataIntegration(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()

	if _, err := db.GetMetadata(ctx, "nonexistent"); err == nil {
		t.Error("Expected error for non-existent key")
	}
	if err := db.SetMetadata(ctx, "key1", "value1"); err != nil {
		t.Fatalf("SetMetadata failed: %v", err)
	}
	if err := db.SetMetadata(ctx, "key1", "value2"); err != nil {
		t.Fatalf("SetMetadata update failed: %v", err)
	}
	value, err := db.GetMetadata(ctx, "key1")
	if err != nil {
		t.Fatalf("GetMetadata failed: %v", err)
	}
	if value != "value2" {
		t.Errorf("Expected updated value 'value2', got %s", value)
	}
}

func TestLastStagingGC(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()

	last, err := db.GetLastStagingGC(ctx)
	if err != nil {
		t.Fatalf("GetLastStagingGC failed: %v", err)
	}
	if !last.IsZero() {
		t.Errorf("expected zero time before first run, got %v", last)
	}

	now := time.Now().Truncate(time.Second)
	if err := db.SetLastStagingGC(ctx, now); err != nil {
		t.Fatal(err)
	}
	last, err = db.GetLastStagingGC(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !last.Equal(now) {
		t.Errorf("GetLastStagingGC() = %v, want %v", last, now)
	}
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := db.WithTx(ctx, "create", func(tx *Tx) error {
		if _, err := tx.InsertReference(false, nil, ReferenceFields{}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithTx() error = %v, want %v", err, boom)
	}

	if stats := db.GetStats(); stats.TotalItems != 0 {
		t.Errorf("TotalItems = %d after rollback, want 0", stats.TotalItems)
	}
}

func TestInsertFile_Constraints(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()
	insertItem(t, db, testItem{path: "/media/a.mp4", duration: 1})

	tests := []struct {
		name string
		file File
		kind errs.Kind
	}{
		{
			name: "same path",
			file: File{Filepath: "/media/a.mp4", Checksum: "other", MediaType: mediatypes.Audio},
			kind: errs.AlreadyExists,
		},
		{
			name: "same checksum",
			file: File{Filepath: "/media/b.mp4", Checksum: "sum:/media/a.mp4", MediaType: mediatypes.Audio},
			kind: errs.AlreadyExists,
		},
		{
			name: "video without dimensions",
			file: File{Filepath: "/media/c.mp4", Checksum: "c", MediaType: mediatypes.Video},
			kind: errs.Unexpected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := db.WithTx(ctx, "create", func(tx *Tx) error {
				id, err := tx.InsertReference(false, nil, ReferenceFields{})
				if err != nil {
					return err
				}
				tt.file.ReferenceID = id
				return tx.InsertFile(&tt.file)
			})
			if !errs.Is(err, tt.kind) {
				t.Errorf("InsertFile() error = %v, want kind %s", err, tt.kind)
			}
		})
	}

	if stats := db.GetStats(); stats.TotalItems != 1 {
		t.Errorf("TotalItems = %d, want 1", stats.TotalItems)
	}
}

func TestGetStats(t *testing.T) {
	db, _ := setupTestDB(t)

	insertItem(t, db, testItem{path: "/media/a.mp4", tags: []string{"cat"}})
	insertItem(t, db, testItem{path: "/media/b.jpg", mediaType: mediatypes.Image, tags: []string{"cat", "dog"}})
	insertItem(t, db, testItem{path: "/media/c.mp3", mediaType: mediatypes.Audio})
	insertSeries(t, db, "saga")

	s := db.GetStats()
	if s.TotalItems != 3 || s.TotalSeries != 1 {
		t.Errorf("items/series = %d/%d, want 3/1", s.TotalItems, s.TotalSeries)
	}
	if s.TotalVideos != 1 || s.TotalImages != 1 || s.TotalAudio != 1 {
		t.Errorf("videos/images/audio = %d/%d/%d", s.TotalVideos, s.TotalImages, s.TotalAudio)
	}
	if s.TotalTags != 2 {
		t.Errorf("TotalTags = %d, want 2", s.TotalTags)
	}
}

func TestUpdateDBMetrics(t *testing.T) {
	db, _ := setupTestDB(t)
	insertItem(t, db, testItem{path: "/media/a.mp4"})
	// Must not panic with WAL files present.
	db.UpdateDBMetrics()
}

func TestDatabaseConcurrency(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping concurrency test in short mode")
	}
	db, _ := setupTestDB(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			path := filepath.Join("/media", string(rune('a'+i))+".mp4")
			if _, err := createItem(db, testItem{path: path, tags: []string{"shared"}}); err != nil {
				t.Errorf("createItem(%s) failed: %v", path, err)
			}
		}(i)
		go func() {
			defer wg.Done()
			if _, err := db.Search(ctx, SearchParams{}); err != nil {
				t.Errorf("Search failed: %v", err)
			}
		}()
	}
	wg.Wait()

	tags, err := db.ListTags(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(tags) != 1 || tags[0].ReferenceCount != 10 {
		t.Errorf("tags = %+v, want one tag with 10 references", tags)
	}
}

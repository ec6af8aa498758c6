package database

import (
	"context"
	"fmt"
	"testing"
	"time"

	"media-catalog/internal/errs"
	"media-catalog/internal/mediatypes"
)

func ptr[T any](v T) *T { return &v }

// collectPages follows cursors until a page comes back without one.
func collectPages(t *testing.T, db *Database, p SearchParams) []Entry {
	t.Helper()
	var all []Entry
	for pages := 0; ; pages++ {
		if pages > 1000 {
			t.Fatal("pagination did not terminate")
		}
		page, err := db.Search(context.Background(), p)
		if err != nil {
			t.Fatalf("Search(%+v) error = %v", p, err)
		}
		if page.NextCursor != "" && len(page.Results) != p.Limit {
			t.Fatalf("short page of %d (limit %d) returned a cursor", len(page.Results), p.Limit)
		}
		all = append(all, page.Results...)
		if page.NextCursor == "" {
			return all
		}
		p.Cursor = page.NextCursor
	}
}

func ids(entries []Entry) []int64 {
	out := make([]int64, len(entries))
	for i, e := range entries {
		out[i] = e.Reference.ID
	}
	return out
}

// sortValue extracts the value a search orders by; ok is false for NULL.
func sortValue(e Entry, field SortField) (float64, bool) {
	r := e.Reference
	unix := func(t *time.Time) (float64, bool) {
		if t == nil {
			return 0, false
		}
		return float64(t.Unix()), true
	}
	switch field {
	case SortCreatedAt:
		return float64(r.CreatedAt.Unix()), true
	case SortUpdatedAt:
		return float64(r.UpdatedAt.Unix()), true
	case SortSourceCreatedAt:
		return unix(r.SourceCreatedAt)
	case SortLastViewedAt:
		return unix(r.LastViewedAt)
	case SortViewCount:
		return float64(r.ViewCount), true
	case SortStars:
		return float64(r.Stars), true
	case SortDuration:
		if e.File == nil {
			return 0, false
		}
		return e.File.Duration, true
	}
	panic("unhandled sort field " + field)
}

// inOrder reports whether a sorts strictly before b under the keyset order.
func inOrder(a, b Entry, field SortField, desc bool) bool {
	av, aok := sortValue(a, field)
	bv, bok := sortValue(b, field)
	switch {
	case aok && !bok:
		return true
	case !aok && bok:
		return false
	case aok && bok && av != bv:
		return (av < bv) != desc
	}
	return (a.Reference.ID < b.Reference.ID) != desc
}

func seedCatalog(t *testing.T, db *Database) int {
	t.Helper()
	day := func(n int) *time.Time { v := time.Date(2024, 1, n, 0, 0, 0, 0, time.UTC); return &v }

	items := []testItem{
		{path: "/m/01.mp4", duration: 12, stars: 3, viewCount: 0, sourceCreated: day(5)},
		{path: "/m/02.mp4", duration: 4, stars: 1, viewCount: 2, sourceCreated: day(1)},
		{path: "/m/03.mp4", duration: 4, stars: 3, viewCount: 2},
		{path: "/m/04.mp4", duration: 30, stars: 0, viewCount: 9, sourceCreated: day(5)},
		{path: "/m/05.jpg", mediaType: mediatypes.Image, stars: 5, sourceCreated: day(3)},
		{path: "/m/06.mp4", duration: 4, stars: 1, viewCount: 1},
		{path: "/m/07.mp3", mediaType: mediatypes.Audio, duration: 180, stars: 2, sourceCreated: day(2)},
		{path: "/m/08.mp4", duration: 0.5, stars: 3, viewCount: 0, sourceCreated: day(5)},
		{path: "/m/09.mp4", duration: 12, stars: 4, viewCount: 7},
		{path: "/m/10.mp4", duration: 60, stars: 0, viewCount: 0, sourceCreated: day(9)},
	}
	for _, item := range items {
		insertItem(t, db, item)
	}
	// A series has no file, so it sorts with the NULLs on duration.
	insertSeries(t, db, "saga")
	return len(items) + 1
}

func TestSearch_PaginationCompleteness(t *testing.T) {
	db, _ := setupTestDB(t)
	total := seedCatalog(t, db)

	fields := []SortField{SortCreatedAt, SortSourceCreatedAt, SortViewCount, SortLastViewedAt, SortStars, SortDuration}
	for _, field := range fields {
		for _, order := range []Order{Asc, Desc} {
			for limit := 1; limit <= total+1; limit++ {
				name := fmt.Sprintf("%s_%s_limit%d", field, order, limit)
				t.Run(name, func(t *testing.T) {
					got := collectPages(t, db, SearchParams{SortBy: field, Order: order, Limit: limit})
					if len(got) != total {
						t.Fatalf("collected %d rows, want %d", len(got), total)
					}
					seen := map[int64]bool{}
					for i, e := range got {
						if seen[e.Reference.ID] {
							t.Fatalf("reference %d returned twice", e.Reference.ID)
						}
						seen[e.Reference.ID] = true
						if i > 0 && !inOrder(got[i-1], e, field, order == Desc) {
							t.Fatalf("rows %d and %d out of order: %v", i-1, i, ids(got))
						}
					}
				})
			}
		}
	}
}

func TestSearch_TotalMatchesPage(t *testing.T) {
	db, _ := setupTestDB(t)
	total := seedCatalog(t, db)

	page, err := db.Search(context.Background(), SearchParams{Limit: 3})
	if err != nil {
		t.Fatal(err)
	}
	if page.Total != total {
		t.Errorf("Total = %d, want %d", page.Total, total)
	}
	if len(page.Results) != 3 || page.NextCursor == "" {
		t.Errorf("first page = %d results, cursor %q", len(page.Results), page.NextCursor)
	}
}

func TestSearch_DurationOrder(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()

	b := insertItem(t, db, testItem{path: "/m/b.mp4", duration: 6.763})
	a := insertItem(t, db, testItem{path: "/m/a.mp4", duration: 3.18})
	c := insertItem(t, db, testItem{path: "/m/c.mp4", duration: 6.92})

	page, err := db.Search(ctx, SearchParams{SortBy: SortDuration, Order: Asc})
	if err != nil {
		t.Fatal(err)
	}
	got := ids(page.Results)
	want := []int64{a, b, c}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("sorted by duration = %v, want %v", got, want)
	}

	page, err = db.Search(ctx, SearchParams{
		Filter: SearchFilter{Duration: &DurationRange{Min: ptr(4.0)}},
		SortBy: SortDuration,
		Order:  Asc,
	})
	if err != nil {
		t.Fatal(err)
	}
	got = ids(page.Results)
	want = []int64{b, c}
	if fmt.Sprint(got) != fmt.Sprint(want) || page.Total != 2 {
		t.Errorf("duration >= 4 = %v (total %d), want %v", got, page.Total, want)
	}
}

func TestSearch_TagIntersection(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()

	both := insertItem(t, db, testItem{path: "/m/1.mp4", tags: []string{"a", "b"}})
	onlyA := insertItem(t, db, testItem{path: "/m/2.mp4", tags: []string{"a"}})
	insertItem(t, db, testItem{path: "/m/3.mp4", tags: []string{"b", "c"}})
	all := insertItem(t, db, testItem{path: "/m/4.mp4", tags: []string{"a", "b", "c"}})
	insertItem(t, db, testItem{path: "/m/5.mp4"})

	ta, tb := tagID(t, db, "a"), tagID(t, db, "b")

	tests := []struct {
		name string
		tags []int64
		want []int64
	}{
		{"a and b", []int64{ta, tb}, []int64{both, all}},
		{"a", []int64{ta}, []int64{both, onlyA, all}},
		{"duplicate ids count once", []int64{ta, ta, tb}, []int64{both, all}},
		{"empty list", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(collectPages(t, db, SearchParams{
				Filter: SearchFilter{TagIDs: tt.tags},
				Order:  Asc,
				Limit:  2,
			}))
			if tt.want == nil {
				if len(got) != 5 {
					t.Errorf("unfiltered search = %v, want all 5", got)
				}
				return
			}
			if fmt.Sprint(got) != fmt.Sprint(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}

	page, err := db.Search(ctx, SearchParams{Filter: SearchFilter{TagIDs: []int64{ta, tb}}})
	if err != nil {
		t.Fatal(err)
	}
	if page.Total != 2 {
		t.Errorf("Total = %d, want 2", page.Total)
	}
}

func TestSearch_SeriesContainment(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()

	series := insertSeries(t, db, "saga")
	a := insertItem(t, db, testItem{path: "/m/a.mp4"})
	b := insertItem(t, db, testItem{path: "/m/b.mp4"})
	c := insertItem(t, db, testItem{path: "/m/c.mp4"})

	top := ids(collectPages(t, db, SearchParams{Order: Asc, Limit: 10}))
	if fmt.Sprint(top) != fmt.Sprint([]int64{series, a, b, c}) {
		t.Fatalf("top level before adding = %v", top)
	}

	addToSeries(t, db, series, b, nil)
	addToSeries(t, db, series, a, nil)
	addToSeries(t, db, series, b, nil)

	top = ids(collectPages(t, db, SearchParams{Order: Asc, Limit: 10}))
	if fmt.Sprint(top) != fmt.Sprint([]int64{series, c}) {
		t.Errorf("top level after adding = %v, want [%d %d]", top, series, c)
	}

	// Members come back in series order, duplicates included, at any page size.
	for limit := 1; limit <= 4; limit++ {
		members := collectPages(t, db, SearchParams{Filter: SearchFilter{SeriesID: &series}, Limit: limit})
		if got := ids(members); fmt.Sprint(got) != fmt.Sprint([]int64{b, a, b}) {
			t.Errorf("limit %d: members = %v, want [%d %d %d]", limit, got, b, a, b)
		}
		for i, m := range members {
			if m.SeriesIndex == nil || *m.SeriesIndex != i {
				t.Errorf("limit %d: member %d has index %v", limit, i, m.SeriesIndex)
			}
		}
	}

	desc, err := db.Search(ctx, SearchParams{Filter: SearchFilter{SeriesID: &series}, Order: Desc})
	if err != nil {
		t.Fatal(err)
	}
	if got := ids(desc.Results); fmt.Sprint(got) != fmt.Sprint([]int64{b, a, b}) || *desc.Results[0].SeriesIndex != 2 {
		t.Errorf("descending members = %v", got)
	}

	only, err := db.Search(ctx, SearchParams{Filter: SearchFilter{SeriesOnly: true}})
	if err != nil {
		t.Fatal(err)
	}
	if got := ids(only.Results); len(got) != 1 || got[0] != series {
		t.Errorf("series only = %v, want [%d]", got, series)
	}
}

func TestSearch_Filters(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()

	video := insertItem(t, db, testItem{path: "/m/clips/v.mp4", duration: 10, stars: 4})
	image := insertItem(t, db, testItem{path: "/m/pics/i.jpg", mediaType: mediatypes.Image, stars: 2, viewCount: 3})
	audio := insertItem(t, db, testItem{path: "/m/songs/s.mp3", mediaType: mediatypes.Audio, duration: 200, stars: 5})

	if _, err := db.db.ExecContext(ctx, "UPDATE media_file SET animated = 1 WHERE media_reference_id = ?", video); err != nil {
		t.Fatal(err)
	}
	err := db.WithTx(ctx, "keypoint", func(tx *Tx) error {
		file, err := tx.FileForReference(video)
		if err != nil {
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
	intro := tagID(t, db, "scene:intro")

	tests := []struct {
		name   string
		filter SearchFilter
		want   []int64
	}{
		{"stars exact", SearchFilter{Stars: ptr(2)}, []int64{image}},
		{"stars at least", SearchFilter{StarsGTE: ptr(4)}, []int64{video, audio}},
		{"unread", SearchFilter{Unread: true}, []int64{video, audio}},
		{"animated", SearchFilter{Animated: ptr(true)}, []int64{video}},
		{"not animated", SearchFilter{Animated: ptr(false)}, []int64{image, audio}},
		{"media type", SearchFilter{MediaType: ptr(mediatypes.Audio)}, []int64{audio}},
		{"filepath glob", SearchFilter{FilepathGlob: "/m/pics/*"}, []int64{image}},
		{"keypoint tag", SearchFilter{KeypointTagIDs: []int64{intro}}, []int64{video}},
		{"duration max", SearchFilter{Duration: &DurationRange{Max: ptr(50.0)}}, []int64{video, image}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := db.Search(ctx, SearchParams{Filter: tt.filter, Order: Asc})
			if err != nil {
				t.Fatal(err)
			}
			if got := ids(page.Results); fmt.Sprint(got) != fmt.Sprint(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
			if page.Total != len(tt.want) {
				t.Errorf("Total = %d, want %d", page.Total, len(tt.want))
			}
		})
	}
}

func TestSearch_BadInput(t *testing.T) {
	db, _ := setupTestDB(t)
	series := insertSeries(t, db, "saga")
	dur := &DurationRange{Min: ptr(1.0)}

	tests := []struct {
		name   string
		params SearchParams
	}{
		{"duration with series id", SearchParams{Filter: SearchFilter{Duration: dur, SeriesID: &series}}},
		{"duration with series only", SearchParams{Filter: SearchFilter{Duration: dur, SeriesOnly: true}}},
		{"duration with series sort", SearchParams{Filter: SearchFilter{Duration: dur}, SortBy: SortSeriesIndex}},
		{"series sort without series", SearchParams{SortBy: SortSeriesIndex}},
		{"series only with series id", SearchParams{Filter: SearchFilter{SeriesOnly: true, SeriesID: &series}}},
		{"inverted duration", SearchParams{Filter: SearchFilter{Duration: &DurationRange{Min: ptr(5.0), Max: ptr(1.0)}}}},
		{"unknown sort", SearchParams{SortBy: "title"}},
		{"unknown order", SearchParams{Order: "sideways"}},
		{"negative limit", SearchParams{Limit: -1}},
		{"bad cursor", SearchParams{Cursor: "%%%"}},
		{"unknown media type", SearchParams{Filter: SearchFilter{MediaType: ptr(mediatypes.MediaType("TEXT"))}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := db.Search(context.Background(), tt.params)
			if !errs.Is(err, errs.BadInput) {
				t.Errorf("Search() error = %v, want BadInput", err)
			}
		})
	}
}

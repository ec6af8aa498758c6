package catalog

import (
	"context"
	"fmt"
	"testing"

	"media-catalog/internal/database"
	"media-catalog/internal/errs"
)

func filenames(page *database.Page) []string {
	out := make([]string, len(page.Results))
	for i, e := range page.Results {
		if e.File != nil {
			out[i] = e.File.Filename
		} else if e.Reference.SeriesName != nil {
			out[i] = *e.Reference.SeriesName
		}
	}
	return out
}

func TestSearch_Duration(t *testing.T) {
	f := setupCatalog(t)
	ctx := context.Background()
	f.create(t, f.addVideo(t, "b.mp4", 6.763))
	f.create(t, f.addVideo(t, "c.mp4", 6.92))
	f.create(t, f.addVideo(t, "a.mp4", 3.18))

	page, err := f.cat.Search(ctx, SearchRequest{SortBy: database.SortDuration, Order: database.Asc})
	if err != nil {
		t.Fatal(err)
	}
	if got := fmt.Sprint(filenames(page)); got != "[a.mp4 b.mp4 c.mp4]" {
		t.Errorf("by duration = %s", got)
	}

	lower := 4.0
	page, err = f.cat.Search(ctx, SearchRequest{Query: Query{Duration: &database.DurationRange{Min: &lower}}})
	if err != nil {
		t.Fatal(err)
	}
	if page.Total != 2 {
		t.Errorf("duration >= 4 total = %d, want 2", page.Total)
	}
}

func TestSearch_Tags(t *testing.T) {
	f := setupCatalog(t)
	ctx := context.Background()
	f.create(t, f.addVideo(t, "1.mp4", 2), "a", "b")
	f.create(t, f.addVideo(t, "2.mp4", 2), "a")
	f.create(t, f.addVideo(t, "3.mp4", 2), "b", "c")

	tests := []struct {
		tags []string
		want int
	}{
		{tags: nil, want: 3},
		{tags: []string{"a"}, want: 2},
		{tags: []string{"a", "b"}, want: 1},
		{tags: []string{"A", "a"}, want: 2},
		{tags: []string{"a", "c"}, want: 0},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.tags), func(t *testing.T) {
			page, err := f.cat.Search(ctx, SearchRequest{Query: Query{Tags: tt.tags}})
			if err != nil {
				t.Fatal(err)
			}
			if page.Total != tt.want || len(page.Results) != tt.want {
				t.Errorf("total=%d results=%d, want %d", page.Total, len(page.Results), tt.want)
			}
		})
	}

	if _, err := f.cat.Search(ctx, SearchRequest{Query: Query{Tags: []string{"missing"}}}); !errs.Is(err, errs.NotFound) {
		t.Errorf("unknown tag error = %v, want NotFound", err)
	}
}

func TestSearch_Paginates(t *testing.T) {
	f := setupCatalog(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		f.create(t, f.addVideo(t, fmt.Sprintf("%d.mp4", i), 2))
	}

	seen := map[string]bool{}
	req := SearchRequest{Limit: 2}
	for pages := 0; ; pages++ {
		if pages > 5 {
			t.Fatal("pagination did not terminate")
		}
		page, err := f.cat.Search(ctx, req)
		if err != nil {
			t.Fatal(err)
		}
		for _, name := range filenames(page) {
			if seen[name] {
				t.Errorf("%s returned twice", name)
			}
			seen[name] = true
		}
		if page.NextCursor == "" {
			break
		}
		req.Cursor = page.NextCursor
	}
	if len(seen) != 5 {
		t.Errorf("saw %d references, want 5", len(seen))
	}
}

func TestGroup_Sublists(t *testing.T) {
	f := setupCatalog(t)
	ctx := context.Background()
	f.create(t, f.addVideo(t, "1.mp4", 2), "artist:alice", "genre:rock")
	f.create(t, f.addVideo(t, "2.mp4", 3), "artist:alice", "genre:rock")
	f.create(t, f.addVideo(t, "3.mp4", 4), "artist:alice")
	f.create(t, f.addVideo(t, "4.mp4", 5), "artist:bob", "genre:rock")

	page, err := f.cat.Group(ctx, GroupRequest{
		Query:    Query{Tags: []string{"genre:rock"}},
		TagGroup: "Artist",
		Sublist:  &Sublist{SortBy: database.SortDuration, Order: database.Asc, Limit: 1},
	})
	if err != nil {
		t.Fatalf("Group() error = %v", err)
	}
	if page.Total != 2 || len(page.Results) != 2 {
		t.Fatalf("groups = %d/%d, want 2", len(page.Results), page.Total)
	}

	alice := page.Results[0]
	if alice.Tag.Name != "alice" || alice.Count != 2 {
		t.Fatalf("first group = %s=%d, want alice=2", alice.Tag.Name, alice.Count)
	}
	if alice.Sublist == nil || alice.Sublist.Total != 2 {
		t.Fatalf("alice sublist = %+v", alice.Sublist)
	}
	if got := filenames(alice.Sublist); len(got) != 1 || got[0] != "1.mp4" {
		t.Errorf("alice sublist page = %v, want [1.mp4]", got)
	}
	if alice.Sublist.NextCursor == "" {
		t.Fatal("full sublist page has no cursor")
	}

	// The sublist cursor continues through Search with the group's tag added.
	rest, err := f.cat.Search(ctx, SearchRequest{
		Query:  Query{Tags: []string{"genre:rock", alice.Tag.String()}},
		SortBy: database.SortDuration,
		Order:  database.Asc,
		Cursor: alice.Sublist.NextCursor,
		Limit:  1,
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := filenames(rest); len(got) != 1 || got[0] != "2.mp4" {
		t.Errorf("continued sublist = %v, want [2.mp4]", got)
	}

	bob := page.Results[1]
	if bob.Sublist == nil || bob.Sublist.Total != 1 || bob.Sublist.NextCursor == "" {
		t.Errorf("bob sublist = %+v", bob.Sublist)
	}

	if _, err := f.cat.Group(ctx, GroupRequest{TagGroup: "nope"}); !errs.Is(err, errs.NotFound) {
		t.Errorf("unknown group error = %v, want NotFound", err)
	}
}

func TestGetByPath(t *testing.T) {
	f := setupCatalog(t)
	ctx := context.Background()
	path := f.addVideo(t, "clip.mp4", 4)
	created := f.create(t, path)

	got, err := f.cat.GetByPath(ctx, path, 5, 10)
	if err != nil {
		t.Fatal(err)
	}
	if got.Reference.ID != created.Reference.ID {
		t.Errorf("GetByPath id = %d, want %d", got.Reference.ID, created.Reference.ID)
	}
	if got.Thumbnails.Total != 18 || len(got.Thumbnails.Results) != 5 {
		t.Errorf("thumbnail window = %d of %d, want 5 of 18", len(got.Thumbnails.Results), got.Thumbnails.Total)
	}
	if got.Thumbnails.Results[0].MediaTimestamp <= created.Thumbnails.Results[9].MediaTimestamp {
		t.Error("offset window does not start after the tenth thumbnail")
	}

	if _, err := f.cat.GetByPath(ctx, path+".missing", 0, 0); !errs.Is(err, errs.NotFound) {
		t.Errorf("unknown path error = %v, want NotFound", err)
	}
	if _, err := f.cat.Get(ctx, created.Reference.ID, -1, 0); !errs.Is(err, errs.BadInput) {
		t.Errorf("negative limit error = %v, want BadInput", err)
	}
}

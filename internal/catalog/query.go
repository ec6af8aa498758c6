package catalog

import (
	"context"
	"path/filepath"

	"github.com/samber/lo"

	"media-catalog/internal/database"
	"media-catalog/internal/errs"
	"media-catalog/internal/mediatypes"
)

// Query is a search filter with tags named rather than numbered.
type Query struct {
	Tags         []string                `json:"tags,omitempty"`
	SeriesID     *int64                  `json:"seriesId,omitempty"`
	SeriesOnly   bool                    `json:"seriesOnly,omitempty"`
	Duration     *database.DurationRange `json:"duration,omitempty"`
	Stars        *int                    `json:"stars,omitempty"`
	StarsGTE     *int                    `json:"starsGte,omitempty"`
	Unread       bool                    `json:"unread,omitempty"`
	Animated     *bool                   `json:"animated,omitempty"`
	MediaType    *mediatypes.MediaType   `json:"mediaType,omitempty"`
	Filepath     string                  `json:"filepath,omitempty"`
	KeypointTags []string                `json:"keypointTags,omitempty"`
}

// SearchRequest is a paginated search.
type SearchRequest struct {
	Query  Query              `json:"query"`
	SortBy database.SortField `json:"sortBy,omitempty"`
	Order  database.Order     `json:"order,omitempty"`
	Cursor string             `json:"cursor,omitempty"`
	Limit  int                `json:"limit,omitempty"`
}

// Sublist asks each group for a page of its members.
type Sublist struct {
	SortBy database.SortField `json:"sortBy,omitempty"`
	Order  database.Order     `json:"order,omitempty"`
	Limit  int                `json:"limit,omitempty"`
}

// GroupRequest is a paginated group-by over the tags of one tag group.
type GroupRequest struct {
	Query    Query                   `json:"query"`
	TagGroup string                  `json:"tagGroup"`
	SortBy   database.GroupSortField `json:"sortBy,omitempty"`
	Order    database.Order          `json:"order,omitempty"`
	Cursor   string                  `json:"cursor,omitempty"`
	Limit    int                     `json:"limit,omitempty"`
	Sublist  *Sublist                `json:"sublist,omitempty"`
}

// Get returns a reference composed with its tags, keypoints and a window of
// thumbnails.
func (c *Catalog) Get(ctx context.Context, id int64, thumbLimit, thumbOffset int) (*Entry, error) {
	if thumbLimit < 0 || thumbOffset < 0 {
		return nil, errs.BadInputf("thumbnail limit and offset must not be negative")
	}
	ref, err := c.db.GetReference(ctx, id)
	if err != nil {
		return nil, err
	}
	tags, err := c.db.ReferenceTags(ctx, id)
	if err != nil {
		return nil, err
	}
	entry := &Entry{Reference: ref, Tags: tags}
	if ref.IsSeries {
		return entry, nil
	}

	if entry.File, err = c.db.GetFileByReference(ctx, id); err != nil {
		return nil, err
	}
	if entry.Thumbnails, err = c.db.ListThumbnails(ctx, entry.File.ID, thumbLimit, thumbOffset); err != nil {
		return nil, err
	}
	if entry.Keypoints, err = c.db.ListKeypoints(ctx, entry.File.ID); err != nil {
		return nil, err
	}
	return entry, nil
}

// GetByPath returns the entry whose file lives at path.
func (c *Catalog) GetByPath(ctx context.Context, path string, thumbLimit, thumbOffset int) (*Entry, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errs.Wrap(errs.BadInput, err, "resolve %s", path)
	}
	file, err := c.db.GetFileByPath(ctx, abs)
	if err != nil {
		return nil, err
	}
	return c.Get(ctx, file.ReferenceID, thumbLimit, thumbOffset)
}

// Search runs a filtered, keyset-paginated search.
func (c *Catalog) Search(ctx context.Context, req SearchRequest) (*database.Page, error) {
	filter, err := c.resolveQuery(ctx, req.Query)
	if err != nil {
		return nil, err
	}
	return c.db.Search(ctx, database.SearchParams{
		Filter: filter,
		SortBy: req.SortBy,
		Order:  req.Order,
		Cursor: req.Cursor,
		Limit:  req.Limit,
	})
}

// Group partitions the matching references by their tag in req.TagGroup.
// With a Sublist each group carries the first page of its members, sorted
// and paginated independently of the groups; its cursor continues through
// Search with the group's tag added to the query.
func (c *Catalog) Group(ctx context.Context, req GroupRequest) (*database.GroupPage, error) {
	filter, err := c.resolveQuery(ctx, req.Query)
	if err != nil {
		return nil, err
	}
	page, err := c.db.Group(ctx, database.GroupParams{
		Filter:   filter,
		TagGroup: database.NormalizeTagName(req.TagGroup),
		SortBy:   req.SortBy,
		Order:    req.Order,
		Cursor:   req.Cursor,
		Limit:    req.Limit,
	})
	if err != nil || req.Sublist == nil {
		return page, err
	}

	for i := range page.Results {
		sub := filter
		sub.TagIDs = append(append([]int64{}, filter.TagIDs...), page.Results[i].Tag.ID)
		page.Results[i].Sublist, err = c.db.Search(ctx, database.SearchParams{
			Filter: sub,
			SortBy: req.Sublist.SortBy,
			Order:  req.Sublist.Order,
			Limit:  req.Sublist.Limit,
		})
		if err != nil {
			return nil, err
		}
	}
	return page, nil
}

// ListTags returns every tag with its counters, or the tags of one group.
func (c *Catalog) ListTags(ctx context.Context, group *string) ([]database.Tag, error) {
	if group != nil {
		g := database.NormalizeTagName(*group)
		group = &g
	}
	return c.db.ListTags(ctx, group)
}

// resolveQuery turns tag names into ids. Naming a tag that does not exist is
// NotFound rather than an empty result.
func (c *Catalog) resolveQuery(ctx context.Context, q Query) (database.SearchFilter, error) {
	tagIDs, err := c.tagIDs(ctx, q.Tags)
	if err != nil {
		return database.SearchFilter{}, err
	}
	keypointTagIDs, err := c.tagIDs(ctx, q.KeypointTags)
	if err != nil {
		return database.SearchFilter{}, err
	}
	return database.SearchFilter{
		TagIDs:         tagIDs,
		SeriesID:       q.SeriesID,
		SeriesOnly:     q.SeriesOnly,
		Duration:       q.Duration,
		Stars:          q.Stars,
		StarsGTE:       q.StarsGTE,
		Unread:         q.Unread,
		Animated:       q.Animated,
		MediaType:      q.MediaType,
		FilepathGlob:   q.Filepath,
		KeypointTagIDs: keypointTagIDs,
	}, nil
}

func (c *Catalog) tagIDs(ctx context.Context, names []string) ([]int64, error) {
	ids := make([]int64, 0, len(names))
	for _, s := range names {
		group, name, err := database.ParseTag(s)
		if err != nil {
			return nil, err
		}
		tag, err := c.db.FindTag(ctx, group, name)
		if err != nil {
			return nil, err
		}
		ids = append(ids, tag.ID)
	}
	return lo.Uniq(ids), nil
}

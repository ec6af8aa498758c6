package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"

	"media-catalog/internal/errs"
	"media-catalog/internal/metrics"
	"media-catalog/internal/mediatypes"
)

const (
	// DefaultLimit applies when a query does not set one.
	DefaultLimit = 50
	// MaxLimit bounds a single page.
	MaxLimit = 1000
)

// SortField names a reference ordering.
type SortField string

const (
	SortCreatedAt       SortField = "created_at"
	SortUpdatedAt       SortField = "updated_at"
	SortSourceCreatedAt SortField = "source_created_at"
	SortViewCount       SortField = "view_count"
	SortLastViewedAt    SortField = "last_viewed_at"
	SortStars           SortField = "stars"
	SortDuration        SortField = "duration"
	SortSeriesIndex     SortField = "series_index"
)

// Order is a sort direction.
type Order string

const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

type sortColumn struct {
	expr     string
	nullable bool
}

var sortColumns = map[SortField]sortColumn{
	SortCreatedAt:       {"r.created_at", false},
	SortUpdatedAt:       {"r.updated_at", false},
	SortSourceCreatedAt: {"r.source_created_at", true},
	SortViewCount:       {"r.view_count", false},
	SortLastViewedAt:    {"r.last_viewed_at", true},
	SortStars:           {"r.stars", false},
	SortDuration:        {"f.duration", true},
	SortSeriesIndex:     {"si.series_index", false},
}

// DurationRange bounds file duration in seconds. Either end may be open.
type DurationRange struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// SearchFilter selects references. The zero value selects every reference
// that is not a member of a series.
type SearchFilter struct {
	// TagIDs keeps references carrying every listed tag.
	TagIDs []int64
	// SeriesID lists the members of one series instead of top-level references.
	SeriesID *int64
	// SeriesOnly keeps series references.
	SeriesOnly bool
	Duration   *DurationRange
	Stars      *int
	StarsGTE   *int
	Unread     bool
	Animated   *bool
	MediaType  *mediatypes.MediaType
	// FilepathGlob is matched with SQLite GLOB against the file path.
	FilepathGlob string
	// KeypointTagIDs keeps files having a keypoint for every listed tag.
	KeypointTagIDs []int64
}

// SearchParams is a paginated reference query.
type SearchParams struct {
	Filter SearchFilter
	SortBy SortField
	Order  Order
	Cursor string
	Limit  int
}

// Entry is one search result. SeriesItemID and SeriesIndex are set when
// listing the members of a series.
type Entry struct {
	Reference    *Reference `json:"reference"`
	File         *File      `json:"file,omitempty"`
	SeriesItemID *int64     `json:"seriesItemId,omitempty"`
	SeriesIndex  *int       `json:"seriesIndex,omitempty"`
}

// Page is one page of search results. NextCursor is empty on the last page.
type Page struct {
	Results    []Entry `json:"results"`
	Total      int     `json:"total"`
	NextCursor string  `json:"nextCursor,omitempty"`
}

// filterQuery is the FROM and WHERE shared by a count and its page query.
type filterQuery struct {
	from     []string
	fromArgs []any
	where    []string
	args     []any
	series   bool
}

func (q *filterQuery) join(clause string, args ...any) {
	q.from = append(q.from, clause)
	q.fromArgs = append(q.fromArgs, args...)
}

func (q *filterQuery) and(pred string, args ...any) {
	q.where = append(q.where, pred)
	q.args = append(q.args, args...)
}

func (q *filterQuery) fromClause() string {
	return strings.Join(q.from, "\n\t\t")
}

func (q *filterQuery) whereClause(extra ...string) string {
	preds := append(append([]string{}, q.where...), extra...)
	if len(preds) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(preds, "\n\t\tAND ")
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func int64Args(ids []int64) []any {
	return lo.Map(ids, func(id int64, _ int) any { return id })
}

// buildFilter translates a filter into joins and predicates. sortBy takes
// part in validation only.
func buildFilter(f SearchFilter, sortBy SortField) (*filterQuery, error) {
	seriesSort := sortBy == SortSeriesIndex
	if f.Duration != nil && (f.SeriesID != nil || f.SeriesOnly || seriesSort) {
		return nil, errs.BadInputf("a duration filter cannot be combined with series filtering or sorting")
	}
	if seriesSort && f.SeriesID == nil {
		return nil, errs.BadInputf("sorting by series_index requires a series_id")
	}
	if f.SeriesOnly && f.SeriesID != nil {
		return nil, errs.BadInputf("series_only cannot be combined with series_id")
	}

	q := &filterQuery{series: f.SeriesID != nil}
	q.join("media_reference r")
	q.join("LEFT JOIN media_file f ON f.media_reference_id = r.id")

	if f.SeriesID != nil {
		q.join("JOIN media_series_item si ON si.media_reference_id = r.id AND si.series_id = ?", *f.SeriesID)
	} else {
		q.and("r.id NOT IN (SELECT media_reference_id FROM media_series_item)")
	}
	if f.SeriesOnly {
		q.and("r.media_series_reference = 1")
	}

	if tags := lo.Uniq(f.TagIDs); len(tags) > 0 {
		q.join(fmt.Sprintf(`JOIN (
			SELECT media_reference_id FROM media_reference_tag
			WHERE tag_id IN (%s)
			GROUP BY media_reference_id
			HAVING COUNT(*) >= ?
		) tf ON tf.media_reference_id = r.id`, placeholders(len(tags))),
			append(int64Args(tags), len(tags))...)
	}

	if d := f.Duration; d != nil {
		if d.Min != nil && d.Max != nil && *d.Min > *d.Max {
			return nil, errs.BadInputf("duration min %v exceeds max %v", *d.Min, *d.Max)
		}
		if d.Min != nil {
			q.and("f.duration >= ?", *d.Min)
		}
		if d.Max != nil {
			q.and("f.duration <= ?", *d.Max)
		}
	}
	if f.Stars != nil {
		q.and("r.stars = ?", *f.Stars)
	}
	if f.StarsGTE != nil {
		q.and("r.stars >= ?", *f.StarsGTE)
	}
	if f.Unread {
		q.and("r.view_count = 0")
	}
	if f.Animated != nil {
		q.and("f.animated = ?", *f.Animated)
	}
	if f.MediaType != nil {
		if !f.MediaType.Valid() {
			return nil, errs.BadInputf("unknown media type %q", *f.MediaType)
		}
		q.and("f.media_type = ?", string(*f.MediaType))
	}
	if f.FilepathGlob != "" {
		q.and("f.filepath GLOB ?", f.FilepathGlob)
	}
	for _, tagID := range lo.Uniq(f.KeypointTagIDs) {
		q.and("EXISTS (SELECT 1 FROM media_keypoint k WHERE k.media_file_id = f.id AND k.tag_id = ?)", tagID)
	}
	return q, nil
}

func normalizeLimit(limit int) (int, error) {
	switch {
	case limit < 0:
		return 0, errs.BadInputf("limit %d is negative", limit)
	case limit == 0:
		return DefaultLimit, nil
	case limit > MaxLimit:
		return MaxLimit, nil
	}
	return limit, nil
}

func parseOrder(o Order, fallback Order) (bool, error) {
	switch o {
	case "":
		return fallback == Desc, nil
	case Asc:
		return false, nil
	case Desc:
		return true, nil
	}
	return false, errs.BadInputf("unknown order %q", o)
}

// searchKey resolves the sort key for a search. Series member listings break
// ties on the series item id since one reference may sit at several indexes.
func searchKey(p SearchParams) (SortKey, error) {
	sortBy, fallback := p.SortBy, Desc
	if sortBy == "" {
		sortBy = SortCreatedAt
		if p.Filter.SeriesID != nil {
			sortBy, fallback = SortSeriesIndex, Asc
		}
	}
	col, ok := sortColumns[sortBy]
	if !ok {
		return SortKey{}, errs.BadInputf("unknown sort field %q", p.SortBy)
	}
	desc, err := parseOrder(p.Order, fallback)
	if err != nil {
		return SortKey{}, err
	}
	key := SortKey{Column: col.expr, IDColumn: "r.id", Desc: desc, Nullable: col.nullable}
	if p.Filter.SeriesID != nil {
		key.IDColumn = "si.id"
	}
	return key, nil
}

// Search runs a filtered, keyset-paginated reference query. The count and the
// page share one filter so they never disagree on eligibility.
func (d *Database) Search(ctx context.Context, p SearchParams) (*Page, error) {
	start := time.Now()
	page, err := d.search(ctx, p)
	recordQuery("search", start, err)
	if err != nil {
		metrics.QueryErrors.WithLabelValues("search", errs.KindOf(err).String()).Inc()
		return nil, err
	}
	metrics.QueryResultsReturned.WithLabelValues("search").Observe(float64(len(page.Results)))
	return page, nil
}

func (d *Database) search(ctx context.Context, p SearchParams) (*Page, error) {
	limit, err := normalizeLimit(p.Limit)
	if err != nil {
		return nil, err
	}
	sortBy := p.SortBy
	if sortBy == "" && p.Filter.SeriesID != nil {
		sortBy = SortSeriesIndex
	}
	q, err := buildFilter(p.Filter, sortBy)
	if err != nil {
		return nil, err
	}
	key, err := searchKey(p)
	if err != nil {
		return nil, err
	}

	var after []string
	var afterArgs []any
	if p.Cursor != "" {
		c, err := DecodeCursor(p.Cursor)
		if err != nil {
			return nil, err
		}
		pred, args, err := key.After(c)
		if err != nil {
			return nil, err
		}
		after, afterArgs = []string{pred}, args
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	args := append(append([]any{}, q.fromArgs...), q.args...)

	page := &Page{Results: []Entry{}}
	countSQL := "SELECT COUNT(*) FROM " + q.fromClause() + " " + q.whereClause()
	if err := d.db.QueryRowContext(ctx, countSQL, args...).Scan(&page.Total); err != nil {
		return nil, fmt.Errorf("count search results: %w", err)
	}

	seriesCols := "NULL, NULL"
	if q.series {
		seriesCols = "si.id, si.series_index"
	}
	pageSQL := fmt.Sprintf(`SELECT %s, %s, %s, %s, %s
		FROM %s
		%s
		ORDER BY %s
		LIMIT ?`,
		referenceColumns, fileColumns, seriesCols, key.Column, key.IDColumn,
		q.fromClause(), q.whereClause(after...), key.OrderBy())

	rows, err := d.db.QueryContext(ctx, pageSQL, append(append(args, afterArgs...), limit)...)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer rows.Close()

	var last Cursor
	for rows.Next() {
		var ref referenceRow
		var file fileRow
		var itemID, index sql.NullInt64
		var sortValue any
		dest := append(append(ref.dest(), file.dest()...), &itemID, &index, &sortValue, &last.ID)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan search row: %w", err)
		}
		last.Value = sortValue

		entry := Entry{Reference: ref.reference(), File: file.file()}
		if itemID.Valid {
			id, idx := itemID.Int64, int(index.Int64)
			entry.SeriesItemID, entry.SeriesIndex = &id, &idx
		}
		page.Results = append(page.Results, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Only a full page may have a successor.
	if len(page.Results) == limit {
		page.NextCursor = last.Encode()
	}
	return page, nil
}

package database

import (
	"context"
	"fmt"
	"time"

	"media-catalog/internal/errs"
	"media-catalog/internal/metrics"
)

// GroupSortField names a group aggregate to order groups by.
type GroupSortField string

const (
	GroupSortCount           GroupSortField = "count"
	GroupSortViewCount       GroupSortField = "view_count"
	GroupSortLastViewedAt    GroupSortField = "last_viewed_at"
	GroupSortSourceCreatedAt GroupSortField = "source_created_at"
	GroupSortCreatedAt       GroupSortField = "created_at"
	GroupSortUpdatedAt       GroupSortField = "updated_at"
)

var groupAggregates = map[GroupSortField]sortColumn{
	GroupSortViewCount:       {"r.view_count", false},
	GroupSortLastViewedAt:    {"r.last_viewed_at", true},
	GroupSortSourceCreatedAt: {"r.source_created_at", true},
	GroupSortCreatedAt:       {"r.created_at", false},
	GroupSortUpdatedAt:       {"r.updated_at", false},
}

// GroupParams partitions the references matching Filter by their tag in
// TagGroup.
type GroupParams struct {
	Filter   SearchFilter
	TagGroup string
	SortBy   GroupSortField
	Order    Order
	Cursor   string
	Limit    int
}

// Group is one tag value and the aggregates of the references carrying it.
// SortValue is the min (ascending) or max (descending) of the sort field,
// or the count.
type Group struct {
	Tag       Tag   `json:"tag"`
	// Count is the number of matching references, except with Filter.SeriesID set,
	// where it counts series items: a member at two indexes counts twice,
	// the same as the series-mode search total.
	Count     int   `json:"count"`
	SortValue any   `json:"sortValue"`
	Sublist   *Page `json:"sublist,omitempty"`
}

// GroupPage is one page of groups.
type GroupPage struct {
	Results    []Group `json:"results"`
	Total      int     `json:"total"`
	NextCursor string  `json:"nextCursor,omitempty"`
}

// Group runs a keyset-paginated group-by over one tag group, with the tag id
// as tie-breaker.
func (d *Database) Group(ctx context.Context, p GroupParams) (*GroupPage, error) {
	start := time.Now()
	page, err := d.group(ctx, p)
	recordQuery("group", start, err)
	if err != nil {
		metrics.QueryErrors.WithLabelValues("group", errs.KindOf(err).String()).Inc()
		return nil, err
	}
	metrics.QueryResultsReturned.WithLabelValues("group").Observe(float64(len(page.Results)))
	return page, nil
}

func (d *Database) group(ctx context.Context, p GroupParams) (*GroupPage, error) {
	limit, err := normalizeLimit(p.Limit)
	if err != nil {
		return nil, err
	}
	q, err := buildFilter(p.Filter, "")
	if err != nil {
		return nil, err
	}

	sortBy := p.SortBy
	if sortBy == "" {
		sortBy = GroupSortCount
	}
	desc, err := parseOrder(p.Order, Desc)
	if err != nil {
		return nil, err
	}

	aggregate := "COUNT(*)"
	nullable := false
	if sortBy != GroupSortCount {
		col, ok := groupAggregates[sortBy]
		if !ok {
			return nil, errs.BadInputf("unknown group sort field %q", p.SortBy)
		}
		fn := "MIN"
		if desc {
			fn = "MAX"
		}
		aggregate = fmt.Sprintf("%s(%s)", fn, col.expr)
		nullable = col.nullable
	}
	key := SortKey{Column: "g.sort_value", IDColumn: "g.group_id", Desc: desc, Nullable: nullable}

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

	tagGroup, err := d.FindTagGroup(ctx, p.TagGroup)
	if err != nil {
		return nil, err
	}
	groupID := tagGroup.ID

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	inner := fmt.Sprintf(`
		SELECT t.id AS group_id, t.name AS name, COUNT(*) AS member_count, %s AS sort_value
		FROM %s
		JOIN media_reference_tag gt ON gt.media_reference_id = r.id
		JOIN tag t ON t.id = gt.tag_id AND t.tag_group_id = ?
		%s
		GROUP BY t.id`, aggregate, q.fromClause(), q.whereClause())
	args := append(append(append([]any{}, q.fromArgs...), groupID), q.args...)

	page := &GroupPage{Results: []Group{}}
	if err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM ("+inner+")", args...).Scan(&page.Total); err != nil {
		return nil, fmt.Errorf("count groups: %w", err)
	}

	where := ""
	if len(after) > 0 {
		where = "WHERE " + after[0]
	}
	pageSQL := fmt.Sprintf(`SELECT g.group_id, g.name, g.member_count, g.sort_value
		FROM (%s) g
		%s
		ORDER BY %s
		LIMIT ?`, inner, where, key.OrderBy())

	rows, err := d.db.QueryContext(ctx, pageSQL, append(append(args, afterArgs...), limit)...)
	if err != nil {
		return nil, fmt.Errorf("group: %w", err)
	}
	defer rows.Close()

	var last Cursor
	for rows.Next() {
		g := Group{Tag: Tag{Group: p.TagGroup, GroupID: groupID}}
		if err := rows.Scan(&g.Tag.ID, &g.Tag.Name, &g.Count, &g.SortValue); err != nil {
			return nil, fmt.Errorf("scan group row: %w", err)
		}
		last = Cursor{Value: g.SortValue, ID: g.Tag.ID}
		page.Results = append(page.Results, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(page.Results) == limit {
		page.NextCursor = last.Encode()
	}
	return page, nil
}

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"media-catalog/internal/errs"
)

// NormalizeTagName trims, lower-cases and joins inner whitespace with
// underscores.
func NormalizeTagName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "_")
}

// ParseTag splits "group:name" into its normalized parts. A string without a
// colon belongs to the default group.
func ParseTag(s string) (group, name string, err error) {
	if g, n, ok := strings.Cut(s, ":"); ok {
		group, name = NormalizeTagName(g), NormalizeTagName(n)
	} else {
		name = NormalizeTagName(s)
	}
	if name == "" {
		return "", "", errs.BadInputf("tag %q has an empty name", s)
	}
	return group, name, nil
}

// GetOrCreateTagGroup returns the id of the named group, creating it if needed.
func (tx *Tx) GetOrCreateTagGroup(name string) (int64, error) {
	var id int64
	err := tx.tx.QueryRowContext(tx.ctx, "SELECT id FROM tag_group WHERE name = ?", name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("lookup tag group %q: %w", name, err)
	}

	result, err := tx.tx.ExecContext(tx.ctx, "INSERT INTO tag_group (name) VALUES (?)", name)
	if err != nil {
		return 0, fmt.Errorf("create tag group %q: %w", name, err)
	}
	return result.LastInsertId()
}

// GetOrCreateTag returns the tag named name inside group, creating the group
// and the tag as needed.
func (tx *Tx) GetOrCreateTag(group, name string) (*Tag, error) {
	groupID, err := tx.GetOrCreateTagGroup(group)
	if err != nil {
		return nil, err
	}

	tag, err := scanTag(tx.tx.QueryRowContext(tx.ctx,
		tagSelect+" WHERE t.name = ? AND t.tag_group_id = ?", name, groupID))
	if err == nil {
		return tag, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("lookup tag %s:%s: %w", group, name, err)
	}

	result, err := tx.tx.ExecContext(tx.ctx,
		"INSERT INTO tag (tag_group_id, name) VALUES (?, ?)", groupID, name)
	if err != nil {
		return nil, fmt.Errorf("create tag %s:%s: %w", group, name, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &Tag{ID: id, Name: name, Group: group, GroupID: groupID}, nil
}

// FindTag looks up an existing tag inside the transaction.
func (tx *Tx) FindTag(group, name string) (*Tag, error) {
	tag, err := scanTag(tx.tx.QueryRowContext(tx.ctx, tagSelect+" WHERE g.name = ? AND t.name = ?", group, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.NotFoundf("tag %s", Tag{Name: name, Group: group})
	}
	return tag, err
}

// AttachTag links a tag to a reference and updates the tag, group and
// reference counters in the same transaction. Attaching an existing link is a
// no-op and reports false.
func (tx *Tx) AttachTag(referenceID int64, tag *Tag) (bool, error) {
	result, err := tx.tx.ExecContext(tx.ctx,
		"INSERT OR IGNORE INTO media_reference_tag (media_reference_id, tag_id) VALUES (?, ?)",
		referenceID, tag.ID)
	if err != nil {
		return false, fmt.Errorf("attach tag %d to %d: %w", tag.ID, referenceID, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return false, nil
	}
	if err := tx.adjustTagCounters(referenceID, tag, 1); err != nil {
		return false, err
	}
	return true, nil
}

// DetachTag removes the link between a tag and a reference and reverses the
// counter updates made by AttachTag. A missing link reports false.
func (tx *Tx) DetachTag(referenceID int64, tag *Tag) (bool, error) {
	result, err := tx.tx.ExecContext(tx.ctx,
		"DELETE FROM media_reference_tag WHERE media_reference_id = ? AND tag_id = ?",
		referenceID, tag.ID)
	if err != nil {
		return false, fmt.Errorf("detach tag %d from %d: %w", tag.ID, referenceID, err)
	}
	n, _ := result.RowsAffected()
	switch n {
	case 0:
		return false, nil
	case 1:
	default:
		return false, errs.Unexpectedf("detached %d links for tag %d on reference %d", n, tag.ID, referenceID)
	}
	if err := tx.adjustTagCounters(referenceID, tag, -1); err != nil {
		return false, err
	}
	return true, nil
}

// adjustTagCounters runs after a link row for tag was inserted (delta 1) or
// deleted (delta -1).
func (tx *Tx) adjustTagCounters(referenceID int64, tag *Tag, delta int) error {
	var viewCount int
	if err := tx.tx.QueryRowContext(tx.ctx,
		"SELECT view_count FROM media_reference WHERE id = ?", referenceID).Scan(&viewCount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errs.NotFoundf("reference %d", referenceID)
		}
		return err
	}
	unread := 0
	if viewCount == 0 {
		unread = delta
	}

	if _, err := tx.tx.ExecContext(tx.ctx, `
		UPDATE tag SET media_reference_count = media_reference_count + ?,
			unread_media_reference_count = unread_media_reference_count + ?
		WHERE id = ?`, delta, unread, tag.ID); err != nil {
		return fmt.Errorf("update tag counters: %w", err)
	}

	// The group counts references, not links: it moves only when this was
	// the reference's first tag in the group or its last.
	var inGroup int
	if err := tx.tx.QueryRowContext(tx.ctx, `
		SELECT COUNT(*) FROM media_reference_tag rt
		JOIN tag t ON t.id = rt.tag_id
		WHERE rt.media_reference_id = ? AND t.tag_group_id = ?`,
		referenceID, tag.GroupID).Scan(&inGroup); err != nil {
		return err
	}
	if (delta > 0 && inGroup == 1) || (delta < 0 && inGroup == 0) {
		if _, err := tx.tx.ExecContext(tx.ctx, `
			UPDATE tag_group SET media_reference_count = media_reference_count + ?,
				unread_media_reference_count = unread_media_reference_count + ?
			WHERE id = ?`, delta, unread, tag.GroupID); err != nil {
			return fmt.Errorf("update tag group counters: %w", err)
		}
	}

	_, err := tx.tx.ExecContext(tx.ctx,
		"UPDATE media_reference SET tag_count = tag_count + ? WHERE id = ?", delta, referenceID)
	return err
}

// shiftUnread moves the unread counters of every tag and group attached to a
// reference whose view_count crossed zero.
func (tx *Tx) shiftUnread(referenceID int64, delta int) error {
	if _, err := tx.tx.ExecContext(tx.ctx, `
		UPDATE tag SET unread_media_reference_count = unread_media_reference_count + ?
		WHERE id IN (SELECT tag_id FROM media_reference_tag WHERE media_reference_id = ?)`,
		delta, referenceID); err != nil {
		return fmt.Errorf("shift tag unread counters: %w", err)
	}
	_, err := tx.tx.ExecContext(tx.ctx, `
		UPDATE tag_group SET unread_media_reference_count = unread_media_reference_count + ?
		WHERE id IN (
			SELECT DISTINCT t.tag_group_id FROM media_reference_tag rt
			JOIN tag t ON t.id = rt.tag_id
			WHERE rt.media_reference_id = ?
		)`, delta, referenceID)
	if err != nil {
		return fmt.Errorf("shift group unread counters: %w", err)
	}
	return nil
}

const tagSelect = `
	SELECT t.id, t.name, g.name, g.id, t.media_reference_count, t.unread_media_reference_count
	FROM tag t JOIN tag_group g ON g.id = t.tag_group_id`

type scanner interface {
	Scan(dest ...any) error
}

func scanTag(row scanner) (*Tag, error) {
	var t Tag
	if err := row.Scan(&t.ID, &t.Name, &t.Group, &t.GroupID, &t.ReferenceCount, &t.UnreadReferenceCount); err != nil {
		return nil, err
	}
	return &t, nil
}

func queryTags(ctx context.Context, q querier, query string, args ...any) ([]Tag, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := []Tag{}
	for rows.Next() {
		tag, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		tags = append(tags, *tag)
	}
	return tags, rows.Err()
}

// FindTag looks up a tag by group and name.
func (d *Database) FindTag(ctx context.Context, group, name string) (*Tag, error) {
	done := observeQuery("find_tag")

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	tag, err := scanTag(d.db.QueryRowContext(ctx, tagSelect+" WHERE g.name = ? AND t.name = ?", group, name))
	done(err)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.NotFoundf("tag %s", Tag{Name: name, Group: group})
	}
	return tag, err
}

// FindTagGroup looks up a tag group by name.
func (d *Database) FindTagGroup(ctx context.Context, name string) (*TagGroup, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var g TagGroup
	err := d.db.QueryRowContext(ctx, `
		SELECT id, name, media_reference_count, unread_media_reference_count
		FROM tag_group WHERE name = ?`, name).Scan(&g.ID, &g.Name, &g.ReferenceCount, &g.UnreadReferenceCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.NotFoundf("tag group %q", name)
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// ListTags returns every tag, or only those in group when group is non-nil,
// ordered by group then name.
func (d *Database) ListTags(ctx context.Context, group *string) ([]Tag, error) {
	done := observeQuery("list_tags")

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var tags []Tag
	var err error
	if group != nil {
		tags, err = queryTags(ctx, d.db, tagSelect+" WHERE g.name = ? ORDER BY t.name", *group)
	} else {
		tags, err = queryTags(ctx, d.db, tagSelect+" ORDER BY g.name, t.name")
	}
	done(err)
	return tags, err
}

// ReferenceTags returns the tags attached to a reference.
func (d *Database) ReferenceTags(ctx context.Context, referenceID int64) ([]Tag, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return referenceTags(ctx, d.db, referenceID)
}

func referenceTags(ctx context.Context, q querier, referenceID int64) ([]Tag, error) {
	return queryTags(ctx, q, tagSelect+`
		JOIN media_reference_tag rt ON rt.tag_id = t.id
		WHERE rt.media_reference_id = ?
		ORDER BY g.name, t.name`, referenceID)
}

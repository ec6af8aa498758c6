package database

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"media-catalog/internal/errs"
)

// Cursor is the keyset position of the last row on a page: its sort value
// and its tie-breaking id.
type Cursor struct {
	Value any
	ID    int64
}

// Encode returns the opaque form handed to callers.
func (c Cursor) Encode() string {
	value := c.Value
	if b, ok := value.([]byte); ok {
		value = string(b)
	}
	data, err := json.Marshal([]any{value, c.ID})
	if err != nil {
		// Values come from SQLite scans and always marshal.
		panic(fmt.Sprintf("encode cursor: %v", err))
	}
	return base64.RawURLEncoding.EncodeToString(data)
}

// DecodeCursor parses a cursor produced by Encode.
func DecodeCursor(s string) (*Cursor, error) {
	data, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, errs.Wrap(errs.BadInput, err, "malformed cursor")
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var pair []any
	if err := dec.Decode(&pair); err != nil {
		return nil, errs.Wrap(errs.BadInput, err, "malformed cursor")
	}
	if len(pair) != 2 {
		return nil, errs.BadInputf("malformed cursor: want 2 elements, got %d", len(pair))
	}

	idNum, ok := pair[1].(json.Number)
	if !ok {
		return nil, errs.BadInputf("malformed cursor: id is not a number")
	}
	id, err := idNum.Int64()
	if err != nil {
		return nil, errs.Wrap(errs.BadInput, err, "malformed cursor id")
	}

	c := &Cursor{ID: id}
	switch v := pair[0].(type) {
	case nil, string:
		c.Value = v
	case json.Number:
		if i, err := v.Int64(); err == nil {
			c.Value = i
		} else if f, err := v.Float64(); err == nil {
			c.Value = f
		} else {
			return nil, errs.Wrap(errs.BadInput, err, "malformed cursor value")
		}
	default:
		return nil, errs.BadInputf("malformed cursor value %T", v)
	}
	return c, nil
}

// SortKey describes a keyset ordering: Column in the given direction with
// NULLs last, then IDColumn in the same direction. The pair is a strict total
// order, so a cursor identifies one position.
type SortKey struct {
	Column   string
	IDColumn string
	Desc     bool
	Nullable bool
}

func (k SortKey) direction() string {
	if k.Desc {
		return "DESC"
	}
	return "ASC"
}

// OrderBy returns the ORDER BY clause body.
func (k SortKey) OrderBy() string {
	dir := k.direction()
	if k.Nullable {
		return fmt.Sprintf("%s IS NULL, %s %s, %s %s", k.Column, k.Column, dir, k.IDColumn, dir)
	}
	return fmt.Sprintf("%s %s, %s %s", k.Column, dir, k.IDColumn, dir)
}

// After returns the predicate selecting rows strictly past c.
//
// For a non-null cursor value the rows past it are those with a later sort
// value, those with a NULL sort value (NULLs sort last), and those with an
// equal value and a later id. Past a NULL cursor value only NULL rows with a
// later id remain.
func (k SortKey) After(c *Cursor) (string, []any, error) {
	cmp := ">"
	if k.Desc {
		cmp = "<"
	}

	if c.Value == nil {
		if !k.Nullable {
			return "", nil, errs.BadInputf("cursor has no value for %s", k.Column)
		}
		return fmt.Sprintf("(%s IS NULL AND %s %s ?)", k.Column, k.IDColumn, cmp), []any{c.ID}, nil
	}

	nulls := ""
	if k.Nullable {
		nulls = fmt.Sprintf(" OR %s IS NULL", k.Column)
	}
	pred := fmt.Sprintf("(%s %s ?%s OR (%s = ? AND %s %s ?))",
		k.Column, cmp, nulls, k.Column, k.IDColumn, cmp)
	return pred, []any{c.Value, c.Value, c.ID}, nil
}

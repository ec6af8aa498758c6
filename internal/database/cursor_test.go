package database

import (
	"encoding/base64"
	"reflect"
	"strings"
	"testing"

	"media-catalog/internal/errs"
)

func TestCursorEncodeDecode(t *testing.T) {
	tests := []struct {
		name string
		in   Cursor
		want Cursor
	}{
		{"integer", Cursor{Value: int64(1700000000), ID: 7}, Cursor{Value: int64(1700000000), ID: 7}},
		{"float", Cursor{Value: 6.763, ID: 3}, Cursor{Value: 6.763, ID: 3}},
		{"null", Cursor{Value: nil, ID: 12}, Cursor{Value: nil, ID: 12}},
		{"bytes become string", Cursor{Value: []byte("abc"), ID: 1}, Cursor{Value: "abc", ID: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded := tt.in.Encode()
			if strings.ContainsAny(encoded, "+/=") {
				t.Errorf("Encode() = %q is not URL safe", encoded)
			}
			got, err := DecodeCursor(encoded)
			if err != nil {
				t.Fatalf("DecodeCursor() error = %v", err)
			}
			if !reflect.DeepEqual(*got, tt.want) {
				t.Errorf("DecodeCursor() = %#v, want %#v", *got, tt.want)
			}
		})
	}
}

func TestDecodeCursor_Malformed(t *testing.T) {
	enc := func(s string) string { return base64.RawURLEncoding.EncodeToString([]byte(s)) }

	tests := map[string]string{
		"not base64":     "!!!",
		"not json":       enc("nope"),
		"object":         enc(`{"a":1}`),
		"one element":    enc(`[1]`),
		"three elements": enc(`[1,2,3]`),
		"string id":      enc(`[1,"x"]`),
		"fractional id":  enc(`[1,2.5]`),
		"array value":    enc(`[[1],2]`),
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := DecodeCursor(in); !errs.Is(err, errs.BadInput) {
				t.Errorf("DecodeCursor(%q) error = %v, want BadInput", in, err)
			}
		})
	}
}

func TestSortKey_OrderBy(t *testing.T) {
	tests := []struct {
		key  SortKey
		want string
	}{
		{SortKey{Column: "r.created_at", IDColumn: "r.id"}, "r.created_at ASC, r.id ASC"},
		{SortKey{Column: "r.created_at", IDColumn: "r.id", Desc: true}, "r.created_at DESC, r.id DESC"},
		{SortKey{Column: "f.duration", IDColumn: "r.id", Nullable: true}, "f.duration IS NULL, f.duration ASC, r.id ASC"},
	}
	for _, tt := range tests {
		if got := tt.key.OrderBy(); got != tt.want {
			t.Errorf("OrderBy() = %q, want %q", got, tt.want)
		}
	}
}

func TestSortKey_After(t *testing.T) {
	tests := []struct {
		name     string
		key      SortKey
		cursor   Cursor
		wantPred string
		wantArgs []any
		wantErr  bool
	}{
		{
			name:     "ascending",
			key:      SortKey{Column: "c", IDColumn: "id"},
			cursor:   Cursor{Value: int64(5), ID: 2},
			wantPred: "(c > ? OR (c = ? AND id > ?))",
			wantArgs: []any{int64(5), int64(5), int64(2)},
		},
		{
			name:     "descending nullable",
			key:      SortKey{Column: "c", IDColumn: "id", Desc: true, Nullable: true},
			cursor:   Cursor{Value: 1.5, ID: 9},
			wantPred: "(c < ? OR c IS NULL OR (c = ? AND id < ?))",
			wantArgs: []any{1.5, 1.5, int64(9)},
		},
		{
			name:     "null cursor value",
			key:      SortKey{Column: "c", IDColumn: "id", Nullable: true},
			cursor:   Cursor{Value: nil, ID: 4},
			wantPred: "(c IS NULL AND id > ?)",
			wantArgs: []any{int64(4)},
		},
		{
			name:    "null cursor on non-null column",
			key:     SortKey{Column: "c", IDColumn: "id"},
			cursor:  Cursor{Value: nil, ID: 4},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pred, args, err := tt.key.After(&tt.cursor)
			if tt.wantErr {
				if !errs.Is(err, errs.BadInput) {
					t.Errorf("After() error = %v, want BadInput", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if pred != tt.wantPred {
				t.Errorf("After() = %q, want %q", pred, tt.wantPred)
			}
			if !reflect.DeepEqual(args, tt.wantArgs) {
				t.Errorf("After() args = %#v, want %#v", args, tt.wantArgs)
			}
		})
	}
}

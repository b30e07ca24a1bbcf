package sheetmap

import (
	"strings"
)

type headerEntry struct {
	column ColumnSchema
	index  int
}

// HeaderLocation maps field names to column indexes. It is built once per
// sheet and never modified afterwards.
type HeaderLocation struct {
	entries []headerEntry // ascending by index
	byName  map[string]int
}

// ResolveHeader lays the columns out left to right. Fields without an alias
// are left out when onlyAlias is set; the remaining columns stay contiguous.
func ResolveHeader(columns []ColumnSchema, onlyAlias bool) *HeaderLocation {
	loc := &HeaderLocation{
		entries: make([]headerEntry, 0, len(columns)),
		byName:  make(map[string]int, len(columns)),
	}
	for _, col := range columns {
		if onlyAlias && col.Alias == "" {
			continue
		}
		idx := len(loc.entries)
		loc.entries = append(loc.entries, headerEntry{column: col, index: idx})
		loc.byName[col.FieldName] = idx
	}
	return loc
}

// MatchHeader builds a location from header titles read out of a document.
// Titles match aliases or field names, ignoring case and surrounding spaces.
// When no title matches, the positional layout of ResolveHeader is used.
func MatchHeader(columns []ColumnSchema, onlyAlias bool, titles []string) *HeaderLocation {
	lookup := make(map[string]ColumnSchema, len(columns)*2)
	for _, col := range columns {
		if col.Alias != "" {
			lookup[normalizeTitle(col.Alias)] = col
		}
		if !onlyAlias || col.Alias == "" {
			if _, taken := lookup[normalizeTitle(col.FieldName)]; !taken {
				lookup[normalizeTitle(col.FieldName)] = col
			}
		}
	}

	loc := &HeaderLocation{byName: make(map[string]int, len(columns))}
	for i, title := range titles {
		col, ok := lookup[normalizeTitle(title)]
		if !ok {
			continue
		}
		if _, dup := loc.byName[col.FieldName]; dup {
			continue
		}
		if onlyAlias && col.Alias == "" {
			continue
		}
		loc.entries = append(loc.entries, headerEntry{column: col, index: i})
		loc.byName[col.FieldName] = i
	}
	if len(loc.entries) == 0 {
		return ResolveHeader(columns, onlyAlias)
	}
	return loc
}

func normalizeTitle(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Index returns the column index of a field.
func (h *HeaderLocation) Index(fieldName string) (int, bool) {
	idx, ok := h.byName[fieldName]
	return idx, ok
}

// Len is the number of mapped columns.
func (h *HeaderLocation) Len() int {
	return len(h.entries)
}

// Columns returns the mapped columns, left to right.
func (h *HeaderLocation) Columns() []ColumnSchema {
	out := make([]ColumnSchema, len(h.entries))
	for i, e := range h.entries {
		out[i] = e.column
	}
	return out
}

// Titles returns the header cells keyed by their column index.
func (h *HeaderLocation) Titles() []Cell {
	out := make([]Cell, len(h.entries))
	for i, e := range h.entries {
		out[i] = Cell{Column: e.index, Value: e.column.Title()}
	}
	return out
}

// HeaderRegistry owns the header location of one sheet. The location can be
// resolved once and the header row written once.
type HeaderRegistry struct {
	loc     *HeaderLocation
	written bool
}

// Resolve builds the header location. Resolving twice is a StateError.
func (r *HeaderRegistry) Resolve(columns []ColumnSchema, onlyAlias bool) (*HeaderLocation, error) {
	if r.loc != nil {
		return nil, &StateError{Op: "resolve header", Reason: "header already resolved"}
	}
	r.loc = ResolveHeader(columns, onlyAlias)
	return r.loc, nil
}

// Location returns the resolved location.
func (r *HeaderRegistry) Location() (*HeaderLocation, error) {
	if r.loc == nil {
		return nil, &StateError{Op: "header location", Reason: "header not resolved"}
	}
	return r.loc, nil
}

// Written reports whether the header row has been emitted.
func (r *HeaderRegistry) Written() bool {
	return r.written
}

func (r *HeaderRegistry) markWritten() error {
	if r.loc == nil {
		return &StateError{Op: "write header", Reason: "header not resolved"}
	}
	if r.written {
		return &StateError{Op: "write header", Reason: "header row already written"}
	}
	r.written = true
	return nil
}

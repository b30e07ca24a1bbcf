package sheetmap

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Cell is one value placed at a 0-based column of a row.
type Cell struct {
	Column  int
	Value   interface{}
	StyleID int
}

type binding[T any] struct {
	field  *Field[T]
	column int // -1 when the field has no column in the sheet
}

// Codec converts records of type T to cells and back through a frozen
// header location.
type Codec[T any] struct {
	encodePlan []binding[T] // ascending by column
	decodePlan []binding[T] // every schema field, in ordinal order
}

// NewCodec precomputes the column bindings of every field.
func NewCodec[T any](s *Schema[T], loc *HeaderLocation) *Codec[T] {
	c := &Codec[T]{decodePlan: make([]binding[T], 0, len(s.fields))}
	for _, e := range loc.entries {
		if f := s.field(e.column.FieldName); f != nil {
			c.encodePlan = append(c.encodePlan, binding[T]{field: f, column: e.index})
		}
	}
	for _, f := range s.fields {
		idx, ok := loc.Index(f.col.FieldName)
		if !ok {
			idx = -1
		}
		c.decodePlan = append(c.decodePlan, binding[T]{field: f, column: idx})
	}
	return c
}

// Encode returns the record's cells ordered by column.
func (c *Codec[T]) Encode(rec *T) []Cell {
	cells := make([]Cell, len(c.encodePlan))
	for i, b := range c.encodePlan {
		cells[i] = Cell{Column: b.column, Value: b.field.encode(rec)}
	}
	return cells
}

// Decode builds a record from the raw values of one source row. row is the
// 1-based row number of the source document and is carried into every
// ValidationError and ConversionError. All field failures of the row are
// joined into the returned error.
func (c *Codec[T]) Decode(values []string, row int) (T, error) {
	var rec T
	var errs []error
	for _, b := range c.decodePlan {
		raw := ""
		if b.column >= 0 && b.column < len(values) {
			raw = values[b.column]
		}
		if strings.TrimSpace(raw) == "" {
			if b.field.col.Required {
				errs = append(errs, &ValidationError{Row: row, Alias: b.field.col.Title()})
			}
			continue
		}
		// strings keep their padding; every other kind is parsed trimmed
		if b.field.col.Kind != KindString {
			raw = strings.TrimSpace(raw)
		}
		if err := b.field.decode(&rec, raw); err != nil {
			errs = append(errs, &ConversionError{Row: row, Alias: b.field.col.Title(), Value: raw, Err: err})
		}
	}
	return rec, errors.Join(errs...)
}

func parseInt(raw string) (int, error) {
	if n, err := strconv.Atoi(raw); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number")
	}
	if f != math.Trunc(f) || f > math.MaxInt64 || f < math.MinInt64 {
		return 0, fmt.Errorf("not an integer")
	}
	return int(f), nil
}

func parseFloat(raw string) (float64, error) {
	f, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
	if err != nil {
		return 0, fmt.Errorf("not a number")
	}
	return f, nil
}

func parseBool(raw string) (bool, error) {
	switch strings.ToLower(raw) {
	case "yes", "y":
		return true, nil
	case "no", "n":
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("not a boolean")
	}
	return b, nil
}

func parseTime(raw, layout string) (time.Time, error) {
	if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
		return t, nil
	}
	serial, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("does not match layout %q", layout)
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

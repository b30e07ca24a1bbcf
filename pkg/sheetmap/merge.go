package sheetmap

import (
	"fmt"
)

// MergeRegion is a rectangular, inclusive, 0-based cell range rendered as a
// single cell. Content, when set, is written to the top-left cell.
type MergeRegion struct {
	FirstRow       int
	LastRow        int
	FirstColumn    int
	LastColumn     int
	Content        interface{}
	UseHeaderStyle bool
}

func (r MergeRegion) String() string {
	from, err1 := cellName(r.FirstColumn, r.FirstRow)
	to, err2 := cellName(r.LastColumn, r.LastRow)
	if err1 != nil || err2 != nil {
		return fmt.Sprintf("R%dC%d:R%dC%d", r.FirstRow, r.FirstColumn, r.LastRow, r.LastColumn)
	}
	return from + ":" + to
}

func (r MergeRegion) validate() error {
	if r.FirstRow < 0 || r.FirstColumn < 0 || r.LastRow < r.FirstRow || r.LastColumn < r.FirstColumn {
		return fmt.Errorf("%w: rows %d..%d, columns %d..%d", ErrInvalidRegion, r.FirstRow, r.LastRow, r.FirstColumn, r.LastColumn)
	}
	return nil
}

func (r MergeRegion) sameBounds(o MergeRegion) bool {
	return r.FirstRow == o.FirstRow && r.LastRow == o.LastRow &&
		r.FirstColumn == o.FirstColumn && r.LastColumn == o.LastColumn
}

func (r MergeRegion) overlaps(o MergeRegion) bool {
	return r.FirstRow <= o.LastRow && o.FirstRow <= r.LastRow &&
		r.FirstColumn <= o.LastColumn && o.FirstColumn <= r.LastColumn
}

func (r MergeRegion) singleCell() bool {
	return r.FirstRow == r.LastRow && r.FirstColumn == r.LastColumn
}

// MergeEngine applies merge regions to a sheet: geometry goes to the
// backend, content and styles go to the row store.
type MergeEngine struct {
	backend     SheetBackend
	store       *WindowedRowStore
	headerStyle int
	bodyStyle   int
	applied     []MergeRegion
}

func NewMergeEngine(backend SheetBackend, store *WindowedRowStore, headerStyle, bodyStyle int) *MergeEngine {
	return &MergeEngine{backend: backend, store: store, headerStyle: headerStyle, bodyStyle: bodyStyle}
}

// Applied returns the regions applied so far.
func (m *MergeEngine) Applied() []MergeRegion {
	return append([]MergeRegion(nil), m.applied...)
}

// Apply merges the region. Re-applying identical bounds keeps the geometry
// and overwrites the content; any other overlap is a MergeConflictError.
func (m *MergeEngine) Apply(r MergeRegion) error {
	if err := r.validate(); err != nil {
		return err
	}
	repeat := false
	for _, prev := range m.applied {
		if prev.sameBounds(r) {
			repeat = true
			break
		}
		if prev.overlaps(r) {
			return &MergeConflictError{Region: r, Existing: prev}
		}
	}
	if !repeat {
		if !r.singleCell() {
			if err := m.backend.MergeCell(r); err != nil {
				return &IOError{Op: "merge cells " + r.String(), Err: err}
			}
		}
		m.applied = append(m.applied, r)
	}

	style := m.bodyStyle
	if r.UseHeaderStyle && m.headerStyle != 0 {
		style = m.headerStyle
	}
	if r.Content != nil {
		if err := m.store.SetCell(r.FirstRow, Cell{Column: r.FirstColumn, Value: r.Content, StyleID: style}); err != nil {
			return err
		}
	}
	for row := r.FirstRow; row <= r.LastRow; row++ {
		for col := r.FirstColumn; col <= r.LastColumn; col++ {
			if err := m.store.SetStyle(row, col, style); err != nil {
				return err
			}
		}
	}
	return nil
}

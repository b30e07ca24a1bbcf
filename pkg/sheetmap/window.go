package sheetmap

import (
	"errors"
	"fmt"
	"slices"
)

const (
	// DefaultWindowSize is the number of rows kept resident for ordinary
	// streaming export.
	DefaultWindowSize = 500
	// Unbounded keeps every row resident. It is forced whenever merge
	// regions are in play, since a merge may revisit any earlier row.
	Unbounded = -1
)

// Row is one sheet row with its 0-based index.
type Row struct {
	Index int
	Cells []Cell
}

func (r *Row) put(cell Cell) {
	for i := range r.Cells {
		if r.Cells[i].Column == cell.Column {
			r.Cells[i] = cell
			return
		}
	}
	r.Cells = append(r.Cells, cell)
	slices.SortFunc(r.Cells, func(a, b Cell) int { return a.Column - b.Column })
}

// WindowedRowStore keeps at most windowSize rows in memory. Once the window
// is exceeded the lowest rows are written to spill storage and can no longer
// be modified.
type WindowedRowStore struct {
	windowSize int
	rows       map[int]*Row
	order      []int // resident row indexes, ascending
	boundary   int   // rows below this index have been spilled

	newSpill func() (Spill, error)
	spill    Spill
	spilled  int
	peak     int
	closed   bool
}

// NewWindowedRowStore creates a store. windowSize must be positive or
// Unbounded. newSpill is called on the first eviction.
func NewWindowedRowStore(windowSize int, newSpill func() (Spill, error)) (*WindowedRowStore, error) {
	if windowSize == 0 || windowSize < Unbounded {
		return nil, fmt.Errorf("window size must be positive or %d, got %d", Unbounded, windowSize)
	}
	if newSpill == nil && windowSize != Unbounded {
		return nil, errors.New("bounded window requires spill storage")
	}
	return &WindowedRowStore{
		windowSize: windowSize,
		rows:       make(map[int]*Row),
		newSpill:   newSpill,
	}, nil
}

func (s *WindowedRowStore) WindowSize() int { return s.windowSize }

// Resident is the number of rows currently held in memory.
func (s *WindowedRowStore) Resident() int { return len(s.order) }

// PeakResident is the highest Resident value observed.
func (s *WindowedRowStore) PeakResident() int { return s.peak }

// Spilled is the number of rows written to spill storage.
func (s *WindowedRowStore) Spilled() int { return s.spilled }

// Append stores a row. Cells of a row that is already resident are merged
// into it column by column.
func (s *WindowedRowStore) Append(row Row) error {
	r, err := s.resident(row.Index, "append row")
	if err != nil {
		return err
	}
	for _, c := range row.Cells {
		r.put(c)
	}
	return s.evict()
}

// SetCell overwrites a single cell.
func (s *WindowedRowStore) SetCell(row int, cell Cell) error {
	r, err := s.resident(row, "set cell")
	if err != nil {
		return err
	}
	r.put(cell)
	return s.evict()
}

// SetStyle changes the style of a cell, keeping its value.
func (s *WindowedRowStore) SetStyle(row, column, styleID int) error {
	r, err := s.resident(row, "set style")
	if err != nil {
		return err
	}
	for i := range r.Cells {
		if r.Cells[i].Column == column {
			r.Cells[i].StyleID = styleID
			return s.evict()
		}
	}
	r.put(Cell{Column: column, StyleID: styleID})
	return s.evict()
}

func (s *WindowedRowStore) resident(index int, op string) (*Row, error) {
	if s.closed {
		return nil, &StateError{Op: op, Reason: "row store is closed"}
	}
	if index < 0 {
		return nil, &StateError{Op: op, Reason: fmt.Sprintf("negative row %d", index)}
	}
	if index < s.boundary {
		return nil, &StateError{Op: op, Reason: fmt.Sprintf("row %d was already flushed out of the window (boundary %d)", index, s.boundary)}
	}
	if r, ok := s.rows[index]; ok {
		return r, nil
	}
	r := &Row{Index: index}
	s.rows[index] = r
	pos, _ := slices.BinarySearch(s.order, index)
	s.order = slices.Insert(s.order, pos, index)
	return r, nil
}

// evict restores the window bound after a write.
func (s *WindowedRowStore) evict() error {
	if s.windowSize != Unbounded {
		if err := s.spillOldest(len(s.order) - s.windowSize); err != nil {
			return err
		}
	}
	if len(s.order) > s.peak {
		s.peak = len(s.order)
	}
	return nil
}

// FlushWindow writes every resident row to spill storage. It is a no-op for
// an unbounded store.
func (s *WindowedRowStore) FlushWindow() error {
	if s.closed {
		return &StateError{Op: "flush window", Reason: "row store is closed"}
	}
	if s.windowSize == Unbounded {
		return nil
	}
	return s.spillOldest(len(s.order))
}

func (s *WindowedRowStore) spillOldest(n int) error {
	if n <= 0 {
		return nil
	}
	if s.spill == nil {
		sp, err := s.newSpill()
		if err != nil {
			return &IOError{Op: "create spill storage", Err: err}
		}
		s.spill = sp
	}
	// A row leaves order only once it is safely in spill storage, so a
	// failed write keeps it resident.
	for ; n > 0; n-- {
		idx := s.order[0]
		if err := s.spill.Write(*s.rows[idx]); err != nil {
			return &IOError{Op: "spill row", Err: err}
		}
		s.order = s.order[1:]
		delete(s.rows, idx)
		s.boundary = idx + 1
		s.spilled++
	}
	return nil
}

// Drain hands every row to sink in ascending order: spilled rows first, then
// the resident ones. The store accepts no writes afterwards.
func (s *WindowedRowStore) Drain(sink func(Row) error) error {
	if s.closed {
		return &StateError{Op: "drain", Reason: "row store is closed"}
	}
	if s.spill != nil {
		if err := s.spill.Replay(sink); err != nil {
			return err
		}
	}
	for _, idx := range s.order {
		if err := sink(*s.rows[idx]); err != nil {
			return err
		}
	}
	if len(s.order) > 0 {
		s.boundary = s.order[len(s.order)-1] + 1
	}
	s.rows = make(map[int]*Row)
	s.order = nil
	return nil
}

// Close releases the spill storage. It is safe to call more than once.
func (s *WindowedRowStore) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.rows = nil
	s.order = nil
	if s.spill == nil {
		return nil
	}
	return s.spill.Close()
}

package sheetmap

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// WriterState is the lifecycle state of a SheetWriter.
type WriterState int

const (
	StateFresh WriterState = iota
	StateHeaderWritten
	StateDataWriting
	StateClosed
)

func (s WriterState) String() string {
	switch s {
	case StateFresh:
		return "fresh"
	case StateHeaderWritten:
		return "header-written"
	case StateDataWriting:
		return "data-writing"
	case StateClosed:
		return "closed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

type sheetHandle interface {
	Name() string
	Close() error
	Discard() error
}

// SheetWriter writes records of type T into one sheet. It is owned by a
// single goroutine; only Cursor().Current() may be read concurrently.
type SheetWriter[T any] struct {
	name    string
	schema  *Schema[T]
	headers HeaderRegistry
	loc     *HeaderLocation
	codec   *Codec[T]
	cursor  RowCursor
	store   *WindowedRowStore
	merges  *MergeEngine
	backend SheetBackend
	log     *zerolog.Logger

	headerStyle    int
	bodyStyle      int
	dropDownRows   int
	suppressHeader bool

	state      WriterState
	titlesDone bool
	headerRow  int
	firstData  int
	lastData   int
	rows       int
}

// AddSheet creates the schema's sheet in the workbook and returns its
// writer. The header location is resolved here, before any row is written.
func AddSheet[T any](ctx context.Context, wb *Workbook, schema *Schema[T], opts ...SheetOption) (*SheetWriter[T], error) {
	if wb.closed {
		return nil, &StateError{Op: "add sheet", Reason: "workbook is closed"}
	}
	sc := sheetConfig{windowSize: wb.cfg.windowSize}
	for _, opt := range opts {
		opt(&sc)
	}
	if sc.merges {
		sc.windowSize = Unbounded
	}

	name := schema.SheetName()
	backend, err := wb.prepareSheet(name)
	if err != nil {
		return nil, err
	}

	styles := schema.settings.styles.over(wb.cfg.styles.over(DefaultStyles))
	headerStyle, err := wb.styles.id(styles.Header)
	if err != nil {
		return nil, fmt.Errorf("register header style: %w", err)
	}
	bodyStyle, err := wb.styles.id(styles.Body)
	if err != nil {
		return nil, fmt.Errorf("register body style: %w", err)
	}

	spillDir := wb.cfg.spillDir
	store, err := NewWindowedRowStore(sc.windowSize, func() (Spill, error) {
		return NewFileSpill(spillDir)
	})
	if err != nil {
		return nil, err
	}

	w := &SheetWriter[T]{
		name:           name,
		schema:         schema,
		store:          store,
		backend:        backend,
		log:            zerolog.Ctx(ctx),
		headerStyle:    headerStyle,
		bodyStyle:      bodyStyle,
		dropDownRows:   wb.cfg.dropDownRows,
		suppressHeader: sc.suppressHeader,
		headerRow:      -1,
		firstData:      -1,
		lastData:       -1,
	}
	loc, err := w.headers.Resolve(schema.Columns(), schema.OnlyAlias())
	if err != nil {
		return nil, err
	}
	w.loc = loc
	w.codec = NewCodec(schema, loc)
	w.merges = NewMergeEngine(backend, store, headerStyle, bodyStyle)

	for _, e := range loc.entries {
		if e.column.Width > 0 {
			if err := backend.SetColWidth(e.index, e.column.Width); err != nil {
				_ = store.Close()
				return nil, err
			}
		}
	}
	wb.register(w)
	w.log.Debug().Str("sheet", name).Int("window", sc.windowSize).Int("columns", loc.Len()).Msg("sheet opened")
	return w, nil
}

func (w *SheetWriter[T]) Name() string              { return w.name }
func (w *SheetWriter[T]) State() WriterState        { return w.state }
func (w *SheetWriter[T]) Cursor() *RowCursor        { return &w.cursor }
func (w *SheetWriter[T]) Location() *HeaderLocation { return w.loc }

// Rows is the number of data rows written.
func (w *SheetWriter[T]) Rows() int { return w.rows }

// Store exposes the row window, mainly for inspection.
func (w *SheetWriter[T]) Store() *WindowedRowStore { return w.store }

func (w *SheetWriter[T]) checkOpen(op string) error {
	if w.state == StateClosed {
		return &StateError{Op: op, Reason: fmt.Sprintf("sheet %q is closed", w.name)}
	}
	return nil
}

// writeTitles places the sheet title and the per-field captions above the
// header, each on its own row. Title merges do not need an unbounded window:
// they are written before any data row and never revisited.
func (w *SheetWriter[T]) writeTitles() error {
	if w.titlesDone {
		return nil
	}
	w.titlesDone = true

	if text, span := w.schema.Title(); text != "" {
		row := w.cursor.Current()
		if err := w.merges.Apply(MergeRegion{
			FirstRow: row, LastRow: row,
			FirstColumn: 0, LastColumn: span - 1,
			Content: text, UseHeaderStyle: true,
		}); err != nil {
			return err
		}
		w.cursor.Skip(1)
	}

	captions := w.schema.Captions()
	if len(captions) == 0 {
		return nil
	}
	row := w.cursor.Current()
	placed := false
	for _, c := range captions {
		idx, ok := w.loc.Index(c.FieldName)
		if !ok {
			continue
		}
		if err := w.merges.Apply(MergeRegion{
			FirstRow: row, LastRow: row,
			FirstColumn: idx, LastColumn: idx + c.Span - 1,
			Content: c.Text, UseHeaderStyle: true,
		}); err != nil {
			return err
		}
		placed = true
	}
	if placed {
		w.cursor.Skip(1)
	}
	return nil
}

// WriteHeader writes the title rows, if any, and the header row.
func (w *SheetWriter[T]) WriteHeader() error {
	if err := w.checkOpen("write header"); err != nil {
		return err
	}
	if w.state != StateFresh {
		return &StateError{Op: "write header", Reason: fmt.Sprintf("not allowed in state %s", w.state)}
	}
	if err := w.writeTitles(); err != nil {
		return err
	}
	if err := w.headers.markWritten(); err != nil {
		return err
	}
	row := w.cursor.Advance()
	cells := w.loc.Titles()
	for i := range cells {
		cells[i].StyleID = w.headerStyle
	}
	if err := w.store.Append(Row{Index: row, Cells: cells}); err != nil {
		return err
	}
	w.headerRow = row
	if w.schema.FreezeHeader() {
		if err := w.backend.SetPanes(0, row+1); err != nil {
			return err
		}
	}
	w.state = StateHeaderWritten
	return nil
}

func (w *SheetWriter[T]) begin() error {
	if w.suppressHeader {
		if err := w.writeTitles(); err != nil {
			return err
		}
		w.state = StateDataWriting
		return nil
	}
	return w.WriteHeader()
}

// EnsureHeader emits the header row if nothing has been written yet. An
// empty record collection still produces its header this way.
func (w *SheetWriter[T]) EnsureHeader() error {
	if err := w.checkOpen("ensure header"); err != nil {
		return err
	}
	if w.state == StateFresh {
		return w.begin()
	}
	return nil
}

// WriteRow writes one record at the cursor and advances it. The header is
// written first when the writer is still fresh.
func (w *SheetWriter[T]) WriteRow(rec T) error {
	return w.WriteRecord(&rec)
}

func (w *SheetWriter[T]) WriteRecord(rec *T) error {
	if err := w.checkOpen("write row"); err != nil {
		return err
	}
	if w.state == StateFresh {
		if err := w.begin(); err != nil {
			return err
		}
	}
	cells := w.codec.Encode(rec)
	for i := range cells {
		cells[i].StyleID = w.bodyStyle
	}
	row := w.cursor.Advance()
	if err := w.store.Append(Row{Index: row, Cells: cells}); err != nil {
		return err
	}
	if w.firstData < 0 {
		w.firstData = row
	}
	w.lastData = row
	w.rows++
	w.state = StateDataWriting
	return nil
}

// WriteRows writes every record in order.
func (w *SheetWriter[T]) WriteRows(recs []T) error {
	for i := range recs {
		if err := w.WriteRecord(&recs[i]); err != nil {
			return err
		}
	}
	return nil
}

// ApplyMerge merges a region without moving the cursor.
func (w *SheetWriter[T]) ApplyMerge(r MergeRegion) error {
	if err := w.checkOpen("merge"); err != nil {
		return err
	}
	return w.merges.Apply(r)
}

// Merge merges a region and, when it carries content, advances the cursor
// by one row so the next write lands below it.
func (w *SheetWriter[T]) Merge(r MergeRegion) error {
	if err := w.ApplyMerge(r); err != nil {
		return err
	}
	if r.Content != nil {
		w.cursor.Advance()
	}
	return nil
}

// MergeRow merges columns 0..lastColumn of the cursor row.
func (w *SheetWriter[T]) MergeRow(lastColumn int, content interface{}, headerStyle bool) error {
	row := w.cursor.Current()
	return w.Merge(MergeRegion{
		FirstRow: row, LastRow: row,
		FirstColumn: 0, LastColumn: lastColumn,
		Content: content, UseHeaderStyle: headerStyle,
	})
}

// SetColumnWidth sets the width of a 0-based column in characters.
func (w *SheetWriter[T]) SetColumnWidth(col int, width float64) error {
	if err := w.checkOpen("set column width"); err != nil {
		return err
	}
	if width < 0 || width > MaxColumnWidth {
		return fmt.Errorf("column width %v outside [0, %d]", width, MaxColumnWidth)
	}
	return w.backend.SetColWidth(col, width)
}

// FreezePane freezes the first col columns and row rows.
func (w *SheetWriter[T]) FreezePane(col, row int) error {
	if err := w.checkOpen("freeze pane"); err != nil {
		return err
	}
	return w.backend.SetPanes(col, row)
}

// AddDropDown restricts a 0-based cell range of one column to options.
func (w *SheetWriter[T]) AddDropDown(firstRow, lastRow, col int, options ...string) error {
	if err := w.checkOpen("add drop-down"); err != nil {
		return err
	}
	return w.backend.AddDropDown(firstRow, lastRow, col, options)
}

func (w *SheetWriter[T]) applyDropDowns() error {
	first := w.headerRow + 1
	if w.headerRow < 0 {
		first = w.firstData
		if first < 0 {
			first = w.cursor.Current()
		}
	}
	last := first + w.dropDownRows - 1
	if w.lastData > last {
		last = w.lastData
	}
	for _, e := range w.loc.entries {
		if len(e.column.Options) == 0 {
			continue
		}
		if err := w.backend.AddDropDown(first, last, e.index, e.column.Options); err != nil {
			return fmt.Errorf("drop-down for %s: %w", e.column.Title(), err)
		}
	}
	return nil
}

// Close drains the row window into the backend, flushes it and disposes
// spill storage. Closing twice is a no-op.
func (w *SheetWriter[T]) Close() error {
	if w.state == StateClosed {
		return nil
	}
	w.state = StateClosed

	var errs []error
	if err := w.applyDropDowns(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		err := w.store.Drain(func(r Row) error {
			if err := w.backend.SetRow(r.Index, r.Cells); err != nil {
				return &IOError{Op: fmt.Sprintf("write row %d of sheet %q", r.Index+1, w.name), Err: err}
			}
			return nil
		})
		if err != nil {
			errs = append(errs, err)
		} else if err := w.backend.Flush(); err != nil {
			errs = append(errs, &IOError{Op: fmt.Sprintf("flush sheet %q", w.name), Err: err})
		}
	}
	if err := w.store.Close(); err != nil {
		errs = append(errs, &IOError{Op: "dispose spill storage", Err: err})
	}

	w.log.Debug().
		Str("sheet", w.name).
		Int("rows", w.rows).
		Int("spilled", w.store.Spilled()).
		Int("peak_resident", w.store.PeakResident()).
		Msg("sheet closed")
	return errors.Join(errs...)
}

// Discard closes the writer without writing anything further and disposes
// spill storage.
func (w *SheetWriter[T]) Discard() error {
	w.state = StateClosed
	return w.store.Close()
}

package sheetmap

import (
	"sort"

	"github.com/xuri/excelize/v2"
)

// SheetBackend is the encoding capability a sheet is written through. All
// coordinates are 0-based.
type SheetBackend interface {
	SetRow(row int, cells []Cell) error
	MergeCell(r MergeRegion) error
	SetColWidth(col int, width float64) error
	SetPanes(col, row int) error
	AddDropDown(firstRow, lastRow, col int, options []string) error
	Flush() error
}

func cellName(col, row int) (string, error) {
	return excelize.CoordinatesToCellName(col+1, row+1)
}

func freezePanes(col, row int) (*excelize.Panes, error) {
	topLeft, err := cellName(col, row)
	if err != nil {
		return nil, err
	}
	pane := "bottomRight"
	switch {
	case col == 0:
		pane = "bottomLeft"
	case row == 0:
		pane = "topRight"
	}
	return &excelize.Panes{
		Freeze:      true,
		XSplit:      col,
		YSplit:      row,
		TopLeftCell: topLeft,
		ActivePane:  pane,
	}, nil
}

func dropDown(firstRow, lastRow, col int, options []string) (*excelize.DataValidation, error) {
	from, err := cellName(col, firstRow)
	if err != nil {
		return nil, err
	}
	to, err := cellName(col, lastRow)
	if err != nil {
		return nil, err
	}
	dv := excelize.NewDataValidation(true)
	dv.Sqref = from + ":" + to
	if err := dv.SetDropList(options); err != nil {
		return nil, err
	}
	dv.SetError(excelize.DataValidationErrorStyleStop, "Invalid value", "Pick a value from the list")
	return dv, nil
}

// streamBackend writes through an excelize StreamWriter. Rows must arrive in
// ascending order. Column widths and panes are held back until the first row
// since the stream writer rejects them afterwards.
type streamBackend struct {
	file    *excelize.File
	sheet   string
	sw      *excelize.StreamWriter
	widths  map[int]float64
	panes   *excelize.Panes
	started bool
}

func newStreamBackend(f *excelize.File, sheet string) (*streamBackend, error) {
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return nil, err
	}
	return &streamBackend{file: f, sheet: sheet, sw: sw, widths: make(map[int]float64)}, nil
}

func (b *streamBackend) start() error {
	if b.started {
		return nil
	}
	b.started = true
	cols := make([]int, 0, len(b.widths))
	for c := range b.widths {
		cols = append(cols, c)
	}
	sort.Ints(cols)
	for _, c := range cols {
		if err := b.sw.SetColWidth(c+1, c+1, b.widths[c]); err != nil {
			return err
		}
	}
	if b.panes != nil {
		return b.sw.SetPanes(b.panes)
	}
	return nil
}

func (b *streamBackend) SetRow(row int, cells []Cell) error {
	if err := b.start(); err != nil {
		return err
	}
	if len(cells) == 0 {
		return nil
	}
	values := make([]interface{}, cells[len(cells)-1].Column+1)
	for _, c := range cells {
		values[c.Column] = excelize.Cell{StyleID: c.StyleID, Value: c.Value}
	}
	name, err := cellName(0, row)
	if err != nil {
		return err
	}
	return b.sw.SetRow(name, values)
}

func (b *streamBackend) MergeCell(r MergeRegion) error {
	from, err := cellName(r.FirstColumn, r.FirstRow)
	if err != nil {
		return err
	}
	to, err := cellName(r.LastColumn, r.LastRow)
	if err != nil {
		return err
	}
	return b.sw.MergeCell(from, to)
}

func (b *streamBackend) SetColWidth(col int, width float64) error {
	if b.started {
		return &StateError{Op: "set column width", Reason: "rows already streamed"}
	}
	b.widths[col] = width
	return nil
}

func (b *streamBackend) SetPanes(col, row int) error {
	if b.started {
		return &StateError{Op: "set panes", Reason: "rows already streamed"}
	}
	p, err := freezePanes(col, row)
	if err != nil {
		return err
	}
	b.panes = p
	return nil
}

// AddDropDown registers the validation on the worksheet the stream writer
// was opened on; it is serialized when the stream is flushed.
func (b *streamBackend) AddDropDown(firstRow, lastRow, col int, options []string) error {
	dv, err := dropDown(firstRow, lastRow, col, options)
	if err != nil {
		return err
	}
	return b.file.AddDataValidation(b.sheet, dv)
}

func (b *streamBackend) Flush() error {
	if err := b.start(); err != nil {
		return err
	}
	return b.sw.Flush()
}

// randomBackend writes cell by cell through the workbook API. It accepts
// rows in any order and suits sheets that are filled into an existing
// workbook.
type randomBackend struct {
	file  *excelize.File
	sheet string
}

func newRandomBackend(f *excelize.File, sheet string) *randomBackend {
	return &randomBackend{file: f, sheet: sheet}
}

func (b *randomBackend) SetRow(row int, cells []Cell) error {
	for _, c := range cells {
		name, err := cellName(c.Column, row)
		if err != nil {
			return err
		}
		if c.Value != nil {
			if err := b.file.SetCellValue(b.sheet, name, c.Value); err != nil {
				return err
			}
		}
		if c.StyleID != 0 {
			if err := b.file.SetCellStyle(b.sheet, name, name, c.StyleID); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *randomBackend) MergeCell(r MergeRegion) error {
	from, err := cellName(r.FirstColumn, r.FirstRow)
	if err != nil {
		return err
	}
	to, err := cellName(r.LastColumn, r.LastRow)
	if err != nil {
		return err
	}
	return b.file.MergeCell(b.sheet, from, to)
}

func (b *randomBackend) SetColWidth(col int, width float64) error {
	name, err := excelize.ColumnNumberToName(col + 1)
	if err != nil {
		return err
	}
	return b.file.SetColWidth(b.sheet, name, name, width)
}

func (b *randomBackend) SetPanes(col, row int) error {
	p, err := freezePanes(col, row)
	if err != nil {
		return err
	}
	return b.file.SetPanes(b.sheet, p)
}

func (b *randomBackend) AddDropDown(firstRow, lastRow, col int, options []string) error {
	dv, err := dropDown(firstRow, lastRow, col, options)
	if err != nil {
		return err
	}
	return b.file.AddDataValidation(b.sheet, dv)
}

func (b *randomBackend) Flush() error { return nil }

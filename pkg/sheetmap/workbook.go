package sheetmap

import (
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const defaultSheet = "Sheet1"

// Workbook owns the excelize file and every sheet writer opened on it.
type Workbook struct {
	file    *excelize.File
	cfg     *config
	styles  *styleCache
	sheets  []sheetHandle
	names   map[string]bool
	renamed bool
	closed  bool
}

// NewWorkbook creates an empty workbook.
func NewWorkbook(opts ...Option) *Workbook {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	f := excelize.NewFile()
	return &Workbook{
		file:   f,
		cfg:    cfg,
		styles: newStyleCache(f),
		names:  make(map[string]bool),
	}
}

// File exposes the underlying excelize file.
func (wb *Workbook) File() *excelize.File {
	return wb.file
}

// prepareSheet creates the named sheet, reusing the default sheet for the
// first one, and returns the backend to write it through.
func (wb *Workbook) prepareSheet(name string) (SheetBackend, error) {
	if name == "" {
		return nil, &StateError{Op: "add sheet", Reason: "sheet name is empty"}
	}
	if wb.names[name] {
		return nil, &StateError{Op: "add sheet", Reason: fmt.Sprintf("sheet %q already written in this workbook", name)}
	}
	if !wb.renamed {
		wb.renamed = true
		if name != defaultSheet {
			if err := wb.file.SetSheetName(defaultSheet, name); err != nil {
				return nil, fmt.Errorf("rename default sheet: %w", err)
			}
		}
	} else {
		idx, err := wb.file.GetSheetIndex(name)
		if err != nil {
			return nil, err
		}
		if idx == -1 {
			if _, err := wb.file.NewSheet(name); err != nil {
				return nil, fmt.Errorf("create sheet %s: %w", name, err)
			}
		}
	}
	wb.names[name] = true

	if wb.cfg.randomAccess {
		return newRandomBackend(wb.file, name), nil
	}
	sb, err := newStreamBackend(wb.file, name)
	if err != nil {
		return nil, fmt.Errorf("failed to create stream writer for sheet %s: %w", name, err)
	}
	return sb, nil
}

func (wb *Workbook) register(s sheetHandle) {
	wb.sheets = append(wb.sheets, s)
}

// Write closes every open sheet and serializes the workbook to out.
func (wb *Workbook) Write(out io.Writer) error {
	if wb.closed {
		return &StateError{Op: "write workbook", Reason: "workbook is closed"}
	}
	for _, s := range wb.sheets {
		if err := s.Close(); err != nil {
			return err
		}
	}
	if err := wb.file.Write(out); err != nil {
		return &IOError{Op: "write workbook", Err: err}
	}
	return nil
}

// Close discards any sheet still open, disposing its spill storage, then
// releases the excelize file and its temp files. It is safe to call more
// than once and after Write.
func (wb *Workbook) Close() error {
	if wb.closed {
		return nil
	}
	wb.closed = true
	var errs []error
	for _, s := range wb.sheets {
		if err := s.Discard(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := wb.file.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

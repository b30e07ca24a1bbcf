package sheetmap

import (
	"bufio"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
)

// Spill is secondary storage for rows evicted from the window. Rows arrive
// in ascending order and are replayed in the same order.
type Spill interface {
	Write(Row) error
	Replay(fn func(Row) error) error
	Close() error
}

// FileSpill keeps evicted rows in a zstd-compressed temp file. The file is
// removed by Close.
type FileSpill struct {
	file    *os.File
	zw      *zstd.Encoder
	buf     *bufio.Writer
	enc     *gob.Encoder
	count   int
	sealed  bool
	removed bool
}

// NewFileSpill creates the temp file in dir, or the system temp dir when dir
// is empty.
func NewFileSpill(dir string) (*FileSpill, error) {
	f, err := os.CreateTemp(dir, "sheetmap-spill-*.zst")
	if err != nil {
		return nil, err
	}
	zw, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return nil, err
	}
	buf := bufio.NewWriter(zw)
	return &FileSpill{file: f, zw: zw, buf: buf, enc: gob.NewEncoder(buf)}, nil
}

// Path is the location of the temp file.
func (s *FileSpill) Path() string {
	return s.file.Name()
}

func (s *FileSpill) Write(row Row) error {
	if s.sealed {
		return &StateError{Op: "spill row", Reason: "spill storage already replayed"}
	}
	if err := s.enc.Encode(toSpillRow(row)); err != nil {
		return err
	}
	s.count++
	return nil
}

func (s *FileSpill) seal() error {
	if s.sealed {
		return nil
	}
	s.sealed = true
	if err := s.buf.Flush(); err != nil {
		return err
	}
	return s.zw.Close()
}

// Replay decodes every spilled row in write order.
func (s *FileSpill) Replay(fn func(Row) error) error {
	if err := s.seal(); err != nil {
		return &IOError{Op: "seal spill", Err: err}
	}
	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		return &IOError{Op: "rewind spill", Err: err}
	}
	zr, err := zstd.NewReader(bufio.NewReader(s.file))
	if err != nil {
		return &IOError{Op: "open spill", Err: err}
	}
	defer zr.Close()

	dec := gob.NewDecoder(zr)
	for i := 0; i < s.count; i++ {
		var sr spillRow
		if err := dec.Decode(&sr); err != nil {
			return &IOError{Op: "read spill", Err: fmt.Errorf("row %d of %d: %w", i+1, s.count, err)}
		}
		if err := fn(sr.row()); err != nil {
			return err
		}
	}
	return nil
}

// Close disposes the temp file.
func (s *FileSpill) Close() error {
	if s.removed {
		return nil
	}
	s.removed = true
	var errs []error
	if !s.sealed {
		s.sealed = true
		if err := s.zw.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := s.file.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := os.Remove(s.file.Name()); err != nil && !errors.Is(err, os.ErrNotExist) {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

const (
	spillNil uint8 = iota
	spillString
	spillInt
	spillFloat
	spillBool
)

// spillRow is the gob form of a Row. Cell values are flattened into typed
// slots so gob never sees an interface value.
type spillRow struct {
	Index int
	Cells []spillCell
}

type spillCell struct {
	Column int
	Style  int
	Kind   uint8
	S      string
	I      int64
	F      float64
	B      bool
}

func toSpillRow(r Row) spillRow {
	out := spillRow{Index: r.Index, Cells: make([]spillCell, len(r.Cells))}
	for i, c := range r.Cells {
		sc := spillCell{Column: c.Column, Style: c.StyleID}
		switch v := c.Value.(type) {
		case nil:
			sc.Kind = spillNil
		case string:
			sc.Kind, sc.S = spillString, v
		case int:
			sc.Kind, sc.I = spillInt, int64(v)
		case int64:
			sc.Kind, sc.I = spillInt, v
		case float64:
			sc.Kind, sc.F = spillFloat, v
		case bool:
			sc.Kind, sc.B = spillBool, v
		default:
			sc.Kind, sc.S = spillString, fmt.Sprint(v)
		}
		out.Cells[i] = sc
	}
	return out
}

func (sr spillRow) row() Row {
	r := Row{Index: sr.Index, Cells: make([]Cell, len(sr.Cells))}
	for i, sc := range sr.Cells {
		c := Cell{Column: sc.Column, StyleID: sc.Style}
		switch sc.Kind {
		case spillString:
			c.Value = sc.S
		case spillInt:
			c.Value = int(sc.I)
		case spillFloat:
			c.Value = sc.F
		case spillBool:
			c.Value = sc.B
		}
		r.Cells[i] = c
	}
	return r
}

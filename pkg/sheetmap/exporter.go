package sheetmap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ContentTypeXLSX is the media type of the produced documents.
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Group is one record collection rendered into its own sheet.
type Group interface {
	SheetName() string
	render(ctx context.Context, wb *Workbook) error
}

type recordGroup[T any] struct {
	schema *Schema[T]
	source RecordSource[T]
	merges []MergeRegion
}

// NewGroup renders records with schema, then applies merges. Passing any
// merge region keeps every row of the sheet in memory.
func NewGroup[T any](schema *Schema[T], records []T, merges ...MergeRegion) Group {
	return &recordGroup[T]{schema: schema, source: SliceSource(records), merges: merges}
}

// NewStreamGroup renders records pulled from src.
func NewStreamGroup[T any](schema *Schema[T], src RecordSource[T], merges ...MergeRegion) Group {
	return &recordGroup[T]{schema: schema, source: src, merges: merges}
}

func (g *recordGroup[T]) SheetName() string {
	return g.schema.SheetName()
}

func (g *recordGroup[T]) render(ctx context.Context, wb *Workbook) error {
	defer g.source.Close()

	var opts []SheetOption
	if len(g.merges) > 0 {
		opts = append(opts, WithMerges())
	}
	w, err := AddSheet(ctx, wb, g.schema, opts...)
	if err != nil {
		return err
	}

	count := 0
	for {
		rec, ok, err := g.source.Next()
		if err != nil {
			return fmt.Errorf("read records for sheet %q: %w", g.SheetName(), err)
		}
		if !ok {
			break
		}
		if err := w.WriteRecord(&rec); err != nil {
			return err
		}
		count++
	}
	if count == 0 {
		// empty collection: header only, no placeholder data row
		if err := w.EnsureHeader(); err != nil {
			return err
		}
	}

	for _, m := range g.merges {
		if err := w.ApplyMerge(m); err != nil {
			return err
		}
	}
	return w.Close()
}

// Exporter renders groups into a workbook and serializes it.
type Exporter struct {
	opts []Option
}

func NewExporter(opts ...Option) *Exporter {
	return &Exporter{opts: opts}
}

// Export writes one workbook holding a sheet per group to out. Spill storage
// and excelize temp files are disposed on every path.
func (e *Exporter) Export(ctx context.Context, out io.Writer, groups ...Group) (err error) {
	if len(groups) == 0 {
		return errors.New("export needs at least one group")
	}
	log := zerolog.Ctx(ctx)
	start := time.Now()

	wb := NewWorkbook(e.opts...)
	defer func() {
		if cerr := wb.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("workbook cleanup failed")
			if err == nil {
				err = cerr
			}
		}
	}()

	for _, g := range groups {
		if err := g.render(ctx, wb); err != nil {
			return err
		}
	}
	if err := wb.Write(out); err != nil {
		var ioErr *IOError
		if errors.As(err, &ioErr) && ioErr.BrokenPipe() {
			log.Warn().Msg("client went away during export")
		}
		return err
	}
	log.Debug().Int("sheets", len(groups)).Dur("elapsed", time.Since(start)).Msg("workbook exported")
	return nil
}

// ExportFile writes the workbook to path. A partial file is removed on error.
func (e *Exporter) ExportFile(ctx context.Context, path string, groups ...Group) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return &IOError{Op: "create " + path, Err: err}
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = &IOError{Op: "close " + path, Err: cerr}
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()
	return e.Export(ctx, f, groups...)
}

// ExportRows writes records as a single-sheet workbook and returns the
// content-disposition value for the download.
func ExportRows[T any](ctx context.Context, out io.Writer, schema *Schema[T], records []T, merges []MergeRegion, opts ...Option) (string, error) {
	name := schema.FileName()
	if name == "" {
		name = schema.SheetName()
	}
	disposition := ContentDisposition(name, "xlsx")
	if err := NewExporter(opts...).Export(ctx, out, NewGroup(schema, records, merges...)); err != nil {
		return "", err
	}
	return disposition, nil
}

// ContentDisposition builds an attachment header value carrying both the
// plain and the RFC 5987 encoded file name. A blank name becomes a random
// identifier.
func ContentDisposition(name, ext string) string {
	if strings.TrimSpace(name) == "" {
		name = strings.ReplaceAll(uuid.NewString(), "-", "")
	}
	enc := strings.ReplaceAll(url.QueryEscape(name), "+", "%20")
	if ext != "" && !strings.HasSuffix(enc, "."+ext) {
		enc += "." + ext
	}
	return fmt.Sprintf(`attachment; filename="%s"; filename*=UTF-8''%s`, enc, enc)
}

// TimestampedName appends the export time to a base file name.
func TimestampedName(base string, t time.Time) string {
	return base + "_" + t.Format("2006-01-02_15-04-05")
}

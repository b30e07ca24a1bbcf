package sheetmap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/locvowork/sheetmapper/pkg/dataflow"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

// ImportOption configures ImportRows.
type ImportOption func(*importConfig)

type importConfig struct {
	sheet     string
	workers   int
	onlyAlias *bool
}

// WithImportSheet reads the named sheet instead of the schema's sheet.
func WithImportSheet(name string) ImportOption {
	return func(c *importConfig) {
		c.sheet = name
	}
}

// WithImportWorkers sets how many rows are decoded in parallel.
func WithImportWorkers(n int) ImportOption {
	return func(c *importConfig) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithImportOnlyAlias overrides the schema's onlyAlias flag when matching
// header titles.
func WithImportOnlyAlias(only bool) ImportOption {
	return func(c *importConfig) {
		c.onlyAlias = &only
	}
}

type rawRow struct {
	row    int // 1-based document row
	values []string
}

type decoded[T any] struct {
	row int
	rec T
}

// ImportRows reads the records of a sheet. headerRow is the 0-based row
// holding the column titles; rows above it and fully blank rows are skipped.
//
// Rows that fail to decode are left out of the records and reported in the
// row errors, ordered by source row. Decoding zero records is batch-fatal:
// the returned error wraps ErrNoRecords and the row errors are still
// returned.
func ImportRows[T any](ctx context.Context, r io.Reader, schema *Schema[T], headerRow int, opts ...ImportOption) ([]T, []error, error) {
	cfg := importConfig{workers: runtime.NumCPU()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if headerRow < 0 {
		return nil, nil, fmt.Errorf("header row must not be negative, got %d", headerRow)
	}
	log := zerolog.Ctx(ctx)

	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, &IOError{Op: "open workbook", Err: err}
	}
	defer f.Close()

	sheet, err := pickSheet(f, cfg.sheet, schema.SheetName())
	if err != nil {
		return nil, nil, err
	}
	onlyAlias := schema.OnlyAlias()
	if cfg.onlyAlias != nil {
		onlyAlias = *cfg.onlyAlias
	}

	loc, raws, err := readRows(f, sheet, schema.Columns(), onlyAlias, headerRow)
	if err != nil {
		return nil, nil, err
	}
	if loc == nil {
		return nil, nil, fmt.Errorf("%w: sheet %q has no header at row %d", ErrNoRecords, sheet, headerRow+1)
	}

	codec := NewCodec(schema, loc)
	var (
		mu      sync.Mutex
		rowErrs []error
	)
	results := dataflow.Map(ctx, dataflow.FromSlice(ctx, raws), func(raw rawRow) (decoded[T], error) {
		rec, err := codec.Decode(raw.values, raw.row)
		return decoded[T]{row: raw.row, rec: rec}, err
	},
		dataflow.WithWorkers(cfg.workers),
		dataflow.WithBufferSize(cfg.workers),
		dataflow.WithErrorHandler(func(err error) bool {
			mu.Lock()
			rowErrs = append(rowErrs, err)
			mu.Unlock()
			return true
		}),
	)

	var all []decoded[T]
	if err := dataflow.ForEach(ctx, results, func(d decoded[T]) error {
		all = append(all, d)
		return nil
	}); err != nil {
		return nil, nil, err
	}
	sort.Slice(all, func(i, j int) bool { return all[i].row < all[j].row })
	sort.SliceStable(rowErrs, func(i, j int) bool {
		a, _ := RowOf(rowErrs[i])
		b, _ := RowOf(rowErrs[j])
		return a < b
	})

	records := make([]T, len(all))
	for i, d := range all {
		records[i] = d.rec
	}

	log.Debug().Str("sheet", sheet).Int("rows", len(raws)).Int("records", len(records)).Int("errors", len(rowErrs)).Msg("sheet imported")
	if len(records) == 0 {
		return nil, rowErrs, fmt.Errorf("%w: sheet %q", ErrNoRecords, sheet)
	}
	return records, rowErrs, nil
}

func pickSheet(f *excelize.File, requested, schemaSheet string) (string, error) {
	if requested != "" {
		idx, err := f.GetSheetIndex(requested)
		if err != nil || idx == -1 {
			return "", fmt.Errorf("sheet %q not found", requested)
		}
		return requested, nil
	}
	if idx, err := f.GetSheetIndex(schemaSheet); err == nil && idx != -1 {
		return schemaSheet, nil
	}
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", errors.New("workbook has no sheets")
	}
	return sheets[0], nil
}

func readRows(f *excelize.File, sheet string, columns []ColumnSchema, onlyAlias bool, headerRow int) (*HeaderLocation, []rawRow, error) {
	rows, err := f.Rows(sheet)
	if err != nil {
		return nil, nil, &IOError{Op: "read sheet " + sheet, Err: err}
	}
	defer rows.Close()

	var loc *HeaderLocation
	var raws []rawRow
	for i := 0; rows.Next(); i++ {
		values, err := rows.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, nil, &IOError{Op: fmt.Sprintf("read row %d of %s", i+1, sheet), Err: err}
		}
		switch {
		case i < headerRow:
			continue
		case i == headerRow:
			loc = MatchHeader(columns, onlyAlias, values)
		case blank(values):
			continue
		default:
			raws = append(raws, rawRow{row: i + 1, values: values})
		}
	}
	if err := rows.Error(); err != nil {
		return nil, nil, &IOError{Op: "read sheet " + sheet, Err: err}
	}
	return loc, raws, nil
}

func blank(values []string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

package sheetmap

// DefaultDropDownRows is how many rows below the header a drop-down covers
// when the sheet holds fewer data rows.
const DefaultDropDownRows = 1000

// Option configures a Workbook or Exporter.
type Option func(*config)

type config struct {
	windowSize   int
	spillDir     string
	styles       Styles
	randomAccess bool
	dropDownRows int
}

func defaultConfig() *config {
	return &config{
		windowSize:   DefaultWindowSize,
		dropDownRows: DefaultDropDownRows,
	}
}

// WithWindowSize sets how many rows stay resident per sheet before older
// rows are spilled. Pass Unbounded to keep every row in memory.
func WithWindowSize(n int) Option {
	return func(c *config) {
		if n > 0 || n == Unbounded {
			c.windowSize = n
		}
	}
}

// WithSpillDir sets the directory for spill files. Defaults to the system
// temp dir.
func WithSpillDir(dir string) Option {
	return func(c *config) {
		c.spillDir = dir
	}
}

// WithStyles sets the workbook-wide header and body styles.
func WithStyles(s Styles) Option {
	return func(c *config) {
		c.styles = s
	}
}

// WithRandomAccess writes cells through the workbook API instead of a
// stream writer.
func WithRandomAccess() Option {
	return func(c *config) {
		c.randomAccess = true
	}
}

// WithDropDownRows sets the minimum number of rows a drop-down covers.
func WithDropDownRows(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.dropDownRows = n
		}
	}
}

// SheetOption tunes a single sheet writer.
type SheetOption func(*sheetConfig)

type sheetConfig struct {
	windowSize     int
	suppressHeader bool
	merges         bool
}

// WithoutHeader writes data rows without emitting the header row.
func WithoutHeader() SheetOption {
	return func(c *sheetConfig) {
		c.suppressHeader = true
	}
}

// WithMerges declares that merge regions will be applied to the sheet. The
// row window becomes Unbounded so every row stays reachable.
func WithMerges() SheetOption {
	return func(c *sheetConfig) {
		c.merges = true
	}
}

// WithSheetWindow overrides the workbook window size for one sheet.
func WithSheetWindow(n int) SheetOption {
	return func(c *sheetConfig) {
		if n > 0 || n == Unbounded {
			c.windowSize = n
		}
	}
}

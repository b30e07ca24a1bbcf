package sheetmap

import (
	"sort"
	"strings"
	"time"
)

// MaxColumnWidth is the widest column a spreadsheet accepts, in characters.
const MaxColumnWidth = 255

// DefaultTimeLayout is used by Time fields declared without a layout.
const DefaultTimeLayout = "2006-01-02 15:04:05"

// Kind is the semantic type of a column, driving coercion on import.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindBool
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindTime:
		return "time"
	default:
		return "string"
	}
}

// ColumnSchema is the resolved description of one column.
type ColumnSchema struct {
	FieldName string
	Alias     string
	Ordinal   int
	Width     float64
	Required  bool
	Kind      Kind
	Layout    string
	Options   []string
}

// Title is the header text of the column: its alias, or the field name when
// no alias was declared.
func (c ColumnSchema) Title() string {
	if c.Alias != "" {
		return c.Alias
	}
	return c.FieldName
}

// Caption is a title cell placed above the header row of a field, spanning
// Span columns starting at the field's own column.
type Caption struct {
	FieldName string
	Text      string
	Span      int
}

// Field declares one column of record type T. Fields are built with the typed
// constructors (String, Int, Float, Bool, Time) and refined by chaining.
type Field[T any] struct {
	col        ColumnSchema
	ordinalSet bool
	widths     []float64
	caption    *Caption
	nilRef     bool

	encode func(*T) interface{}
	decode func(*T, string) error
}

func newField[T any](name string, kind Kind, nilRef bool) *Field[T] {
	return &Field[T]{col: ColumnSchema{FieldName: name, Kind: kind}, nilRef: nilRef}
}

// String declares a text column.
func String[T any](name string, ref func(*T) *string) *Field[T] {
	f := newField[T](name, KindString, ref == nil)
	f.encode = func(rec *T) interface{} { return *ref(rec) }
	f.decode = func(rec *T, raw string) error {
		*ref(rec) = raw
		return nil
	}
	return f
}

// Int declares an integer column.
func Int[T any](name string, ref func(*T) *int) *Field[T] {
	f := newField[T](name, KindInt, ref == nil)
	f.encode = func(rec *T) interface{} { return *ref(rec) }
	f.decode = func(rec *T, raw string) error {
		n, err := parseInt(raw)
		if err != nil {
			return err
		}
		*ref(rec) = n
		return nil
	}
	return f
}

// Float declares a floating point column.
func Float[T any](name string, ref func(*T) *float64) *Field[T] {
	f := newField[T](name, KindFloat, ref == nil)
	f.encode = func(rec *T) interface{} { return *ref(rec) }
	f.decode = func(rec *T, raw string) error {
		v, err := parseFloat(raw)
		if err != nil {
			return err
		}
		*ref(rec) = v
		return nil
	}
	return f
}

// Bool declares a boolean column.
func Bool[T any](name string, ref func(*T) *bool) *Field[T] {
	f := newField[T](name, KindBool, ref == nil)
	f.encode = func(rec *T) interface{} { return *ref(rec) }
	f.decode = func(rec *T, raw string) error {
		v, err := parseBool(raw)
		if err != nil {
			return err
		}
		*ref(rec) = v
		return nil
	}
	return f
}

// Time declares a timestamp column. Values are written as text in layout
// (UTC) and read back with the same layout, falling back to spreadsheet
// serial dates.
func Time[T any](name string, ref func(*T) *time.Time, layout string) *Field[T] {
	if layout == "" {
		layout = DefaultTimeLayout
	}
	f := newField[T](name, KindTime, ref == nil)
	f.col.Layout = layout
	f.encode = func(rec *T) interface{} {
		t := *ref(rec)
		if t.IsZero() {
			return nil
		}
		return t.UTC().Format(layout)
	}
	f.decode = func(rec *T, raw string) error {
		t, err := parseTime(raw, layout)
		if err != nil {
			return err
		}
		*ref(rec) = t
		return nil
	}
	return f
}

// Alias sets the header text of the field.
func (f *Field[T]) Alias(alias string) *Field[T] {
	f.col.Alias = alias
	return f
}

// Width sets the column width in characters.
func (f *Field[T]) Width(width float64) *Field[T] {
	f.widths = append(f.widths, width)
	return f
}

// Ordinal overrides the declaration order of the field.
func (f *Field[T]) Ordinal(n int) *Field[T] {
	f.col.Ordinal = n
	f.ordinalSet = true
	return f
}

// Required marks the field as mandatory on import.
func (f *Field[T]) Required() *Field[T] {
	f.col.Required = true
	return f
}

// DropDown restricts the column to a list of values through data validation.
func (f *Field[T]) DropDown(values ...string) *Field[T] {
	f.col.Options = append([]string(nil), values...)
	return f
}

// Caption places a title above the field's header cell spanning span columns.
func (f *Field[T]) Caption(text string, span int) *Field[T] {
	f.caption = &Caption{FieldName: f.col.FieldName, Text: text, Span: span}
	return f
}

type sheetSettings struct {
	sheetName    string
	fileName     string
	title        string
	titleSpan    int
	onlyAlias    bool
	freezeHeader bool
	styles       Styles
	template     *SheetTemplate
}

// SchemaOption configures sheet-level directives of a schema.
type SchemaOption func(*sheetSettings)

// WithSheetName sets the destination sheet name.
func WithSheetName(name string) SchemaOption {
	return func(s *sheetSettings) {
		s.sheetName = name
	}
}

// WithFileName sets the download file name (without extension).
func WithFileName(name string) SchemaOption {
	return func(s *sheetSettings) {
		s.fileName = name
	}
}

// WithTitle places one caption above the header spanning the first span columns.
func WithTitle(text string, span int) SchemaOption {
	return func(s *sheetSettings) {
		s.title = text
		s.titleSpan = span
	}
}

// WithOnlyAlias omits fields without an alias from the sheet.
func WithOnlyAlias(only bool) SchemaOption {
	return func(s *sheetSettings) {
		s.onlyAlias = only
	}
}

// WithFreezeHeader keeps the header row visible while scrolling.
func WithFreezeHeader() SchemaOption {
	return func(s *sheetSettings) {
		s.freezeHeader = true
	}
}

// WithSheetStyles overrides the exporter styles for this sheet.
func WithSheetStyles(styles Styles) SchemaOption {
	return func(s *sheetSettings) {
		s.styles = styles
	}
}

// WithTemplate overlays a YAML sheet template onto the declared fields.
func WithTemplate(t *SheetTemplate) SchemaOption {
	return func(s *sheetSettings) {
		s.template = t
	}
}

// Schema is the immutable, resolved column layout of record type T.
type Schema[T any] struct {
	settings sheetSettings
	columns  []ColumnSchema
	fields   []*Field[T]
	captions []Caption
}

// NewSchema validates the field declarations and resolves them into an
// ordinal-ordered schema.
func NewSchema[T any](fields []*Field[T], opts ...SchemaOption) (*Schema[T], error) {
	settings := sheetSettings{sheetName: "Sheet1"}
	for _, opt := range opts {
		opt(&settings)
	}
	if len(fields) == 0 {
		return nil, schemaErrorf("", "no fields declared")
	}
	fields = cloneFields(fields)
	if settings.template != nil {
		if err := applyTemplate(settings.template, fields, &settings); err != nil {
			return nil, err
		}
	}
	if settings.title != "" && settings.titleSpan < 1 {
		return nil, schemaErrorf("", "title span must be at least 1, got %d", settings.titleSpan)
	}

	type entry struct {
		field *Field[T]
		decl  int
	}
	entries := make([]entry, 0, len(fields))
	names := make(map[string]bool, len(fields))
	aliases := make(map[string]string, len(fields))
	ordinals := make(map[int]string, len(fields))

	for i, f := range fields {
		if f == nil {
			return nil, schemaErrorf("", "field %d is nil", i)
		}
		name := f.col.FieldName
		if strings.TrimSpace(name) == "" {
			return nil, schemaErrorf("", "field %d has an empty name", i)
		}
		if f.nilRef {
			return nil, schemaErrorf(name, "accessor is nil")
		}
		if names[name] {
			return nil, schemaErrorf(name, "declared more than once")
		}
		names[name] = true

		if f.col.Alias != "" {
			key := strings.ToLower(strings.TrimSpace(f.col.Alias))
			if other, ok := aliases[key]; ok {
				return nil, schemaErrorf(name, "alias %q already used by %q", f.col.Alias, other)
			}
			aliases[key] = name
		}

		width, err := resolveWidth(name, f.widths)
		if err != nil {
			return nil, err
		}
		f.col.Width = width

		if !f.ordinalSet {
			f.col.Ordinal = i
		}
		if other, ok := ordinals[f.col.Ordinal]; ok {
			return nil, schemaErrorf(name, "ordinal %d already used by %q", f.col.Ordinal, other)
		}
		ordinals[f.col.Ordinal] = name

		// onlyAlias leaves an unaliased field out of the header, so a
		// required one could never be read back.
		if settings.onlyAlias && f.col.Required && f.col.Alias == "" {
			return nil, schemaErrorf(name, "required field needs an alias when only aliased columns are written")
		}

		if f.caption != nil && f.caption.Span < 1 {
			return nil, schemaErrorf(name, "caption span must be at least 1, got %d", f.caption.Span)
		}
		entries = append(entries, entry{field: f, decl: i})
	}

	sort.SliceStable(entries, func(a, b int) bool {
		if entries[a].field.col.Ordinal != entries[b].field.col.Ordinal {
			return entries[a].field.col.Ordinal < entries[b].field.col.Ordinal
		}
		return entries[a].decl < entries[b].decl
	})

	s := &Schema[T]{
		settings: settings,
		columns:  make([]ColumnSchema, len(entries)),
		fields:   make([]*Field[T], len(entries)),
	}
	for i, e := range entries {
		s.columns[i] = e.field.col
		s.fields[i] = e.field
		if e.field.caption != nil {
			s.captions = append(s.captions, *e.field.caption)
		}
	}
	return s, nil
}

// cloneFields copies the declarations so building a schema never mutates
// fields shared with another schema.
func cloneFields[T any](fields []*Field[T]) []*Field[T] {
	out := make([]*Field[T], len(fields))
	for i, f := range fields {
		if f == nil {
			continue
		}
		cp := *f
		cp.widths = append([]float64(nil), f.widths...)
		cp.col.Options = append([]string(nil), f.col.Options...)
		if f.caption != nil {
			c := *f.caption
			cp.caption = &c
		}
		out[i] = &cp
	}
	return out
}

func resolveWidth(name string, widths []float64) (float64, error) {
	var width float64
	for i, w := range widths {
		if w < 0 || w > MaxColumnWidth {
			return 0, schemaErrorf(name, "width %v outside [0, %d]", w, MaxColumnWidth)
		}
		if i > 0 && w != width {
			return 0, schemaErrorf(name, "conflicting widths %v and %v", width, w)
		}
		width = w
	}
	return width, nil
}

// Columns returns the resolved columns in ordinal order.
func (s *Schema[T]) Columns() []ColumnSchema {
	out := make([]ColumnSchema, len(s.columns))
	copy(out, s.columns)
	return out
}

// Captions returns the per-field captions in ordinal order.
func (s *Schema[T]) Captions() []Caption {
	return append([]Caption(nil), s.captions...)
}

func (s *Schema[T]) SheetName() string  { return s.settings.sheetName }
func (s *Schema[T]) FileName() string   { return s.settings.fileName }
func (s *Schema[T]) OnlyAlias() bool    { return s.settings.onlyAlias }
func (s *Schema[T]) FreezeHeader() bool { return s.settings.freezeHeader }

// Title returns the sheet-level caption and the number of columns it spans.
func (s *Schema[T]) Title() (string, int) {
	return s.settings.title, s.settings.titleSpan
}

func (s *Schema[T]) field(name string) *Field[T] {
	for _, f := range s.fields {
		if f.col.FieldName == name {
			return f
		}
	}
	return nil
}

package sheetmap

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// ReportTemplate is the YAML document holding per-sheet overrides.
type ReportTemplate struct {
	Sheets []SheetTemplate `yaml:"sheets"`
}

// SheetTemplate overrides the sheet directives and column metadata of a
// schema. Fields are matched by field_name; the accessor stays in code.
type SheetTemplate struct {
	Name         string           `yaml:"name"`
	FileName     string           `yaml:"file_name"`
	Title        string           `yaml:"title"`
	TitleSpan    int              `yaml:"title_span"`
	OnlyAlias    *bool            `yaml:"only_alias"`
	FreezeHeader bool             `yaml:"freeze_header"`
	HeaderStyle  *StyleTemplate   `yaml:"header_style"`
	BodyStyle    *StyleTemplate   `yaml:"body_style"`
	Columns      []ColumnTemplate `yaml:"columns"`
}

// ColumnTemplate is the YAML form of one column's metadata.
type ColumnTemplate struct {
	FieldName string   `yaml:"field_name"`
	Alias     string   `yaml:"alias"`
	Width     float64  `yaml:"width"`
	Ordinal   *int     `yaml:"ordinal"`
	Required  *bool    `yaml:"required"`
	Options   []string `yaml:"options"`
}

// ParseTemplate decodes a YAML report template.
func ParseTemplate(data []byte) (*ReportTemplate, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("yaml template is empty")
	}
	var tmpl ReportTemplate
	if err := yaml.Unmarshal(data, &tmpl); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return &tmpl, nil
}

// LoadTemplate reads and decodes a YAML report template from disk.
func LoadTemplate(path string) (*ReportTemplate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read template %s: %w", path, err)
	}
	return ParseTemplate(data)
}

// Sheet returns the sheet template with the given name, or nil.
func (t *ReportTemplate) Sheet(name string) *SheetTemplate {
	if t == nil {
		return nil
	}
	for i := range t.Sheets {
		if t.Sheets[i].Name == name {
			return &t.Sheets[i]
		}
	}
	return nil
}

func applyTemplate[T any](t *SheetTemplate, fields []*Field[T], s *sheetSettings) error {
	if t.Name != "" {
		s.sheetName = t.Name
	}
	if t.FileName != "" {
		s.fileName = t.FileName
	}
	if t.Title != "" {
		s.title = t.Title
		switch {
		case t.TitleSpan > 0:
			s.titleSpan = t.TitleSpan
		case s.titleSpan < 1:
			s.titleSpan = 1
		}
	}
	if t.OnlyAlias != nil {
		s.onlyAlias = *t.OnlyAlias
	}
	if t.FreezeHeader {
		s.freezeHeader = true
	}
	if t.HeaderStyle != nil {
		s.styles.Header = t.HeaderStyle
	}
	if t.BodyStyle != nil {
		s.styles.Body = t.BodyStyle
	}

	byName := make(map[string]*Field[T], len(fields))
	for _, f := range fields {
		if f != nil {
			byName[f.col.FieldName] = f
		}
	}
	for _, ct := range t.Columns {
		f, ok := byName[ct.FieldName]
		if !ok {
			return schemaErrorf(ct.FieldName, "template column does not match any declared field")
		}
		if ct.Alias != "" {
			f.col.Alias = ct.Alias
		}
		if ct.Width != 0 {
			f.widths = append(f.widths, ct.Width)
		}
		if ct.Ordinal != nil {
			f.col.Ordinal = *ct.Ordinal
			f.ordinalSet = true
		}
		if ct.Required != nil {
			f.col.Required = *ct.Required
		}
		if len(ct.Options) > 0 {
			f.col.Options = append([]string(nil), ct.Options...)
		}
	}
	return nil
}

// NewSchemaFromYAML builds a schema from declared fields and the named sheet
// of a YAML template. A template without that sheet leaves the fields as
// declared.
func NewSchemaFromYAML[T any](data []byte, sheet string, fields []*Field[T], opts ...SchemaOption) (*Schema[T], error) {
	tmpl, err := ParseTemplate(data)
	if err != nil {
		return nil, &SchemaError{Reason: err.Error()}
	}
	if st := tmpl.Sheet(sheet); st != nil {
		opts = append(opts, WithTemplate(st))
	}
	return NewSchema(fields, opts...)
}

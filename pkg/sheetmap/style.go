package sheetmap

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// StyleTemplate defines basic cell styling.
type StyleTemplate struct {
	Font      *FontTemplate      `yaml:"font"`
	Fill      *FillTemplate      `yaml:"fill"`
	Alignment *AlignmentTemplate `yaml:"alignment"`
	Border    bool               `yaml:"border"`
}

type FontTemplate struct {
	Bold  bool   `yaml:"bold"`
	Color string `yaml:"color"` // Hex color
}

type FillTemplate struct {
	Color string `yaml:"color"` // Hex color
}

type AlignmentTemplate struct {
	Horizontal string `yaml:"horizontal"` // center, left, right
	Vertical   string `yaml:"vertical"`   // top, center, bottom
	WrapText   bool   `yaml:"wrap_text"`
}

// Styles groups the styles of a sheet: Header for the header row, captions
// and header-styled merges, Body for data cells and other merges.
type Styles struct {
	Header *StyleTemplate
	Body   *StyleTemplate
}

// DefaultStyles is applied when neither the exporter nor the schema sets a
// style.
var DefaultStyles = Styles{
	Header: &StyleTemplate{
		Font:      &FontTemplate{Bold: true},
		Fill:      &FillTemplate{Color: "DDEBF7"},
		Alignment: &AlignmentTemplate{Horizontal: "center", Vertical: "center"},
		Border:    true,
	},
	Body: &StyleTemplate{
		Alignment: &AlignmentTemplate{Vertical: "center"},
		Border:    true,
	},
}

// resolveStyle fills the parts of base that are unset from def.
func resolveStyle(base, def *StyleTemplate) *StyleTemplate {
	if base == nil {
		return def
	}
	s := *base
	if def != nil {
		if s.Font == nil {
			s.Font = def.Font
		}
		if s.Fill == nil {
			s.Fill = def.Fill
		}
		if s.Alignment == nil {
			s.Alignment = def.Alignment
		}
	}
	return &s
}

func (s Styles) over(def Styles) Styles {
	return Styles{
		Header: resolveStyle(s.Header, def.Header),
		Body:   resolveStyle(s.Body, def.Body),
	}
}

// styleCache registers styles with a workbook once per distinct template.
type styleCache struct {
	file *excelize.File
	ids  map[string]int
}

func newStyleCache(f *excelize.File) *styleCache {
	return &styleCache{file: f, ids: make(map[string]int)}
}

func (c *styleCache) id(tmpl *StyleTemplate) (int, error) {
	if tmpl == nil {
		return 0, nil
	}

	var sb strings.Builder
	if tmpl.Font != nil {
		fmt.Fprintf(&sb, "f:%v:%s|", tmpl.Font.Bold, tmpl.Font.Color)
	}
	if tmpl.Fill != nil {
		fmt.Fprintf(&sb, "i:%s|", tmpl.Fill.Color)
	}
	if tmpl.Alignment != nil {
		fmt.Fprintf(&sb, "a:%s:%s:%v|", tmpl.Alignment.Horizontal, tmpl.Alignment.Vertical, tmpl.Alignment.WrapText)
	}
	if tmpl.Border {
		sb.WriteString("b|")
	}
	key := sb.String()
	if id, ok := c.ids[key]; ok {
		return id, nil
	}

	style := &excelize.Style{}
	if tmpl.Font != nil {
		style.Font = &excelize.Font{
			Bold:  tmpl.Font.Bold,
			Color: strings.TrimPrefix(tmpl.Font.Color, "#"),
		}
	}
	if tmpl.Fill != nil {
		style.Fill = excelize.Fill{
			Type:    "pattern",
			Color:   []string{strings.TrimPrefix(tmpl.Fill.Color, "#")},
			Pattern: 1,
		}
	}
	if tmpl.Alignment != nil {
		style.Alignment = &excelize.Alignment{
			Horizontal: tmpl.Alignment.Horizontal,
			Vertical:   tmpl.Alignment.Vertical,
			WrapText:   tmpl.Alignment.WrapText,
		}
	}
	if tmpl.Border {
		for _, side := range []string{"left", "top", "right", "bottom"} {
			style.Border = append(style.Border, excelize.Border{Type: side, Color: "BFBFBF", Style: 1})
		}
	}
	id, err := c.file.NewStyle(style)
	if err != nil {
		return 0, err
	}
	c.ids[key] = id
	return id, nil
}

package sheetmap

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type member struct {
	ID     int
	Name   string
	Email  string
	Score  float64
	Active bool
	Joined time.Time
	Note   string
}

func memberFields() []*Field[member] {
	return []*Field[member]{
		Int("ID", func(m *member) *int { return &m.ID }).Alias("ID").Width(8),
		String("Name", func(m *member) *string { return &m.Name }).Alias("Name").Width(20),
		String("Email", func(m *member) *string { return &m.Email }).Alias("Email").Required(),
		Float("Score", func(m *member) *float64 { return &m.Score }).Alias("Score"),
		Bool("Active", func(m *member) *bool { return &m.Active }).Alias("Active"),
		Time("Joined", func(m *member) *time.Time { return &m.Joined }, "").Alias("Joined"),
		String("Note", func(m *member) *string { return &m.Note }),
	}
}

func memberSchema(t *testing.T, opts ...SchemaOption) *Schema[member] {
	t.Helper()
	opts = append([]SchemaOption{WithSheetName("Members")}, opts...)
	s, err := NewSchema(memberFields(), opts...)
	require.NoError(t, err)
	return s
}

func sampleMembers() []member {
	joined := time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)
	return []member{
		{ID: 1, Name: "Alice", Email: "alice@example.com", Score: 91.5, Active: true, Joined: joined, Note: "lead"},
		{ID: 2, Name: "Bob", Email: "bob@example.com", Score: 78, Active: false, Joined: joined.AddDate(0, 1, 0)},
		{ID: 3, Name: "Chloé", Email: "chloe@example.com", Score: 88.25, Active: true, Joined: joined.AddDate(1, 0, 0), Note: "remote"},
	}
}

func exportBytes(t *testing.T, groups []Group, opts ...Option) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	opts = append([]Option{WithSpillDir(t.TempDir())}, opts...)
	require.NoError(t, NewExporter(opts...).Export(context.Background(), buf, groups...))
	return buf.Bytes()
}

func sheetRows(t *testing.T, data []byte, sheet string) [][]string {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	return rows
}

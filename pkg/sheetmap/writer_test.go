package sheetmap

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func newTestWorkbook(t *testing.T, opts ...Option) *Workbook {
	t.Helper()
	opts = append([]Option{WithSpillDir(t.TempDir())}, opts...)
	wb := NewWorkbook(opts...)
	t.Cleanup(func() { _ = wb.Close() })
	return wb
}

func workbookBytes(t *testing.T, wb *Workbook) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	require.NoError(t, wb.Write(buf))
	return buf.Bytes()
}

func TestSheetWriterStates(t *testing.T) {
	wb := newTestWorkbook(t)
	w, err := AddSheet(context.Background(), wb, memberSchema(t))
	require.NoError(t, err)
	assert.Equal(t, StateFresh, w.State())

	require.NoError(t, w.WriteHeader())
	assert.Equal(t, StateHeaderWritten, w.State())
	assert.Equal(t, 1, w.Cursor().Current())

	var serr *StateError
	assert.ErrorAs(t, w.WriteHeader(), &serr)

	require.NoError(t, w.WriteRows(sampleMembers()))
	assert.Equal(t, StateDataWriting, w.State())
	assert.Equal(t, 4, w.Cursor().Current())
	assert.Equal(t, 3, w.Rows())

	require.NoError(t, w.Close())
	assert.Equal(t, StateClosed, w.State())
	require.NoError(t, w.Close())

	m := sampleMembers()[0]
	assert.ErrorAs(t, w.WriteRow(m), &serr)
	assert.ErrorAs(t, w.ApplyMerge(MergeRegion{}), &serr)
}

func TestSheetWriterCursorAfterRows(t *testing.T) {
	wb := newTestWorkbook(t)
	w, err := AddSheet(context.Background(), wb, memberSchema(t))
	require.NoError(t, err)

	// first write emits the header implicitly
	members := sampleMembers()
	for i := range members {
		require.NoError(t, w.WriteRow(members[i]))
		assert.Equal(t, i+2, w.Cursor().Current())
	}

	rows := sheetRows(t, workbookBytes(t, wb), "Members")
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"ID", "Name", "Email", "Score", "Active", "Joined", "Note"}, rows[0])
	assert.Equal(t, "Alice", rows[1][1])
	assert.Equal(t, "2024-03-15 09:30:00", rows[1][5])
	assert.Equal(t, "Chloé", rows[3][1])
}

func TestSheetWriterWithoutHeader(t *testing.T) {
	wb := newTestWorkbook(t)
	w, err := AddSheet(context.Background(), wb, memberSchema(t), WithoutHeader())
	require.NoError(t, err)

	require.NoError(t, w.WriteRows(sampleMembers()))
	assert.Equal(t, 3, w.Cursor().Current())
	assert.False(t, w.headers.Written())

	rows := sheetRows(t, workbookBytes(t, wb), "Members")
	require.Len(t, rows, 3)
	assert.Equal(t, "1", rows[0][0])
}

func TestSheetWriterMergeAdvancesCursor(t *testing.T) {
	wb := newTestWorkbook(t)
	w, err := AddSheet(context.Background(), wb, memberSchema(t), WithMerges())
	require.NoError(t, err)
	assert.Equal(t, Unbounded, w.Store().WindowSize())

	require.NoError(t, w.WriteRows(sampleMembers()[:2]))
	require.NoError(t, w.MergeRow(6, "Subtotal", true))
	assert.Equal(t, 4, w.Cursor().Current())

	require.NoError(t, w.ApplyMerge(MergeRegion{FirstRow: 1, LastRow: 2, FirstColumn: 6, LastColumn: 6}))
	assert.Equal(t, 4, w.Cursor().Current())

	require.NoError(t, w.WriteRow(sampleMembers()[2]))
	assert.Equal(t, 5, w.Cursor().Current())

	data := workbookBytes(t, wb)
	rows := sheetRows(t, data, "Members")
	require.Len(t, rows, 5)
	assert.Equal(t, "Subtotal", rows[3][0])
	assert.Equal(t, "3", rows[4][0])

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()
	merged, err := f.GetMergeCells("Members")
	require.NoError(t, err)
	var refs []string
	for _, m := range merged {
		refs = append(refs, m.GetStartAxis()+":"+m.GetEndAxis())
	}
	assert.ElementsMatch(t, []string{"A4:G4", "G2:G3"}, refs)
}

func TestSheetWriterSpillsLargeSheet(t *testing.T) {
	dir := t.TempDir()
	wb := NewWorkbook(WithSpillDir(dir), WithWindowSize(10))
	defer wb.Close()

	w, err := AddSheet(context.Background(), wb, memberSchema(t))
	require.NoError(t, err)
	base := sampleMembers()[0]
	for i := 0; i < 250; i++ {
		m := base
		m.ID = i + 1
		require.NoError(t, w.WriteRow(m))
	}
	assert.LessOrEqual(t, w.Store().PeakResident(), 10)
	assert.Equal(t, 241, w.Store().Spilled())

	rows := sheetRows(t, workbookBytes(t, wb), "Members")
	require.Len(t, rows, 251)
	assert.Equal(t, "250", rows[250][0])
	assert.Equal(t, "alice@example.com", rows[125][2])
}

func TestSheetWriterTitleAndCaptions(t *testing.T) {
	fields := memberFields()
	fields[1].Caption("Identity", 2)
	fields[3].Caption("Stats", 2)
	s, err := NewSchema(fields, WithSheetName("Members"), WithTitle("Quarterly members", 7), WithFreezeHeader())
	require.NoError(t, err)

	wb := newTestWorkbook(t)
	w, err := AddSheet(context.Background(), wb, s)
	require.NoError(t, err)
	require.NoError(t, w.WriteRows(sampleMembers()))
	assert.Equal(t, 6, w.Cursor().Current())

	data := workbookBytes(t, wb)
	rows := sheetRows(t, data, "Members")
	require.Len(t, rows, 6)
	assert.Equal(t, "Quarterly members", rows[0][0])
	assert.Equal(t, "Identity", rows[1][1])
	assert.Equal(t, "Stats", rows[1][3])
	assert.Equal(t, "ID", rows[2][0])

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()
	merged, err := f.GetMergeCells("Members")
	require.NoError(t, err)
	var refs []string
	for _, m := range merged {
		refs = append(refs, m.GetStartAxis()+":"+m.GetEndAxis())
	}
	assert.ElementsMatch(t, []string{"A1:G1", "B2:C2", "D2:E2"}, refs)

	panes, err := f.GetPanes("Members")
	require.NoError(t, err)
	assert.True(t, panes.Freeze)
	assert.Equal(t, 3, panes.YSplit)
}

func TestSheetWriterDropDown(t *testing.T) {
	fields := memberFields()
	fields[6].DropDown("remote", "onsite")
	s, err := NewSchema(fields, WithSheetName("Members"))
	require.NoError(t, err)

	wb := newTestWorkbook(t, WithDropDownRows(50))
	w, err := AddSheet(context.Background(), wb, s)
	require.NoError(t, err)
	require.NoError(t, w.WriteRows(sampleMembers()))

	f, err := excelize.OpenReader(bytes.NewReader(workbookBytes(t, wb)))
	require.NoError(t, err)
	defer f.Close()
	dvs, err := f.GetDataValidations("Members")
	require.NoError(t, err)
	require.Len(t, dvs, 1)
	assert.Equal(t, "G2:G51", dvs[0].Sqref)
}

func TestWorkbookDuplicateSheet(t *testing.T) {
	wb := newTestWorkbook(t)
	_, err := AddSheet(context.Background(), wb, memberSchema(t))
	require.NoError(t, err)
	_, err = AddSheet(context.Background(), wb, memberSchema(t))
	var serr *StateError
	assert.ErrorAs(t, err, &serr)
}

func TestWorkbookRandomAccess(t *testing.T) {
	wb := newTestWorkbook(t, WithRandomAccess())
	w, err := AddSheet(context.Background(), wb, memberSchema(t, WithFreezeHeader()))
	require.NoError(t, err)
	require.NoError(t, w.WriteRows(sampleMembers()))
	require.NoError(t, w.SetColumnWidth(6, 40))
	assert.Error(t, w.SetColumnWidth(6, 400))

	data := workbookBytes(t, wb)
	rows := sheetRows(t, data, "Members")
	require.Len(t, rows, 4)
	assert.Equal(t, "bob@example.com", rows[2][2])

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()
	width, err := f.GetColWidth("Members", "G")
	require.NoError(t, err)
	assert.Equal(t, 40.0, width)
}

package domain

import (
	"testing"

	"github.com/locvowork/sheetmapper/pkg/sheetmap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmployeeSchema(t *testing.T) {
	s, err := EmployeeSchema(nil)
	require.NoError(t, err)
	assert.Equal(t, EmployeeSheet, s.SheetName())
	assert.True(t, s.FreezeHeader())

	cols := s.Columns()
	require.Len(t, cols, 9)
	assert.Equal(t, "Employee ID", cols[0].Title())
	assert.True(t, cols[3].Required)
	assert.Equal(t, Departments, cols[4].Options)
	assert.Len(t, s.Captions(), 2)
}

func TestEmployeeSchemaTemplate(t *testing.T) {
	rt, err := sheetmap.ParseTemplate([]byte(`
sheets:
  - name: Staff
    columns:
      - field_name: Salary
        alias: Annual Salary
      - field_name: Active
        ordinal: -1
`))
	require.NoError(t, err)

	s, err := EmployeeSchema(rt.Sheet("Staff"))
	require.NoError(t, err)
	assert.Equal(t, "Staff", s.SheetName())
	cols := s.Columns()
	assert.Equal(t, "Active", cols[0].FieldName)
	for _, c := range cols {
		if c.FieldName == "Salary" {
			assert.Equal(t, "Annual Salary", c.Title())
		}
	}
}

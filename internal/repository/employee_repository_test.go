package repository

import (
	"testing"

	"github.com/locvowork/sheetmapper/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestListQuery(t *testing.T) {
	tests := []struct {
		name   string
		filter domain.EmployeeFilter
		query  string
		args   []interface{}
	}{
		{
			name:  "no filter",
			query: "SELECT " + employeeColumns + " FROM employees ORDER BY id",
		},
		{
			name:   "department and active",
			filter: domain.EmployeeFilter{Department: "Sales", ActiveOnly: true},
			query:  "SELECT " + employeeColumns + " FROM employees WHERE department = $1 AND active ORDER BY id",
			args:   []interface{}{"Sales"},
		},
		{
			name:   "paging",
			filter: domain.EmployeeFilter{Limit: 50, Offset: 100},
			query:  "SELECT " + employeeColumns + " FROM employees ORDER BY id LIMIT $1 OFFSET $2",
			args:   []interface{}{50, 100},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, args := listQuery(tt.filter)
			assert.Equal(t, tt.query, q)
			assert.Equal(t, tt.args, args)
		})
	}
}

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/locvowork/sheetmapper/internal/domain"
)

const employeeColumns = "id, first_name, last_name, email, department, title, salary, hire_date, active"

type employeeRepository struct {
	db *sql.DB
}

func NewEmployeeRepository(db *sql.DB) domain.EmployeeRepository {
	return &employeeRepository{db: db}
}

// listQuery renders the SELECT for a filter with positional arguments.
func listQuery(filter domain.EmployeeFilter) (string, []interface{}) {
	var (
		where []string
		args  []interface{}
	)
	if filter.Department != "" {
		args = append(args, filter.Department)
		where = append(where, fmt.Sprintf("department = $%d", len(args)))
	}
	if filter.ActiveOnly {
		where = append(where, "active")
	}

	var sb strings.Builder
	sb.WriteString("SELECT " + employeeColumns + " FROM employees")
	if len(where) > 0 {
		sb.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	sb.WriteString(" ORDER BY id")
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		fmt.Fprintf(&sb, " LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		fmt.Fprintf(&sb, " OFFSET $%d", len(args))
	}
	return sb.String(), args
}

func (r *employeeRepository) List(ctx context.Context, filter domain.EmployeeFilter) ([]domain.Employee, error) {
	var out []domain.Employee
	err := r.Each(ctx, filter, func(e domain.Employee) error {
		out = append(out, e)
		return nil
	})
	return out, err
}

func (r *employeeRepository) Each(ctx context.Context, filter domain.EmployeeFilter, fn func(domain.Employee) error) error {
	query, args := listQuery(filter)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to query employees: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var e domain.Employee
		if err := rows.Scan(&e.ID, &e.FirstName, &e.LastName, &e.Email, &e.Department, &e.Title, &e.Salary, &e.HireDate, &e.Active); err != nil {
			return fmt.Errorf("failed to scan employee: %w", err)
		}
		if err := fn(e); err != nil {
			return err
		}
	}
	return rows.Err()
}

// BulkCreate loads employees with COPY. Ids are assigned by the database.
func (r *employeeRepository) BulkCreate(ctx context.Context, employees []domain.Employee) (int, error) {
	if len(employees) == 0 {
		return 0, nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("employees",
		"first_name", "last_name", "email", "department", "title", "salary", "hire_date", "active"))
	if err != nil {
		return 0, fmt.Errorf("failed to prepare copy: %w", err)
	}
	for _, e := range employees {
		if _, err := stmt.ExecContext(ctx, e.FirstName, e.LastName, e.Email, e.Department, e.Title, e.Salary, e.HireDate, e.Active); err != nil {
			stmt.Close()
			return 0, fmt.Errorf("failed to copy employee %s: %w", e.Email, err)
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		return 0, fmt.Errorf("failed to flush copy: %w", err)
	}
	if err := stmt.Close(); err != nil {
		return 0, fmt.Errorf("failed to close copy: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}
	return len(employees), nil
}

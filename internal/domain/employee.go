package domain

import (
	"context"
	"time"
)

type Employee struct {
	ID         int       `json:"id"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Email      string    `json:"email"`
	Department string    `json:"department"`
	Title      string    `json:"title"`
	Salary     float64   `json:"salary"`
	HireDate   time.Time `json:"hire_date"`
	Active     bool      `json:"active"`
}

type EmployeeFilter struct {
	Department string
	ActiveOnly bool
	Limit      int
	Offset     int
}

type EmployeeRepository interface {
	List(ctx context.Context, filter EmployeeFilter) ([]Employee, error)
	// Each streams matching employees to fn in id order and stops at the
	// first error fn returns.
	Each(ctx context.Context, filter EmployeeFilter, fn func(Employee) error) error
	// BulkCreate inserts employees in one transaction and returns the number
	// of rows written.
	BulkCreate(ctx context.Context, employees []Employee) (int, error)
}

package domain

import (
	"time"

	"github.com/locvowork/sheetmapper/pkg/sheetmap"
)

const (
	EmployeeSheet    = "Employees"
	HireDateLayout   = "2006-01-02"
	employeeFileName = "employees"
)

// Departments are the values offered by the Department drop-down.
var Departments = []string{
	"Customer Service",
	"Development",
	"Finance",
	"Human Resources",
	"Marketing",
	"Production",
	"Quality Management",
	"Research",
	"Sales",
}

func employeeFields() []*sheetmap.Field[Employee] {
	return []*sheetmap.Field[Employee]{
		sheetmap.Int("ID", func(e *Employee) *int { return &e.ID }).Alias("Employee ID").Width(12),
		sheetmap.String("FirstName", func(e *Employee) *string { return &e.FirstName }).Alias("First Name").Width(18).Caption("Employee", 3),
		sheetmap.String("LastName", func(e *Employee) *string { return &e.LastName }).Alias("Last Name").Width(18),
		sheetmap.String("Email", func(e *Employee) *string { return &e.Email }).Alias("Email").Width(30).Required(),
		sheetmap.String("Department", func(e *Employee) *string { return &e.Department }).Alias("Department").Width(20).DropDown(Departments...).Caption("Position", 3),
		sheetmap.String("Title", func(e *Employee) *string { return &e.Title }).Alias("Title").Width(20),
		sheetmap.Float("Salary", func(e *Employee) *float64 { return &e.Salary }).Alias("Salary").Width(14),
		sheetmap.Time("HireDate", func(e *Employee) *time.Time { return &e.HireDate }, HireDateLayout).Alias("Hire Date").Width(14),
		sheetmap.Bool("Active", func(e *Employee) *bool { return &e.Active }).Alias("Active").Width(10),
	}
}

// EmployeeSchema describes the employee sheet. A non-nil template overrides
// aliases, widths, ordinals and sheet settings.
func EmployeeSchema(tmpl *sheetmap.SheetTemplate) (*sheetmap.Schema[Employee], error) {
	opts := []sheetmap.SchemaOption{
		sheetmap.WithSheetName(EmployeeSheet),
		sheetmap.WithFileName(employeeFileName),
		sheetmap.WithTitle("Employee Directory", 9),
		sheetmap.WithFreezeHeader(),
	}
	if tmpl != nil {
		opts = append(opts, sheetmap.WithTemplate(tmpl))
	}
	return sheetmap.NewSchema(employeeFields(), opts...)
}

// TitleRows is the number of rows above the header of an employee sheet:
// the directory title and the caption row.
const TitleRows = 2

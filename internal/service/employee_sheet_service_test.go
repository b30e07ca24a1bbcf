package service

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/locvowork/sheetmapper/internal/domain"
	"github.com/locvowork/sheetmapper/pkg/googlecloud"
	"github.com/locvowork/sheetmapper/pkg/sheetmap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type fakeRepo struct {
	employees []domain.Employee
	eachErr   error
	created   []domain.Employee
}

func (r *fakeRepo) List(ctx context.Context, filter domain.EmployeeFilter) ([]domain.Employee, error) {
	return r.employees, nil
}

func (r *fakeRepo) Each(ctx context.Context, filter domain.EmployeeFilter, fn func(domain.Employee) error) error {
	for _, e := range r.employees {
		if filter.Department != "" && e.Department != filter.Department {
			continue
		}
		if err := fn(e); err != nil {
			return err
		}
	}
	return r.eachErr
}

func (r *fakeRepo) BulkCreate(ctx context.Context, employees []domain.Employee) (int, error) {
	r.created = append(r.created, employees...)
	return len(employees), nil
}

type fakeJobs struct {
	mu   sync.Mutex
	jobs map[string]*googlecloud.SheetJob
	seq  int
}

func newFakeJobs() *fakeJobs {
	return &fakeJobs{jobs: map[string]*googlecloud.SheetJob{}}
}

func (f *fakeJobs) CreateJob(ctx context.Context, job *googlecloud.SheetJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	job.ID = string(rune('a' + f.seq))
	job.Status = googlecloud.StatusRunning
	cp := *job
	f.jobs[job.ID] = &cp
	return nil
}

func (f *fakeJobs) FinishJob(ctx context.Context, id string, update func(*googlecloud.SheetJob)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	update(f.jobs[id])
	return nil
}

func sampleEmployees() []domain.Employee {
	hired := time.Date(2019, 6, 3, 0, 0, 0, 0, time.UTC)
	return []domain.Employee{
		{ID: 10001, FirstName: "Georgi", LastName: "Facello", Email: "georgi@example.com", Department: "Development", Title: "Senior Engineer", Salary: 88958, HireDate: hired, Active: true},
		{ID: 10002, FirstName: "Bezalel", LastName: "Simmel", Email: "bezalel@example.com", Department: "Sales", Title: "Staff", Salary: 72527, HireDate: hired.AddDate(1, 0, 0), Active: true},
		{ID: 10003, FirstName: "Parto", LastName: "Bamford", Email: "parto@example.com", Department: "Production", Title: "Engineer", Salary: 43311, HireDate: hired.AddDate(2, 0, 0)},
	}
}

func newTestService(t *testing.T, repo *fakeRepo, jobs JobStore) EmployeeSheetService {
	t.Helper()
	svc, err := NewEmployeeSheetService(repo, jobs, SheetConfig{SpillDir: t.TempDir(), WindowSize: 2, ImportWorkers: 2})
	require.NoError(t, err)
	return svc
}

func TestExportImportRoundTrip(t *testing.T) {
	repo := &fakeRepo{employees: sampleEmployees()}
	jobs := newFakeJobs()
	svc := newTestService(t, repo, jobs)
	ctx := context.Background()

	buf := new(bytes.Buffer)
	n, err := svc.Export(ctx, buf, domain.EmployeeFilter{})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	res, err := svc.Import(ctx, bytes.NewReader(buf.Bytes()), svc.DefaultHeaderRow(), true)
	require.NoError(t, err)
	assert.True(t, res.Committed)
	assert.Equal(t, 3, res.Imported)
	require.Len(t, repo.created, 3)
	assert.Equal(t, "Bamford", repo.created[2].LastName)
	assert.True(t, repo.created[0].HireDate.Equal(sampleEmployees()[0].HireDate))
	assert.Equal(t, 72527.0, repo.created[1].Salary)

	require.Len(t, jobs.jobs, 2)
	for _, j := range jobs.jobs {
		assert.Equal(t, googlecloud.StatusSucceeded, j.Status)
		assert.Equal(t, 3, j.Rows)
	}
}

func TestExportLayout(t *testing.T) {
	svc := newTestService(t, &fakeRepo{employees: sampleEmployees()}, nil)
	buf := new(bytes.Buffer)
	_, err := svc.Export(context.Background(), buf, domain.EmployeeFilter{Department: "Sales"})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(domain.EmployeeSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "Employee Directory", rows[0][0])
	assert.Equal(t, "Employee", rows[1][1])
	assert.Equal(t, "Employee ID", rows[2][0])
	assert.Equal(t, "Simmel", rows[3][2])
	assert.Equal(t, 2, svc.DefaultHeaderRow())
}

func TestExportRepositoryFailure(t *testing.T) {
	boom := errors.New("connection reset")
	jobs := newFakeJobs()
	svc := newTestService(t, &fakeRepo{employees: sampleEmployees(), eachErr: boom}, jobs)

	buf := new(bytes.Buffer)
	_, err := svc.Export(context.Background(), buf, domain.EmployeeFilter{})
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, buf.Len())
	for _, j := range jobs.jobs {
		assert.Equal(t, googlecloud.StatusFailed, j.Status)
	}
}

func TestImportRowErrorsBlockCommit(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetName("Sheet1", domain.EmployeeSheet))
	rows := [][]interface{}{
		{"Employee ID", "First Name", "Last Name", "Email", "Department", "Title", "Salary", "Hire Date", "Active"},
		{1, "Ann", "Lee", "ann@example.com", "Sales", "Staff", 50000, "2020-01-02", "yes"},
		{2, "Bo", "Kim", "", "Sales", "Staff", "lots", "2020-01-02", "no"},
	}
	for i := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, f.SetSheetRow(domain.EmployeeSheet, cell, &rows[i]))
	}
	data, err := f.WriteToBuffer()
	require.NoError(t, err)

	repo := &fakeRepo{}
	svc := newTestService(t, repo, nil)
	res, err := svc.Import(context.Background(), bytes.NewReader(data.Bytes()), 0, true)
	require.NoError(t, err)
	assert.False(t, res.Committed)
	assert.Empty(t, repo.created)
	assert.Equal(t, 1, res.Imported)
	assert.Equal(t, 1, res.Failed)
	require.Len(t, res.Errors, 2)
	assert.Equal(t, RowError{Row: 3, Column: "Email", Message: "row 3: Email is required"}, res.Errors[0])
	assert.Equal(t, "Salary", res.Errors[1].Column)
	require.Len(t, res.Employees, 1)
	assert.Equal(t, "Ann", res.Employees[0].FirstName)
}

func TestImportEmptyTemplate(t *testing.T) {
	svc := newTestService(t, &fakeRepo{}, nil)
	buf := new(bytes.Buffer)
	require.NoError(t, svc.ExportTemplate(context.Background(), buf))

	_, err := svc.Import(context.Background(), bytes.NewReader(buf.Bytes()), svc.DefaultHeaderRow(), false)
	assert.ErrorIs(t, err, sheetmap.ErrNoRecords)
}

func TestDisposition(t *testing.T) {
	svc := newTestService(t, &fakeRepo{}, nil)
	now := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	assert.Contains(t, svc.Disposition(false, now), `filename="employees_2024-05-06_07-08-09.xlsx"`)
	assert.Contains(t, svc.Disposition(true, now), `filename="employees_template.xlsx"`)
}

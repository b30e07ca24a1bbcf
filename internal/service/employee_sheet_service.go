package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/locvowork/sheetmapper/internal/domain"
	"github.com/locvowork/sheetmapper/internal/logger"
	"github.com/locvowork/sheetmapper/pkg/googlecloud"
	"github.com/locvowork/sheetmapper/pkg/sheetmap"
)

// JobStore records sheet jobs. *googlecloud.Client implements it.
type JobStore interface {
	CreateJob(ctx context.Context, job *googlecloud.SheetJob) error
	FinishJob(ctx context.Context, id string, update func(*googlecloud.SheetJob)) error
}

type SheetConfig struct {
	WindowSize    int
	SpillDir      string
	ImportWorkers int
	Template      *sheetmap.SheetTemplate
}

// RowError is one failed cell of an imported row.
type RowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column,omitempty"`
	Message string `json:"message"`
}

type ImportResult struct {
	JobID     string            `json:"job_id,omitempty"`
	Imported  int               `json:"imported"`
	Failed    int               `json:"failed"`
	Committed bool              `json:"committed"`
	Errors    []RowError        `json:"errors,omitempty"`
	Employees []domain.Employee `json:"employees,omitempty"`
}

type EmployeeSheetService interface {
	// Disposition is the Content-Disposition value for a download.
	Disposition(template bool, now time.Time) string
	Export(ctx context.Context, w io.Writer, filter domain.EmployeeFilter) (int, error)
	ExportTemplate(ctx context.Context, w io.Writer) error
	Import(ctx context.Context, r io.Reader, headerRow int, commit bool) (*ImportResult, error)
	// DefaultHeaderRow is the 0-based header row of sheets produced by
	// Export and ExportTemplate.
	DefaultHeaderRow() int
}

type employeeSheetService struct {
	repo   domain.EmployeeRepository
	jobs   JobStore
	cfg    SheetConfig
	schema *sheetmap.Schema[domain.Employee]
}

// NewEmployeeSheetService builds the employee schema once. jobs may be nil.
func NewEmployeeSheetService(repo domain.EmployeeRepository, jobs JobStore, cfg SheetConfig) (EmployeeSheetService, error) {
	schema, err := domain.EmployeeSchema(cfg.Template)
	if err != nil {
		return nil, fmt.Errorf("failed to build employee schema: %w", err)
	}
	return &employeeSheetService{repo: repo, jobs: jobs, cfg: cfg, schema: schema}, nil
}

func (s *employeeSheetService) exportOptions() []sheetmap.Option {
	opts := []sheetmap.Option{sheetmap.WithSpillDir(s.cfg.SpillDir)}
	if s.cfg.WindowSize != 0 {
		opts = append(opts, sheetmap.WithWindowSize(s.cfg.WindowSize))
	}
	return opts
}

func (s *employeeSheetService) DefaultHeaderRow() int {
	rows := 0
	if title, _ := s.schema.Title(); title != "" {
		rows++
	}
	if len(s.schema.Captions()) > 0 {
		rows++
	}
	return rows
}

func (s *employeeSheetService) Disposition(template bool, now time.Time) string {
	name := s.schema.FileName()
	if template {
		name += "_template"
	} else {
		name = sheetmap.TimestampedName(name, now)
	}
	return sheetmap.ContentDisposition(name, "xlsx")
}

// Export streams the matching employees from the repository into one sheet.
// Nothing is written to w when reading the repository fails.
func (s *employeeSheetService) Export(ctx context.Context, w io.Writer, filter domain.EmployeeFilter) (int, error) {
	jobID := s.startJob(ctx, googlecloud.JobExport)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ch := make(chan domain.Employee, 64)
	errc := make(chan error, 1)
	count := 0
	go func() {
		defer close(ch)
		errc <- s.repo.Each(ctx, filter, func(e domain.Employee) error {
			select {
			case ch <- e:
				count++
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}()

	src := sheetmap.IteratorSource(func() (domain.Employee, bool, error) {
		select {
		case e, ok := <-ch:
			if ok {
				return e, true, nil
			}
			if err := <-errc; err != nil {
				return domain.Employee{}, false, err
			}
			return domain.Employee{}, false, nil
		case <-ctx.Done():
			return domain.Employee{}, false, ctx.Err()
		}
	})

	err := sheetmap.NewExporter(s.exportOptions()...).Export(ctx, w, sheetmap.NewStreamGroup(s.schema, src))
	if err != nil {
		cancel()
		s.finishJob(ctx, jobID, 0, nil, err)
		return 0, fmt.Errorf("failed to export employees: %w", err)
	}
	s.finishJob(ctx, jobID, count, nil, nil)
	logger.InfoLog(ctx, "Exported %d employees", count)
	return count, nil
}

// ExportTemplate writes the employee sheet with its header and drop-downs
// but no data rows.
func (s *employeeSheetService) ExportTemplate(ctx context.Context, w io.Writer) error {
	jobID := s.startJob(ctx, googlecloud.JobTemplate)
	err := sheetmap.NewExporter(s.exportOptions()...).Export(ctx, w, sheetmap.NewGroup[domain.Employee](s.schema, nil))
	s.finishJob(ctx, jobID, 0, nil, err)
	if err != nil {
		return fmt.Errorf("failed to export template: %w", err)
	}
	return nil
}

// Import decodes the employee sheet read from r. With commit set, the
// decoded employees are written to the repository, but only when every row
// decoded cleanly.
func (s *employeeSheetService) Import(ctx context.Context, r io.Reader, headerRow int, commit bool) (*ImportResult, error) {
	jobID := s.startJob(ctx, googlecloud.JobImport)

	var opts []sheetmap.ImportOption
	if s.cfg.ImportWorkers > 0 {
		opts = append(opts, sheetmap.WithImportWorkers(s.cfg.ImportWorkers))
	}
	records, rowErrs, err := sheetmap.ImportRows(ctx, r, s.schema, headerRow, opts...)
	result := &ImportResult{
		JobID:    jobID,
		Imported: len(records),
		Failed:   len(rowErrs),
		Errors:   toRowErrors(rowErrs),
	}
	if err != nil {
		s.finishJob(ctx, jobID, 0, rowErrs, err)
		return result, err
	}

	if commit && len(rowErrs) == 0 {
		n, err := s.repo.BulkCreate(ctx, records)
		if err != nil {
			s.finishJob(ctx, jobID, 0, nil, err)
			return result, fmt.Errorf("failed to store imported employees: %w", err)
		}
		result.Imported = n
		result.Committed = true
	} else {
		result.Employees = records
	}

	s.finishJob(ctx, jobID, result.Imported, rowErrs, nil)
	logger.InfoLog(ctx, "Imported %d employees, %d rows failed, committed=%t", result.Imported, result.Failed, result.Committed)
	return result, nil
}

func toRowErrors(errs []error) []RowError {
	var out []RowError
	for _, err := range errs {
		parts := []error{err}
		if joined, ok := err.(interface{ Unwrap() []error }); ok {
			parts = joined.Unwrap()
		}
		for _, p := range parts {
			re := RowError{Message: p.Error()}
			var verr *sheetmap.ValidationError
			var cerr *sheetmap.ConversionError
			switch {
			case errors.As(p, &verr):
				re.Row, re.Column = verr.Row, verr.Alias
			case errors.As(p, &cerr):
				re.Row, re.Column = cerr.Row, cerr.Alias
			}
			out = append(out, re)
		}
	}
	return out
}

func (s *employeeSheetService) startJob(ctx context.Context, kind string) string {
	if s.jobs == nil {
		return ""
	}
	job := &googlecloud.SheetJob{Kind: kind, Sheet: s.schema.SheetName(), FileName: s.schema.FileName()}
	if err := s.jobs.CreateJob(ctx, job); err != nil {
		logger.WarnLog(ctx, "failed to record %s job: %v", kind, err)
		return ""
	}
	return job.ID
}

func (s *employeeSheetService) finishJob(ctx context.Context, id string, rows int, rowErrs []error, runErr error) {
	if s.jobs == nil || id == "" {
		return
	}
	err := s.jobs.FinishJob(context.WithoutCancel(ctx), id, func(j *googlecloud.SheetJob) {
		j.Rows = rows
		j.FailedRows = len(rowErrs)
		j.AddErrors(rowErrs)
		j.Status = googlecloud.StatusSucceeded
		if runErr != nil {
			j.Status = googlecloud.StatusFailed
			j.Errors = append(j.Errors, runErr.Error())
		}
	})
	if err != nil {
		logger.WarnLog(ctx, "failed to finish job %s: %v", id, err)
	}
}

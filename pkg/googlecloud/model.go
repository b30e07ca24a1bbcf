package googlecloud

import (
	"time"
)

// Job kinds.
const (
	JobExport   = "export"
	JobTemplate = "template"
	JobImport   = "import"
)

// Job statuses.
const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// SheetJob is one export or import run.
type SheetJob struct {
	ID         string    `datastore:"-" json:"id"` // Key Name
	Kind       string    `datastore:"kind" json:"kind"`
	Sheet      string    `datastore:"sheet" json:"sheet"`
	FileName   string    `datastore:"file_name,noindex" json:"file_name"`
	Status     string    `datastore:"status" json:"status"`
	Rows       int       `datastore:"rows,noindex" json:"rows"`
	FailedRows int       `datastore:"failed_rows,noindex" json:"failed_rows"`
	Errors     []string  `datastore:"errors,noindex" json:"errors,omitempty"`
	StartedAt  time.Time `datastore:"started_at" json:"started_at"`
	FinishedAt time.Time `datastore:"finished_at,noindex" json:"finished_at,omitempty"`
	Version    int64     `datastore:"version,noindex" json:"version"`
}

// MaxJobErrors caps how many row errors are kept on a job entity.
const MaxJobErrors = 50

// AddErrors appends row errors up to MaxJobErrors.
func (j *SheetJob) AddErrors(errs []error) {
	for _, err := range errs {
		if len(j.Errors) >= MaxJobErrors {
			return
		}
		j.Errors = append(j.Errors, err.Error())
	}
}

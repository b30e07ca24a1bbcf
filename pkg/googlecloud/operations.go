package googlecloud

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/datastore"
	"github.com/google/uuid"
)

const KindSheetJob = "SheetJob"

// CreateJob stores a new running job. An empty ID gets a random one.
func (c *Client) CreateJob(ctx context.Context, job *SheetJob) error {
	if job.ID == "" {
		job.ID = strings.ReplaceAll(uuid.NewString(), "-", "")
	}
	if job.StartedAt.IsZero() {
		job.StartedAt = time.Now().UTC()
	}
	if job.Status == "" {
		job.Status = StatusRunning
	}

	key := datastore.NameKey(KindSheetJob, job.ID, nil)
	return WithRetry(ctx, c.retry, func() error {
		_, err := c.ds.Put(ctx, key, job)
		return err
	})
}

// GetJob retrieves a job by ID.
func (c *Client) GetJob(ctx context.Context, id string) (*SheetJob, error) {
	key := datastore.NameKey(KindSheetJob, id, nil)
	var job SheetJob
	if err := c.ds.Get(ctx, key, &job); err != nil {
		return nil, WrapDatastoreError(err)
	}
	job.ID = id
	return &job, nil
}

// FinishJob applies update to the stored job in a transaction and bumps its
// version.
func (c *Client) FinishJob(ctx context.Context, id string, update func(*SheetJob)) error {
	key := datastore.NameKey(KindSheetJob, id, nil)
	return WithRetry(ctx, c.retry, func() error {
		_, err := c.ds.RunInTransaction(ctx, func(tx *datastore.Transaction) error {
			var job SheetJob
			if err := tx.Get(key, &job); err != nil {
				return WrapDatastoreError(err)
			}
			version := job.Version
			update(&job)
			if job.FinishedAt.IsZero() {
				job.FinishedAt = time.Now().UTC()
			}
			job.Version = version + 1
			_, err := tx.Put(key, &job)
			return err
		})
		return err
	})
}

// ListJobs returns the latest jobs, newest first. An empty kind lists every
// kind.
func (c *Client) ListJobs(ctx context.Context, kind string, limit int) ([]SheetJob, error) {
	query := datastore.NewQuery(KindSheetJob)
	if kind != "" {
		query = query.Filter("kind =", kind)
	}
	query = query.Order("-started_at")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var jobs []SheetJob
	keys, err := c.ds.GetAll(ctx, query, &jobs)
	if err != nil {
		return nil, fmt.Errorf("failed to list sheet jobs: %w", err)
	}
	for i, key := range keys {
		jobs[i].ID = key.Name
	}
	return jobs, nil
}

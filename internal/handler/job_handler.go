package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/locvowork/sheetmapper/internal/logger"
	"github.com/locvowork/sheetmapper/internal/service/serviceutils"
	"github.com/locvowork/sheetmapper/pkg/googlecloud"
)

// JobReader reads recorded sheet jobs. *googlecloud.Client implements it.
type JobReader interface {
	GetJob(ctx context.Context, id string) (*googlecloud.SheetJob, error)
	ListJobs(ctx context.Context, kind string, limit int) ([]googlecloud.SheetJob, error)
}

type JobHandler struct {
	jobs JobReader
}

func NewJobHandler(jobs JobReader) *JobHandler {
	return &JobHandler{jobs: jobs}
}

// ListJobsHandler handles GET /jobs?kind=&limit=
func (h *JobHandler) ListJobsHandler(c echo.Context) error {
	ctx := c.Request().Context()
	limit := 50
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid limit", err)
		}
		limit = n
	}

	jobs, err := h.jobs.ListJobs(ctx, c.QueryParam("kind"), limit)
	if err != nil {
		logger.ErrorLog(ctx, "failed to list jobs: %v", err)
		return serviceutils.ResponseError(c, http.StatusInternalServerError, "Failed to list jobs", err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, "", jobs)
}

// GetJobHandler handles GET /jobs/:id
func (h *JobHandler) GetJobHandler(c echo.Context) error {
	ctx := c.Request().Context()
	job, err := h.jobs.GetJob(ctx, c.Param("id"))
	if err != nil {
		if googlecloud.IsNotFoundError(err) {
			return serviceutils.ResponseError(c, http.StatusNotFound, "Job not found", err)
		}
		logger.ErrorLog(ctx, "failed to get job: %v", err)
		return serviceutils.ResponseError(c, http.StatusInternalServerError, "Failed to get job", err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, "", job)
}

package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/locvowork/sheetmapper/internal/domain"
	"github.com/locvowork/sheetmapper/internal/logger"
	"github.com/locvowork/sheetmapper/internal/service"
	"github.com/locvowork/sheetmapper/internal/service/serviceutils"
	"github.com/locvowork/sheetmapper/pkg/sheetmap"
)

type EmployeeHandler struct {
	svc         service.EmployeeSheetService
	maxUploadMB int64
	now         func() time.Time
}

func NewEmployeeHandler(svc service.EmployeeSheetService, maxUploadMB int64) *EmployeeHandler {
	if maxUploadMB <= 0 {
		maxUploadMB = 20
	}
	return &EmployeeHandler{svc: svc, maxUploadMB: maxUploadMB, now: time.Now}
}

// ExportHandler handles GET /employees/export?department=&active=
func (h *EmployeeHandler) ExportHandler(c echo.Context) error {
	ctx := logger.WithContext(c.Request().Context())
	filter := domain.EmployeeFilter{Department: c.QueryParam("department")}
	if v := c.QueryParam("active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid active flag", err)
		}
		filter.ActiveOnly = active
	}

	h.setDownloadHeaders(c, false)
	n, err := h.svc.Export(ctx, c.Response(), filter)
	if err != nil {
		return h.downloadFailed(c, "Failed to export employees", err)
	}
	logger.DebugLog(ctx, "ExportHandler wrote %d employees", n)
	return nil
}

// TemplateHandler handles GET /employees/template
func (h *EmployeeHandler) TemplateHandler(c echo.Context) error {
	ctx := logger.WithContext(c.Request().Context())
	h.setDownloadHeaders(c, true)
	if err := h.svc.ExportTemplate(ctx, c.Response()); err != nil {
		return h.downloadFailed(c, "Failed to export template", err)
	}
	return nil
}

// ImportHandler handles POST /employees/import with a multipart "file" and
// optional header_row and commit form values.
func (h *EmployeeHandler) ImportHandler(c echo.Context) error {
	ctx := logger.WithContext(c.Request().Context())
	req := c.Request()
	req.Body = http.MaxBytesReader(c.Response(), req.Body, h.maxUploadMB<<20)

	fh, err := c.FormFile("file")
	if err != nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Missing upload file", err)
	}

	headerRow := h.svc.DefaultHeaderRow()
	if v := c.FormValue("header_row"); v != "" {
		headerRow, err = strconv.Atoi(v)
		if err != nil || headerRow < 0 {
			return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid header_row", err)
		}
	}
	commit := false
	if v := c.FormValue("commit"); v != "" {
		if commit, err = strconv.ParseBool(v); err != nil {
			return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid commit flag", err)
		}
	}

	file, err := fh.Open()
	if err != nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Cannot read upload file", err)
	}
	defer file.Close()

	res, err := h.svc.Import(ctx, file, headerRow, commit)
	if err != nil {
		var ioErr *sheetmap.IOError
		switch {
		case errors.Is(err, sheetmap.ErrNoRecords):
			return serviceutils.ResponseErrorData(c, http.StatusUnprocessableEntity, "No employees could be imported", err, res)
		case errors.As(err, &ioErr):
			return serviceutils.ResponseError(c, http.StatusBadRequest, "Upload is not a readable workbook", err)
		}
		logger.ErrorLog(ctx, "failed to import %s: %v", fh.Filename, err)
		return serviceutils.ResponseError(c, http.StatusInternalServerError, "Failed to import employees", err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, "Import finished", res)
}

func (h *EmployeeHandler) setDownloadHeaders(c echo.Context, template bool) {
	header := c.Response().Header()
	header.Set(echo.HeaderContentType, sheetmap.ContentTypeXLSX)
	header.Set(echo.HeaderContentDisposition, h.svc.Disposition(template, h.now()))
}

// downloadFailed reports an export error. Once bytes have reached the client
// the status can no longer change, so the error is only logged.
func (h *EmployeeHandler) downloadFailed(c echo.Context, msg string, err error) error {
	ctx := c.Request().Context()
	if c.Response().Committed {
		if sheetmap.IsBrokenPipe(err) {
			logger.WarnLog(ctx, "%s: client went away", msg)
		} else {
			logger.ErrorLog(ctx, "%s after response started: %v", msg, err)
		}
		return nil
	}
	c.Response().Header().Del(echo.HeaderContentDisposition)
	logger.ErrorLog(ctx, "%s: %v", msg, err)
	return serviceutils.ResponseError(c, http.StatusInternalServerError, msg, err)
}

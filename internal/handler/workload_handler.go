package handler

import (
	"context"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/Phuiluannn/FYPSchedulingSystem-sub001/internal/dto"
	"github.com/Phuiluannn/FYPSchedulingSystem-sub001/internal/models"
	"github.com/Phuiluannn/FYPSchedulingSystem-sub001/internal/service"
	appErrors "github.com/Phuiluannn/FYPSchedulingSystem-sub001/pkg/errors"
	"github.com/Phuiluannn/FYPSchedulingSystem-sub001/pkg/response"
)

type workloadReporter interface {
	Report(ctx context.Context, query dto.WorkloadQuery) (*models.WorkloadReport, error)
}

type reportExporter interface {
	Export(ctx context.Context, req dto.ExportReportRequest) (*dto.ExportReportResponse, error)
	Job(id string) (*models.ReportJob, error)
	Download(token string) (*os.File, string, error)
}

// WorkloadHandler exposes the workload report and its exports.
type WorkloadHandler struct {
	workloads workloadReporter
	reports   reportExporter
}

// NewWorkloadHandler constructs handler.
func NewWorkloadHandler(workloads *service.WorkloadService, reports *service.ReportService) *WorkloadHandler {
	return &WorkloadHandler{workloads: workloads, reports: reports}
}

// Report godoc
// @Summary Per-instructor workload for a scope
// @Tags Workload
// @Produce json
// @Param academicYear query string true "Academic year"
// @Param semester query string true "Semester"
// @Param publishedOnly query bool false "Restrict to published entries"
// @Success 200 {object} response.Envelope
// @Router /workload [get]
func (h *WorkloadHandler) Report(c *gin.Context) {
	query := dto.WorkloadQuery{
		AcademicYear:  c.Query("academicYear"),
		Semester:      c.Query("semester"),
		PublishedOnly: c.Query("publishedOnly") == "true",
	}
	report, err := h.workloads.Report(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Export godoc
// @Summary Enqueue a CSV or PDF export
// @Tags Workload
// @Accept json
// @Produce json
// @Param payload body dto.ExportReportRequest true "Export request"
// @Success 202 {object} response.Envelope
// @Router /workload/export [post]
func (h *WorkloadHandler) Export(c *gin.Context) {
	var req dto.ExportReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	result, err := h.reports.Export(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, result)
}

// JobStatus godoc
// @Summary Poll an export job
// @Tags Workload
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Router /exports/{id} [get]
func (h *WorkloadHandler) JobStatus(c *gin.Context) {
	job, err := h.reports.Job(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, job, nil)
}

// Download godoc
// @Summary Download a finished export artifact
// @Tags Workload
// @Produce octet-stream
// @Param token query string true "Signed download token"
// @Success 200 {file} binary
// @Router /exports/download [get]
func (h *WorkloadHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	file, name, err := h.reports.Download(token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer func() {
		_ = file.Close()
	}()
	c.FileAttachment(file.Name(), name)
}

package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Phuiluannn/FYPSchedulingSystem-sub001/internal/dto"
	"github.com/Phuiluannn/FYPSchedulingSystem-sub001/internal/models"
	"github.com/Phuiluannn/FYPSchedulingSystem-sub001/internal/service"
	appErrors "github.com/Phuiluannn/FYPSchedulingSystem-sub001/pkg/errors"
	"github.com/Phuiluannn/FYPSchedulingSystem-sub001/pkg/response"
)

type conflictManager interface {
	Detect(ctx context.Context, req dto.DetectConflictsRequest) (*dto.DetectConflictsResponse, error)
	AutoResolve(ctx context.Context, req dto.AutoResolveRequest) (*dto.AutoResolveResponse, error)
	Resolve(ctx context.Context, id string) error
	List(ctx context.Context, query dto.ConflictQuery) ([]models.Conflict, *models.Pagination, error)
}

// ConflictHandler manages conflict detection and resolution endpoints.
type ConflictHandler struct {
	conflicts conflictManager
	metrics   *service.MetricsService
}

// NewConflictHandler constructs handler.
func NewConflictHandler(conflicts *service.ConflictService, metrics *service.MetricsService) *ConflictHandler {
	return &ConflictHandler{conflicts: conflicts, metrics: metrics}
}

// Detect godoc
// @Summary Run conflict detection over the draft timetable
// @Tags Conflicts
// @Accept json
// @Produce json
// @Param payload body dto.DetectConflictsRequest true "Scope"
// @Success 200 {object} response.Envelope
// @Router /conflicts/detect [post]
func (h *ConflictHandler) Detect(c *gin.Context) {
	var req dto.DetectConflictsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	result, err := h.conflicts.Detect(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.ObserveConflicts(string(models.ConflictRoomDoubleBook), result.RoomDoubleBookings)
	h.metrics.ObserveConflicts(string(models.ConflictRoomCapacity), result.RoomCapacity)
	h.metrics.ObserveConflicts(string(models.ConflictInstructor), result.InstructorConflicts)
	h.metrics.ObserveConflicts(string(models.ConflictTimeSlotExceeded), result.TimeSlotExceeded)
	response.JSON(c, http.StatusOK, result, nil)
}

// List godoc
// @Summary List recorded conflicts
// @Tags Conflicts
// @Produce json
// @Param academicYear query string false "Academic year"
// @Param semester query string false "Semester"
// @Param status query string false "Pending or Resolved"
// @Param type query string false "Conflict type"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /conflicts [get]
func (h *ConflictHandler) List(c *gin.Context) {
	query := dto.ConflictQuery{
		AcademicYear: c.Query("academicYear"),
		Semester:     c.Query("semester"),
		Status:       c.Query("status"),
		Type:         c.Query("type"),
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		query.Page = page
	}
	if pageSize, err := strconv.Atoi(c.DefaultQuery("pageSize", "20")); err == nil {
		query.PageSize = pageSize
	}
	conflicts, pagination, err := h.conflicts.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, conflicts, pagination)
}

// Resolve godoc
// @Summary Mark one conflict as resolved
// @Tags Conflicts
// @Produce json
// @Param id path string true "Conflict ID"
// @Success 200 {object} response.Envelope
// @Router /conflicts/{id}/resolve [patch]
func (h *ConflictHandler) Resolve(c *gin.Context) {
	if err := h.conflicts.Resolve(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"resolved": true}, nil)
}

// AutoResolve godoc
// @Summary Resolve pending conflicts that no longer reproduce
// @Tags Conflicts
// @Accept json
// @Produce json
// @Param payload body dto.AutoResolveRequest true "Scope"
// @Success 200 {object} response.Envelope
// @Router /conflicts/auto-resolve [post]
func (h *ConflictHandler) AutoResolve(c *gin.Context) {
	var req dto.AutoResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	result, err := h.conflicts.AutoResolve(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

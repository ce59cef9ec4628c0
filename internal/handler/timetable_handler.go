package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Phuiluannn/FYPSchedulingSystem-sub001/internal/dto"
	"github.com/Phuiluannn/FYPSchedulingSystem-sub001/internal/models"
	"github.com/Phuiluannn/FYPSchedulingSystem-sub001/internal/service"
	appErrors "github.com/Phuiluannn/FYPSchedulingSystem-sub001/pkg/errors"
	"github.com/Phuiluannn/FYPSchedulingSystem-sub001/pkg/response"
)

type timetableGenerator interface {
	Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error)
}

type scheduleManager interface {
	Save(ctx context.Context, req dto.SaveTimetableRequest) (*dto.SaveTimetableResponse, error)
	GetDraft(ctx context.Context, query dto.TimetableQuery) ([]models.ScheduleItem, error)
	GetPublished(ctx context.Context, query dto.TimetableQuery) ([]models.ScheduleItem, error)
	UpdateItem(ctx context.Context, id string, req dto.UpdateScheduleItemRequest) (*models.ScheduleItem, error)
}

type timetablePublisher interface {
	Publish(ctx context.Context, req dto.PublishTimetableRequest) (*dto.PublishTimetableResponse, error)
}

type draftConflictDetector interface {
	Detect(ctx context.Context, req dto.DetectConflictsRequest) (*dto.DetectConflictsResponse, error)
}

// TimetableHandler manages generation, drafts and publishing.
type TimetableHandler struct {
	generator    timetableGenerator
	schedules    scheduleManager
	publisher    timetablePublisher
	conflicts    draftConflictDetector
	metrics      *service.MetricsService
	detectOnSave bool
}

// NewTimetableHandler constructs handler.
func NewTimetableHandler(generator *service.GeneratorService, schedules *service.ScheduleService, publisher *service.PublishService, conflicts *service.ConflictService, metrics *service.MetricsService, detectOnSave bool) *TimetableHandler {
	h := &TimetableHandler{
		generator:    generator,
		schedules:    schedules,
		publisher:    publisher,
		metrics:      metrics,
		detectOnSave: detectOnSave,
	}
	if conflicts != nil {
		h.conflicts = conflicts
	}
	return h
}

// Generate godoc
// @Summary Generate a candidate timetable for a scope
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body dto.GenerateTimetableRequest true "Scope"
// @Success 200 {object} response.Envelope
// @Router /timetable/generate [post]
func (h *TimetableHandler) Generate(c *gin.Context) {
	var req dto.GenerateTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	result, err := h.generator.Generate(c.Request.Context(), req)
	if err != nil {
		h.metrics.ObserveGeneration(0, 0, true)
		response.Error(c, err)
		return
	}
	h.metrics.ObserveGeneration(len(result.Items), len(result.Unplaced), false)
	response.JSON(c, http.StatusOK, result, nil)
}

// Save godoc
// @Summary Replace the draft timetable for a scope
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body dto.SaveTimetableRequest true "Draft entries"
// @Success 200 {object} response.Envelope
// @Router /timetable/save [post]
func (h *TimetableHandler) Save(c *gin.Context) {
	var req dto.SaveTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	result, err := h.schedules.Save(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	meta := map[string]interface{}{}
	if h.detectOnSave && h.conflicts != nil {
		detection, err := h.conflicts.Detect(c.Request.Context(), dto.DetectConflictsRequest{
			AcademicYear: req.AcademicYear,
			Semester:     req.Semester,
		})
		if err == nil {
			meta["conflicts_detected"] = detection.Total
		}
	}
	response.JSON(c, http.StatusOK, result, nil, meta)
}

// Draft godoc
// @Summary Get the draft timetable for a scope
// @Tags Timetable
// @Produce json
// @Param academicYear query string true "Academic year"
// @Param semester query string true "Semester"
// @Success 200 {object} response.Envelope
// @Router /timetable [get]
func (h *TimetableHandler) Draft(c *gin.Context) {
	query := dto.TimetableQuery{
		AcademicYear: c.Query("academicYear"),
		Semester:     c.Query("semester"),
	}
	items, err := h.schedules.GetDraft(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Published godoc
// @Summary Get the published timetable for a scope
// @Tags Timetable
// @Produce json
// @Param academicYear query string true "Academic year"
// @Param semester query string true "Semester"
// @Success 200 {object} response.Envelope
// @Router /timetable/published [get]
func (h *TimetableHandler) Published(c *gin.Context) {
	query := dto.TimetableQuery{
		AcademicYear: c.Query("academicYear"),
		Semester:     c.Query("semester"),
	}
	items, err := h.schedules.GetPublished(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// UpdateItem godoc
// @Summary Edit a single draft entry
// @Tags Timetable
// @Accept json
// @Produce json
// @Param id path string true "Schedule item ID"
// @Param payload body dto.UpdateScheduleItemRequest true "Changes"
// @Success 200 {object} response.Envelope
// @Router /timetable/items/{id} [put]
func (h *TimetableHandler) UpdateItem(c *gin.Context) {
	var req dto.UpdateScheduleItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	item, err := h.schedules.UpdateItem(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Publish godoc
// @Summary Publish the draft timetable for a scope
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body dto.PublishTimetableRequest true "Scope"
// @Success 200 {object} response.Envelope
// @Router /timetable/publish [post]
func (h *TimetableHandler) Publish(c *gin.Context) {
	var req dto.PublishTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	result, err := h.publisher.Publish(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.ObservePublish()
	response.JSON(c, http.StatusOK, result, nil)
}

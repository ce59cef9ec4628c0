package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/Phuiluannn/FYPSchedulingSystem-sub001/internal/dto"
	"github.com/Phuiluannn/FYPSchedulingSystem-sub001/internal/models"
	"github.com/Phuiluannn/FYPSchedulingSystem-sub001/internal/timegrid"
	appErrors "github.com/Phuiluannn/FYPSchedulingSystem-sub001/pkg/errors"
)

type scheduleStore interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
	ListByScope(ctx context.Context, academicYear, semester string, published bool) ([]models.ScheduleItem, error)
	FindByID(ctx context.Context, id string) (*models.ScheduleItem, error)
	DeleteDrafts(ctx context.Context, exec sqlx.ExtContext, academicYear, semester string) error
	BulkInsert(ctx context.Context, exec sqlx.ExtContext, items []models.ScheduleItem) error
	Update(ctx context.Context, item *models.ScheduleItem) error
}

type scheduleCourseFinder interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type scheduleRoomFinder interface {
	FindByID(ctx context.Context, id string) (*models.Room, error)
}

type scheduleInstructorFinder interface {
	FindByName(ctx context.Context, name string) (*models.Instructor, error)
}

type cacheInvalidator interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

// ScheduleService owns the draft lifecycle of schedule entries: replacing
// the draft set on save, serving scope reads, and editing single entries.
// Published entries are read-only here; only the publish pass writes them.
type ScheduleService struct {
	schedules   scheduleStore
	courses     scheduleCourseFinder
	rooms       scheduleRoomFinder
	instructors scheduleInstructorFinder
	caches      cacheInvalidator
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewScheduleService wires schedule dependencies. A nil cache invalidator
// is allowed; stale workload reports then age out on their TTL.
func NewScheduleService(schedules scheduleStore, courses scheduleCourseFinder, rooms scheduleRoomFinder, instructors scheduleInstructorFinder, caches cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{
		schedules:   schedules,
		courses:     courses,
		rooms:       rooms,
		instructors: instructors,
		caches:      caches,
		validator:   validate,
		logger:      logger,
	}
}

// Named outcomes of the instructor resolution rules, evaluated top-down.
const (
	resolutionManual     = "manual-selection"
	resolutionSingleName = "single-eligible"
	resolutionUnassigned = "unassigned"
)

type instructorResolution struct {
	Rule         string
	InstructorID *string
	Names        []string
}

// resolveInstructor applies the assignment rules in priority order. The
// first matching rule wins.
func (s *ScheduleService) resolveInstructor(ctx context.Context, payload dto.ScheduleItemPayload) instructorResolution {
	if payload.SelectedInstructor != "" {
		return instructorResolution{
			Rule:         resolutionManual,
			InstructorID: s.lookupInstructorID(ctx, payload.SelectedInstructor),
			Names:        []string{payload.SelectedInstructor},
		}
	}
	if len(payload.InstructorNames) == 1 {
		return instructorResolution{
			Rule:         resolutionSingleName,
			InstructorID: s.lookupInstructorID(ctx, payload.InstructorNames[0]),
			Names:        []string{payload.InstructorNames[0]},
		}
	}
	names := payload.InstructorNames
	if names == nil {
		names = []string{}
	}
	return instructorResolution{Rule: resolutionUnassigned, Names: names}
}

// lookupInstructorID maps a display name to an identifier. Inactive or
// unknown instructors keep the name for display but carry no identifier.
func (s *ScheduleService) lookupInstructorID(ctx context.Context, name string) *string {
	instructor, err := s.instructors.FindByName(ctx, name)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("instructor lookup failed", zap.String("name", name), zap.Error(err))
		}
		return nil
	}
	if !instructor.IsActive() {
		return nil
	}
	id := instructor.ID
	return &id
}

// validateEntries rejects the whole save before anything touches storage.
func validateEntries(items []dto.ScheduleItemPayload) error {
	for i, item := range items {
		if !timegrid.ValidDay(item.Day) {
			return appErrors.New(appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("entry %d: unknown day %q", i, item.Day))
		}
		start := startSlotIndex(item.StartTime)
		if start < 0 {
			return appErrors.New(appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("entry %d: start time %q is not on the slot grid", i, item.StartTime))
		}
		if item.Duration < 1 {
			return appErrors.New(appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("entry %d: duration must be at least 1", i))
		}
		if !timegrid.RangeFits(start, item.Duration) {
			return appErrors.New(appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("entry %d: %s + %d slots runs past the end of the day", i, item.StartTime, item.Duration))
		}
	}
	return nil
}

// startSlotIndex accepts either a slot label or a bare start boundary.
func startSlotIndex(startTime string) int {
	if i := timegrid.SlotIndex(startTime); i >= 0 {
		return i
	}
	for i := 0; i < timegrid.SlotCount(); i++ {
		if timegrid.StartTime(i) == startTime {
			return i
		}
	}
	return -1
}

// Save replaces the draft set for the scope with the given entries inside a
// single transaction. Published entries in the scope are never touched.
// Entries whose course or room no longer exists are skipped individually
// and reported; malformed entries fail the whole request up front.
func (s *ScheduleService) Save(ctx context.Context, req dto.SaveTimetableRequest) (*dto.SaveTimetableResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid save payload")
	}
	if err := validateEntries(req.Items); err != nil {
		return nil, err
	}

	items := make([]models.ScheduleItem, 0, len(req.Items))
	skipped := make([]dto.SkippedItem, 0)

	for _, payload := range req.Items {
		course, err := s.courses.FindByID(ctx, payload.CourseID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				skipped = append(skipped, dto.SkippedItem{CourseCode: payload.CourseCode, Reason: "course not found"})
				continue
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
		}
		if payload.RoomID != nil && *payload.RoomID != "" {
			if _, err := s.rooms.FindByID(ctx, *payload.RoomID); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					skipped = append(skipped, dto.SkippedItem{CourseCode: course.Code, Reason: "room not found"})
					continue
				}
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room")
			}
		}

		items = append(items, s.buildItem(ctx, payload, course, req.AcademicYear, req.Semester))
	}

	tx, err := s.schedules.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := s.schedules.DeleteDrafts(ctx, tx, req.AcademicYear, req.Semester); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear drafts")
	}
	if err := s.schedules.BulkInsert(ctx, tx, items); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store drafts")
	}
	if err := tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit drafts")
	}

	s.invalidateWorkload(ctx, req.AcademicYear, req.Semester)

	s.logger.Info("draft timetable saved",
		zap.String("academic_year", req.AcademicYear),
		zap.String("semester", req.Semester),
		zap.Int("saved", len(items)),
		zap.Int("skipped", len(skipped)),
	)

	return &dto.SaveTimetableResponse{Saved: items, Skipped: skipped}, nil
}

func (s *ScheduleService) invalidateWorkload(ctx context.Context, academicYear, semester string) {
	if s.caches == nil {
		return
	}
	pattern := WorkloadCachePattern(academicYear, semester)
	if err := s.caches.DeleteByPattern(ctx, pattern); err != nil {
		s.logger.Warn("workload cache invalidation failed", zap.String("pattern", pattern), zap.Error(err))
	}
}

// buildItem converts a boundary payload into a storable draft entry.
func (s *ScheduleService) buildItem(ctx context.Context, payload dto.ScheduleItemPayload, course *models.Course, academicYear, semester string) models.ScheduleItem {
	resolution := s.resolveInstructor(ctx, payload)

	original := payload.OriginalInstructors
	if len(original) == 0 {
		original = resolution.Names
	}

	occurrenceType := payload.OccurrenceType
	if occurrenceType == "" {
		occurrenceType = "Lecture"
	}
	numbers := make([]int64, 0, len(payload.OccurrenceNumbers))
	for _, n := range payload.OccurrenceNumbers {
		numbers = append(numbers, int64(n))
	}
	if len(numbers) == 0 {
		numbers = []int64{1}
	}

	start := startSlotIndex(payload.StartTime)
	endTime := payload.EndTime
	if endTime == "" {
		endTime = timegrid.EndTime(start + payload.Duration - 1)
	}

	code := payload.CourseCode
	if code == "" {
		code = course.Code
	}

	return models.ScheduleItem{
		CourseID:            course.ID,
		CourseCode:          code,
		RoomID:              payload.RoomID,
		InstructorID:        resolution.InstructorID,
		InstructorNames:     resolution.Names,
		OriginalInstructors: original,
		OccurrenceType:      occurrenceType,
		OccurrenceNumbers:   numbers,
		Day:                 payload.Day,
		StartTime:           timegrid.StartTime(start),
		EndTime:             endTime,
		Duration:            payload.Duration,
		AcademicYear:        academicYear,
		Semester:            semester,
		Published:           false,
	}
}

// GetDraft returns the working copy for a scope. When no drafts exist yet
// the published set is cloned under fresh identifiers with Published=false
// and the clones are persisted, so an editing session always starts from a
// mutable baseline without touching the live published rows.
func (s *ScheduleService) GetDraft(ctx context.Context, query dto.TimetableQuery) ([]models.ScheduleItem, error) {
	scope := models.Scope{AcademicYear: query.AcademicYear, Semester: query.Semester}
	if !scope.Valid() {
		return nil, appErrors.New(appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "academicYear and semester are required")
	}

	drafts, err := s.schedules.ListByScope(ctx, query.AcademicYear, query.Semester, false)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load drafts")
	}
	if len(drafts) > 0 {
		return drafts, nil
	}

	published, err := s.schedules.ListByScope(ctx, query.AcademicYear, query.Semester, true)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load published entries")
	}
	if len(published) == 0 {
		return []models.ScheduleItem{}, nil
	}
	clones := make([]models.ScheduleItem, len(published))
	for i, item := range published {
		item.ID = ""
		item.Published = false
		item.CreatedAt = time.Time{}
		clones[i] = item
	}
	if err := s.schedules.BulkInsert(ctx, nil, clones); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to seed drafts from published entries")
	}
	s.logger.Info("draft baseline cloned from published timetable",
		zap.String("academic_year", query.AcademicYear),
		zap.String("semester", query.Semester),
		zap.Int("entries", len(clones)),
	)
	return clones, nil
}

// GetPublished returns the released timetable for a scope.
func (s *ScheduleService) GetPublished(ctx context.Context, query dto.TimetableQuery) ([]models.ScheduleItem, error) {
	scope := models.Scope{AcademicYear: query.AcademicYear, Semester: query.Semester}
	if !scope.Valid() {
		return nil, appErrors.New(appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "academicYear and semester are required")
	}
	items, err := s.schedules.ListByScope(ctx, query.AcademicYear, query.Semester, true)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load published entries")
	}
	return items, nil
}

// UpdateItem edits a single draft entry in place. Published entries are
// immutable through this path.
func (s *ScheduleService) UpdateItem(ctx context.Context, id string, req dto.UpdateScheduleItemRequest) (*models.ScheduleItem, error) {
	item, err := s.schedules.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.New(appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "schedule item not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule item")
	}
	if item.Published {
		return nil, appErrors.New(appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "published entries cannot be edited")
	}

	if req.RoomID != nil && *req.RoomID != "" {
		if _, err := s.rooms.FindByID(ctx, *req.RoomID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.New(appErrors.ErrReferenceNotFound.Code, appErrors.ErrReferenceNotFound.Status, "room not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room")
		}
		item.RoomID = req.RoomID
	}
	if req.Day != "" {
		if !timegrid.ValidDay(req.Day) {
			return nil, appErrors.New(appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("unknown day %q", req.Day))
		}
		item.Day = req.Day
	}
	if req.Duration > 0 {
		item.Duration = req.Duration
	}
	if req.StartTime != "" {
		item.StartTime = req.StartTime
	}
	start := startSlotIndex(item.StartTime)
	if start < 0 {
		return nil, appErrors.New(appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("start time %q is not on the slot grid", item.StartTime))
	}
	if !timegrid.RangeFits(start, item.Duration) {
		return nil, appErrors.New(appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("%s + %d slots runs past the end of the day", item.StartTime, item.Duration))
	}
	item.StartTime = timegrid.StartTime(start)
	item.EndTime = timegrid.EndTime(start + item.Duration - 1)

	if req.SelectedInstructor != "" {
		item.InstructorID = s.lookupInstructorID(ctx, req.SelectedInstructor)
		item.InstructorNames = []string{req.SelectedInstructor}
	}

	if err := s.schedules.Update(ctx, item); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.New(appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "schedule item not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update schedule item")
	}
	s.invalidateWorkload(ctx, item.AcademicYear, item.Semester)
	return item, nil
}

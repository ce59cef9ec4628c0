package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Phuiluannn/FYPSchedulingSystem-sub001/internal/dto"
	"github.com/Phuiluannn/FYPSchedulingSystem-sub001/internal/models"
	"github.com/Phuiluannn/FYPSchedulingSystem-sub001/internal/timegrid"
	appErrors "github.com/Phuiluannn/FYPSchedulingSystem-sub001/pkg/errors"
)

type conflictStore interface {
	Insert(ctx context.Context, conflict *models.Conflict) error
	List(ctx context.Context, filter models.ConflictFilter) ([]models.Conflict, int, error)
	ListPending(ctx context.Context, academicYear, semester string) ([]models.Conflict, error)
	UpdateStatus(ctx context.Context, id string, status models.ConflictStatus) error
	ResolveMany(ctx context.Context, ids []string) error
}

type conflictScheduleLister interface {
	ListByScope(ctx context.Context, academicYear, semester string, published bool) ([]models.ScheduleItem, error)
}

type conflictCourseLister interface {
	ListByScope(ctx context.Context, academicYear, semester string) ([]models.Course, error)
}

type conflictRoomLister interface {
	List(ctx context.Context) ([]models.Room, error)
}

// ConflictService runs the detection passes over a scope's draft set and
// manages the resulting records. Detection is append-only; a still-present
// violation is recorded again on every run and cleared later by resolution.
type ConflictService struct {
	conflicts conflictStore
	schedules conflictScheduleLister
	courses   conflictCourseLister
	rooms     conflictRoomLister
	validator *validator.Validate
	logger    *zap.Logger
}

// NewConflictService wires conflict dependencies.
func NewConflictService(conflicts conflictStore, schedules conflictScheduleLister, courses conflictCourseLister, rooms conflictRoomLister, validate *validator.Validate, logger *zap.Logger) *ConflictService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConflictService{
		conflicts: conflicts,
		schedules: schedules,
		courses:   courses,
		rooms:     rooms,
		validator: validate,
		logger:    logger,
	}
}

// referenceIndex holds the lookup tables one detection run works against.
type referenceIndex struct {
	coursesByID map[string]models.Course
	roomsByID   map[string]models.Room
}

func buildReferenceIndex(courses []models.Course, rooms []models.Room) referenceIndex {
	index := referenceIndex{
		coursesByID: make(map[string]models.Course, len(courses)),
		roomsByID:   make(map[string]models.Room, len(rooms)),
	}
	for _, course := range courses {
		index.coursesByID[course.ID] = course
	}
	for _, room := range rooms {
		index.roomsByID[room.ID] = room
	}
	return index
}

// detectViolations runs the detection passes over the entries and returns
// every violation found. It is pure: no storage access, no side effects.
func detectViolations(entries []models.ScheduleItem, refs referenceIndex, academicYear, semester string) []models.Conflict {
	violations := make([]models.Conflict, 0)
	violations = append(violations, detectRoomDoubleBookings(entries, refs, academicYear, semester)...)
	violations = append(violations, detectCapacityViolations(entries, refs, academicYear, semester)...)
	violations = append(violations, detectInstructorConflicts(entries, academicYear, semester)...)
	violations = append(violations, detectTimeSlotOverruns(entries, academicYear, semester)...)
	return violations
}

// slotRangeOf returns the slot labels an entry occupies, clipped to the
// grid. The second result reports whether the full range fits.
func slotRangeOf(entry models.ScheduleItem) ([]string, bool) {
	start := timegrid.SlotIndex(entry.StartTime)
	if start < 0 {
		for i := 0; i < timegrid.SlotCount(); i++ {
			if timegrid.StartTime(i) == entry.StartTime {
				start = i
				break
			}
		}
	}
	if start < 0 {
		return nil, false
	}
	duration := entry.Duration
	if duration < 1 {
		duration = 1
	}
	if labels := timegrid.SlotRange(start, duration); labels != nil {
		return labels, true
	}
	end := start + duration
	if end > timegrid.SlotCount() {
		end = timegrid.SlotCount()
	}
	return timegrid.Slots[start:end], false
}

// detectRoomDoubleBookings claims slots per room and day in entry order.
// Each claimed slot reached by a later entry yields one violation naming
// both course codes.
func detectRoomDoubleBookings(entries []models.ScheduleItem, refs referenceIndex, academicYear, semester string) []models.Conflict {
	type claim struct {
		courseCode string
	}
	claimed := make(map[string]map[string]claim)
	violations := make([]models.Conflict, 0)

	for _, entry := range entries {
		if entry.RoomID == nil || *entry.RoomID == "" {
			continue
		}
		roomID := *entry.RoomID
		key := entry.Day + "|" + roomID
		slots, ok := claimed[key]
		if !ok {
			slots = make(map[string]claim)
			claimed[key] = slots
		}
		labels, _ := slotRangeOf(entry)
		for _, label := range labels {
			prior, taken := slots[label]
			if !taken {
				slots[label] = claim{courseCode: entry.CourseCode}
				continue
			}
			roomCode := roomID
			if room, ok := refs.roomsByID[roomID]; ok {
				roomCode = room.Code
			}
			day := entry.Day
			slot := label
			code := entry.CourseCode
			ref := roomID
			violations = append(violations, models.Conflict{
				AcademicYear: academicYear,
				Semester:     semester,
				Type:         models.ConflictRoomDoubleBook,
				Description:  fmt.Sprintf("%s and %s are both assigned to room %s on %s at %s", prior.courseCode, entry.CourseCode, roomCode, day, slot),
				CourseCode:   &code,
				RoomID:       &ref,
				Day:          &day,
				StartTime:    &slot,
			})
		}
	}
	return violations
}

// detectCapacityViolations compares each room's capacity against the seats
// one occurrence of the course needs.
func detectCapacityViolations(entries []models.ScheduleItem, refs referenceIndex, academicYear, semester string) []models.Conflict {
	violations := make([]models.Conflict, 0)
	for _, entry := range entries {
		if entry.RoomID == nil || *entry.RoomID == "" {
			continue
		}
		course, ok := refs.coursesByID[entry.CourseID]
		if !ok {
			continue
		}
		room, ok := refs.roomsByID[*entry.RoomID]
		if !ok {
			continue
		}
		required := course.RequiredCapacity()
		if room.Capacity >= required {
			continue
		}
		day := entry.Day
		start := entry.StartTime
		code := entry.CourseCode
		roomID := room.ID
		violations = append(violations, models.Conflict{
			AcademicYear: academicYear,
			Semester:     semester,
			Type:         models.ConflictRoomCapacity,
			Description:  fmt.Sprintf("%s needs %d seats but room %s holds %d", course.Code, required, room.Code, room.Capacity),
			CourseCode:   &code,
			RoomID:       &roomID,
			Day:          &day,
			StartTime:    &start,
		})
	}
	return violations
}

// detectInstructorConflicts claims slot indices per instructor and day.
// Entries without an assigned instructor are skipped.
func detectInstructorConflicts(entries []models.ScheduleItem, academicYear, semester string) []models.Conflict {
	type claim struct {
		courseCode string
	}
	claimed := make(map[string]map[string]claim)
	violations := make([]models.Conflict, 0)

	for _, entry := range entries {
		instructor := assignedInstructor(entry)
		if instructor == "" {
			continue
		}
		key := entry.Day + "|" + instructor
		slots, ok := claimed[key]
		if !ok {
			slots = make(map[string]claim)
			claimed[key] = slots
		}
		labels, _ := slotRangeOf(entry)
		for _, label := range labels {
			prior, taken := slots[label]
			if !taken {
				slots[label] = claim{courseCode: entry.CourseCode}
				continue
			}
			if prior.courseCode == entry.CourseCode {
				continue
			}
			day := entry.Day
			slot := label
			code := entry.CourseCode
			violations = append(violations, models.Conflict{
				AcademicYear: academicYear,
				Semester:     semester,
				Type:         models.ConflictInstructor,
				Description:  fmt.Sprintf("%s is scheduled for %s and %s on %s at %s", instructor, prior.courseCode, entry.CourseCode, day, slot),
				CourseCode:   &code,
				InstructorID: instructorRef(entry),
				Day:          &day,
				StartTime:    &slot,
			})
		}
	}
	return violations
}

// detectTimeSlotOverruns flags entries whose duration runs past the last
// slot of the day.
func detectTimeSlotOverruns(entries []models.ScheduleItem, academicYear, semester string) []models.Conflict {
	violations := make([]models.Conflict, 0)
	for _, entry := range entries {
		if _, fits := slotRangeOf(entry); fits {
			continue
		}
		day := entry.Day
		start := entry.StartTime
		code := entry.CourseCode
		violations = append(violations, models.Conflict{
			AcademicYear: academicYear,
			Semester:     semester,
			Type:         models.ConflictTimeSlotExceeded,
			Description:  fmt.Sprintf("%s starting %s on %s runs past the end of the teaching day", entry.CourseCode, start, day),
			CourseCode:   &code,
			Day:          &day,
			StartTime:    &start,
		})
	}
	return violations
}

func assignedInstructor(entry models.ScheduleItem) string {
	if entry.InstructorID != nil && *entry.InstructorID != "" && len(entry.InstructorNames) > 0 {
		return entry.InstructorNames[0]
	}
	if len(entry.InstructorNames) == 1 {
		return entry.InstructorNames[0]
	}
	return ""
}

func instructorRef(entry models.ScheduleItem) *string {
	if entry.InstructorID == nil || *entry.InstructorID == "" {
		return nil
	}
	id := *entry.InstructorID
	return &id
}

// violationKey identifies a violation by its observable coordinates, so a
// recorded conflict can be matched against a fresh detection run.
func violationKey(c models.Conflict) string {
	parts := []string{
		string(c.Type),
		c.AcademicYear,
		c.Semester,
		deref(c.CourseCode),
		deref(c.RoomID),
		deref(c.InstructorID),
		deref(c.Day),
		deref(c.StartTime),
	}
	return strings.Join(parts, "|")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Detect runs every pass over the scope's draft set and records each
// violation found. Records are persisted one by one; a failure storing one
// is logged and does not stop the rest.
func (s *ConflictService) Detect(ctx context.Context, req dto.DetectConflictsRequest) (*dto.DetectConflictsResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid detect payload")
	}

	violations, err := s.currentViolations(ctx, req.AcademicYear, req.Semester)
	if err != nil {
		return nil, err
	}

	response := &dto.DetectConflictsResponse{}
	for i := range violations {
		violation := violations[i]
		if err := s.conflicts.Insert(ctx, &violation); err != nil {
			s.logger.Error("failed to record conflict",
				zap.String("type", string(violation.Type)),
				zap.String("description", violation.Description),
				zap.Error(err),
			)
			continue
		}
		switch violation.Type {
		case models.ConflictRoomDoubleBook:
			response.RoomDoubleBookings++
		case models.ConflictRoomCapacity:
			response.RoomCapacity++
		case models.ConflictInstructor:
			response.InstructorConflicts++
		case models.ConflictTimeSlotExceeded:
			response.TimeSlotExceeded++
		}
		response.Total++
	}

	s.logger.Info("conflict detection complete",
		zap.String("academic_year", req.AcademicYear),
		zap.String("semester", req.Semester),
		zap.Int("recorded", response.Total),
	)
	return response, nil
}

func (s *ConflictService) currentViolations(ctx context.Context, academicYear, semester string) ([]models.Conflict, error) {
	entries, err := s.schedules.ListByScope(ctx, academicYear, semester, false)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load drafts")
	}
	courses, err := s.courses.ListByScope(ctx, academicYear, semester)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load courses")
	}
	rooms, err := s.rooms.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rooms")
	}
	return detectViolations(entries, buildReferenceIndex(courses, rooms), academicYear, semester), nil
}

// AutoResolve re-runs detection against the current schedule state and
// resolves every pending conflict whose violation no longer reproduces.
// Safe to run repeatedly; a violation that still holds stays pending.
func (s *ConflictService) AutoResolve(ctx context.Context, req dto.AutoResolveRequest) (*dto.AutoResolveResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid auto-resolve payload")
	}

	violations, err := s.currentViolations(ctx, req.AcademicYear, req.Semester)
	if err != nil {
		return nil, err
	}
	live := make(map[string]struct{}, len(violations))
	for _, violation := range violations {
		live[violationKey(violation)] = struct{}{}
	}

	pending, err := s.conflicts.ListPending(ctx, req.AcademicYear, req.Semester)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load pending conflicts")
	}

	stale := make([]string, 0, len(pending))
	for _, conflict := range pending {
		if _, stillHolds := live[violationKey(conflict)]; !stillHolds {
			stale = append(stale, conflict.ID)
		}
	}
	if len(stale) > 0 {
		if err := s.conflicts.ResolveMany(ctx, stale); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve stale conflicts")
		}
	}

	s.logger.Info("auto-resolution complete",
		zap.String("academic_year", req.AcademicYear),
		zap.String("semester", req.Semester),
		zap.Int("checked", len(pending)),
		zap.Int("resolved", len(stale)),
	)
	return &dto.AutoResolveResponse{Checked: len(pending), Resolved: len(stale)}, nil
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// Resolve marks one conflict as handled.
func (s *ConflictService) Resolve(ctx context.Context, id string) error {
	if id == "" {
		return appErrors.New(appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "conflict id is required")
	}
	if err := s.conflicts.UpdateStatus(ctx, id, models.ConflictStatusResolved); err != nil {
		if isNoRows(err) {
			return appErrors.New(appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "conflict not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve conflict")
	}
	return nil
}

// List returns recorded conflicts matching the query, newest first.
func (s *ConflictService) List(ctx context.Context, query dto.ConflictQuery) ([]models.Conflict, *models.Pagination, error) {
	filter := models.ConflictFilter{
		AcademicYear: query.AcademicYear,
		Semester:     query.Semester,
		Status:       models.ConflictStatus(query.Status),
		Type:         models.ConflictType(query.Type),
		Page:         query.Page,
		PageSize:     query.PageSize,
	}
	conflicts, total, err := s.conflicts.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list conflicts")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	return conflicts, models.NewPagination(page, pageSize, total), nil
}

package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Phuiluannn/FYPSchedulingSystem-sub001/internal/dto"
	"github.com/Phuiluannn/FYPSchedulingSystem-sub001/internal/models"
	"github.com/Phuiluannn/FYPSchedulingSystem-sub001/internal/timegrid"
	appErrors "github.com/Phuiluannn/FYPSchedulingSystem-sub001/pkg/errors"
)

type generatorCourseLister interface {
	ListByScope(ctx context.Context, academicYear, semester string) ([]models.Course, error)
}

type generatorRoomLister interface {
	List(ctx context.Context) ([]models.Room, error)
}

// GeneratorService produces candidate timetable placements for a scope. It
// never persists anything; the caller inspects the proposal and saves it
// explicitly.
type GeneratorService struct {
	courses   generatorCourseLister
	rooms     generatorRoomLister
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGeneratorService wires generator dependencies.
func NewGeneratorService(courses generatorCourseLister, rooms generatorRoomLister, validate *validator.Validate, logger *zap.Logger) *GeneratorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GeneratorService{courses: courses, rooms: rooms, validator: validate, logger: logger}
}

// occupancy tracks which slots a room already holds during a single
// generation run. The value is owned by the run and never shared.
type occupancy map[string]map[string][]bool

func (o occupancy) taken(roomID, day string, slot int) bool {
	days, ok := o[roomID]
	if !ok {
		return false
	}
	slots, ok := days[day]
	if !ok {
		return false
	}
	return slots[slot]
}

func (o occupancy) claim(roomID, day string, slot int) {
	days, ok := o[roomID]
	if !ok {
		days = make(map[string][]bool, len(timegrid.Days))
		o[roomID] = days
	}
	slots, ok := days[day]
	if !ok {
		slots = make([]bool, timegrid.SlotCount())
		days[day] = slots
	}
	slots[slot] = true
}

// Generate builds a first-fit placement for every course in the scope.
// Iteration order over courses, days, slots and rooms is stable, so two
// runs over unchanged reference data produce identical results.
func (s *GeneratorService) Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generate payload")
	}

	courses, err := s.courses.ListByScope(ctx, req.AcademicYear, req.Semester)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load courses")
	}
	rooms, err := s.rooms.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rooms")
	}

	grid := make(occupancy)
	items := make([]models.ScheduleItem, 0, len(courses))
	unplaced := make([]dto.UnplacedCourse, 0)

	for _, course := range courses {
		suitable := suitableRooms(rooms, course.TargetStudent)
		if len(suitable) == 0 {
			unplaced = append(unplaced, dto.UnplacedCourse{
				CourseCode: course.Code,
				Reason:     "no room with sufficient capacity",
			})
			continue
		}

		item, ok := placeFirstFit(grid, course, suitable, req.AcademicYear, req.Semester)
		if !ok {
			unplaced = append(unplaced, dto.UnplacedCourse{
				CourseCode: course.Code,
				Reason:     "no free slot in the weekly grid",
			})
			continue
		}
		items = append(items, item)
	}

	s.logger.Info("timetable generated",
		zap.String("academic_year", req.AcademicYear),
		zap.String("semester", req.Semester),
		zap.Int("placed", len(items)),
		zap.Int("unplaced", len(unplaced)),
	)

	return &dto.GenerateTimetableResponse{
		AcademicYear: req.AcademicYear,
		Semester:     req.Semester,
		Items:        items,
		Unplaced:     unplaced,
	}, nil
}

func suitableRooms(rooms []models.Room, targetStudent int) []models.Room {
	result := make([]models.Room, 0, len(rooms))
	for _, room := range rooms {
		if room.Capacity >= targetStudent {
			result = append(result, room)
		}
	}
	return result
}

// placeFirstFit walks Day x Slot x Room in fixed order and claims the first
// free combination.
func placeFirstFit(grid occupancy, course models.Course, rooms []models.Room, academicYear, semester string) (models.ScheduleItem, bool) {
	for _, day := range timegrid.Days {
		for slot := 0; slot < timegrid.SlotCount(); slot++ {
			for _, room := range rooms {
				if grid.taken(room.ID, day, slot) {
					continue
				}
				grid.claim(room.ID, day, slot)
				roomID := room.ID
				original := make([]string, len(course.EligibleInstructors))
				copy(original, course.EligibleInstructors)
				return models.ScheduleItem{
					CourseID:            course.ID,
					CourseCode:          course.Code,
					RoomID:              &roomID,
					InstructorNames:     []string{},
					OriginalInstructors: original,
					OccurrenceType:      "Lecture",
					OccurrenceNumbers:   []int64{1},
					Day:                 day,
					StartTime:           timegrid.StartTime(slot),
					EndTime:             timegrid.EndTime(slot),
					Duration:            1,
					AcademicYear:        academicYear,
					Semester:            semester,
					Published:           false,
				}, true
			}
		}
	}
	return models.ScheduleItem{}, false
}

package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Phuiluannn/FYPSchedulingSystem-sub001/internal/dto"
	"github.com/Phuiluannn/FYPSchedulingSystem-sub001/internal/models"
	"github.com/Phuiluannn/FYPSchedulingSystem-sub001/internal/timegrid"
	appErrors "github.com/Phuiluannn/FYPSchedulingSystem-sub001/pkg/errors"
)

type genCourseListerStub struct {
	courses []models.Course
	err     error
}

func (s genCourseListerStub) ListByScope(ctx context.Context, academicYear, semester string) ([]models.Course, error) {
	return s.courses, s.err
}

type genRoomListerStub struct {
	rooms []models.Room
	err   error
}

func (s genRoomListerStub) List(ctx context.Context) ([]models.Room, error) {
	return s.rooms, s.err
}

func genCourse(id, code string, targetStudent int, instructors ...string) models.Course {
	return models.Course{
		ID:                  id,
		AcademicYear:        "2024/2025",
		Semester:            "1",
		Code:                code,
		TargetStudent:       targetStudent,
		EligibleInstructors: instructors,
	}
}

func genRoom(id, code string, capacity int) models.Room {
	return models.Room{ID: id, Code: code, Capacity: capacity}
}

func TestGeneratorServicePlacesFirstFit(t *testing.T) {
	service := NewGeneratorService(
		genCourseListerStub{courses: []models.Course{
			genCourse("c1", "CS101", 30, "Dr. Tan"),
			genCourse("c2", "CS102", 25, "Dr. Lim"),
		}},
		genRoomListerStub{rooms: []models.Room{
			genRoom("r1", "B1-01", 40),
			genRoom("r2", "B1-02", 40),
		}},
		nil, nil,
	)

	resp, err := service.Generate(context.Background(), dto.GenerateTimetableRequest{
		AcademicYear: "2024/2025",
		Semester:     "1",
	})
	require.NoError(t, err)
	require.Len(t, resp.Items, 2)
	assert.Empty(t, resp.Unplaced)

	first := resp.Items[0]
	assert.Equal(t, "CS101", first.CourseCode)
	assert.Equal(t, "Monday", first.Day)
	assert.Equal(t, timegrid.StartTime(0), first.StartTime)
	assert.Equal(t, "r1", *first.RoomID)
	assert.Equal(t, 1, first.Duration)
	assert.Equal(t, "Lecture", first.OccurrenceType)
	assert.Nil(t, first.InstructorID)
	assert.Empty(t, first.InstructorNames)
	assert.Equal(t, []string{"Dr. Tan"}, []string(first.OriginalInstructors))

	// second course takes the same slot in the next room
	second := resp.Items[1]
	assert.Equal(t, "Monday", second.Day)
	assert.Equal(t, timegrid.StartTime(0), second.StartTime)
	assert.Equal(t, "r2", *second.RoomID)
}

func TestGeneratorServiceIsDeterministic(t *testing.T) {
	courses := []models.Course{
		genCourse("c1", "CS101", 30),
		genCourse("c2", "CS102", 25),
		genCourse("c3", "CS103", 20),
	}
	rooms := []models.Room{genRoom("r1", "B1-01", 40)}
	service := NewGeneratorService(genCourseListerStub{courses: courses}, genRoomListerStub{rooms: rooms}, nil, nil)

	req := dto.GenerateTimetableRequest{AcademicYear: "2024/2025", Semester: "1"}
	first, err := service.Generate(context.Background(), req)
	require.NoError(t, err)
	second, err := service.Generate(context.Background(), req)
	require.NoError(t, err)

	require.Equal(t, len(first.Items), len(second.Items))
	for i := range first.Items {
		assert.Equal(t, first.Items[i].CourseCode, second.Items[i].CourseCode)
		assert.Equal(t, first.Items[i].Day, second.Items[i].Day)
		assert.Equal(t, first.Items[i].StartTime, second.Items[i].StartTime)
		assert.Equal(t, *first.Items[i].RoomID, *second.Items[i].RoomID)
	}
}

func TestGeneratorServiceSkipsCourseWithoutCapacity(t *testing.T) {
	service := NewGeneratorService(
		genCourseListerStub{courses: []models.Course{
			genCourse("c1", "CS101", 30),
			genCourse("c2", "CS102", 40),
		}},
		genRoomListerStub{rooms: []models.Room{genRoom("r1", "B1-01", 35)}},
		nil, nil,
	)

	resp, err := service.Generate(context.Background(), dto.GenerateTimetableRequest{
		AcademicYear: "2024/2025",
		Semester:     "1",
	})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "CS101", resp.Items[0].CourseCode)
	require.Len(t, resp.Unplaced, 1)
	assert.Equal(t, "CS102", resp.Unplaced[0].CourseCode)
}

func TestGeneratorServiceFillsSlotsBeforeNextDay(t *testing.T) {
	courses := make([]models.Course, 0, timegrid.SlotCount()+1)
	for i := 0; i <= timegrid.SlotCount(); i++ {
		courses = append(courses, genCourse(
			"c"+string(rune('a'+i)),
			"CS1"+string(rune('a'+i)),
			20,
		))
	}
	service := NewGeneratorService(
		genCourseListerStub{courses: courses},
		genRoomListerStub{rooms: []models.Room{genRoom("r1", "B1-01", 30)}},
		nil, nil,
	)

	resp, err := service.Generate(context.Background(), dto.GenerateTimetableRequest{
		AcademicYear: "2024/2025",
		Semester:     "1",
	})
	require.NoError(t, err)
	require.Len(t, resp.Items, timegrid.SlotCount()+1)

	for i := 0; i < timegrid.SlotCount(); i++ {
		assert.Equal(t, "Monday", resp.Items[i].Day)
		assert.Equal(t, timegrid.StartTime(i), resp.Items[i].StartTime)
	}
	overflow := resp.Items[timegrid.SlotCount()]
	assert.Equal(t, "Tuesday", overflow.Day)
	assert.Equal(t, timegrid.StartTime(0), overflow.StartTime)
}

func TestGeneratorServiceRejectsMissingScope(t *testing.T) {
	service := NewGeneratorService(genCourseListerStub{}, genRoomListerStub{}, nil, nil)

	_, err := service.Generate(context.Background(), dto.GenerateTimetableRequest{AcademicYear: "2024/2025"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

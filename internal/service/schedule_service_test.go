package service

import (
	"context"
	"database/sql"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Phuiluannn/FYPSchedulingSystem-sub001/internal/dto"
	"github.com/Phuiluannn/FYPSchedulingSystem-sub001/internal/models"
	appErrors "github.com/Phuiluannn/FYPSchedulingSystem-sub001/pkg/errors"
)

type scheduleStoreStub struct {
	db   *sqlx.DB
	mock sqlmock.Sqlmock

	drafts    []models.ScheduleItem
	published []models.ScheduleItem
	byID      map[string]*models.ScheduleItem

	deletedDrafts bool
	inserted      []models.ScheduleItem
	updated       *models.ScheduleItem

	listErr error
}

func newScheduleStoreStub(t *testing.T) *scheduleStoreStub {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	t.Cleanup(func() { db.Close() })
	return &scheduleStoreStub{db: sqlxdb, mock: mock, byID: map[string]*models.ScheduleItem{}}
}

func (s *scheduleStoreStub) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return s.db.BeginTxx(ctx, opts)
}

func (s *scheduleStoreStub) ListByScope(ctx context.Context, academicYear, semester string, published bool) ([]models.ScheduleItem, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	if published {
		return s.published, nil
	}
	return s.drafts, nil
}

func (s *scheduleStoreStub) FindByID(ctx context.Context, id string) (*models.ScheduleItem, error) {
	item, ok := s.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *item
	return &copied, nil
}

func (s *scheduleStoreStub) DeleteDrafts(ctx context.Context, exec sqlx.ExtContext, academicYear, semester string) error {
	s.deletedDrafts = true
	return nil
}

func (s *scheduleStoreStub) BulkInsert(ctx context.Context, exec sqlx.ExtContext, items []models.ScheduleItem) error {
	s.inserted = append(s.inserted, items...)
	return nil
}

func (s *scheduleStoreStub) Update(ctx context.Context, item *models.ScheduleItem) error {
	s.updated = item
	return nil
}

type courseFinderStub struct {
	courses map[string]models.Course
}

func (s courseFinderStub) FindByID(ctx context.Context, id string) (*models.Course, error) {
	course, ok := s.courses[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &course, nil
}

type roomFinderStub struct {
	rooms map[string]models.Room
}

func (s roomFinderStub) FindByID(ctx context.Context, id string) (*models.Room, error) {
	room, ok := s.rooms[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &room, nil
}

type instructorFinderStub struct {
	instructors map[string]models.Instructor
}

func (s instructorFinderStub) FindByName(ctx context.Context, name string) (*models.Instructor, error) {
	instructor, ok := s.instructors[name]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &instructor, nil
}

type scheduleFixture struct {
	store   *scheduleStoreStub
	service *ScheduleService
}

func newScheduleFixture(t *testing.T) scheduleFixture {
	store := newScheduleStoreStub(t)
	service := NewScheduleService(
		store,
		courseFinderStub{courses: map[string]models.Course{
			"c1": genCourse("c1", "CS101", 30, "Dr. Tan"),
			"c2": genCourse("c2", "CS102", 25, "Dr. Lim", "Dr. Wong"),
		}},
		roomFinderStub{rooms: map[string]models.Room{
			"r1": genRoom("r1", "B1-01", 40),
		}},
		instructorFinderStub{instructors: map[string]models.Instructor{
			"Dr. Tan":     {ID: "i1", Name: "Dr. Tan", Status: models.InstructorStatusActive},
			"Dr. Lim":     {ID: "i2", Name: "Dr. Lim", Status: models.InstructorStatusActive},
			"Dr. Retired": {ID: "i3", Name: "Dr. Retired", Status: models.InstructorStatusInactive},
		}},
		nil, nil, nil,
	)
	return scheduleFixture{store: store, service: service}
}

func roomRef(id string) *string {
	return &id
}

func basePayload() dto.ScheduleItemPayload {
	return dto.ScheduleItemPayload{
		CourseID:   "c1",
		CourseCode: "CS101",
		RoomID:     roomRef("r1"),
		Day:        "Monday",
		StartTime:  "8.00 AM",
		Duration:   1,
	}
}

func TestScheduleServiceSaveManualSelectionWins(t *testing.T) {
	f := newScheduleFixture(t)
	f.store.mock.ExpectBegin()
	f.store.mock.ExpectCommit()

	payload := basePayload()
	payload.SelectedInstructor = "Dr. Tan"
	payload.InstructorNames = []string{"Dr. Lim"}

	resp, err := f.service.Save(context.Background(), dto.SaveTimetableRequest{
		AcademicYear: "2024/2025",
		Semester:     "1",
		Items:        []dto.ScheduleItemPayload{payload},
	})
	require.NoError(t, err)
	require.Len(t, resp.Saved, 1)
	saved := resp.Saved[0]
	require.NotNil(t, saved.InstructorID)
	assert.Equal(t, "i1", *saved.InstructorID)
	assert.Equal(t, []string{"Dr. Tan"}, []string(saved.InstructorNames))
	assert.NoError(t, f.store.mock.ExpectationsWereMet())
}

func TestScheduleServiceSaveSingleEligibleAutoAssigns(t *testing.T) {
	f := newScheduleFixture(t)
	f.store.mock.ExpectBegin()
	f.store.mock.ExpectCommit()

	payload := basePayload()
	payload.InstructorNames = []string{"Dr. Lim"}

	resp, err := f.service.Save(context.Background(), dto.SaveTimetableRequest{
		AcademicYear: "2024/2025",
		Semester:     "1",
		Items:        []dto.ScheduleItemPayload{payload},
	})
	require.NoError(t, err)
	saved := resp.Saved[0]
	require.NotNil(t, saved.InstructorID)
	assert.Equal(t, "i2", *saved.InstructorID)
}

func TestScheduleServiceSaveLeavesMultipleNamesUnassigned(t *testing.T) {
	f := newScheduleFixture(t)
	f.store.mock.ExpectBegin()
	f.store.mock.ExpectCommit()

	payload := basePayload()
	payload.CourseID = "c2"
	payload.CourseCode = "CS102"
	payload.InstructorNames = []string{"Dr. Lim", "Dr. Wong"}

	resp, err := f.service.Save(context.Background(), dto.SaveTimetableRequest{
		AcademicYear: "2024/2025",
		Semester:     "1",
		Items:        []dto.ScheduleItemPayload{payload},
	})
	require.NoError(t, err)
	saved := resp.Saved[0]
	assert.Nil(t, saved.InstructorID)
	assert.Equal(t, []string{"Dr. Lim", "Dr. Wong"}, []string(saved.InstructorNames))
}

func TestScheduleServiceSaveInactiveInstructorKeepsNameOnly(t *testing.T) {
	f := newScheduleFixture(t)
	f.store.mock.ExpectBegin()
	f.store.mock.ExpectCommit()

	payload := basePayload()
	payload.SelectedInstructor = "Dr. Retired"

	resp, err := f.service.Save(context.Background(), dto.SaveTimetableRequest{
		AcademicYear: "2024/2025",
		Semester:     "1",
		Items:        []dto.ScheduleItemPayload{payload},
	})
	require.NoError(t, err)
	saved := resp.Saved[0]
	assert.Nil(t, saved.InstructorID)
	assert.Equal(t, []string{"Dr. Retired"}, []string(saved.InstructorNames))
}

func TestScheduleServiceSavePreservesOriginalInstructors(t *testing.T) {
	f := newScheduleFixture(t)
	f.store.mock.ExpectBegin()
	f.store.mock.ExpectCommit()

	payload := basePayload()
	payload.SelectedInstructor = "Dr. Tan"
	payload.OriginalInstructors = []string{"Dr. Former", "Dr. Tan"}

	resp, err := f.service.Save(context.Background(), dto.SaveTimetableRequest{
		AcademicYear: "2024/2025",
		Semester:     "1",
		Items:        []dto.ScheduleItemPayload{payload},
	})
	require.NoError(t, err)
	saved := resp.Saved[0]
	assert.Equal(t, []string{"Dr. Former", "Dr. Tan"}, []string(saved.OriginalInstructors))
}

func TestScheduleServiceSaveSkipsMissingCourse(t *testing.T) {
	f := newScheduleFixture(t)
	f.store.mock.ExpectBegin()
	f.store.mock.ExpectCommit()

	missing := basePayload()
	missing.CourseID = "ghost"
	missing.CourseCode = "CS999"

	resp, err := f.service.Save(context.Background(), dto.SaveTimetableRequest{
		AcademicYear: "2024/2025",
		Semester:     "1",
		Items:        []dto.ScheduleItemPayload{basePayload(), missing},
	})
	require.NoError(t, err)
	assert.Len(t, resp.Saved, 1)
	require.Len(t, resp.Skipped, 1)
	assert.Equal(t, "CS999", resp.Skipped[0].CourseCode)
	assert.Equal(t, "course not found", resp.Skipped[0].Reason)
}

func TestScheduleServiceSaveRejectsOffGridEntry(t *testing.T) {
	f := newScheduleFixture(t)

	payload := basePayload()
	payload.StartTime = "4.00 PM"
	payload.Duration = 3

	_, err := f.service.Save(context.Background(), dto.SaveTimetableRequest{
		AcademicYear: "2024/2025",
		Semester:     "1",
		Items:        []dto.ScheduleItemPayload{payload},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.False(t, f.store.deletedDrafts, "validation failures must not touch storage")
}

func TestScheduleServiceSaveComputesEndTime(t *testing.T) {
	f := newScheduleFixture(t)
	f.store.mock.ExpectBegin()
	f.store.mock.ExpectCommit()

	payload := basePayload()
	payload.StartTime = "10.00 AM - 11.00 AM"
	payload.Duration = 2

	resp, err := f.service.Save(context.Background(), dto.SaveTimetableRequest{
		AcademicYear: "2024/2025",
		Semester:     "1",
		Items:        []dto.ScheduleItemPayload{payload},
	})
	require.NoError(t, err)
	saved := resp.Saved[0]
	assert.Equal(t, "10.00 AM", saved.StartTime)
	assert.Equal(t, "12.00 PM", saved.EndTime)
}

func TestScheduleServiceGetDraftReturnsExistingDrafts(t *testing.T) {
	f := newScheduleFixture(t)
	f.store.drafts = []models.ScheduleItem{{ID: "s1", CourseCode: "CS101"}}

	items, err := f.service.GetDraft(context.Background(), dto.TimetableQuery{
		AcademicYear: "2024/2025",
		Semester:     "1",
	})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "s1", items[0].ID)
	assert.Empty(t, f.store.inserted)
}

func TestScheduleServiceGetDraftClonesPublishedBaseline(t *testing.T) {
	f := newScheduleFixture(t)
	f.store.published = []models.ScheduleItem{
		{ID: "p1", CourseCode: "CS101", Published: true},
		{ID: "p2", CourseCode: "CS102", Published: true},
	}

	items, err := f.service.GetDraft(context.Background(), dto.TimetableQuery{
		AcademicYear: "2024/2025",
		Semester:     "1",
	})
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Len(t, f.store.inserted, 2)
	for _, item := range f.store.inserted {
		assert.Empty(t, item.ID, "clones must receive fresh identifiers")
		assert.False(t, item.Published)
	}
}

func TestScheduleServiceUpdateItemRejectsPublished(t *testing.T) {
	f := newScheduleFixture(t)
	f.store.byID["p1"] = &models.ScheduleItem{ID: "p1", Published: true}

	_, err := f.service.UpdateItem(context.Background(), "p1", dto.UpdateScheduleItemRequest{Day: "Tuesday"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Nil(t, f.store.updated)
}

func TestScheduleServiceUpdateItemRecomputesEndTime(t *testing.T) {
	f := newScheduleFixture(t)
	f.store.byID["s1"] = &models.ScheduleItem{
		ID:           "s1",
		CourseCode:   "CS101",
		Day:          "Monday",
		StartTime:    "8.00 AM",
		EndTime:      "9.00 AM",
		Duration:     1,
		AcademicYear: "2024/2025",
		Semester:     "1",
	}

	item, err := f.service.UpdateItem(context.Background(), "s1", dto.UpdateScheduleItemRequest{
		StartTime: "2.00 PM",
		Duration:  2,
	})
	require.NoError(t, err)
	assert.Equal(t, "2.00 PM", item.StartTime)
	assert.Equal(t, "4.00 PM", item.EndTime)
	require.NotNil(t, f.store.updated)
}

func TestScheduleServiceUpdateItemNotFound(t *testing.T) {
	f := newScheduleFixture(t)

	_, err := f.service.UpdateItem(context.Background(), "ghost", dto.UpdateScheduleItemRequest{Day: "Tuesday"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

package service

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Phuiluannn/FYPSchedulingSystem-sub001/internal/dto"
	"github.com/Phuiluannn/FYPSchedulingSystem-sub001/internal/models"
	appErrors "github.com/Phuiluannn/FYPSchedulingSystem-sub001/pkg/errors"
)

type workloadListerStub struct {
	entries []models.ScheduleItem
	calls   int
}

func (s *workloadListerStub) ListByScope(ctx context.Context, academicYear, semester string, published bool) ([]models.ScheduleItem, error) {
	s.calls++
	return s.entries, nil
}

type workloadCacheStub struct {
	store map[string]*models.WorkloadReport
	sets  int
}

func newWorkloadCacheStub() *workloadCacheStub {
	return &workloadCacheStub{store: make(map[string]*models.WorkloadReport)}
}

func (c *workloadCacheStub) Get(ctx context.Context, key string, dest interface{}) error {
	cached, ok := c.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	*dest.(*models.WorkloadReport) = *cached
	return nil
}

func (c *workloadCacheStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	c.sets++
	c.store[key] = value.(*models.WorkloadReport)
	return nil
}

func workloadQuery() dto.WorkloadQuery {
	return dto.WorkloadQuery{AcademicYear: "2024/2025", Semester: "1"}
}

func TestWorkloadServiceAggregatesByInstructor(t *testing.T) {
	tanID := "i1"
	lister := &workloadListerStub{entries: []models.ScheduleItem{
		{CourseCode: "CS101", Duration: 2, InstructorID: &tanID, InstructorNames: []string{"Dr. Tan"}},
		{CourseCode: "CS102", Duration: 1, InstructorID: &tanID, InstructorNames: []string{"Dr. Tan"}},
		{CourseCode: "CS101", Duration: 1, InstructorID: &tanID, InstructorNames: []string{"Dr. Tan"}},
		{CourseCode: "CS201", Duration: 1, InstructorNames: []string{"Dr. Lim"}},
	}}
	service := NewWorkloadService(lister, nil, nil, 0, nil)

	report, err := service.Report(context.Background(), workloadQuery())
	require.NoError(t, err)
	require.Len(t, report.Instructors, 2)

	lim := report.Instructors[0]
	assert.Equal(t, "Dr. Lim", lim.InstructorName)
	assert.Equal(t, 1, lim.TotalHours)
	assert.Equal(t, []string{"CS201"}, lim.CourseCodes)

	tan := report.Instructors[1]
	assert.Equal(t, "Dr. Tan", tan.InstructorName)
	assert.Equal(t, 4, tan.TotalHours)
	assert.Equal(t, 2, tan.CourseCount)
	assert.Equal(t, []string{"CS101", "CS102"}, tan.CourseCodes)
}

func TestWorkloadServiceGroupsUnassigned(t *testing.T) {
	lister := &workloadListerStub{entries: []models.ScheduleItem{
		{CourseCode: "CS101", Duration: 1, InstructorNames: []string{"Dr. Tan", "Dr. Lim"}},
		{CourseCode: "CS102", Duration: 2, InstructorNames: []string{}},
	}}
	service := NewWorkloadService(lister, nil, nil, 0, nil)

	report, err := service.Report(context.Background(), workloadQuery())
	require.NoError(t, err)
	require.Len(t, report.Instructors, 1)

	group := report.Instructors[0]
	assert.Equal(t, models.UnassignedInstructor, group.InstructorName)
	assert.Equal(t, 3, group.TotalHours)
	assert.ElementsMatch(t, []string{"CS101", "CS102"}, group.CourseCodes)
}

func TestWorkloadServiceDefaultsZeroDurationToOneHour(t *testing.T) {
	lister := &workloadListerStub{entries: []models.ScheduleItem{
		{CourseCode: "CS101", Duration: 0, InstructorNames: []string{"Dr. Tan"}},
	}}
	service := NewWorkloadService(lister, nil, nil, 0, nil)

	report, err := service.Report(context.Background(), workloadQuery())
	require.NoError(t, err)
	require.Len(t, report.Instructors, 1)
	assert.Equal(t, 1, report.Instructors[0].TotalHours)
}

func TestWorkloadServiceServesCachedReport(t *testing.T) {
	lister := &workloadListerStub{entries: []models.ScheduleItem{
		{CourseCode: "CS101", Duration: 1, InstructorNames: []string{"Dr. Tan"}},
	}}
	cache := newWorkloadCacheStub()
	service := NewWorkloadService(lister, cache, nil, time.Minute, nil)

	first, err := service.Report(context.Background(), workloadQuery())
	require.NoError(t, err)
	assert.Equal(t, 1, lister.calls)
	assert.Equal(t, 1, cache.sets)

	second, err := service.Report(context.Background(), workloadQuery())
	require.NoError(t, err)
	assert.Equal(t, 1, lister.calls, "cache hit must not hit the store again")
	assert.Equal(t, first.Instructors, second.Instructors)
}

func TestWorkloadServiceCountsCacheHitsAndMisses(t *testing.T) {
	lister := &workloadListerStub{entries: []models.ScheduleItem{
		{CourseCode: "CS101", Duration: 1, InstructorNames: []string{"Dr. Tan"}},
	}}
	cache := newWorkloadCacheStub()
	metrics := NewMetricsService()
	service := NewWorkloadService(lister, cache, metrics, time.Minute, nil)

	_, err := service.Report(context.Background(), workloadQuery())
	require.NoError(t, err)
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.cacheHits))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.cacheMisses))

	_, err = service.Report(context.Background(), workloadQuery())
	require.NoError(t, err)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.cacheHits))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.cacheMisses))
}

func TestWorkloadServiceKeysCacheByVisibility(t *testing.T) {
	lister := &workloadListerStub{}
	cache := newWorkloadCacheStub()
	service := NewWorkloadService(lister, cache, nil, time.Minute, nil)

	query := workloadQuery()
	_, err := service.Report(context.Background(), query)
	require.NoError(t, err)

	query.PublishedOnly = true
	_, err = service.Report(context.Background(), query)
	require.NoError(t, err)

	assert.Equal(t, 2, lister.calls)
	assert.Contains(t, cache.store, WorkloadCacheKey("2024/2025", "1", false))
	assert.Contains(t, cache.store, WorkloadCacheKey("2024/2025", "1", true))
}

func TestWorkloadServiceRejectsMissingScope(t *testing.T) {
	service := NewWorkloadService(&workloadListerStub{}, nil, nil, 0, nil)

	_, err := service.Report(context.Background(), dto.WorkloadQuery{AcademicYear: "2024/2025"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/Phuiluannn/FYPSchedulingSystem-sub001/internal/dto"
	"github.com/Phuiluannn/FYPSchedulingSystem-sub001/internal/models"
	appErrors "github.com/Phuiluannn/FYPSchedulingSystem-sub001/pkg/errors"
)

type workloadScheduleLister interface {
	ListByScope(ctx context.Context, academicYear, semester string, published bool) ([]models.ScheduleItem, error)
}

type workloadCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// WorkloadService aggregates schedule entries into per-instructor hour and
// course totals. Reports are cached per scope with a short TTL; save and
// publish invalidate the scope's keys eagerly.
type WorkloadService struct {
	schedules workloadScheduleLister
	cache     workloadCache
	metrics   *MetricsService
	cacheTTL  time.Duration
	logger    *zap.Logger
}

// NewWorkloadService wires workload dependencies. A nil cache disables
// caching entirely; a nil metrics disables instrumentation.
func NewWorkloadService(schedules workloadScheduleLister, cache workloadCache, metrics *MetricsService, cacheTTL time.Duration, logger *zap.Logger) *WorkloadService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &WorkloadService{schedules: schedules, cache: cache, metrics: metrics, cacheTTL: cacheTTL, logger: logger}
}

// WorkloadCacheKey names the cached report for a scope and visibility.
func WorkloadCacheKey(academicYear, semester string, publishedOnly bool) string {
	return fmt.Sprintf("workload:%s:%s:%t", academicYear, semester, publishedOnly)
}

// WorkloadCachePattern matches every cached report for a scope.
func WorkloadCachePattern(academicYear, semester string) string {
	return fmt.Sprintf("workload:%s:%s:*", academicYear, semester)
}

// Report builds the per-instructor aggregation for a scope. The draft view
// is the default; publishedOnly restricts it to released entries.
func (s *WorkloadService) Report(ctx context.Context, query dto.WorkloadQuery) (*models.WorkloadReport, error) {
	scope := models.Scope{AcademicYear: query.AcademicYear, Semester: query.Semester}
	if !scope.Valid() {
		return nil, appErrors.New(appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "academicYear and semester are required")
	}

	key := WorkloadCacheKey(query.AcademicYear, query.Semester, query.PublishedOnly)
	if s.cache != nil {
		var cached models.WorkloadReport
		err := s.cache.Get(ctx, key, &cached)
		if err == nil {
			s.metrics.RecordCacheOperation(true)
			return &cached, nil
		}
		s.metrics.RecordCacheOperation(false)
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("workload cache read failed", zap.String("key", key), zap.Error(err))
		}
	}

	entries, err := s.schedules.ListByScope(ctx, query.AcademicYear, query.Semester, query.PublishedOnly)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule entries")
	}

	report := &models.WorkloadReport{
		AcademicYear:  query.AcademicYear,
		Semester:      query.Semester,
		PublishedOnly: query.PublishedOnly,
		Instructors:   aggregateWorkload(entries),
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, report, s.cacheTTL); err != nil {
			s.logger.Warn("workload cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return report, nil
}

// aggregateWorkload groups entries by instructor name, summing duration into
// hours and collecting distinct course codes. Entries without an instructor
// land in the Unassigned group. Output is sorted by name ascending.
func aggregateWorkload(entries []models.ScheduleItem) []models.InstructorWorkload {
	type bucket struct {
		hours   int
		courses map[string]struct{}
		order   []string
	}
	buckets := make(map[string]*bucket)

	for _, entry := range entries {
		name := assignedInstructor(entry)
		if name == "" {
			name = models.UnassignedInstructor
		}
		b, ok := buckets[name]
		if !ok {
			b = &bucket{courses: make(map[string]struct{})}
			buckets[name] = b
		}
		duration := entry.Duration
		if duration < 1 {
			duration = 1
		}
		b.hours += duration
		if entry.CourseCode != "" {
			if _, seen := b.courses[entry.CourseCode]; !seen {
				b.courses[entry.CourseCode] = struct{}{}
				b.order = append(b.order, entry.CourseCode)
			}
		}
	}

	result := make([]models.InstructorWorkload, 0, len(buckets))
	for name, b := range buckets {
		codes := make([]string, len(b.order))
		copy(codes, b.order)
		result = append(result, models.InstructorWorkload{
			InstructorName: name,
			TotalHours:     b.hours,
			CourseCount:    len(codes),
			CourseCodes:    codes,
		})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].InstructorName < result[j].InstructorName
	})
	return result
}

package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/Phuiluannn/FYPSchedulingSystem-sub001/internal/dto"
	"github.com/Phuiluannn/FYPSchedulingSystem-sub001/internal/models"
	appErrors "github.com/Phuiluannn/FYPSchedulingSystem-sub001/pkg/errors"
)

type publishScheduleStore interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
	ListByScope(ctx context.Context, academicYear, semester string, published bool) ([]models.ScheduleItem, error)
	DeletePublished(ctx context.Context, exec sqlx.ExtContext, academicYear, semester string) error
	BulkInsert(ctx context.Context, exec sqlx.ExtContext, items []models.ScheduleItem) error
}

// Notifier broadcasts a publish event to downstream audiences. Failures are
// the caller's to log; they never affect the publish itself.
type Notifier interface {
	NotifyTimetablePublished(ctx context.Context, academicYear, semester string, audiences []string) error
}

// PublishService promotes a scope's draft set to the published timetable.
// Drafts stay in place after publishing; only the previous published
// generation is discarded.
type PublishService struct {
	schedules publishScheduleStore
	notifier  Notifier
	caches    cacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPublishService wires publish dependencies. A nil notifier disables
// notification without affecting the publish path.
func NewPublishService(schedules publishScheduleStore, notifier Notifier, caches cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *PublishService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PublishService{schedules: schedules, notifier: notifier, caches: caches, validator: validate, logger: logger}
}

// publishAudiences are the groups told about a newly released timetable.
var publishAudiences = []string{"student", "instructor"}

// Publish replaces the published set for the scope with a clone of the
// current drafts, inside one transaction. With no drafts to promote it
// fails with NothingToPublish and changes nothing.
func (s *PublishService) Publish(ctx context.Context, req dto.PublishTimetableRequest) (*dto.PublishTimetableResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid publish payload")
	}

	drafts, err := s.schedules.ListByScope(ctx, req.AcademicYear, req.Semester, false)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load drafts")
	}
	if len(drafts) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNothingToPublish, "no draft entries to publish for this scope")
	}

	clones := make([]models.ScheduleItem, len(drafts))
	for i, item := range drafts {
		item.ID = ""
		item.Published = true
		item.CreatedAt = time.Time{}
		clones[i] = item
	}

	tx, err := s.schedules.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := s.schedules.DeletePublished(ctx, tx, req.AcademicYear, req.Semester); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear published entries")
	}
	if err := s.schedules.BulkInsert(ctx, tx, clones); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store published entries")
	}
	if err := tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit publish")
	}

	if s.caches != nil {
		pattern := WorkloadCachePattern(req.AcademicYear, req.Semester)
		if err := s.caches.DeleteByPattern(ctx, pattern); err != nil {
			s.logger.Warn("workload cache invalidation failed", zap.String("pattern", pattern), zap.Error(err))
		}
	}

	notified := false
	if s.notifier != nil {
		if err := s.notifier.NotifyTimetablePublished(ctx, req.AcademicYear, req.Semester, publishAudiences); err != nil {
			s.logger.Warn("publish notification failed",
				zap.String("academic_year", req.AcademicYear),
				zap.String("semester", req.Semester),
				zap.Error(err),
			)
		} else {
			notified = true
		}
	}

	s.logger.Info("timetable published",
		zap.String("academic_year", req.AcademicYear),
		zap.String("semester", req.Semester),
		zap.Int("entries", len(clones)),
		zap.Bool("notified", notified),
	)
	return &dto.PublishTimetableResponse{PublishedCount: len(clones), Notified: notified}, nil
}

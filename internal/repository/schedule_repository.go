package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Phuiluannn/FYPSchedulingSystem-sub001/internal/models"
)

const scheduleColumns = `id, course_id, course_code, room_id, instructor_id, instructor_names, original_instructors, occurrence_type, occurrence_numbers, day, start_time, end_time, duration, academic_year, semester, published, created_at, updated_at`

const scheduleInsert = `
INSERT INTO schedule_items (id, course_id, course_code, room_id, instructor_id, instructor_names, original_instructors, occurrence_type, occurrence_numbers, day, start_time, end_time, duration, academic_year, semester, published, created_at, updated_at)
VALUES (:id, :course_id, :course_code, :room_id, :instructor_id, :instructor_names, :original_instructors, :occurrence_type, :occurrence_numbers, :day, :start_time, :end_time, :duration, :academic_year, :semester, :published, :created_at, :updated_at)`

// ScheduleRepository persists timetable entries. Draft and Published rows
// share the table, partitioned by (academic_year, semester, published).
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository creates a schedule repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

func (r *ScheduleRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// BeginTxx opens a transaction for multi-step save/publish flows.
func (r *ScheduleRepository) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return r.db.BeginTxx(ctx, opts)
}

// ListByScope returns entries for one side of the draft/published partition
// in insertion order, which keeps detection passes stable across runs.
func (r *ScheduleRepository) ListByScope(ctx context.Context, academicYear, semester string, published bool) ([]models.ScheduleItem, error) {
	query := fmt.Sprintf(`SELECT %s FROM schedule_items WHERE academic_year = $1 AND semester = $2 AND published = $3 ORDER BY created_at ASC, id ASC`, scheduleColumns)
	var items []models.ScheduleItem
	if err := r.db.SelectContext(ctx, &items, query, academicYear, semester, published); err != nil {
		return nil, fmt.Errorf("list schedule items: %w", err)
	}
	return items, nil
}

// CountDrafts reports how many draft entries exist for the scope.
func (r *ScheduleRepository) CountDrafts(ctx context.Context, academicYear, semester string) (int, error) {
	const query = `SELECT COUNT(*) FROM schedule_items WHERE academic_year = $1 AND semester = $2 AND published = FALSE`
	var count int
	if err := r.db.GetContext(ctx, &count, query, academicYear, semester); err != nil {
		return 0, fmt.Errorf("count draft schedule items: %w", err)
	}
	return count, nil
}

// FindByID loads a single entry.
func (r *ScheduleRepository) FindByID(ctx context.Context, id string) (*models.ScheduleItem, error) {
	query := fmt.Sprintf(`SELECT %s FROM schedule_items WHERE id = $1`, scheduleColumns)
	var item models.ScheduleItem
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		return nil, err
	}
	return &item, nil
}

// DeleteDrafts removes every non-published entry in the scope. Published
// rows are never touched by this call.
func (r *ScheduleRepository) DeleteDrafts(ctx context.Context, exec sqlx.ExtContext, academicYear, semester string) error {
	const query = `DELETE FROM schedule_items WHERE academic_year = $1 AND semester = $2 AND published = FALSE`
	if _, err := r.exec(exec).ExecContext(ctx, query, academicYear, semester); err != nil {
		return fmt.Errorf("delete draft schedule items: %w", err)
	}
	return nil
}

// DeletePublished removes the published set for the scope. Only the publish
// pass calls this, immediately before cloning the draft set.
func (r *ScheduleRepository) DeletePublished(ctx context.Context, exec sqlx.ExtContext, academicYear, semester string) error {
	const query = `DELETE FROM schedule_items WHERE academic_year = $1 AND semester = $2 AND published = TRUE`
	if _, err := r.exec(exec).ExecContext(ctx, query, academicYear, semester); err != nil {
		return fmt.Errorf("delete published schedule items: %w", err)
	}
	return nil
}

// BulkInsert stores entries, minting identifiers and timestamps where the
// caller left them zero.
func (r *ScheduleRepository) BulkInsert(ctx context.Context, exec sqlx.ExtContext, items []models.ScheduleItem) error {
	target := r.exec(exec)
	now := time.Now().UTC()
	for i := range items {
		item := &items[i]
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		if item.CreatedAt.IsZero() {
			item.CreatedAt = now
		}
		item.UpdatedAt = now
		if _, err := sqlx.NamedExecContext(ctx, target, scheduleInsert, item); err != nil {
			return fmt.Errorf("insert schedule item: %w", err)
		}
	}
	return nil
}

// Update persists an edited draft entry.
func (r *ScheduleRepository) Update(ctx context.Context, item *models.ScheduleItem) error {
	item.UpdatedAt = time.Now().UTC()
	const query = `UPDATE schedule_items SET room_id = :room_id, instructor_id = :instructor_id, instructor_names = :instructor_names, day = :day, start_time = :start_time, end_time = :end_time, duration = :duration, updated_at = :updated_at WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, item)
	if err != nil {
		return fmt.Errorf("update schedule item: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("schedule item rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

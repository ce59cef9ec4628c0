package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/Phuiluannn/FYPSchedulingSystem-sub001/internal/models"
)

const conflictColumns = `id, academic_year, semester, conflict_type, description, status, priority, course_code, room_id, instructor_id, day, start_time, created_at`

// ConflictRepository persists detected scheduling violations.
type ConflictRepository struct {
	db *sqlx.DB
}

// NewConflictRepository creates a conflict repository.
func NewConflictRepository(db *sqlx.DB) *ConflictRepository {
	return &ConflictRepository{db: db}
}

// Insert stores one conflict record, defaulting status and priority.
func (r *ConflictRepository) Insert(ctx context.Context, conflict *models.Conflict) error {
	if conflict == nil {
		return fmt.Errorf("conflict payload is nil")
	}
	if conflict.ID == "" {
		conflict.ID = uuid.NewString()
	}
	if conflict.Status == "" {
		conflict.Status = models.ConflictStatusPending
	}
	if conflict.Priority == "" {
		conflict.Priority = models.ConflictPriorityHigh
	}
	if conflict.CreatedAt.IsZero() {
		conflict.CreatedAt = time.Now().UTC()
	}
	const query = `
INSERT INTO conflicts (id, academic_year, semester, conflict_type, description, status, priority, course_code, room_id, instructor_id, day, start_time, created_at)
VALUES (:id, :academic_year, :semester, :conflict_type, :description, :status, :priority, :course_code, :room_id, :instructor_id, :day, :start_time, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, conflict); err != nil {
		return fmt.Errorf("insert conflict: %w", err)
	}
	return nil
}

// List returns conflicts matching the filter plus a total count.
func (r *ConflictRepository) List(ctx context.Context, filter models.ConflictFilter) ([]models.Conflict, int, error) {
	base := "FROM conflicts WHERE academic_year = $1 AND semester = $2"
	args := []interface{}{filter.AcademicYear, filter.Semester}

	var conditions []string
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("conflict_type = $%d", len(args)+1))
		args = append(args, filter.Type)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", conflictColumns, base, size, offset)
	var conflicts []models.Conflict
	if err := r.db.SelectContext(ctx, &conflicts, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list conflicts: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count conflicts: %w", err)
	}

	return conflicts, total, nil
}

// ListPending returns every pending conflict in the scope, oldest first.
func (r *ConflictRepository) ListPending(ctx context.Context, academicYear, semester string) ([]models.Conflict, error) {
	query := fmt.Sprintf(`SELECT %s FROM conflicts WHERE academic_year = $1 AND semester = $2 AND status = $3 ORDER BY created_at ASC`, conflictColumns)
	var conflicts []models.Conflict
	if err := r.db.SelectContext(ctx, &conflicts, query, academicYear, semester, models.ConflictStatusPending); err != nil {
		return nil, fmt.Errorf("list pending conflicts: %w", err)
	}
	return conflicts, nil
}

// UpdateStatus transitions one conflict record.
func (r *ConflictRepository) UpdateStatus(ctx context.Context, id string, status models.ConflictStatus) error {
	const query = `UPDATE conflicts SET status = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("update conflict status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("conflict rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ResolveMany marks the given conflicts resolved in one statement.
func (r *ConflictRepository) ResolveMany(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	const query = `UPDATE conflicts SET status = $1 WHERE id = ANY($2)`
	if _, err := r.db.ExecContext(ctx, query, models.ConflictStatusResolved, pq.Array(ids)); err != nil {
		return fmt.Errorf("bulk resolve conflicts: %w", err)
	}
	return nil
}

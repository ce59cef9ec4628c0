package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Phuiluannn/FYPSchedulingSystem-sub001/internal/models"
)

const courseColumns = `id, academic_year, semester, code, name, credit_hours, target_student, course_type, eligible_instructors, room_types, lecture_occurrence, tutorial_occurrence, created_at, updated_at`

// CourseRepository reads course reference data owned by the external CRUD
// layer. The engine never writes courses.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository creates a course gateway.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// ListByScope returns courses for the academic year and semester in
// insertion order. Generation depends on this ordering being stable.
func (r *CourseRepository) ListByScope(ctx context.Context, academicYear, semester string) ([]models.Course, error) {
	query := fmt.Sprintf(`SELECT %s FROM courses WHERE academic_year = $1 AND semester = $2 ORDER BY created_at ASC, id ASC`, courseColumns)
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, academicYear, semester); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// FindByID loads a course by identifier.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	query := fmt.Sprintf(`SELECT %s FROM courses WHERE id = $1`, courseColumns)
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// FindByCode loads a course by its (code, year, semester) key.
func (r *CourseRepository) FindByCode(ctx context.Context, code, academicYear, semester string) (*models.Course, error) {
	query := fmt.Sprintf(`SELECT %s FROM courses WHERE code = $1 AND academic_year = $2 AND semester = $3`, courseColumns)
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, code, academicYear, semester); err != nil {
		return nil, err
	}
	return &course, nil
}

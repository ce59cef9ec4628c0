package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Phuiluannn/FYPSchedulingSystem-sub001/internal/models"
)

const instructorColumns = `id, name, department, status, created_at, updated_at`

// InstructorRepository reads instructor reference data.
type InstructorRepository struct {
	db *sqlx.DB
}

// NewInstructorRepository creates an instructor gateway.
func NewInstructorRepository(db *sqlx.DB) *InstructorRepository {
	return &InstructorRepository{db: db}
}

// List returns instructors, optionally restricted to active ones.
func (r *InstructorRepository) List(ctx context.Context, activeOnly bool) ([]models.Instructor, error) {
	query := fmt.Sprintf(`SELECT %s FROM instructors ORDER BY name ASC`, instructorColumns)
	args := []interface{}{}
	if activeOnly {
		query = fmt.Sprintf(`SELECT %s FROM instructors WHERE status = $1 ORDER BY name ASC`, instructorColumns)
		args = append(args, models.InstructorStatusActive)
	}
	var instructors []models.Instructor
	if err := r.db.SelectContext(ctx, &instructors, query, args...); err != nil {
		return nil, fmt.Errorf("list instructors: %w", err)
	}
	return instructors, nil
}

// FindByID loads an instructor by identifier.
func (r *InstructorRepository) FindByID(ctx context.Context, id string) (*models.Instructor, error) {
	query := fmt.Sprintf(`SELECT %s FROM instructors WHERE id = $1`, instructorColumns)
	var instructor models.Instructor
	if err := r.db.GetContext(ctx, &instructor, query, id); err != nil {
		return nil, err
	}
	return &instructor, nil
}

// FindByName loads an instructor by display name.
func (r *InstructorRepository) FindByName(ctx context.Context, name string) (*models.Instructor, error) {
	query := fmt.Sprintf(`SELECT %s FROM instructors WHERE name = $1`, instructorColumns)
	var instructor models.Instructor
	if err := r.db.GetContext(ctx, &instructor, query, name); err != nil {
		return nil, err
	}
	return &instructor, nil
}

package models

import "time"

// InstructorStatus marks whether an instructor may receive new assignments.
type InstructorStatus string

const (
	InstructorStatusActive   InstructorStatus = "Active"
	InstructorStatusInactive InstructorStatus = "Inactive"
)

// Instructor is read-only reference data owned by the external roster.
type Instructor struct {
	ID         string           `db:"id" json:"id"`
	Name       string           `db:"name" json:"name"`
	Department string           `db:"department" json:"department"`
	Status     InstructorStatus `db:"status" json:"status"`
	CreatedAt  time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time        `db:"updated_at" json:"updated_at"`
}

// IsActive reports whether the instructor can be assigned new classes.
func (i Instructor) IsActive() bool {
	return i.Status == InstructorStatusActive
}

package models

import (
	"time"

	"github.com/lib/pq"
)

// ScheduleItem is a single placement of a course occurrence into the weekly
// grid. Items live as mutable Drafts until the scope is published; the
// publish pass clones them under fresh identifiers with Published=true.
type ScheduleItem struct {
	ID           string  `db:"id" json:"id"`
	CourseID     string  `db:"course_id" json:"course_id"`
	CourseCode   string  `db:"course_code" json:"course_code"`
	RoomID       *string `db:"room_id" json:"room_id,omitempty"`
	InstructorID *string `db:"instructor_id" json:"instructor_id,omitempty"`
	// InstructorNames is the display list currently attached to the item.
	InstructorNames pq.StringArray `db:"instructor_names" json:"instructor_names"`
	// OriginalInstructors snapshots the course eligibility list at save time
	// so later roster edits on the course are detectable as drift.
	OriginalInstructors pq.StringArray `db:"original_instructors" json:"original_instructors"`
	OccurrenceType      string         `db:"occurrence_type" json:"occurrence_type"`
	OccurrenceNumbers   pq.Int64Array  `db:"occurrence_numbers" json:"occurrence_numbers"`
	Day                 string         `db:"day" json:"day"`
	StartTime           string         `db:"start_time" json:"start_time"`
	EndTime             string         `db:"end_time" json:"end_time"`
	Duration            int            `db:"duration" json:"duration"`
	AcademicYear        string         `db:"academic_year" json:"academic_year"`
	Semester            string         `db:"semester" json:"semester"`
	Published           bool           `db:"published" json:"published"`
	CreatedAt           time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time      `db:"updated_at" json:"updated_at"`
}

// Scope keys every schedule and conflict operation.
type Scope struct {
	AcademicYear string `json:"academic_year"`
	Semester     string `json:"semester"`
}

// Valid reports whether both scope components are present.
func (s Scope) Valid() bool {
	return s.AcademicYear != "" && s.Semester != ""
}

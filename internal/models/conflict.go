package models

import "time"

// ConflictType names the violation classes the detector recognises.
type ConflictType string

const (
	ConflictRoomCapacity     ConflictType = "RoomCapacity"
	ConflictRoomDoubleBook   ConflictType = "RoomDoubleBooking"
	ConflictInstructor       ConflictType = "InstructorConflict"
	ConflictCourseOverlap    ConflictType = "CourseOverlap"
	ConflictTimeSlotExceeded ConflictType = "TimeSlotExceeded"
)

// ConflictStatus is the lifecycle state of a recorded violation.
type ConflictStatus string

const (
	ConflictStatusPending  ConflictStatus = "Pending"
	ConflictStatusResolved ConflictStatus = "Resolved"
)

// ConflictPriority ranks how urgently a violation needs attention.
type ConflictPriority string

const (
	ConflictPriorityHigh   ConflictPriority = "High"
	ConflictPriorityMedium ConflictPriority = "Medium"
	ConflictPriorityLow    ConflictPriority = "Low"
)

// Conflict is an actionable record of a detected scheduling violation.
// Records are append-only history; re-running detection may record the same
// still-present violation again.
type Conflict struct {
	ID           string           `db:"id" json:"id"`
	AcademicYear string           `db:"academic_year" json:"academic_year"`
	Semester     string           `db:"semester" json:"semester"`
	Type         ConflictType     `db:"conflict_type" json:"conflict_type"`
	Description  string           `db:"description" json:"description"`
	Status       ConflictStatus   `db:"status" json:"status"`
	Priority     ConflictPriority `db:"priority" json:"priority"`
	CourseCode   *string          `db:"course_code" json:"course_code,omitempty"`
	RoomID       *string          `db:"room_id" json:"room_id,omitempty"`
	InstructorID *string          `db:"instructor_id" json:"instructor_id,omitempty"`
	Day          *string          `db:"day" json:"day,omitempty"`
	StartTime    *string          `db:"start_time" json:"start_time,omitempty"`
	CreatedAt    time.Time        `db:"created_at" json:"created_at"`
}

// ConflictFilter describes query params for listing conflicts.
type ConflictFilter struct {
	AcademicYear string
	Semester     string
	Status       ConflictStatus
	Type         ConflictType
	Page         int
	PageSize     int
}

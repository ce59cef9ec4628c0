package models

import (
	"time"

	"github.com/lib/pq"
)

// CourseType classifies how a course sits in the programme structure.
type CourseType string

const (
	CourseTypeFacultyCore   CourseType = "FacultyCore"
	CourseTypeProgrammeCore CourseType = "ProgrammeCore"
	CourseTypeElective      CourseType = "Elective"
)

// Course is reference data owned by the external record-management layer.
// The engine reads it, never writes it. (code, academic_year, semester) is
// unique.
type Course struct {
	ID                  string         `db:"id" json:"id"`
	AcademicYear        string         `db:"academic_year" json:"academic_year"`
	Semester            string         `db:"semester" json:"semester"`
	Code                string         `db:"code" json:"code"`
	Name                string         `db:"name" json:"name"`
	CreditHours         int            `db:"credit_hours" json:"credit_hours"`
	TargetStudent       int            `db:"target_student" json:"target_student"`
	Type                CourseType     `db:"course_type" json:"course_type"`
	EligibleInstructors pq.StringArray `db:"eligible_instructors" json:"eligible_instructors"`
	RoomTypes           pq.StringArray `db:"room_types" json:"room_types"`
	LectureOccurrence   int            `db:"lecture_occurrence" json:"lecture_occurrence"`
	TutorialOccurrence  int            `db:"tutorial_occurrence" json:"tutorial_occurrence"`
	CreatedAt           time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time      `db:"updated_at" json:"updated_at"`
}

// RequiredCapacity returns the seat count a room must offer for one
// occurrence of the course.
func (c Course) RequiredCapacity() int {
	occurrences := c.LectureOccurrence
	if c.TutorialOccurrence > occurrences {
		occurrences = c.TutorialOccurrence
	}
	if occurrences < 1 {
		occurrences = 1
	}
	required := c.TargetStudent / occurrences
	if c.TargetStudent%occurrences != 0 {
		required++
	}
	return required
}

package dto

import "github.com/Phuiluannn/FYPSchedulingSystem-sub001/internal/models"

// GenerateTimetableRequest asks the generator for a candidate placement of
// every course in the scope. Nothing is persisted until save.
type GenerateTimetableRequest struct {
	AcademicYear string `json:"academicYear" validate:"required"`
	Semester     string `json:"semester" validate:"required"`
}

// UnplacedCourse reports a course the first-fit pass could not place.
type UnplacedCourse struct {
	CourseCode string `json:"courseCode"`
	Reason     string `json:"reason"`
}

// GenerateTimetableResponse returns the candidate draft plus every course
// that found no feasible slot, so callers never have to diff inputs against
// outputs to spot silent drops.
type GenerateTimetableResponse struct {
	AcademicYear string                `json:"academicYear"`
	Semester     string                `json:"semester"`
	Items        []models.ScheduleItem `json:"items"`
	Unplaced     []UnplacedCourse      `json:"unplaced"`
}

// ScheduleItemPayload is the boundary form of a schedule entry. Identifiers
// cross the boundary as strings.
type ScheduleItemPayload struct {
	ID                  string   `json:"id"`
	CourseID            string   `json:"courseId" validate:"required"`
	CourseCode          string   `json:"courseCode"`
	RoomID              *string  `json:"roomId"`
	SelectedInstructor  string   `json:"selectedInstructor"`
	InstructorNames     []string `json:"instructorNames"`
	OriginalInstructors []string `json:"originalInstructors"`
	OccurrenceType      string   `json:"occurrenceType"`
	OccurrenceNumbers   []int    `json:"occurrenceNumbers"`
	Day                 string   `json:"day" validate:"required"`
	StartTime           string   `json:"startTime" validate:"required"`
	EndTime             string   `json:"endTime"`
	Duration            int      `json:"duration" validate:"required,min=1"`
}

// SaveTimetableRequest replaces the draft set for the scope.
type SaveTimetableRequest struct {
	AcademicYear string                `json:"academicYear" validate:"required"`
	Semester     string                `json:"semester" validate:"required"`
	Items        []ScheduleItemPayload `json:"items" validate:"dive"`
}

// SaveTimetableResponse reports what was persisted and which entries were
// skipped because a referenced record no longer exists.
type SaveTimetableResponse struct {
	Saved   []models.ScheduleItem `json:"saved"`
	Skipped []SkippedItem         `json:"skipped,omitempty"`
}

// SkippedItem explains a per-entry reference failure during save.
type SkippedItem struct {
	CourseCode string `json:"courseCode"`
	Reason     string `json:"reason"`
}

// TimetableQuery selects a scope for read endpoints.
type TimetableQuery struct {
	AcademicYear string `form:"academicYear" json:"academicYear"`
	Semester     string `form:"semester" json:"semester"`
}

// UpdateScheduleItemRequest mutates a single draft entry in place.
type UpdateScheduleItemRequest struct {
	RoomID             *string `json:"roomId"`
	Day                string  `json:"day"`
	StartTime          string  `json:"startTime"`
	Duration           int     `json:"duration"`
	SelectedInstructor string  `json:"selectedInstructor"`
}

// PublishTimetableRequest promotes the draft set for the scope.
type PublishTimetableRequest struct {
	AcademicYear string `json:"academicYear" validate:"required"`
	Semester     string `json:"semester" validate:"required"`
}

// PublishTimetableResponse summarises the swap.
type PublishTimetableResponse struct {
	PublishedCount int  `json:"publishedCount"`
	Notified       bool `json:"notified"`
}

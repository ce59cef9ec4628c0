package models

// UnassignedInstructor groups schedule items that carry no instructor yet.
const UnassignedInstructor = "Unassigned"

// InstructorWorkload aggregates scheduled hours and distinct courses for one
// instructor within a scope.
type InstructorWorkload struct {
	InstructorName string   `json:"instructor_name"`
	TotalHours     int      `json:"total_hours"`
	CourseCount    int      `json:"course_count"`
	CourseCodes    []string `json:"course_codes"`
}

// WorkloadReport is the full per-scope aggregation, sorted by name.
type WorkloadReport struct {
	AcademicYear  string               `json:"academic_year"`
	Semester      string               `json:"semester"`
	PublishedOnly bool                 `json:"published_only"`
	Instructors   []InstructorWorkload `json:"instructors"`
}

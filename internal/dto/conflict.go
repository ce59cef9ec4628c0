package dto

// DetectConflictsRequest runs detection over the current draft set.
type DetectConflictsRequest struct {
	AcademicYear string `json:"academicYear" validate:"required"`
	Semester     string `json:"semester" validate:"required"`
}

// DetectConflictsResponse reports how many violations each pass recorded.
type DetectConflictsResponse struct {
	RoomDoubleBookings  int `json:"roomDoubleBookings"`
	RoomCapacity        int `json:"roomCapacity"`
	InstructorConflicts int `json:"instructorConflicts"`
	TimeSlotExceeded    int `json:"timeSlotExceeded"`
	Total               int `json:"total"`
}

// ConflictQuery filters the conflict listing.
type ConflictQuery struct {
	AcademicYear string `form:"academicYear" json:"academicYear"`
	Semester     string `form:"semester" json:"semester"`
	Status       string `form:"status" json:"status"`
	Type         string `form:"type" json:"type"`
	Page         int    `form:"page" json:"page"`
	PageSize     int    `form:"pageSize" json:"pageSize"`
}

// AutoResolveRequest re-checks pending conflicts against the live schedule.
type AutoResolveRequest struct {
	AcademicYear string `json:"academicYear" validate:"required"`
	Semester     string `json:"semester" validate:"required"`
}

// AutoResolveResponse reports how many pending conflicts were cleared.
type AutoResolveResponse struct {
	Checked  int `json:"checked"`
	Resolved int `json:"resolved"`
}

package dto

// WorkloadQuery selects the scope and visibility for the workload report.
type WorkloadQuery struct {
	AcademicYear  string `form:"academicYear" json:"academicYear"`
	Semester      string `form:"semester" json:"semester"`
	PublishedOnly bool   `form:"publishedOnly" json:"publishedOnly"`
}

// ExportReportRequest enqueues an asynchronous report export.
type ExportReportRequest struct {
	AcademicYear  string `json:"academicYear" validate:"required"`
	Semester      string `json:"semester" validate:"required"`
	Kind          string `json:"kind" validate:"required,oneof=workload timetable"`
	Format        string `json:"format" validate:"required,oneof=csv pdf"`
	PublishedOnly bool   `json:"publishedOnly"`
}

// ExportReportResponse returns the job handle for polling.
type ExportReportResponse struct {
	JobID string `json:"jobId"`
}

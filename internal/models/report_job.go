package models

import "time"

// ReportJobStatus tracks asynchronous export jobs.
type ReportJobStatus string

const (
	ReportJobPending   ReportJobStatus = "PENDING"
	ReportJobCompleted ReportJobStatus = "COMPLETED"
	ReportJobFailed    ReportJobStatus = "FAILED"
)

// ReportJob describes one requested export of a workload or timetable
// report. Jobs are ephemeral; artifacts are re-generated on demand.
type ReportJob struct {
	ID           string          `json:"id"`
	Kind         string          `json:"kind"`
	Format       string          `json:"format"`
	AcademicYear string          `json:"academic_year"`
	Semester     string          `json:"semester"`
	Status       ReportJobStatus `json:"status"`
	FilePath     string          `json:"file_path,omitempty"`
	DownloadURL  string          `json:"download_url,omitempty"`
	ExpiresAt    *time.Time      `json:"expires_at,omitempty"`
	Error        string          `json:"error,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

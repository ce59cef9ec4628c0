package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Phuiluannn/FYPSchedulingSystem-sub001/internal/dto"
	"github.com/Phuiluannn/FYPSchedulingSystem-sub001/internal/models"
	appErrors "github.com/Phuiluannn/FYPSchedulingSystem-sub001/pkg/errors"
	"github.com/Phuiluannn/FYPSchedulingSystem-sub001/pkg/export"
	"github.com/Phuiluannn/FYPSchedulingSystem-sub001/pkg/jobs"
	"github.com/Phuiluannn/FYPSchedulingSystem-sub001/pkg/storage"
)

type reportWorkloadSource interface {
	Report(ctx context.Context, query dto.WorkloadQuery) (*models.WorkloadReport, error)
}

type reportScheduleLister interface {
	ListByScope(ctx context.Context, academicYear, semester string, published bool) ([]models.ScheduleItem, error)
}

// ReportService renders workload and timetable reports to CSV or PDF in the
// background and hands out signed download links. Jobs live in memory only;
// a restart loses pending jobs and callers simply re-request the export.
type ReportService struct {
	workloads reportWorkloadSource
	schedules reportScheduleLister
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	files     *storage.LocalStorage
	signer    *storage.SignedURLSigner
	validator *validator.Validate
	logger    *zap.Logger

	downloadPath string

	queue *jobs.Queue
	mu    sync.RWMutex
	byID  map[string]*models.ReportJob
}

// ReportQueueConfig sizes the export worker pool and anchors the download
// links handed out on completion. DownloadPath must match the route the
// gateway registers for Download.
type ReportQueueConfig struct {
	Workers      int
	MaxRetries   int
	RetryDelay   time.Duration
	DownloadPath string
}

const defaultDownloadPath = "/api/v1/exports/download"

// NewReportService wires export dependencies and builds the worker queue.
// Call Start before accepting requests and Stop on shutdown.
func NewReportService(workloads reportWorkloadSource, schedules reportScheduleLister, files *storage.LocalStorage, signer *storage.SignedURLSigner, cfg ReportQueueConfig, validate *validator.Validate, logger *zap.Logger) *ReportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DownloadPath == "" {
		cfg.DownloadPath = defaultDownloadPath
	}
	s := &ReportService{
		workloads:    workloads,
		schedules:    schedules,
		csv:          export.NewCSVExporter(),
		pdf:          export.NewPDFExporter(),
		files:        files,
		signer:       signer,
		validator:    validate,
		logger:       logger,
		downloadPath: cfg.DownloadPath,
		byID:         make(map[string]*models.ReportJob),
	}
	s.queue = jobs.NewQueue("report-export", s.process, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return s
}

// Start launches the export workers.
func (s *ReportService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the export workers.
func (s *ReportService) Stop() {
	s.queue.Stop()
}

// Export enqueues a report render and returns the job handle immediately.
func (s *ReportService) Export(ctx context.Context, req dto.ExportReportRequest) (*dto.ExportReportResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export payload")
	}

	now := time.Now().UTC()
	job := &models.ReportJob{
		ID:           uuid.NewString(),
		Kind:         req.Kind,
		Format:       req.Format,
		AcademicYear: req.AcademicYear,
		Semester:     req.Semester,
		Status:       models.ReportJobPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.mu.Lock()
	s.byID[job.ID] = job
	s.mu.Unlock()

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: req.Kind, Payload: req}); err != nil {
		s.fail(job.ID, err)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue export")
	}

	s.logger.Info("report export enqueued",
		zap.String("job_id", job.ID),
		zap.String("kind", req.Kind),
		zap.String("format", req.Format),
	)
	return &dto.ExportReportResponse{JobID: job.ID}, nil
}

// Job returns the current state of an export job.
func (s *ReportService) Job(id string) (*models.ReportJob, error) {
	s.mu.RLock()
	job, ok := s.byID[id]
	s.mu.RUnlock()
	if !ok {
		return nil, appErrors.New(appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "export job not found")
	}
	copied := *job
	return &copied, nil
}

// Download validates a signed token and opens the referenced artifact. The
// caller owns the returned file handle.
func (s *ReportService) Download(token string) (*os.File, string, error) {
	jobID, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "invalid or expired download token")
	}

	s.mu.RLock()
	job, ok := s.byID[jobID]
	s.mu.RUnlock()
	if !ok || job.Status != models.ReportJobCompleted {
		return nil, "", appErrors.New(appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "export artifact not available")
	}

	file, err := s.files.Open(relPath)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "export artifact missing")
	}
	return file, filepath.Base(relPath), nil
}

// process renders one export job. Errors are returned to the queue so its
// retry policy applies; the terminal failure is recorded on the job.
func (s *ReportService) process(ctx context.Context, job jobs.Job) error {
	req, ok := job.Payload.(dto.ExportReportRequest)
	if !ok {
		err := fmt.Errorf("unexpected payload type %T", job.Payload)
		s.fail(job.ID, err)
		return err
	}

	dataset, title, err := s.buildDataset(ctx, req)
	if err != nil {
		s.fail(job.ID, err)
		return err
	}

	var rendered []byte
	switch req.Format {
	case "pdf":
		rendered, err = s.pdf.Render(dataset, title)
	default:
		rendered, err = s.csv.Render(dataset)
	}
	if err != nil {
		s.fail(job.ID, err)
		return err
	}

	filename := exportFilename(req, job.ID)
	if _, err := s.files.Save(filename, rendered); err != nil {
		s.fail(job.ID, err)
		return err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, filename)
	if err != nil {
		s.fail(job.ID, err)
		return err
	}

	s.mu.Lock()
	if stored, ok := s.byID[job.ID]; ok {
		stored.Status = models.ReportJobCompleted
		stored.FilePath = filename
		stored.DownloadURL = s.downloadPath + "?token=" + token
		stored.ExpiresAt = &expiresAt
		stored.Error = ""
		stored.UpdatedAt = time.Now().UTC()
	}
	s.mu.Unlock()

	s.logger.Info("report export complete",
		zap.String("job_id", job.ID),
		zap.String("file", filename),
	)
	return nil
}

func (s *ReportService) fail(jobID string, err error) {
	s.mu.Lock()
	if stored, ok := s.byID[jobID]; ok {
		stored.Status = models.ReportJobFailed
		stored.Error = err.Error()
		stored.UpdatedAt = time.Now().UTC()
	}
	s.mu.Unlock()
}

func exportFilename(req dto.ExportReportRequest, jobID string) string {
	scope := strings.ReplaceAll(req.AcademicYear, "/", "-") + "-" + strings.ReplaceAll(req.Semester, "/", "-")
	return fmt.Sprintf("%s-%s-%s.%s", req.Kind, scope, jobID, req.Format)
}

func (s *ReportService) buildDataset(ctx context.Context, req dto.ExportReportRequest) (export.Dataset, string, error) {
	switch req.Kind {
	case "workload":
		report, err := s.workloads.Report(ctx, dto.WorkloadQuery{
			AcademicYear:  req.AcademicYear,
			Semester:      req.Semester,
			PublishedOnly: req.PublishedOnly,
		})
		if err != nil {
			return export.Dataset{}, "", err
		}
		return workloadDataset(report), fmt.Sprintf("Instructor Workload %s %s", req.AcademicYear, req.Semester), nil
	case "timetable":
		entries, err := s.schedules.ListByScope(ctx, req.AcademicYear, req.Semester, req.PublishedOnly)
		if err != nil {
			return export.Dataset{}, "", err
		}
		return timetableDataset(entries), fmt.Sprintf("Timetable %s %s", req.AcademicYear, req.Semester), nil
	default:
		return export.Dataset{}, "", fmt.Errorf("unknown report kind %q", req.Kind)
	}
}

func workloadDataset(report *models.WorkloadReport) export.Dataset {
	headers := []string{"Instructor", "Total Hours", "Courses", "Course Codes"}
	rows := make([]map[string]string, 0, len(report.Instructors))
	for _, w := range report.Instructors {
		rows = append(rows, map[string]string{
			"Instructor":   w.InstructorName,
			"Total Hours":  fmt.Sprintf("%d", w.TotalHours),
			"Courses":      fmt.Sprintf("%d", w.CourseCount),
			"Course Codes": strings.Join(w.CourseCodes, ", "),
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}

func timetableDataset(entries []models.ScheduleItem) export.Dataset {
	headers := []string{"Course", "Day", "Start", "End", "Room", "Instructors"}
	rows := make([]map[string]string, 0, len(entries))
	for _, entry := range entries {
		room := ""
		if entry.RoomID != nil {
			room = *entry.RoomID
		}
		rows = append(rows, map[string]string{
			"Course":      entry.CourseCode,
			"Day":         entry.Day,
			"Start":       entry.StartTime,
			"End":         entry.EndTime,
			"Room":        room,
			"Instructors": strings.Join(entry.InstructorNames, ", "),
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}

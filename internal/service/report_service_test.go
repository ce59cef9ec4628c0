package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Phuiluannn/FYPSchedulingSystem-sub001/internal/dto"
	"github.com/Phuiluannn/FYPSchedulingSystem-sub001/internal/models"
	appErrors "github.com/Phuiluannn/FYPSchedulingSystem-sub001/pkg/errors"
	"github.com/Phuiluannn/FYPSchedulingSystem-sub001/pkg/storage"
)

type reportWorkloadStub struct {
	report *models.WorkloadReport
	err    error
}

func (s *reportWorkloadStub) Report(ctx context.Context, query dto.WorkloadQuery) (*models.WorkloadReport, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.report, nil
}

type reportListerStub struct {
	entries []models.ScheduleItem
}

func (s *reportListerStub) ListByScope(ctx context.Context, academicYear, semester string, published bool) ([]models.ScheduleItem, error) {
	return s.entries, nil
}

func newReportFixture(t *testing.T, workloads reportWorkloadSource, schedules reportScheduleLister) *ReportService {
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	service := NewReportService(workloads, schedules, files, signer, ReportQueueConfig{
		Workers:    1,
		MaxRetries: 1,
		RetryDelay: time.Millisecond,
	}, nil, nil)
	service.Start(context.Background())
	t.Cleanup(service.Stop)
	return service
}

func workloadExportReq(format string) dto.ExportReportRequest {
	return dto.ExportReportRequest{
		AcademicYear: "2024/2025",
		Semester:     "1",
		Kind:         "workload",
		Format:       format,
	}
}

func waitForJob(t *testing.T, service *ReportService, id string, status models.ReportJobStatus) *models.ReportJob {
	t.Helper()
	var job *models.ReportJob
	require.Eventually(t, func() bool {
		current, err := service.Job(id)
		if err != nil {
			return false
		}
		job = current
		return job.Status == status
	}, 2*time.Second, 10*time.Millisecond)
	return job
}

func TestReportServiceExportsWorkloadCSV(t *testing.T) {
	workloads := &reportWorkloadStub{report: &models.WorkloadReport{
		AcademicYear: "2024/2025",
		Semester:     "1",
		Instructors: []models.InstructorWorkload{
			{InstructorName: "Dr. Tan", TotalHours: 4, CourseCount: 2, CourseCodes: []string{"CS101", "CS102"}},
		},
	}}
	service := newReportFixture(t, workloads, &reportListerStub{})

	resp, err := service.Export(context.Background(), workloadExportReq("csv"))
	require.NoError(t, err)
	require.NotEmpty(t, resp.JobID)

	job := waitForJob(t, service, resp.JobID, models.ReportJobCompleted)
	assert.True(t, strings.HasSuffix(job.FilePath, ".csv"))
	require.NotNil(t, job.ExpiresAt)

	token := strings.TrimPrefix(job.DownloadURL, "/api/v1/exports/download?token=")
	require.NotEqual(t, job.DownloadURL, token, "download URL must carry the token query parameter")

	file, name, err := service.Download(token)
	require.NoError(t, err)
	defer file.Close()
	assert.Equal(t, job.FilePath, name)

	contents, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.Contains(t, string(contents), "Dr. Tan")
	assert.Contains(t, string(contents), "CS101, CS102")
}

func TestReportServiceDownloadURLFollowsConfiguredRoute(t *testing.T) {
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	service := NewReportService(&reportWorkloadStub{report: &models.WorkloadReport{}}, &reportListerStub{}, files, signer, ReportQueueConfig{
		Workers:      1,
		RetryDelay:   time.Millisecond,
		DownloadPath: "/api/v2/exports/download",
	}, nil, nil)
	service.Start(context.Background())
	t.Cleanup(service.Stop)

	resp, err := service.Export(context.Background(), workloadExportReq("csv"))
	require.NoError(t, err)

	job := waitForJob(t, service, resp.JobID, models.ReportJobCompleted)
	assert.True(t, strings.HasPrefix(job.DownloadURL, "/api/v2/exports/download?token="))
}

func TestReportServiceExportsTimetablePDF(t *testing.T) {
	room := "r1"
	schedules := &reportListerStub{entries: []models.ScheduleItem{
		{CourseCode: "CS101", Day: "Monday", StartTime: "8.00 AM", EndTime: "9.00 AM", RoomID: &room},
	}}
	service := newReportFixture(t, &reportWorkloadStub{}, schedules)

	req := workloadExportReq("pdf")
	req.Kind = "timetable"
	resp, err := service.Export(context.Background(), req)
	require.NoError(t, err)

	job := waitForJob(t, service, resp.JobID, models.ReportJobCompleted)
	assert.True(t, strings.HasSuffix(job.FilePath, ".pdf"))
}

func TestReportServiceRecordsFailure(t *testing.T) {
	workloads := &reportWorkloadStub{err: errors.New("store offline")}
	service := newReportFixture(t, workloads, &reportListerStub{})

	resp, err := service.Export(context.Background(), workloadExportReq("csv"))
	require.NoError(t, err)

	job := waitForJob(t, service, resp.JobID, models.ReportJobFailed)
	assert.Contains(t, job.Error, "store offline")
	assert.Empty(t, job.DownloadURL)
}

func TestReportServiceRejectsInvalidExport(t *testing.T) {
	service := newReportFixture(t, &reportWorkloadStub{}, &reportListerStub{})

	req := workloadExportReq("csv")
	req.Kind = "grades"
	_, err := service.Export(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestReportServiceJobNotFound(t *testing.T) {
	service := newReportFixture(t, &reportWorkloadStub{}, &reportListerStub{})

	_, err := service.Job("missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestReportServiceDownloadRejectsBadToken(t *testing.T) {
	service := newReportFixture(t, &reportWorkloadStub{}, &reportListerStub{})

	_, _, err := service.Download("not-a-token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

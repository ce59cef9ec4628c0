package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/Phuiluannn/FYPSchedulingSystem-sub001/internal/dto"
	"github.com/Phuiluannn/FYPSchedulingSystem-sub001/internal/models"
	appErrors "github.com/Phuiluannn/FYPSchedulingSystem-sub001/pkg/errors"
)

type conflictManagerMock struct {
	detectReq  dto.DetectConflictsRequest
	listQuery  dto.ConflictQuery
	resolvedID string
	resolveErr error
	autoReq    dto.AutoResolveRequest
}

func (m *conflictManagerMock) Detect(ctx context.Context, req dto.DetectConflictsRequest) (*dto.DetectConflictsResponse, error) {
	m.detectReq = req
	return &dto.DetectConflictsResponse{RoomDoubleBookings: 1, Total: 1}, nil
}

func (m *conflictManagerMock) AutoResolve(ctx context.Context, req dto.AutoResolveRequest) (*dto.AutoResolveResponse, error) {
	m.autoReq = req
	return &dto.AutoResolveResponse{Checked: 3, Resolved: 1}, nil
}

func (m *conflictManagerMock) Resolve(ctx context.Context, id string) error {
	m.resolvedID = id
	return m.resolveErr
}

func (m *conflictManagerMock) List(ctx context.Context, query dto.ConflictQuery) ([]models.Conflict, *models.Pagination, error) {
	m.listQuery = query
	return []models.Conflict{{Type: models.ConflictRoomDoubleBook}}, models.NewPagination(query.Page, query.PageSize, 1), nil
}

func TestConflictDetectSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &conflictManagerMock{}
	handler := &ConflictHandler{conflicts: mockSvc}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(http.MethodPost, "/conflicts/detect", scopePayload())

	handler.Detect(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "2024/2025", mockSvc.detectReq.AcademicYear)
}

func TestConflictDetectValidation(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &ConflictHandler{conflicts: &conflictManagerMock{}}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(http.MethodPost, "/conflicts/detect", []byte(`{`))

	handler.Detect(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConflictListDefaultsPaging(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &conflictManagerMock{}
	handler := &ConflictHandler{conflicts: mockSvc}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/conflicts?academicYear=2024/2025&semester=1&status=Pending", nil)

	handler.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 1, mockSvc.listQuery.Page)
	require.Equal(t, 20, mockSvc.listQuery.PageSize)
	require.Equal(t, "Pending", mockSvc.listQuery.Status)
}

func TestConflictResolveSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &conflictManagerMock{}
	handler := &ConflictHandler{conflicts: mockSvc}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "id", Value: "conflict-1"}}
	c.Request, _ = http.NewRequest(http.MethodPatch, "/conflicts/conflict-1/resolve", nil)

	handler.Resolve(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "conflict-1", mockSvc.resolvedID)
}

func TestConflictResolveNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &conflictManagerMock{resolveErr: appErrors.Clone(appErrors.ErrNotFound, "conflict not found")}
	handler := &ConflictHandler{conflicts: mockSvc}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}
	c.Request, _ = http.NewRequest(http.MethodPatch, "/conflicts/missing/resolve", nil)

	handler.Resolve(c)

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestConflictAutoResolveSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &conflictManagerMock{}
	handler := &ConflictHandler{conflicts: mockSvc}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(http.MethodPost, "/conflicts/auto-resolve", scopePayload())

	handler.AutoResolve(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "1", mockSvc.autoReq.Semester)
}

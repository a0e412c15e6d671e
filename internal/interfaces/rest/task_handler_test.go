package rest_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/docuflow/backend/internal/application/services"
	"github.com/docuflow/backend/internal/domain/models"
	"github.com/docuflow/backend/internal/interfaces/rest"
	"github.com/docuflow/backend/pkg/auth"
	"github.com/docuflow/backend/pkg/constants"
	appErrors "github.com/docuflow/backend/pkg/errors"
)

// MockTaskService is a mock implementation of the TaskService interface
type MockTaskService struct {
	mock.Mock
}

func (m *MockTaskService) Approve(ctx context.Context, taskID, comment string, user *models.UserSession) error {
	args := m.Called(ctx, taskID, comment, user)
	return args.Error(0)
}

func (m *MockTaskService) Reject(ctx context.Context, taskID, comment string, user *models.UserSession) error {
	args := m.Called(ctx, taskID, comment, user)
	return args.Error(0)
}

func (m *MockTaskService) Delegate(ctx context.Context, taskID string, req services.HandoffRequest, user *models.UserSession) error {
	args := m.Called(ctx, taskID, req, user)
	return args.Error(0)
}

func (m *MockTaskService) Transfer(ctx context.Context, taskID string, req services.HandoffRequest, user *models.UserSession) error {
	args := m.Called(ctx, taskID, req, user)
	return args.Error(0)
}

func (m *MockTaskService) Rollback(ctx context.Context, taskID string, req services.RollbackRequest, user *models.UserSession) error {
	args := m.Called(ctx, taskID, req, user)
	return args.Error(0)
}

func (m *MockTaskService) GetPendingTasks(ctx context.Context, user *models.UserSession) ([]*models.WorkflowTask, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.WorkflowTask), args.Error(1)
}

// MockLedgerService is a mock implementation of the DelegationLogService interface
type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) GetLogs(ctx context.Context, taskID string, page, limit int) ([]*models.DelegationLogEntry, error) {
	args := m.Called(ctx, taskID, page, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.DelegationLogEntry), args.Error(1)
}

func setupTaskRouter(svc *MockTaskService, ledger *MockLedgerService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	// Inject a fixed session the way RequireAuth would
	router.Use(func(c *gin.Context) {
		c.Set(constants.ContextKeyUser, auth.UserSession{
			ID: "u-bob", Name: "Bob", Email: "bob@example.com",
			Role: "manager", DepartmentID: "finance",
		})
	})

	handler := rest.NewTaskHandler(svc, ledger)
	router.POST("/api/tasks/:taskId/approve", handler.Approve)
	router.POST("/api/tasks/:taskId/reject", handler.Reject)
	router.POST("/api/tasks/:taskId/delegate", handler.Delegate)
	router.POST("/api/tasks/:taskId/rollback", handler.Rollback)
	router.GET("/api/tasks/pending", handler.GetPending)
	router.GET("/api/tasks/:taskId/delegation-logs", handler.GetDelegationLogs)
	return router
}

func postJSON(router *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestTaskHandler_Approve(t *testing.T) {
	svc := new(MockTaskService)
	ledger := new(MockLedgerService)
	router := setupTaskRouter(svc, ledger)

	svc.On("Approve", mock.Anything, "task-1", "looks good",
		mock.MatchedBy(func(u *models.UserSession) bool { return u.ID == "u-bob" })).Return(nil)

	w := postJSON(router, "/api/tasks/task-1/approve", gin.H{"comment": "looks good"})

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestTaskHandler_Approve_Forbidden(t *testing.T) {
	svc := new(MockTaskService)
	ledger := new(MockLedgerService)
	router := setupTaskRouter(svc, ledger)

	svc.On("Approve", mock.Anything, "task-1", "", mock.Anything).
		Return(appErrors.NewPermissionError("approve", "workflow task"))

	w := postJSON(router, "/api/tasks/task-1/approve", nil)

	assert.Equal(t, http.StatusForbidden, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "PERMISSION_DENIED", body["code"])
}

func TestTaskHandler_Reject_InvalidState(t *testing.T) {
	svc := new(MockTaskService)
	ledger := new(MockLedgerService)
	router := setupTaskRouter(svc, ledger)

	svc.On("Reject", mock.Anything, "task-1", "", mock.Anything).
		Return(appErrors.NewInvalidStateError("workflow task", "approved", "pending"))

	w := postJSON(router, "/api/tasks/task-1/reject", nil)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestTaskHandler_Delegate_RequiresTarget(t *testing.T) {
	svc := new(MockTaskService)
	ledger := new(MockLedgerService)
	router := setupTaskRouter(svc, ledger)

	w := postJSON(router, "/api/tasks/task-1/delegate", gin.H{"reason": "vacation"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "Delegate")
}

func TestTaskHandler_Rollback_DefaultTarget(t *testing.T) {
	svc := new(MockTaskService)
	ledger := new(MockLedgerService)
	router := setupTaskRouter(svc, ledger)

	svc.On("Rollback", mock.Anything, "task-1",
		mock.MatchedBy(func(r services.RollbackRequest) bool { return r.TargetStepIndex == nil }),
		mock.Anything).Return(nil)

	w := postJSON(router, "/api/tasks/task-1/rollback", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestTaskHandler_GetPending(t *testing.T) {
	svc := new(MockTaskService)
	ledger := new(MockLedgerService)
	router := setupTaskRouter(svc, ledger)

	svc.On("GetPendingTasks", mock.Anything, mock.Anything).
		Return([]*models.WorkflowTask{{ID: "task-1", StepName: "Manager Approval"}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/tasks/pending", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Tasks []models.WorkflowTask `json:"tasks"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Tasks, 1)
	assert.Equal(t, "task-1", body.Tasks[0].ID)
}

func TestTaskHandler_GetDelegationLogs_Pagination(t *testing.T) {
	svc := new(MockTaskService)
	ledger := new(MockLedgerService)
	router := setupTaskRouter(svc, ledger)

	ledger.On("GetLogs", mock.Anything, "task-1", 2, 5).
		Return([]*models.DelegationLogEntry{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/tasks/task-1/delegation-logs?page=2&limit=5", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	ledger.AssertExpectations(t)
}

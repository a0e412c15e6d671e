package rest

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/docuflow/backend/internal/application/services"
	"github.com/docuflow/backend/internal/domain/models"
)

// TaskService defines the interface for task lifecycle operations
type TaskService interface {
	Approve(ctx context.Context, taskID, comment string, user *models.UserSession) error
	Reject(ctx context.Context, taskID, comment string, user *models.UserSession) error
	Delegate(ctx context.Context, taskID string, req services.HandoffRequest, user *models.UserSession) error
	Transfer(ctx context.Context, taskID string, req services.HandoffRequest, user *models.UserSession) error
	Rollback(ctx context.Context, taskID string, req services.RollbackRequest, user *models.UserSession) error
	GetPendingTasks(ctx context.Context, user *models.UserSession) ([]*models.WorkflowTask, error)
}

// DelegationLogService defines the interface for ledger reads
type DelegationLogService interface {
	GetLogs(ctx context.Context, taskID string, page, limit int) ([]*models.DelegationLogEntry, error)
}

// TaskHandler handles task decision endpoints
type TaskHandler struct {
	svc    TaskService
	ledger DelegationLogService
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(svc TaskService, ledger DelegationLogService) *TaskHandler {
	return &TaskHandler{svc: svc, ledger: ledger}
}

// DecisionRequest carries the optional comment for approve/reject
type DecisionRequest struct {
	Comment string `json:"comment"`
}

// GetPending handles GET /api/tasks/pending
func (h *TaskHandler) GetPending(c *gin.Context) {
	user := GetUserFromContext(c)
	HandleGetEnvelope(c, "tasks", func() (interface{}, error) {
		return h.svc.GetPendingTasks(c.Request.Context(), user)
	})
}

// Approve handles POST /api/tasks/:taskId/approve
func (h *TaskHandler) Approve(c *gin.Context) {
	taskID := c.Param("taskId")
	user := GetUserFromContext(c)

	var req DecisionRequest
	_ = c.ShouldBindJSON(&req) // Optional comment

	HandleActionEnvelope(c, "Task approved", func() error {
		return h.svc.Approve(c.Request.Context(), taskID, req.Comment, user)
	})
}

// Reject handles POST /api/tasks/:taskId/reject
func (h *TaskHandler) Reject(c *gin.Context) {
	taskID := c.Param("taskId")
	user := GetUserFromContext(c)

	var req DecisionRequest
	_ = c.ShouldBindJSON(&req) // Optional comment

	HandleActionEnvelope(c, "Task rejected", func() error {
		return h.svc.Reject(c.Request.Context(), taskID, req.Comment, user)
	})
}

// Delegate handles POST /api/tasks/:taskId/delegate
func (h *TaskHandler) Delegate(c *gin.Context) {
	taskID := c.Param("taskId")
	user := GetUserFromContext(c)

	var req services.HandoffRequest
	if !BindJSON(c, &req) {
		return
	}

	HandleActionEnvelope(c, "Task delegated", func() error {
		return h.svc.Delegate(c.Request.Context(), taskID, req, user)
	})
}

// Transfer handles POST /api/tasks/:taskId/transfer
func (h *TaskHandler) Transfer(c *gin.Context) {
	taskID := c.Param("taskId")
	user := GetUserFromContext(c)

	var req services.HandoffRequest
	if !BindJSON(c, &req) {
		return
	}

	HandleActionEnvelope(c, "Task transferred", func() error {
		return h.svc.Transfer(c.Request.Context(), taskID, req, user)
	})
}

// Rollback handles POST /api/tasks/:taskId/rollback
func (h *TaskHandler) Rollback(c *gin.Context) {
	taskID := c.Param("taskId")
	user := GetUserFromContext(c)

	var req services.RollbackRequest
	_ = c.ShouldBindJSON(&req) // Target step is optional

	HandleActionEnvelope(c, "Workflow rolled back", func() error {
		return h.svc.Rollback(c.Request.Context(), taskID, req, user)
	})
}

// GetDelegationLogs handles GET /api/tasks/:taskId/delegation-logs
func (h *TaskHandler) GetDelegationLogs(c *gin.Context) {
	taskID := c.Param("taskId")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	HandleGetEnvelope(c, "logs", func() (interface{}, error) {
		return h.ledger.GetLogs(c.Request.Context(), taskID, page, limit)
	})
}

// ListDelegationLogs handles GET /api/delegation-logs (admin audit view)
func (h *TaskHandler) ListDelegationLogs(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	HandleGetEnvelope(c, "logs", func() (interface{}, error) {
		return h.ledger.GetLogs(c.Request.Context(), "", page, limit)
	})
}

package rest

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/docuflow/backend/internal/application/services"
	"github.com/docuflow/backend/internal/domain/models"
	"github.com/docuflow/backend/pkg/constants"
)

// TemplateService defines the interface for template operations
type TemplateService interface {
	Create(ctx context.Context, req services.CreateTemplateRequest, user *models.UserSession) (*models.WorkflowTemplate, error)
	GetTemplate(ctx context.Context, id string) (*models.WorkflowTemplate, error)
	ListTemplates(ctx context.Context) ([]*models.WorkflowTemplate, error)
}

// InstanceService defines the interface for instance operations
type InstanceService interface {
	Submit(ctx context.Context, req services.SubmitRequest, user *models.UserSession) (*models.WorkflowInstance, error)
	GetInstance(ctx context.Context, id string) (*models.WorkflowInstance, []*models.WorkflowTask, error)
}

// WorkflowHandler handles template and instance endpoints
type WorkflowHandler struct {
	templates TemplateService
	instances InstanceService
}

// NewWorkflowHandler creates a new WorkflowHandler
func NewWorkflowHandler(templates TemplateService, instances InstanceService) *WorkflowHandler {
	return &WorkflowHandler{templates: templates, instances: instances}
}

// CreateTemplate handles POST /api/workflow/templates
func (h *WorkflowHandler) CreateTemplate(c *gin.Context) {
	user := GetUserFromContext(c)

	var req services.CreateTemplateRequest
	if !BindJSON(c, &req) {
		return
	}

	template, err := h.templates.Create(c.Request.Context(), req, user)
	if err != nil {
		RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		constants.FieldMessage: "Workflow template created",
		"template":             template,
	})
}

// GetTemplate handles GET /api/workflow/templates/:templateId
func (h *WorkflowHandler) GetTemplate(c *gin.Context) {
	templateID := c.Param("templateId")
	HandleGetEnvelope(c, "template", func() (interface{}, error) {
		return h.templates.GetTemplate(c.Request.Context(), templateID)
	})
}

// ListTemplates handles GET /api/workflow/templates
func (h *WorkflowHandler) ListTemplates(c *gin.Context) {
	HandleGetEnvelope(c, "templates", func() (interface{}, error) {
		return h.templates.ListTemplates(c.Request.Context())
	})
}

// Submit handles POST /api/workflow/instances
func (h *WorkflowHandler) Submit(c *gin.Context) {
	user := GetUserFromContext(c)

	var req services.SubmitRequest
	if !BindJSON(c, &req) {
		return
	}

	instance, err := h.instances.Submit(c.Request.Context(), req, user)
	if err != nil {
		RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		constants.FieldMessage: "Workflow started",
		"instance":             instance,
	})
}

// GetInstance handles GET /api/workflow/instances/:instanceId
func (h *WorkflowHandler) GetInstance(c *gin.Context) {
	instanceID := c.Param("instanceId")
	HandleGetEnvelope(c, "data", func() (interface{}, error) {
		instance, tasks, err := h.instances.GetInstance(c.Request.Context(), instanceID)
		if err != nil {
			return nil, err
		}
		return gin.H{"instance": instance, "tasks": tasks}, nil
	})
}

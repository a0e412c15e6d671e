package services

import (
	"context"
	"fmt"
	"time"

	"github.com/docuflow/backend/internal/domain/models"
	"github.com/docuflow/backend/internal/domain/ports"
	appErrors "github.com/docuflow/backend/pkg/errors"
	"github.com/docuflow/backend/pkg/expression"
	"github.com/docuflow/backend/pkg/utils"
)

// CreateTemplateRequest registers a new workflow template
type CreateTemplateRequest struct {
	Name         string                  `json:"name" binding:"required"`
	ResourceType string                  `json:"resource_type" binding:"required"`
	Steps        []models.StepDefinition `json:"steps" binding:"required"`
}

// TemplateService registers and lists workflow templates. Templates are
// immutable once created; instances carry the template ID and read steps
// back at every transition, so editing a live template would corrupt
// in-flight instances.
type TemplateService struct {
	templates ports.TemplateRepository
}

// NewTemplateService creates a new TemplateService
func NewTemplateService(templates ports.TemplateRepository) *TemplateService {
	return &TemplateService{templates: templates}
}

// Create validates and stores a template. Registration is strict where
// resolution is lenient: every step condition must parse here, so a
// fail-open match during resolution can only come from data corruption,
// not from a typo at registration time.
func (s *TemplateService) Create(ctx context.Context, req CreateTemplateRequest, user *models.UserSession) (*models.WorkflowTemplate, error) {
	if !user.IsAdmin {
		return nil, appErrors.NewPermissionError("create", "workflow template")
	}

	template := &models.WorkflowTemplate{
		ID:           utils.GenerateID(),
		Name:         req.Name,
		ResourceType: req.ResourceType,
		IsActive:     true,
		Steps:        req.Steps,
		CreatedDate:  time.Now().UTC(),
	}

	if err := template.Validate(); err != nil {
		return nil, appErrors.NewValidationError("steps", err.Error())
	}
	for i := range template.Steps {
		step := &template.Steps[i]
		if step.Condition == nil || *step.Condition == "" {
			continue
		}
		if _, err := expression.Parse(*step.Condition); err != nil {
			return nil, err
		}
	}

	if err := s.templates.Create(ctx, template); err != nil {
		return nil, fmt.Errorf("failed to store template: %w", err)
	}

	return template, nil
}

// GetTemplate returns one template by ID
func (s *TemplateService) GetTemplate(ctx context.Context, id string) (*models.WorkflowTemplate, error) {
	template, err := s.templates.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load template: %w", err)
	}
	if template == nil {
		return nil, appErrors.NewNotFoundError("Workflow Template", id)
	}
	return template, nil
}

// ListTemplates returns all registered templates
func (s *TemplateService) ListTemplates(ctx context.Context) ([]*models.WorkflowTemplate, error) {
	return s.templates.FindAll(ctx)
}

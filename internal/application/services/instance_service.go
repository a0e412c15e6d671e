package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/docuflow/backend/internal/domain/models"
	"github.com/docuflow/backend/internal/domain/ports"
	"github.com/docuflow/backend/pkg/constants"
	appErrors "github.com/docuflow/backend/pkg/errors"
	"github.com/docuflow/backend/pkg/utils"
)

// SubmitRequest starts a workflow against a resource. ContextData is the
// snapshot of resource fields that step conditions evaluate against; it is
// frozen at submission and never refreshed.
type SubmitRequest struct {
	ResourceType  string                 `json:"resource_type" binding:"required"`
	ResourceID    string                 `json:"resource_id" binding:"required"`
	ResourceTitle string                 `json:"resource_title"`
	ContextData   map[string]interface{} `json:"context_data"`
}

// InstanceService starts workflow instances and serves their progress
type InstanceService struct {
	instances    ports.InstanceRepository
	templates    ports.TemplateRepository
	tasks        ports.TaskRepository
	tx           ports.TxRunner
	stepResolver *StepResolver
	taskCreator  *TaskService
}

// NewInstanceService creates a new InstanceService. taskCreator provides the
// shared fan-out logic for creating a step's tasks.
func NewInstanceService(
	instances ports.InstanceRepository,
	templates ports.TemplateRepository,
	tasks ports.TaskRepository,
	tx ports.TxRunner,
	taskCreator *TaskService,
) *InstanceService {
	return &InstanceService{
		instances:    instances,
		templates:    templates,
		tasks:        tasks,
		tx:           tx,
		stepResolver: NewStepResolver(),
		taskCreator:  taskCreator,
	}
}

// Submit starts a new instance for the resource using the active template
// for its type. The first applicable step is resolved against the snapshot;
// a template whose steps all have non-matching conditions completes
// immediately with no tasks.
func (s *InstanceService) Submit(ctx context.Context, req SubmitRequest, user *models.UserSession) (*models.WorkflowInstance, error) {
	template, err := s.templates.FindActiveByResourceType(ctx, req.ResourceType)
	if err != nil {
		return nil, fmt.Errorf("failed to look up template: %w", err)
	}
	if template == nil {
		return nil, appErrors.NewNotFoundError("Workflow Template", fmt.Sprintf("resource_type=%s", req.ResourceType))
	}

	var instance *models.WorkflowInstance
	err = s.tx.InTransaction(ctx, func(txCtx context.Context) error {
		pending, err := s.instances.HasPendingForResource(txCtx, req.ResourceType, req.ResourceID)
		if err != nil {
			return fmt.Errorf("failed to check pending instances: %w", err)
		}
		if pending {
			return appErrors.NewInvalidStateError(
				fmt.Sprintf("%s '%s'", req.ResourceType, req.ResourceID),
				"under approval", "no pending workflow")
		}

		now := time.Now().UTC()
		instance = &models.WorkflowInstance{
			ID:            utils.GenerateID(),
			TemplateID:    template.ID,
			InitiatorID:   user.ID,
			ResourceType:  req.ResourceType,
			ResourceID:    req.ResourceID,
			ResourceTitle: req.ResourceTitle,
			Status:        constants.InstanceStatusPending,
			CurrentStep:   0,
			ContextData:   req.ContextData,
			CreatedDate:   now,
		}

		first := s.stepResolver.ResolveNext(template.Steps, -1, instance.ConditionContext())
		if first < 0 {
			// No step applies to this snapshot; the workflow is vacuously done
			instance.Status = constants.InstanceStatusCompleted
			instance.CurrentStep = len(template.Steps)
			instance.CompletedDate = &now
			if err := s.instances.Create(txCtx, instance); err != nil {
				return fmt.Errorf("failed to create instance: %w", err)
			}
			log.Printf("✅ Instance %s completed on submission: no applicable steps", instance.ID)
			return nil
		}

		instance.CurrentStep = first
		if err := s.instances.Create(txCtx, instance); err != nil {
			return fmt.Errorf("failed to create instance: %w", err)
		}

		return s.taskCreator.createTasksForStep(txCtx, instance, &template.Steps[first], now)
	})
	if err != nil {
		return nil, err
	}

	return instance, nil
}

// GetInstance returns one instance with its tasks
func (s *InstanceService) GetInstance(ctx context.Context, id string) (*models.WorkflowInstance, []*models.WorkflowTask, error) {
	instance, err := s.instances.FindByID(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load instance: %w", err)
	}
	if instance == nil {
		return nil, nil, appErrors.NewNotFoundError("Workflow Instance", id)
	}

	tasks, err := s.tasks.FindByInstance(ctx, instance.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load tasks: %w", err)
	}

	return instance, tasks, nil
}

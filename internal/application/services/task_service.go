package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/docuflow/backend/internal/domain"
	"github.com/docuflow/backend/internal/domain/models"
	"github.com/docuflow/backend/internal/domain/ports"
	"github.com/docuflow/backend/pkg/constants"
	appErrors "github.com/docuflow/backend/pkg/errors"
	"github.com/docuflow/backend/pkg/utils"
)

// HandoffRequest is the input for delegate and transfer
type HandoffRequest struct {
	ToUserID string  `json:"to_user_id" binding:"required"`
	Reason   *string `json:"reason,omitempty"`
}

// RollbackRequest is the input for rollback. TargetStepIndex defaults to the
// step before the instance's current step.
type RollbackRequest struct {
	TargetStepIndex *int    `json:"target_step_index,omitempty"`
	Reason          *string `json:"reason,omitempty"`
}

// TaskService owns the approve/reject/delegate/transfer/rollback operations
// on pending workflow tasks. It is the only writer of task and instance
// status transitions; every multi-record mutation runs in one transaction.
type TaskService struct {
	tasks        ports.TaskRepository
	instances    ports.InstanceRepository
	templates    ports.TemplateRepository
	ledger       ports.DelegationLogRepository
	directory    ports.Directory
	notifier     ports.Notifier
	tx           ports.TxRunner
	stateMachine *domain.TaskStateMachine
	stepResolver *StepResolver
	assignees    *AssigneeResolver
}

// NewTaskService creates a new TaskService
func NewTaskService(
	tasks ports.TaskRepository,
	instances ports.InstanceRepository,
	templates ports.TemplateRepository,
	ledger ports.DelegationLogRepository,
	directory ports.Directory,
	notifier ports.Notifier,
	tx ports.TxRunner,
) *TaskService {
	return &TaskService{
		tasks:        tasks,
		instances:    instances,
		templates:    templates,
		ledger:       ledger,
		directory:    directory,
		notifier:     notifier,
		tx:           tx,
		stateMachine: domain.NewTaskStateMachine(),
		stepResolver: NewStepResolver(),
		assignees:    NewAssigneeResolver(directory),
	}
}

// Approve approves a pending task. When the step is satisfied (serial, or
// parallel with every co-signer approved) the instance advances to the next
// applicable step, or completes if none remains.
func (s *TaskService) Approve(ctx context.Context, taskID, comment string, user *models.UserSession) error {
	return s.tx.InTransaction(ctx, func(txCtx context.Context) error {
		task, err := s.loadActionableTask(txCtx, taskID, user.ID, "approve")
		if err != nil {
			return err
		}

		// Lock the instance row: the lock serializes concurrent co-signer
		// approvals so the step-completion check fires exactly once
		instance, template, err := s.loadPendingInstanceForUpdate(txCtx, task)
		if err != nil {
			return err
		}

		newStatus, err := s.stateMachine.Transition(task.Status, domain.ActionApprove)
		if err != nil {
			return appErrors.NewInvalidStateError("workflow task", task.Status, constants.TaskStatusPending)
		}

		now := time.Now().UTC()
		var commentPtr *string
		if comment != "" {
			commentPtr = &comment
		}
		if err := s.tasks.UpdateStatus(txCtx, task.ID, newStatus, commentPtr, now); err != nil {
			return fmt.Errorf("failed to update task status: %w", err)
		}

		step := &template.Steps[task.StepIndex]
		if step.IsParallel() {
			siblings, err := s.tasks.FindByInstanceAndStep(txCtx, instance.ID, task.StepIndex)
			if err != nil {
				return fmt.Errorf("failed to load co-signer tasks: %w", err)
			}
			for _, sibling := range siblings {
				if sibling.ID != task.ID && sibling.Status == constants.TaskStatusPending {
					// Other co-signers still pending; the step is not yet satisfied
					s.notifyInitiator(txCtx, instance, task, user, true)
					return nil
				}
			}
		}

		// Advance only from the step the instance is actually on
		if instance.CurrentStep != task.StepIndex {
			log.Printf("⚠️ Instance %s already advanced past step %d, skipping advance", instance.ID, task.StepIndex)
			return nil
		}

		s.notifyStepCC(txCtx, step, instance)

		if err := s.advanceInstance(txCtx, instance, template, task.StepIndex, now); err != nil {
			return err
		}

		s.notifyInitiator(txCtx, instance, task, user, true)
		return nil
	})
}

// Reject rejects a pending task and terminally rejects the whole instance.
// No further steps are created; sibling tasks are left pending but can no
// longer be acted on because the instance has left pending.
func (s *TaskService) Reject(ctx context.Context, taskID, comment string, user *models.UserSession) error {
	return s.tx.InTransaction(ctx, func(txCtx context.Context) error {
		task, err := s.loadActionableTask(txCtx, taskID, user.ID, "reject")
		if err != nil {
			return err
		}

		instance, _, err := s.loadPendingInstanceForUpdate(txCtx, task)
		if err != nil {
			return err
		}

		newStatus, err := s.stateMachine.Transition(task.Status, domain.ActionReject)
		if err != nil {
			return appErrors.NewInvalidStateError("workflow task", task.Status, constants.TaskStatusPending)
		}

		now := time.Now().UTC()
		var commentPtr *string
		if comment != "" {
			commentPtr = &comment
		}
		if err := s.tasks.UpdateStatus(txCtx, task.ID, newStatus, commentPtr, now); err != nil {
			return fmt.Errorf("failed to update task status: %w", err)
		}

		if err := s.instances.UpdateProgress(txCtx, instance.ID, constants.InstanceStatusRejected, instance.CurrentStep, &now); err != nil {
			return fmt.Errorf("failed to reject instance: %w", err)
		}

		s.notifyInitiator(txCtx, instance, task, user, false)
		return nil
	})
}

// Delegate hands a pending task to another user, keeping the delegation
// marker and recording the handoff in the ledger
func (s *TaskService) Delegate(ctx context.Context, taskID string, req HandoffRequest, user *models.UserSession) error {
	return s.handoff(ctx, taskID, req, user, constants.LedgerActionDelegate)
}

// Transfer reassigns a pending task to another user without the delegation
// marker
func (s *TaskService) Transfer(ctx context.Context, taskID string, req HandoffRequest, user *models.UserSession) error {
	return s.handoff(ctx, taskID, req, user, constants.LedgerActionTransfer)
}

func (s *TaskService) handoff(ctx context.Context, taskID string, req HandoffRequest, user *models.UserSession, action string) error {
	return s.tx.InTransaction(ctx, func(txCtx context.Context) error {
		task, err := s.loadActionableTask(txCtx, taskID, user.ID, action)
		if err != nil {
			return err
		}

		toUser, err := s.directory.FindUser(txCtx, req.ToUserID)
		if err != nil {
			return fmt.Errorf("failed to look up target user: %w", err)
		}
		if toUser == nil {
			return appErrors.NewNotFoundError("User", req.ToUserID)
		}

		var delegatedTo *string
		if action == constants.LedgerActionDelegate {
			delegatedTo = &toUser.ID
		}
		if err := s.tasks.Reassign(txCtx, task.ID, toUser.ID, delegatedTo); err != nil {
			return fmt.Errorf("failed to reassign task: %w", err)
		}

		entry := &models.DelegationLogEntry{
			ID:          utils.GenerateID(),
			TaskID:      task.ID,
			FromUserID:  user.ID,
			ToUserID:    toUser.ID,
			Action:      action,
			Reason:      req.Reason,
			DelegatedAt: time.Now().UTC(),
		}
		if err := s.ledger.Append(txCtx, entry); err != nil {
			return fmt.Errorf("failed to append delegation log: %w", err)
		}

		s.notify(txCtx, toUser.ID, constants.NotificationTypeTaskDelegated,
			fmt.Sprintf("Task assigned: %s", task.StepName),
			fmt.Sprintf("%s handed you the approval task '%s'", user.Name, task.StepName))

		if action == constants.LedgerActionDelegate {
			s.notifyCurrentStepCC(txCtx, task)
		}

		return nil
	})
}

// Rollback closes the caller's pending task and re-opens an earlier serial
// step of the instance. The target defaults to the step directly before the
// instance's current one.
func (s *TaskService) Rollback(ctx context.Context, taskID string, req RollbackRequest, user *models.UserSession) error {
	return s.tx.InTransaction(ctx, func(txCtx context.Context) error {
		task, err := s.loadActionableTask(txCtx, taskID, user.ID, "rollback")
		if err != nil {
			return err
		}

		instance, template, err := s.loadPendingInstanceForUpdate(txCtx, task)
		if err != nil {
			return err
		}

		target := instance.CurrentStep - 1
		if req.TargetStepIndex != nil {
			target = *req.TargetStepIndex
		}
		if target < 0 || target >= instance.CurrentStep || target >= len(template.Steps) {
			return appErrors.NewValidationError("target_step_index",
				fmt.Sprintf("rollback target %d must be in [0, %d)", target, instance.CurrentStep))
		}

		targetStep := &template.Steps[target]
		if targetStep.IsParallel() {
			return appErrors.NewValidationError("target_step_index",
				fmt.Sprintf("rollback target %d is a parallel step; only serial steps can be rolled back to", target))
		}

		newStatus, err := s.stateMachine.Transition(task.Status, domain.ActionRollback)
		if err != nil {
			return appErrors.NewInvalidStateError("workflow task", task.Status, constants.TaskStatusPending)
		}

		now := time.Now().UTC()
		if err := s.tasks.UpdateStatus(txCtx, task.ID, newStatus, req.Reason, now); err != nil {
			return fmt.Errorf("failed to close rolled-back task: %w", err)
		}

		if err := s.instances.UpdateProgress(txCtx, instance.ID, constants.InstanceStatusPending, target, nil); err != nil {
			return fmt.Errorf("failed to move instance to step %d: %w", target, err)
		}

		if err := s.createTasksForStep(txCtx, instance, targetStep, now); err != nil {
			return err
		}

		return nil
	})
}

// GetPendingTasks returns the caller's actionable tasks
func (s *TaskService) GetPendingTasks(ctx context.Context, user *models.UserSession) ([]*models.WorkflowTask, error) {
	return s.tasks.FindPendingByAssignee(ctx, user.ID)
}

// Private helpers

// loadActionableTask fetches the task and enforces the shared preconditions:
// it must exist, the caller must be its current assignee, and it must still
// be pending.
func (s *TaskService) loadActionableTask(ctx context.Context, taskID, userID, action string) (*models.WorkflowTask, error) {
	task, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to load task: %w", err)
	}
	if task == nil {
		return nil, appErrors.NewNotFoundError("Workflow Task", taskID)
	}
	if task.AssigneeID != userID {
		return nil, appErrors.NewPermissionError(action, "workflow task")
	}
	if task.Status != constants.TaskStatusPending {
		return nil, appErrors.NewInvalidStateError("workflow task", task.Status, constants.TaskStatusPending)
	}
	return task, nil
}

// loadPendingInstanceForUpdate locks and returns the task's instance plus
// its template, requiring the instance to still be pending
func (s *TaskService) loadPendingInstanceForUpdate(ctx context.Context, task *models.WorkflowTask) (*models.WorkflowInstance, *models.WorkflowTemplate, error) {
	instance, err := s.instances.FindByIDForUpdate(ctx, task.InstanceID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load instance: %w", err)
	}
	if instance == nil {
		return nil, nil, appErrors.NewNotFoundError("Workflow Instance", task.InstanceID)
	}
	if instance.Status != constants.InstanceStatusPending {
		return nil, nil, appErrors.NewInvalidStateError("workflow instance", instance.Status, constants.InstanceStatusPending)
	}

	template, err := s.templates.FindByID(ctx, instance.TemplateID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load template: %w", err)
	}
	if template == nil {
		return nil, nil, appErrors.NewNotFoundError("Workflow Template", instance.TemplateID)
	}
	if task.StepIndex < 0 || task.StepIndex >= len(template.Steps) {
		return nil, nil, appErrors.NewInternalError(
			fmt.Sprintf("task %s references step %d outside template '%s'", task.ID, task.StepIndex, template.Name), nil)
	}

	return instance, template, nil
}

// advanceInstance resolves the next applicable step and either creates its
// tasks or completes the instance
func (s *TaskService) advanceInstance(ctx context.Context, instance *models.WorkflowInstance, template *models.WorkflowTemplate, fromStep int, now time.Time) error {
	next := s.stepResolver.ResolveNext(template.Steps, fromStep, instance.ConditionContext())

	if next < 0 {
		if err := s.instances.UpdateProgress(ctx, instance.ID, constants.InstanceStatusCompleted, len(template.Steps), &now); err != nil {
			return fmt.Errorf("failed to complete instance: %w", err)
		}
		log.Printf("✅ Instance %s completed (%s '%s')", instance.ID, instance.ResourceType, instance.ResourceTitle)
		return nil
	}

	if err := s.instances.UpdateProgress(ctx, instance.ID, constants.InstanceStatusPending, next, nil); err != nil {
		return fmt.Errorf("failed to advance instance to step %d: %w", next, err)
	}

	return s.createTasksForStep(ctx, instance, &template.Steps[next], now)
}

// createTasksForStep fans out one task per resolved assignee. An empty
// resolution leaves the instance pending with no owner; that stall is a
// known operational condition and is always logged.
func (s *TaskService) createTasksForStep(ctx context.Context, instance *models.WorkflowInstance, step *models.StepDefinition, now time.Time) error {
	users, err := s.assignees.ResolveForStep(ctx, step, instance.InitiatorID)
	if err != nil {
		return err
	}
	if len(users) == 0 {
		log.Printf("⚠️ Instance %s stalled: no active assignee for step '%s' (index %d)", instance.ID, step.Name, step.Index)
		return nil
	}

	dueAt := now.Add(step.Timeout())
	for _, assignee := range users {
		task := &models.WorkflowTask{
			ID:          utils.GenerateID(),
			InstanceID:  instance.ID,
			StepIndex:   step.Index,
			StepName:    step.Name,
			AssigneeID:  assignee.ID,
			Status:      constants.TaskStatusPending,
			DueAt:       dueAt,
			CreatedDate: now,
		}
		if err := s.tasks.Create(ctx, task); err != nil {
			return fmt.Errorf("failed to create task for step '%s': %w", step.Name, err)
		}

		s.notify(ctx, assignee.ID, constants.NotificationTypeTaskAssigned,
			fmt.Sprintf("Approval required: %s", instance.ResourceTitle),
			fmt.Sprintf("Step '%s' of %s '%s' is waiting for your decision", step.Name, instance.ResourceType, instance.ResourceTitle))
	}

	return nil
}

// notify dispatches a best-effort notification; failures are logged, never
// propagated
func (s *TaskService) notify(ctx context.Context, userID, notificationType, title, content string) {
	if err := s.notifier.Notify(ctx, userID, notificationType, title, content); err != nil {
		log.Printf("⚠️ Failed to notify user %s (%s): %v", userID, notificationType, err)
	}
}

func (s *TaskService) notifyInitiator(ctx context.Context, instance *models.WorkflowInstance, task *models.WorkflowTask, actor *models.UserSession, approved bool) {
	notificationType := constants.NotificationTypeTaskApproved
	verb := "approved"
	if !approved {
		notificationType = constants.NotificationTypeTaskRejected
		verb = "rejected"
	}
	s.notify(ctx, instance.InitiatorID, notificationType,
		fmt.Sprintf("Step %s: %s", verb, task.StepName),
		fmt.Sprintf("%s %s step '%s' of %s '%s'", actor.Name, verb, task.StepName, instance.ResourceType, instance.ResourceTitle))
}

func (s *TaskService) notifyStepCC(ctx context.Context, step *models.StepDefinition, instance *models.WorkflowInstance) {
	for _, ccUser := range step.CCUsers {
		s.notify(ctx, ccUser, constants.NotificationTypeStepCC,
			fmt.Sprintf("Step completed: %s", step.Name),
			fmt.Sprintf("Step '%s' of %s '%s' was completed", step.Name, instance.ResourceType, instance.ResourceTitle))
	}
}

// notifyCurrentStepCC resolves the task's current step definition and
// notifies its cc users; used by delegate, which has no step at hand
func (s *TaskService) notifyCurrentStepCC(ctx context.Context, task *models.WorkflowTask) {
	instance, err := s.instances.FindByID(ctx, task.InstanceID)
	if err != nil || instance == nil {
		log.Printf("⚠️ Failed to load instance %s for cc notification: %v", task.InstanceID, err)
		return
	}
	template, err := s.templates.FindByID(ctx, instance.TemplateID)
	if err != nil || template == nil {
		log.Printf("⚠️ Failed to load template %s for cc notification: %v", instance.TemplateID, err)
		return
	}
	if task.StepIndex < 0 || task.StepIndex >= len(template.Steps) {
		return
	}
	s.notifyStepCC(ctx, &template.Steps[task.StepIndex], instance)
}

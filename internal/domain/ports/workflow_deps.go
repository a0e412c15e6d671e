package ports

import (
	"context"
	"time"

	"github.com/docuflow/backend/internal/domain/models"
)

// TxRunner executes a function inside a database transaction. The
// transaction travels in the returned context; repositories join it
// automatically. A non-nil error from fn rolls everything back.
type TxRunner interface {
	InTransaction(ctx context.Context, fn func(txCtx context.Context) error) error
}

// TemplateRepository stores immutable workflow templates
type TemplateRepository interface {
	Create(ctx context.Context, template *models.WorkflowTemplate) error
	// FindByID returns (nil, nil) when the template does not exist
	FindByID(ctx context.Context, id string) (*models.WorkflowTemplate, error)
	FindActiveByResourceType(ctx context.Context, resourceType string) (*models.WorkflowTemplate, error)
	FindAll(ctx context.Context) ([]*models.WorkflowTemplate, error)
}

// InstanceRepository stores running workflow instances
type InstanceRepository interface {
	Create(ctx context.Context, instance *models.WorkflowInstance) error
	// FindByID returns (nil, nil) when the instance does not exist
	FindByID(ctx context.Context, id string) (*models.WorkflowInstance, error)
	// FindByIDForUpdate locks the instance row for the duration of the
	// enclosing transaction; it serializes concurrent step-completion checks
	FindByIDForUpdate(ctx context.Context, id string) (*models.WorkflowInstance, error)
	UpdateProgress(ctx context.Context, id, status string, currentStep int, completedAt *time.Time) error
	HasPendingForResource(ctx context.Context, resourceType, resourceID string) (bool, error)
}

// TaskRepository stores workflow tasks. Tasks are append-style: they are
// created and status-transitioned, never deleted.
type TaskRepository interface {
	Create(ctx context.Context, task *models.WorkflowTask) error
	// FindByID returns (nil, nil) when the task does not exist
	FindByID(ctx context.Context, id string) (*models.WorkflowTask, error)
	FindByInstanceAndStep(ctx context.Context, instanceID string, stepIndex int) ([]*models.WorkflowTask, error)
	FindByInstance(ctx context.Context, instanceID string) ([]*models.WorkflowTask, error)
	FindPendingByAssignee(ctx context.Context, assigneeID string) ([]*models.WorkflowTask, error)
	UpdateStatus(ctx context.Context, id, status string, comment *string, completedAt time.Time) error
	Reassign(ctx context.Context, id, assigneeID string, delegatedTo *string) error
	// FindOverdue returns pending tasks past due that have not yet been
	// escalated (escalated_to unset)
	FindOverdue(ctx context.Context, now time.Time) ([]*models.WorkflowTask, error)
	Escalate(ctx context.Context, id, escalatedTo string, newDueAt time.Time) error
}

// DelegationLogRepository is the append-only handoff ledger
type DelegationLogRepository interface {
	Append(ctx context.Context, entry *models.DelegationLogEntry) error
	// List returns entries newest first; taskID may be empty for all tasks
	List(ctx context.Context, taskID string, offset, limit int) ([]*models.DelegationLogEntry, error)
}

// Directory looks up users and the org hierarchy
type Directory interface {
	// FindUser returns (nil, nil) when the user does not exist
	FindUser(ctx context.Context, id string) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindActiveUserByRole(ctx context.Context, departmentID, role string) (*models.User, error)
	FindActiveUsersByRoles(ctx context.Context, departmentID string, roles []string) ([]*models.User, error)
	// GetSuperior returns (nil, nil) when the user has no superior
	GetSuperior(ctx context.Context, userID string) (*models.User, error)
}

// NotificationRepository stores persisted notifications
type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	ListByRecipient(ctx context.Context, recipientID string, limit int) ([]*models.Notification, error)
	MarkAsRead(ctx context.Context, id, recipientID string) error
}

// Notifier delivers notifications. Callers treat delivery as best-effort:
// errors are logged and swallowed, never propagated into the owning
// transaction.
type Notifier interface {
	Notify(ctx context.Context, userID, notificationType, title, content string) error
}

package services

import (
	"context"
	"sort"
	"time"

	"github.com/docuflow/backend/internal/domain/models"
	"github.com/docuflow/backend/pkg/constants"
)

// In-memory port implementations for workflow engine tests. They keep just
// enough behavior to exercise the services without a database.

type fakeTxRunner struct{}

func (fakeTxRunner) InTransaction(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

type fakeTemplateRepo struct {
	templates map[string]*models.WorkflowTemplate
}

func newFakeTemplateRepo() *fakeTemplateRepo {
	return &fakeTemplateRepo{templates: make(map[string]*models.WorkflowTemplate)}
}

func (r *fakeTemplateRepo) Create(_ context.Context, template *models.WorkflowTemplate) error {
	r.templates[template.ID] = template
	return nil
}

func (r *fakeTemplateRepo) FindByID(_ context.Context, id string) (*models.WorkflowTemplate, error) {
	return r.templates[id], nil
}

func (r *fakeTemplateRepo) FindActiveByResourceType(_ context.Context, resourceType string) (*models.WorkflowTemplate, error) {
	for _, t := range r.templates {
		if t.ResourceType == resourceType && t.IsActive {
			return t, nil
		}
	}
	return nil, nil
}

func (r *fakeTemplateRepo) FindAll(_ context.Context) ([]*models.WorkflowTemplate, error) {
	out := make([]*models.WorkflowTemplate, 0, len(r.templates))
	for _, t := range r.templates {
		out = append(out, t)
	}
	return out, nil
}

type fakeInstanceRepo struct {
	instances map[string]*models.WorkflowInstance
}

func newFakeInstanceRepo() *fakeInstanceRepo {
	return &fakeInstanceRepo{instances: make(map[string]*models.WorkflowInstance)}
}

func (r *fakeInstanceRepo) Create(_ context.Context, instance *models.WorkflowInstance) error {
	r.instances[instance.ID] = instance
	return nil
}

func (r *fakeInstanceRepo) FindByID(_ context.Context, id string) (*models.WorkflowInstance, error) {
	return r.instances[id], nil
}

func (r *fakeInstanceRepo) FindByIDForUpdate(ctx context.Context, id string) (*models.WorkflowInstance, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeInstanceRepo) UpdateProgress(_ context.Context, id, status string, currentStep int, completedAt *time.Time) error {
	instance := r.instances[id]
	instance.Status = status
	instance.CurrentStep = currentStep
	instance.CompletedDate = completedAt
	return nil
}

func (r *fakeInstanceRepo) HasPendingForResource(_ context.Context, resourceType, resourceID string) (bool, error) {
	for _, i := range r.instances {
		if i.ResourceType == resourceType && i.ResourceID == resourceID && i.Status == constants.InstanceStatusPending {
			return true, nil
		}
	}
	return false, nil
}

type fakeTaskRepo struct {
	tasks map[string]*models.WorkflowTask
	order []string
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{tasks: make(map[string]*models.WorkflowTask)}
}

func (r *fakeTaskRepo) Create(_ context.Context, task *models.WorkflowTask) error {
	r.tasks[task.ID] = task
	r.order = append(r.order, task.ID)
	return nil
}

func (r *fakeTaskRepo) FindByID(_ context.Context, id string) (*models.WorkflowTask, error) {
	return r.tasks[id], nil
}

func (r *fakeTaskRepo) FindByInstanceAndStep(_ context.Context, instanceID string, stepIndex int) ([]*models.WorkflowTask, error) {
	out := make([]*models.WorkflowTask, 0)
	for _, id := range r.order {
		t := r.tasks[id]
		if t.InstanceID == instanceID && t.StepIndex == stepIndex {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *fakeTaskRepo) FindByInstance(_ context.Context, instanceID string) ([]*models.WorkflowTask, error) {
	out := make([]*models.WorkflowTask, 0)
	for _, id := range r.order {
		if r.tasks[id].InstanceID == instanceID {
			out = append(out, r.tasks[id])
		}
	}
	return out, nil
}

func (r *fakeTaskRepo) FindPendingByAssignee(_ context.Context, assigneeID string) ([]*models.WorkflowTask, error) {
	out := make([]*models.WorkflowTask, 0)
	for _, id := range r.order {
		t := r.tasks[id]
		if t.AssigneeID == assigneeID && t.Status == constants.TaskStatusPending {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *fakeTaskRepo) UpdateStatus(_ context.Context, id, status string, comment *string, completedAt time.Time) error {
	task := r.tasks[id]
	task.Status = status
	task.Comment = comment
	task.CompletedAt = &completedAt
	return nil
}

func (r *fakeTaskRepo) Reassign(_ context.Context, id, assigneeID string, delegatedTo *string) error {
	task := r.tasks[id]
	task.AssigneeID = assigneeID
	task.DelegatedTo = delegatedTo
	return nil
}

func (r *fakeTaskRepo) FindOverdue(_ context.Context, now time.Time) ([]*models.WorkflowTask, error) {
	out := make([]*models.WorkflowTask, 0)
	for _, id := range r.order {
		t := r.tasks[id]
		if t.Status == constants.TaskStatusPending && t.DueAt.Before(now) && t.EscalatedTo == nil {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *fakeTaskRepo) Escalate(_ context.Context, id, escalatedTo string, newDueAt time.Time) error {
	task := r.tasks[id]
	task.AssigneeID = escalatedTo
	task.EscalatedTo = &escalatedTo
	task.DueAt = newDueAt
	return nil
}

// pendingFor is a test convenience: the caller's pending tasks
func (r *fakeTaskRepo) pendingFor(assigneeID string) []*models.WorkflowTask {
	out, _ := r.FindPendingByAssignee(context.Background(), assigneeID)
	return out
}

type fakeLedger struct {
	entries []*models.DelegationLogEntry
}

func (r *fakeLedger) Append(_ context.Context, entry *models.DelegationLogEntry) error {
	r.entries = append(r.entries, entry)
	return nil
}

func (r *fakeLedger) List(_ context.Context, taskID string, offset, limit int) ([]*models.DelegationLogEntry, error) {
	filtered := make([]*models.DelegationLogEntry, 0)
	for _, e := range r.entries {
		if taskID == "" || e.TaskID == taskID {
			filtered = append(filtered, e)
		}
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].DelegatedAt.After(filtered[j].DelegatedAt)
	})
	if offset >= len(filtered) {
		return []*models.DelegationLogEntry{}, nil
	}
	end := offset + limit
	if end > len(filtered) {
		end = len(filtered)
	}
	return filtered[offset:end], nil
}

type fakeDirectory struct {
	users map[string]*models.User
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{users: make(map[string]*models.User)}
}

func (d *fakeDirectory) add(user *models.User) *models.User {
	d.users[user.ID] = user
	return user
}

func (d *fakeDirectory) FindUser(_ context.Context, id string) (*models.User, error) {
	return d.users[id], nil
}

func (d *fakeDirectory) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range d.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (d *fakeDirectory) FindActiveUserByRole(_ context.Context, departmentID, role string) (*models.User, error) {
	var candidates []*models.User
	for _, u := range d.users {
		if u.DepartmentID == departmentID && u.Role == role && u.IsActive {
			candidates = append(candidates, u)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].ID < candidates[j].ID })
	return candidates[0], nil
}

func (d *fakeDirectory) FindActiveUsersByRoles(_ context.Context, departmentID string, roles []string) ([]*models.User, error) {
	roleSet := make(map[string]bool, len(roles))
	for _, r := range roles {
		roleSet[r] = true
	}
	out := make([]*models.User, 0)
	for _, u := range d.users {
		if u.DepartmentID == departmentID && roleSet[u.Role] && u.IsActive {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (d *fakeDirectory) GetSuperior(_ context.Context, userID string) (*models.User, error) {
	user := d.users[userID]
	if user == nil || user.SuperiorID == nil {
		return nil, nil
	}
	superior := d.users[*user.SuperiorID]
	if superior == nil || !superior.IsActive {
		return nil, nil
	}
	return superior, nil
}

type sentNotification struct {
	UserID string
	Type   string
	Title  string
}

type fakeNotifier struct {
	sent []sentNotification
}

func (n *fakeNotifier) Notify(_ context.Context, userID, notificationType, title, _ string) error {
	n.sent = append(n.sent, sentNotification{UserID: userID, Type: notificationType, Title: title})
	return nil
}

// workflowEnv wires the fakes into the services under test
type workflowEnv struct {
	templates *fakeTemplateRepo
	instances *fakeInstanceRepo
	tasks     *fakeTaskRepo
	ledger    *fakeLedger
	directory *fakeDirectory
	notifier  *fakeNotifier

	taskSvc     *TaskService
	instanceSvc *InstanceService
}

func newWorkflowEnv() *workflowEnv {
	env := &workflowEnv{
		templates: newFakeTemplateRepo(),
		instances: newFakeInstanceRepo(),
		tasks:     newFakeTaskRepo(),
		ledger:    &fakeLedger{},
		directory: newFakeDirectory(),
		notifier:  &fakeNotifier{},
	}
	env.taskSvc = NewTaskService(env.tasks, env.instances, env.templates, env.ledger, env.directory, env.notifier, fakeTxRunner{})
	env.instanceSvc = NewInstanceService(env.instances, env.templates, env.tasks, fakeTxRunner{}, env.taskSvc)
	return env
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func sessionFor(user *models.User) *models.UserSession {
	return &models.UserSession{
		ID:           user.ID,
		Name:         user.Name,
		Email:        user.Email,
		Role:         user.Role,
		DepartmentID: user.DepartmentID,
		IsAdmin:      user.IsAdmin,
	}
}

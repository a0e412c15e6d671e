package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/docuflow/backend/pkg/constants"
)

// StepDefinition is one step of a workflow template.
// Kind is "serial" (exactly one approver acts) or "parallel" (every resolved
// approver must co-sign). AssigneeRole is used by serial steps, AssigneeRoles
// by parallel steps.
type StepDefinition struct {
	Index         int      `json:"index"`
	Name          string   `json:"name"`
	Kind          string   `json:"kind"`
	AssigneeRole  *string  `json:"assignee_role,omitempty"`
	AssigneeRoles []string `json:"assignee_roles,omitempty"`
	Condition     *string  `json:"condition,omitempty"`
	TimeoutHours  *int     `json:"timeout_hours,omitempty"`
	CCUsers       []string `json:"cc_users,omitempty"`
}

// IsParallel reports whether the step requires co-signatures
func (s *StepDefinition) IsParallel() bool {
	return s.Kind == constants.StepKindParallel
}

// Timeout returns the step's due window, falling back to the default
func (s *StepDefinition) Timeout() time.Duration {
	hours := constants.DefaultTimeoutHours
	if s.TimeoutHours != nil && *s.TimeoutHours > 0 {
		hours = *s.TimeoutHours
	}
	return time.Duration(hours) * time.Hour
}

// Validate checks the serial/parallel invariants for a single step
func (s *StepDefinition) Validate() error {
	switch s.Kind {
	case constants.StepKindSerial:
		if s.AssigneeRole == nil || *s.AssigneeRole == "" {
			return fmt.Errorf("step %d (%s): serial step requires assignee_role", s.Index, s.Name)
		}
	case constants.StepKindParallel:
		if len(s.AssigneeRoles) == 0 {
			return fmt.Errorf("step %d (%s): parallel step requires non-empty assignee_roles", s.Index, s.Name)
		}
	default:
		return fmt.Errorf("step %d (%s): unknown step kind '%s'", s.Index, s.Name, s.Kind)
	}
	if s.Name == "" {
		return fmt.Errorf("step %d: step name is required", s.Index)
	}
	return nil
}

// WorkflowTemplate is an immutable ordered list of approval steps for a
// resource type. Templates are validated on registration, not at each access.
type WorkflowTemplate struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	ResourceType string           `json:"resource_type"`
	IsActive     bool             `json:"is_active"`
	Steps        []StepDefinition `json:"steps"`
	CreatedDate  time.Time        `json:"created_date"`
}

// Validate checks the whole template: at least one step, contiguous indexes,
// and per-step invariants
func (t *WorkflowTemplate) Validate() error {
	if len(t.Steps) == 0 {
		return fmt.Errorf("template '%s' has no steps", t.Name)
	}
	for i := range t.Steps {
		if t.Steps[i].Index != i {
			return fmt.Errorf("template '%s': step %d has index %d", t.Name, i, t.Steps[i].Index)
		}
		if err := t.Steps[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// MarshalSteps serializes the step list for storage
func (t *WorkflowTemplate) MarshalSteps() (string, error) {
	data, err := json.Marshal(t.Steps)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// UnmarshalSteps restores the step list from its stored form
func (t *WorkflowTemplate) UnmarshalSteps(raw string) error {
	return json.Unmarshal([]byte(raw), &t.Steps)
}

// WorkflowInstance is one running execution of a template against a resource.
// CurrentStep indexes into the template's steps; it equals len(steps) once
// the instance completes.
type WorkflowInstance struct {
	ID            string                 `json:"id"`
	TemplateID    string                 `json:"template_id"`
	InitiatorID   string                 `json:"initiator_id"`
	ResourceType  string                 `json:"resource_type"`
	ResourceID    string                 `json:"resource_id"`
	ResourceTitle string                 `json:"resource_title"`
	Status        string                 `json:"status"`
	CurrentStep   int                    `json:"current_step"`
	ContextData   map[string]interface{} `json:"context_data,omitempty"`
	CreatedDate   time.Time              `json:"created_date"`
	CompletedDate *time.Time             `json:"completed_date,omitempty"`
}

// ConditionContext builds the evaluation context for step conditions:
// the snapshotted resource fields plus the resource identity
func (i *WorkflowInstance) ConditionContext() map[string]interface{} {
	ctx := make(map[string]interface{}, len(i.ContextData)+2)
	for k, v := range i.ContextData {
		ctx[k] = v
	}
	ctx["resource_id"] = i.ResourceID
	ctx["resource_type"] = i.ResourceType
	return ctx
}

// WorkflowTask is one pending or decided approval assigned to one user for
// one step occurrence. Tasks are never deleted, only status-transitioned.
type WorkflowTask struct {
	ID          string     `json:"id"`
	InstanceID  string     `json:"instance_id"`
	StepIndex   int        `json:"step_index"`
	StepName    string     `json:"step_name"`
	AssigneeID  string     `json:"assignee_id"`
	Status      string     `json:"status"`
	Comment     *string    `json:"comment,omitempty"`
	DueAt       time.Time  `json:"due_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	DelegatedTo *string    `json:"delegated_to,omitempty"`
	EscalatedTo *string    `json:"escalated_to,omitempty"`
	CreatedDate time.Time  `json:"created_date"`
}

// DelegationLogEntry is one immutable row of the handoff ledger.
// Action distinguishes delegation from plain transfer and from escalation.
type DelegationLogEntry struct {
	ID          string    `json:"id"`
	TaskID      string    `json:"task_id"`
	FromUserID  string    `json:"from_user_id"`
	ToUserID    string    `json:"to_user_id"`
	Action      string    `json:"action"`
	Reason      *string   `json:"reason,omitempty"`
	DelegatedAt time.Time `json:"delegated_at"`
}

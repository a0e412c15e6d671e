package domain

import (
	"fmt"

	"github.com/docuflow/backend/pkg/constants"
)

// TaskAction is an operation that can change a task's status
type TaskAction string

const (
	// ActionApprove marks a pending task approved
	ActionApprove TaskAction = "approve"
	// ActionReject marks a pending task rejected
	ActionReject TaskAction = "reject"
	// ActionRollback closes a pending task because the flow moved backwards
	ActionRollback TaskAction = "rollback"
)

type taskTransitionKey struct {
	status string
	action TaskAction
}

// TaskStateMachine enforces valid status transitions for workflow tasks.
// Invalid transitions return an error (fail-fast approach).
//
// State diagram:
//
//	            approve
//	[pending] ─────────► [approved]
//	    │
//	    ├── reject ────► [rejected]
//	    │
//	    └── rollback ──► [rolled_back]
//
// Delegation and transfer move the assignee without leaving pending, so
// they are not transitions here. All non-pending statuses are terminal.
type TaskStateMachine struct {
	transitions map[taskTransitionKey]string
}

// NewTaskStateMachine creates a state machine with the task lifecycle rules
func NewTaskStateMachine() *TaskStateMachine {
	sm := &TaskStateMachine{
		transitions: make(map[taskTransitionKey]string),
	}

	sm.addTransition(constants.TaskStatusPending, ActionApprove, constants.TaskStatusApproved)
	sm.addTransition(constants.TaskStatusPending, ActionReject, constants.TaskStatusRejected)
	sm.addTransition(constants.TaskStatusPending, ActionRollback, constants.TaskStatusRolledBack)

	return sm
}

func (sm *TaskStateMachine) addTransition(from string, via TaskAction, to string) {
	sm.transitions[taskTransitionKey{status: from, action: via}] = to
}

// Transition attempts to transition from the current status using the given
// action. Returns the new status or an error if the transition is invalid.
func (sm *TaskStateMachine) Transition(current string, action TaskAction) (string, error) {
	next, ok := sm.transitions[taskTransitionKey{status: current, action: action}]
	if !ok {
		return current, fmt.Errorf("invalid task transition: cannot %s from %s", action, current)
	}
	return next, nil
}

// CanTransition checks if a transition is valid without performing it
func (sm *TaskStateMachine) CanTransition(current string, action TaskAction) bool {
	_, ok := sm.transitions[taskTransitionKey{status: current, action: action}]
	return ok
}

// IsTerminal returns true if the status permits no further transitions
func (sm *TaskStateMachine) IsTerminal(status string) bool {
	return status != constants.TaskStatusPending
}

// InstanceTerminal reports whether an instance status is final.
// Instances move pending → completed | rejected and never back.
func InstanceTerminal(status string) bool {
	return status == constants.InstanceStatusCompleted || status == constants.InstanceStatusRejected
}

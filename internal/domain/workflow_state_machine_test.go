package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docuflow/backend/pkg/constants"
)

func TestTaskStateMachine_ValidTransitions(t *testing.T) {
	sm := NewTaskStateMachine()

	tests := []struct {
		action TaskAction
		want   string
	}{
		{ActionApprove, constants.TaskStatusApproved},
		{ActionReject, constants.TaskStatusRejected},
		{ActionRollback, constants.TaskStatusRolledBack},
	}

	for _, tt := range tests {
		got, err := sm.Transition(constants.TaskStatusPending, tt.action)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestTaskStateMachine_TerminalStatusesRejectAllActions(t *testing.T) {
	sm := NewTaskStateMachine()

	terminal := []string{
		constants.TaskStatusApproved,
		constants.TaskStatusRejected,
		constants.TaskStatusRolledBack,
	}
	actions := []TaskAction{ActionApprove, ActionReject, ActionRollback}

	for _, status := range terminal {
		assert.True(t, sm.IsTerminal(status), status)
		for _, action := range actions {
			_, err := sm.Transition(status, action)
			assert.Error(t, err, "%s from %s", action, status)
			assert.False(t, sm.CanTransition(status, action))
		}
	}
}

func TestTaskStateMachine_PendingIsNotTerminal(t *testing.T) {
	sm := NewTaskStateMachine()
	assert.False(t, sm.IsTerminal(constants.TaskStatusPending))
	assert.True(t, sm.CanTransition(constants.TaskStatusPending, ActionApprove))
}

func TestInstanceTerminal(t *testing.T) {
	assert.False(t, InstanceTerminal(constants.InstanceStatusPending))
	assert.True(t, InstanceTerminal(constants.InstanceStatusCompleted))
	assert.True(t, InstanceTerminal(constants.InstanceStatusRejected))
}

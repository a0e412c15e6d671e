package services

import (
	"context"
	"fmt"

	"github.com/docuflow/backend/internal/domain/models"
	"github.com/docuflow/backend/internal/domain/ports"
)

// AssigneeResolver resolves the candidate approvers for a step, scoped to
// the initiator's organizational unit.
type AssigneeResolver struct {
	directory ports.Directory
}

// NewAssigneeResolver creates a new AssigneeResolver
func NewAssigneeResolver(directory ports.Directory) *AssigneeResolver {
	return &AssigneeResolver{directory: directory}
}

// ResolveForStep returns the approvers for a step definition.
// Serial: the first active user holding the step's role in the initiator's
// department, or an empty slice if none is found. Parallel: all active users
// holding any of the step's roles (may be empty). An empty result stalls the
// workflow at that step; callers must log it.
func (r *AssigneeResolver) ResolveForStep(ctx context.Context, step *models.StepDefinition, initiatorID string) ([]*models.User, error) {
	initiator, err := r.directory.FindUser(ctx, initiatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up initiator %s: %w", initiatorID, err)
	}
	if initiator == nil {
		return nil, fmt.Errorf("initiator %s not found in directory", initiatorID)
	}

	if step.IsParallel() {
		users, err := r.directory.FindActiveUsersByRoles(ctx, initiator.DepartmentID, step.AssigneeRoles)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve parallel assignees for step '%s': %w", step.Name, err)
		}
		return users, nil
	}

	user, err := r.directory.FindActiveUserByRole(ctx, initiator.DepartmentID, *step.AssigneeRole)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve assignee for step '%s': %w", step.Name, err)
	}
	if user == nil {
		return nil, nil
	}
	return []*models.User{user}, nil
}

package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docuflow/backend/internal/domain/models"
	"github.com/docuflow/backend/pkg/constants"
	appErrors "github.com/docuflow/backend/pkg/errors"
)

func adminSession() *models.UserSession {
	return &models.UserSession{ID: "u-admin", Name: "Admin", IsAdmin: true}
}

func validTemplateRequest() CreateTemplateRequest {
	return CreateTemplateRequest{
		Name:         "Expense Approval",
		ResourceType: "expense",
		Steps: []models.StepDefinition{
			{Index: 0, Name: "Manager", Kind: constants.StepKindSerial, AssigneeRole: strPtr("manager")},
			{Index: 1, Name: "Director", Kind: constants.StepKindSerial, AssigneeRole: strPtr("director"), Condition: strPtr("amount>10000")},
		},
	}
}

func TestCreateTemplate_Success(t *testing.T) {
	svc := NewTemplateService(newFakeTemplateRepo())

	template, err := svc.Create(context.Background(), validTemplateRequest(), adminSession())
	require.NoError(t, err)

	assert.NotEmpty(t, template.ID)
	assert.True(t, template.IsActive)
	assert.Len(t, template.Steps, 2)

	stored, err := svc.GetTemplate(context.Background(), template.ID)
	require.NoError(t, err)
	assert.Equal(t, "Expense Approval", stored.Name)
}

func TestCreateTemplate_NonAdminForbidden(t *testing.T) {
	svc := NewTemplateService(newFakeTemplateRepo())

	_, err := svc.Create(context.Background(), validTemplateRequest(),
		&models.UserSession{ID: "u-user", Name: "User"})
	require.Error(t, err)
	assert.True(t, appErrors.IsPermission(err))
}

func TestCreateTemplate_MalformedConditionRejected(t *testing.T) {
	svc := NewTemplateService(newFakeTemplateRepo())

	req := validTemplateRequest()
	req.Steps[1].Condition = strPtr("amount >>> 10")

	_, err := svc.Create(context.Background(), req, adminSession())
	require.Error(t, err)
	assert.True(t, appErrors.IsMalformedExpression(err))
}

func TestCreateTemplate_StepValidation(t *testing.T) {
	svc := NewTemplateService(newFakeTemplateRepo())

	tests := []struct {
		name   string
		mutate func(*CreateTemplateRequest)
	}{
		{"no steps", func(r *CreateTemplateRequest) { r.Steps = nil }},
		{"non-contiguous indexes", func(r *CreateTemplateRequest) { r.Steps[1].Index = 5 }},
		{"serial without role", func(r *CreateTemplateRequest) { r.Steps[0].AssigneeRole = nil }},
		{"unknown kind", func(r *CreateTemplateRequest) { r.Steps[0].Kind = "round_robin" }},
		{"parallel without roles", func(r *CreateTemplateRequest) {
			r.Steps[0].Kind = constants.StepKindParallel
			r.Steps[0].AssigneeRole = nil
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validTemplateRequest()
			tt.mutate(&req)
			_, err := svc.Create(context.Background(), req, adminSession())
			require.Error(t, err)
			assert.True(t, appErrors.IsValidation(err))
		})
	}
}

func TestGetTemplate_NotFound(t *testing.T) {
	svc := NewTemplateService(newFakeTemplateRepo())
	_, err := svc.GetTemplate(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, appErrors.IsNotFound(err))
}

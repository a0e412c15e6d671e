package constants

// Table names
const (
	TableTemplate      = "workflow_templates"
	TableInstance      = "workflow_instances"
	TableTask          = "workflow_tasks"
	TableDelegationLog = "workflow_delegation_logs"
	TableUser          = "users"
	TableNotification  = "notifications"
)

// Common column names
const (
	FieldID          = "id"
	FieldCreatedDate = "created_date"
	FieldName        = "name"
)

// workflow_templates columns
const (
	FieldTemplate_ResourceType = "resource_type"
	FieldTemplate_StepsJSON    = "steps_json"
	FieldTemplate_IsActive     = "is_active"
)

// workflow_instances columns
const (
	FieldInstance_TemplateID    = "template_id"
	FieldInstance_InitiatorID   = "initiator_id"
	FieldInstance_ResourceType  = "resource_type"
	FieldInstance_ResourceID    = "resource_id"
	FieldInstance_ResourceTitle = "resource_title"
	FieldInstance_Status        = "status"
	FieldInstance_CurrentStep   = "current_step"
	FieldInstance_ContextData   = "context_data"
	FieldInstance_CompletedDate = "completed_date"
)

// workflow_tasks columns
const (
	FieldTask_InstanceID  = "instance_id"
	FieldTask_StepIndex   = "step_index"
	FieldTask_StepName    = "step_name"
	FieldTask_AssigneeID  = "assignee_id"
	FieldTask_Status      = "status"
	FieldTask_Comment     = "comment"
	FieldTask_DueAt       = "due_at"
	FieldTask_CompletedAt = "completed_at"
	FieldTask_DelegatedTo = "delegated_to"
	FieldTask_EscalatedTo = "escalated_to"
)

// workflow_delegation_logs columns
const (
	FieldLog_TaskID      = "task_id"
	FieldLog_FromUserID  = "from_user_id"
	FieldLog_ToUserID    = "to_user_id"
	FieldLog_Action      = "action"
	FieldLog_Reason      = "reason"
	FieldLog_DelegatedAt = "delegated_at"
)

// users columns
const (
	FieldUser_Email        = "email"
	FieldUser_Password     = "password"
	FieldUser_Role         = "role"
	FieldUser_DepartmentID = "department_id"
	FieldUser_SuperiorID   = "superior_id"
	FieldUser_IsActive     = "is_active"
	FieldUser_IsAdmin      = "is_admin"
)

// notifications columns
const (
	FieldNotification_RecipientID = "recipient_id"
	FieldNotification_Type        = "notification_type"
	FieldNotification_Title       = "title"
	FieldNotification_Content     = "content"
	FieldNotification_IsRead      = "is_read"
)

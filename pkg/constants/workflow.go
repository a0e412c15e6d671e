package constants

// Step kinds
const (
	StepKindSerial   = "serial"
	StepKindParallel = "parallel"
)

// Workflow instance status constants
const (
	InstanceStatusPending   = "pending"
	InstanceStatusCompleted = "completed"
	InstanceStatusRejected  = "rejected"
)

// Workflow task status constants
const (
	TaskStatusPending    = "pending"
	TaskStatusApproved   = "approved"
	TaskStatusRejected   = "rejected"
	TaskStatusRolledBack = "rolled_back"
)

// Delegation ledger actions
const (
	LedgerActionDelegate = "delegate"
	LedgerActionTransfer = "transfer"
	LedgerActionEscalate = "escalate"
)

// Notification types
const (
	NotificationTypeTaskAssigned  = "task_assigned"
	NotificationTypeTaskApproved  = "task_approved"
	NotificationTypeTaskRejected  = "task_rejected"
	NotificationTypeTaskDelegated = "task_delegated"
	NotificationTypeTaskEscalated = "task_escalated"
	NotificationTypeStepCC        = "step_cc"
)

// Defaults
const (
	// DefaultTimeoutHours is applied when a step declares no timeout
	DefaultTimeoutHours = 24

	// EscalationExtensionHours is how far due_at is pushed when a task escalates
	EscalationExtensionHours = 24

	// DefaultEscalationIntervalMinutes is the sweep period of the escalation monitor
	DefaultEscalationIntervalMinutes = 10

	// DefaultPageLimit caps paginated ledger queries
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

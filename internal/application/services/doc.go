// Package services provides the business logic layer for DocuFlow.
//
// This package contains all service implementations that handle:
//   - Workflow template registration and validation (TemplateService)
//   - Instance submission and progress queries (InstanceService)
//   - Task decisions: approve, reject, delegate, transfer, rollback (TaskService)
//   - Step applicability against the instance snapshot (StepResolver)
//   - Role-based approver lookup in the directory (AssigneeResolver)
//   - Overdue-task escalation to superiors (EscalationService)
//   - Append-only handoff ledger reads (DelegationLogService)
//   - Login and token issuance (AuthService)
//   - Best-effort persisted notifications (NotificationService)
//
// All services follow clean architecture principles with dependency injection
// and are designed to be testable and maintainable.
package services

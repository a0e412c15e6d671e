package bootstrap

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/docuflow/backend/pkg/constants"
)

// tableDDL holds the schema, keyed by table name so the startup log can
// name what it created. InnoDB is required: the engine relies on row locks
// and transactional visibility for co-signer serialization.
var tableDDL = []struct {
	name string
	ddl  string
}{
	{
		name: constants.TableUser,
		ddl: `CREATE TABLE IF NOT EXISTS users (
			id VARCHAR(36) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			email VARCHAR(255) NOT NULL UNIQUE,
			password VARCHAR(255),
			role VARCHAR(100) NOT NULL,
			department_id VARCHAR(36) NOT NULL,
			superior_id VARCHAR(36),
			is_active TINYINT(1) NOT NULL DEFAULT 1,
			is_admin TINYINT(1) NOT NULL DEFAULT 0,
			created_date DATETIME NOT NULL,
			INDEX idx_users_dept_role (department_id, role, is_active)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	},
	{
		name: constants.TableTemplate,
		ddl: `CREATE TABLE IF NOT EXISTS workflow_templates (
			id VARCHAR(36) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			resource_type VARCHAR(100) NOT NULL,
			is_active TINYINT(1) NOT NULL DEFAULT 1,
			steps_json JSON NOT NULL,
			created_date DATETIME NOT NULL,
			INDEX idx_templates_resource (resource_type, is_active)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	},
	{
		name: constants.TableInstance,
		ddl: `CREATE TABLE IF NOT EXISTS workflow_instances (
			id VARCHAR(36) PRIMARY KEY,
			template_id VARCHAR(36) NOT NULL,
			initiator_id VARCHAR(36) NOT NULL,
			resource_type VARCHAR(100) NOT NULL,
			resource_id VARCHAR(36) NOT NULL,
			resource_title VARCHAR(255) NOT NULL DEFAULT '',
			status VARCHAR(20) NOT NULL,
			current_step INT NOT NULL DEFAULT 0,
			context_data JSON,
			created_date DATETIME NOT NULL,
			completed_date DATETIME,
			INDEX idx_instances_resource (resource_type, resource_id, status),
			INDEX idx_instances_initiator (initiator_id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	},
	{
		name: constants.TableTask,
		ddl: `CREATE TABLE IF NOT EXISTS workflow_tasks (
			id VARCHAR(36) PRIMARY KEY,
			instance_id VARCHAR(36) NOT NULL,
			step_index INT NOT NULL,
			step_name VARCHAR(255) NOT NULL,
			assignee_id VARCHAR(36) NOT NULL,
			status VARCHAR(20) NOT NULL,
			comment TEXT,
			due_at DATETIME NOT NULL,
			completed_at DATETIME,
			delegated_to VARCHAR(36),
			escalated_to VARCHAR(36),
			created_date DATETIME NOT NULL,
			INDEX idx_tasks_instance_step (instance_id, step_index),
			INDEX idx_tasks_assignee_status (assignee_id, status),
			INDEX idx_tasks_overdue (status, due_at)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	},
	{
		name: constants.TableDelegationLog,
		ddl: `CREATE TABLE IF NOT EXISTS workflow_delegation_logs (
			id VARCHAR(36) PRIMARY KEY,
			task_id VARCHAR(36) NOT NULL,
			from_user_id VARCHAR(36) NOT NULL,
			to_user_id VARCHAR(36) NOT NULL,
			action VARCHAR(20) NOT NULL,
			reason TEXT,
			delegated_at DATETIME NOT NULL,
			INDEX idx_delegation_logs_task (task_id, delegated_at)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	},
	{
		name: constants.TableNotification,
		ddl: `CREATE TABLE IF NOT EXISTS notifications (
			id VARCHAR(36) PRIMARY KEY,
			recipient_id VARCHAR(36) NOT NULL,
			notification_type VARCHAR(50) NOT NULL,
			title VARCHAR(255) NOT NULL,
			content TEXT,
			is_read TINYINT(1) NOT NULL DEFAULT 0,
			created_date DATETIME NOT NULL,
			INDEX idx_notifications_recipient (recipient_id, created_date)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	},
}

// EnsureSchema creates any missing tables. Existing tables are left
// untouched; there is no migration logic here.
func EnsureSchema(db *sql.DB) error {
	log.Println("🔧 Ensuring database schema...")
	for _, table := range tableDDL {
		if _, err := db.Exec(table.ddl); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table.name, err)
		}
	}
	log.Printf("✅ Schema ready (%d tables)", len(tableDDL))
	return nil
}

package models

import "time"

// User is a directory entry: one person in one organizational unit.
// SuperiorID points at the user's direct superior for escalation.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	DepartmentID string    `json:"department_id"`
	SuperiorID   *string   `json:"superior_id,omitempty"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"is_active"`
	IsAdmin      bool      `json:"is_admin"`
	CreatedDate  time.Time `json:"created_date"`
}

// UserSession is the authenticated caller identity handed down from the
// transport layer
type UserSession struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	DepartmentID string `json:"department_id"`
	IsAdmin      bool   `json:"is_admin"`
}

// Notification is one persisted best-effort notification
type Notification struct {
	ID          string    `json:"id"`
	RecipientID string    `json:"recipient_id"`
	Type        string    `json:"notification_type"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	IsRead      bool      `json:"is_read"`
	CreatedDate time.Time `json:"created_date"`
}

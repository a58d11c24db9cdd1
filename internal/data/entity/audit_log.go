package entity

import "github.com/google/uuid"

const (
	AuditActionLoginCreated = "login_created"
	AuditActionLoginUpdated = "login_updated"
	AuditActionUserDeleted  = "user_deleted"
)

type AuditLog struct {
	BaseSimple
	UserID       *uuid.UUID `db:"user_id"`
	Action       string     `db:"action"`
	ResourceType string     `db:"resource_type"`
	ResourceID   *string    `db:"resource_id"`
	Detail       *string    `db:"detail"`
	IPAddress    *string    `db:"ip_address"`
}

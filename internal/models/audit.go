package models

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLog is one immutable record per workflow transition
type AuditLog struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Action      string         `gorm:"not null;index" json:"action"`
	EntityType  string         `gorm:"not null" json:"entity_type"`
	EntityID    uint           `gorm:"not null" json:"entity_id"`
	OldValue    string         `json:"old_value"`
	NewValue    string         `json:"new_value"`
	Station     string         `json:"station"`
	WorkOrderID uint           `gorm:"index" json:"work_order_id"`
	Details     datatypes.JSON `json:"details,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// TableName specifies the table name for AuditLog model
func (AuditLog) TableName() string {
	return "audit_logs"
}

package models

import (
	"time"

	"gorm.io/gorm"
)

// WorkOrder is the aggregate root for one imported job. Every scan
// operation is scoped to exactly one work order; the engine never
// relies on ambient "current job" state.
type WorkOrder struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	Name       string         `gorm:"not null;unique" json:"name"`
	Active     bool           `gorm:"not null" json:"active"`
	ImportedAt time.Time      `json:"imported_at"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Products   []Product   `gorm:"foreignKey:WorkOrderID" json:"products,omitempty"`
	NestSheets []NestSheet `gorm:"foreignKey:WorkOrderID" json:"nest_sheets,omitempty"`
}

// TableName specifies the table name for WorkOrder model
func (WorkOrder) TableName() string {
	return "work_orders"
}

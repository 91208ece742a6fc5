package models

import (
	"time"

	"gorm.io/gorm"
)

// NestSheet is one CNC-cut sheet of material. Scanning it marks every
// pending part nested on it as cut.
type NestSheet struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	WorkOrderID uint           `gorm:"not null;index" json:"work_order_id"`
	Name        string         `gorm:"not null" json:"name"`
	Barcode     string         `gorm:"not null;index" json:"barcode"`
	Material    string         `json:"material"`
	Processed   bool           `gorm:"default:false" json:"processed"`
	ProcessedAt *time.Time     `json:"processed_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Parts []Part `gorm:"foreignKey:NestSheetID" json:"parts,omitempty"`
}

// TableName specifies the table name for NestSheet model
func (NestSheet) TableName() string {
	return "nest_sheets"
}

// Hardware is purchased hardware attached to a product (hinges,
// slides). It skips the cut/sort flow and ships directly.
type Hardware struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	WorkOrderID     uint           `gorm:"not null;index" json:"work_order_id"`
	ProductID       *uint          `gorm:"index" json:"product_id,omitempty"`
	Name            string         `gorm:"not null" json:"name"`
	Barcode         string         `gorm:"not null;index" json:"barcode"`
	Quantity        int            `gorm:"default:1" json:"quantity"`
	Status          PartStatus     `gorm:"not null;default:'pending'" json:"status"`
	StatusUpdatedAt time.Time      `json:"status_updated_at"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for Hardware model
func (Hardware) TableName() string {
	return "hardware"
}

// DetachedProduct is a finished piece delivered loose (e.g. a filler
// panel) that ships on its own scan.
type DetachedProduct struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	WorkOrderID     uint           `gorm:"not null;index" json:"work_order_id"`
	Name            string         `gorm:"not null" json:"name"`
	Barcode         string         `gorm:"not null;index" json:"barcode"`
	Quantity        int            `gorm:"default:1" json:"quantity"`
	Status          PartStatus     `gorm:"not null;default:'pending'" json:"status"`
	StatusUpdatedAt time.Time      `json:"status_updated_at"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for DetachedProduct model
func (DetachedProduct) TableName() string {
	return "detached_products"
}

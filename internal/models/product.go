package models

import (
	"time"

	"gorm.io/gorm"
)

// ProductStatus is the aggregate status of a product
type ProductStatus string

const (
	ProductStatusPending   ProductStatus = "pending"
	ProductStatusAssembled ProductStatus = "assembled"
	ProductStatusShipped   ProductStatus = "shipped"
)

// Product owns its parts and subassemblies. Status is stored (set by
// the workflow engine), ReadyForAssembly is the idempotency flag for
// the readiness detector.
type Product struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	WorkOrderID      uint           `gorm:"not null;index" json:"work_order_id"`
	ItemNumber       string         `json:"item_number"`
	Name             string         `gorm:"not null" json:"name"`
	Quantity         int            `gorm:"default:1" json:"quantity"`
	Status           ProductStatus  `gorm:"not null;default:'pending'" json:"status"`
	ReadyForAssembly bool           `gorm:"default:false" json:"ready_for_assembly"`
	StatusUpdatedAt  time.Time      `json:"status_updated_at"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Parts         []Part        `gorm:"foreignKey:ProductID" json:"parts,omitempty"`
	Subassemblies []Subassembly `gorm:"foreignKey:ProductID" json:"subassemblies,omitempty"`
	Hardware      []Hardware    `gorm:"foreignKey:ProductID" json:"hardware,omitempty"`
}

// TableName specifies the table name for Product model
func (Product) TableName() string {
	return "products"
}

// Subassembly groups parts below a product (e.g. a drawer box)
type Subassembly struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	ProductID uint           `gorm:"not null;index" json:"product_id"`
	Name      string         `gorm:"not null" json:"name"`
	Quantity  int            `gorm:"default:1" json:"quantity"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Parts []Part `gorm:"foreignKey:SubassemblyID" json:"parts,omitempty"`
}

// TableName specifies the table name for Subassembly model
func (Subassembly) TableName() string {
	return "subassemblies"
}

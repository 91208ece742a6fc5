package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PartStatus is the workflow status of a single part
type PartStatus string

const (
	PartStatusPending   PartStatus = "pending"
	PartStatusCut       PartStatus = "cut"
	PartStatusSorted    PartStatus = "sorted"
	PartStatusAssembled PartStatus = "assembled"
	PartStatusShipped   PartStatus = "shipped"
)

// PartCategory distinguishes standard carcass parts from filtered
// categories that are sorted to specialty racks and excluded from the
// assembly-readiness count.
type PartCategory string

const (
	CategoryStandard        PartCategory = "standard"
	CategoryDoor            PartCategory = "door"
	CategoryDrawerFront     PartCategory = "drawer_front"
	CategoryAdjustableShelf PartCategory = "adjustable_shelf"
)

// IsFiltered reports whether the category is excluded from the
// standard-parts readiness count
func (c PartCategory) IsFiltered() bool {
	return c != CategoryStandard
}

// Part is one manufactured piece. It belongs to a product directly or
// through a subassembly (mutually exclusive), and to the nest sheet it
// was cut from. Location is set iff the part is currently sorted into
// a bin.
type Part struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	WorkOrderID     uint            `gorm:"not null;index" json:"work_order_id"`
	ProductID       *uint           `gorm:"index" json:"product_id,omitempty"`
	SubassemblyID   *uint           `gorm:"index" json:"subassembly_id,omitempty"`
	NestSheetID     *uint           `gorm:"index" json:"nest_sheet_id,omitempty"`
	Name            string          `gorm:"not null" json:"name"`
	Barcode         string          `gorm:"not null;index" json:"barcode"`
	Quantity        int             `gorm:"default:1" json:"quantity"`
	Material        string          `json:"material"`
	Length          decimal.Decimal `gorm:"type:decimal(10,2)" json:"length"`
	Width           decimal.Decimal `gorm:"type:decimal(10,2)" json:"width"`
	Thickness       decimal.Decimal `gorm:"type:decimal(10,2)" json:"thickness"`
	Category        PartCategory    `gorm:"not null;default:'standard'" json:"category"`
	Status          PartStatus      `gorm:"not null;default:'pending';index" json:"status"`
	StatusUpdatedAt time.Time       `json:"status_updated_at"`

	// Placement while sorted: BinID for referential integrity,
	// Location as the operator-facing "Rack : Label" string.
	BinID    *uint   `gorm:"index" json:"bin_id,omitempty"`
	Location *string `json:"location,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for Part model
func (Part) TableName() string {
	return "parts"
}

// OwningProductID resolves the product a part belongs to, directly or
// through its subassembly. Returns nil for nest-only parts.
func (p *Part) OwningProductID(db *gorm.DB) (*uint, error) {
	if p.ProductID != nil {
		return p.ProductID, nil
	}
	if p.SubassemblyID == nil {
		return nil, nil
	}
	var sub Subassembly
	if err := db.Select("product_id").First(&sub, *p.SubassemblyID).Error; err != nil {
		return nil, err
	}
	return &sub.ProductID, nil
}

package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// RackType classifies what kind of parts a rack stores
type RackType string

const (
	RackTypeStandard        RackType = "standard"
	RackTypeDoorsAndFronts  RackType = "doors_and_drawer_fronts"
	RackTypeAdjustableShelf RackType = "adjustable_shelf"
	RackTypeHardware        RackType = "hardware"
	RackTypeCart            RackType = "cart"
)

// Bin capacities derived from rack type. Doors and drawer fronts are
// bulky, so those racks carry fewer parts per bin.
const (
	StandardBinCapacity = 50
	DoorsBinCapacity    = 20
)

// CapacityForType returns the per-bin capacity for a rack type
func CapacityForType(t RackType) int {
	if t == RackTypeDoorsAndFronts {
		return DoorsBinCapacity
	}
	return StandardBinCapacity
}

// StorageRack is a named grid of bins of one rack type
type StorageRack struct {
	ID      uint     `gorm:"primaryKey" json:"id"`
	Name    string   `gorm:"not null;unique" json:"name"`
	Type    RackType `gorm:"not null;default:'standard'" json:"type"`
	Rows    int      `gorm:"not null" json:"rows"`
	Columns int      `gorm:"not null" json:"columns"`
	// No gorm default: GORM would skip the zero value on insert and an
	// inactive rack would be stored active
	Active    bool           `gorm:"not null" json:"active"`
	Portable  bool           `gorm:"default:false" json:"portable"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Bins []Bin `gorm:"foreignKey:RackID" json:"bins,omitempty"`
}

// TableName specifies the table name for StorageRack model
func (StorageRack) TableName() string {
	return "storage_racks"
}

// BinStatus reflects occupancy, with explicit overrides for blocked and
// reserved bins. Empty/Partial/Full are always recomputed from the part
// count; Blocked/Reserved stick until released.
type BinStatus string

const (
	BinStatusEmpty    BinStatus = "empty"
	BinStatusPartial  BinStatus = "partial"
	BinStatusFull     BinStatus = "full"
	BinStatusBlocked  BinStatus = "blocked"
	BinStatusReserved BinStatus = "reserved"
)

// Bin is a single physical storage slot at (row, column) within a rack
type Bin struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	RackID      uint       `gorm:"not null;index;uniqueIndex:idx_bin_coord" json:"rack_id"`
	Row         int        `gorm:"not null;uniqueIndex:idx_bin_coord" json:"row"`
	Column      int        `gorm:"not null;uniqueIndex:idx_bin_coord" json:"column"`
	Label       string     `gorm:"not null" json:"label"`
	Status      BinStatus  `gorm:"not null;default:'empty'" json:"status"`
	WorkOrderID *uint      `gorm:"index" json:"work_order_id,omitempty"`
	ProductID   *uint      `gorm:"index" json:"product_id,omitempty"`
	PartID      *uint      `json:"part_id,omitempty"`
	Contents    string     `json:"contents"`
	PartsCount  int        `gorm:"default:0" json:"parts_count"`
	MaxCapacity int        `gorm:"not null" json:"max_capacity"`
	BlockReason string     `json:"block_reason,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	AssignedAt  *time.Time `json:"assigned_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Relations
	Rack StorageRack `gorm:"foreignKey:RackID" json:"rack,omitempty"`
}

// TableName specifies the table name for Bin model
func (Bin) TableName() string {
	return "bins"
}

// BinLabel derives the human label for a coordinate: row letter plus
// zero-padded column, e.g. (0,0) -> "A01"
func BinLabel(row, column int) string {
	return fmt.Sprintf("%c%02d", 'A'+rune(row), column+1)
}

// RecomputeStatus re-derives Empty/Partial/Full from the part count.
// Blocked and Reserved are manual overrides and are left alone.
func (b *Bin) RecomputeStatus() {
	if b.Status == BinStatusBlocked || b.Status == BinStatusReserved {
		return
	}
	switch {
	case b.PartsCount <= 0:
		b.Status = BinStatusEmpty
	case b.PartsCount >= b.MaxCapacity:
		b.Status = BinStatusFull
	default:
		b.Status = BinStatusPartial
	}
}

// Reset clears occupancy and all occupying references
func (b *Bin) Reset() {
	b.PartsCount = 0
	b.WorkOrderID = nil
	b.ProductID = nil
	b.PartID = nil
	b.Contents = ""
	b.AssignedAt = nil
	if b.Status != BinStatusBlocked && b.Status != BinStatusReserved {
		b.Status = BinStatusEmpty
	}
}

// OccupancyPercent is the filled share of this bin (0-100)
func (b *Bin) OccupancyPercent() float64 {
	if b.MaxCapacity <= 0 {
		return 0
	}
	return float64(b.PartsCount) / float64(b.MaxCapacity) * 100
}

// CapacityPercent is the remaining share of this bin (0-100)
func (b *Bin) CapacityPercent() float64 {
	return 100 - b.OccupancyPercent()
}

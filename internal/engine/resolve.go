package engine

import (
	"github.com/millbrook-cnc/shopflow/internal/models"
	"gorm.io/gorm"
)

// EntityKind is the closed set of scannable entity kinds
type EntityKind int

const (
	EntityPart EntityKind = iota + 1
	EntityProduct
	EntityHardware
	EntityDetachedProduct
	EntityNestSheet
)

// String returns the wire name of the kind
func (k EntityKind) String() string {
	switch k {
	case EntityPart:
		return "part"
	case EntityProduct:
		return "product"
	case EntityHardware:
		return "hardware"
	case EntityDetachedProduct:
		return "detached_product"
	case EntityNestSheet:
		return "nest_sheet"
	default:
		return "unknown"
	}
}

// ScanTarget is the tagged result of barcode resolution: Kind says
// which single pointer field is set.
type ScanTarget struct {
	Kind            EntityKind
	Part            *models.Part
	Product         *models.Product
	Hardware        *models.Hardware
	DetachedProduct *models.DetachedProduct
	NestSheet       *models.NestSheet
}

// ResolveBarcode maps a raw barcode to an entity within the work
// order. Exact matches are tried across every entity kind before
// falling back to prefix matches, so a short scan can still hit when
// the label is unambiguous.
func ResolveBarcode(db *gorm.DB, workOrderID uint, barcode string) (*ScanTarget, error) {
	for _, prefix := range []bool{false, true} {
		if target, err := resolveOnce(db, workOrderID, barcode, prefix); err != nil {
			return nil, err
		} else if target != nil {
			return target, nil
		}
	}
	return nil, errf(KindNotFound, "barcode %q does not match anything in work order %d", barcode, workOrderID)
}

func resolveOnce(db *gorm.DB, workOrderID uint, barcode string, prefix bool) (*ScanTarget, error) {
	match := func(q *gorm.DB, column string) *gorm.DB {
		if prefix {
			return q.Where(column+" LIKE ?", barcode+"%")
		}
		return q.Where(column+" = ?", barcode)
	}

	var part models.Part
	err := match(db.Where("work_order_id = ?", workOrderID), "barcode").First(&part).Error
	if err == nil {
		return &ScanTarget{Kind: EntityPart, Part: &part}, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	var sheet models.NestSheet
	err = match(db.Where("work_order_id = ?", workOrderID), "barcode").First(&sheet).Error
	if err == nil {
		return &ScanTarget{Kind: EntityNestSheet, NestSheet: &sheet}, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	var product models.Product
	err = match(db.Where("work_order_id = ?", workOrderID), "item_number").First(&product).Error
	if err == nil {
		return &ScanTarget{Kind: EntityProduct, Product: &product}, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	var hw models.Hardware
	err = match(db.Where("work_order_id = ?", workOrderID), "barcode").First(&hw).Error
	if err == nil {
		return &ScanTarget{Kind: EntityHardware, Hardware: &hw}, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	var dp models.DetachedProduct
	err = match(db.Where("work_order_id = ?", workOrderID), "barcode").First(&dp).Error
	if err == nil {
		return &ScanTarget{Kind: EntityDetachedProduct, DetachedProduct: &dp}, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	return nil, nil
}

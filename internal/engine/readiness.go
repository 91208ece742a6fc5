package engine

import (
	"github.com/millbrook-cnc/shopflow/internal/events"
	"github.com/millbrook-cnc/shopflow/internal/models"
	"gorm.io/gorm"
)

// CheckReadiness evaluates every product in the work order and returns
// the IDs of products that just became ready for assembly. A product
// is ready when all of its standard-category parts are sorted. The
// stored ready flag makes the check idempotent: a product already
// flagged never fires again.
func (e *Engine) CheckReadiness(workOrderID uint) ([]uint, error) {
	var ready []uint
	var pending []events.Event

	err := e.db.Transaction(func(tx *gorm.DB) error {
		var evs []events.Event
		var err error
		ready, evs, err = checkReadiness(tx, workOrderID)
		if err != nil {
			return err
		}
		pending = evs
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.publish(pending)
	return ready, nil
}

// checkReadiness runs inside an existing transaction so the sort
// commit and the readiness flag land atomically
func checkReadiness(tx *gorm.DB, workOrderID uint) ([]uint, []events.Event, error) {
	var products []models.Product
	if err := tx.Where("work_order_id = ? AND status = ? AND ready_for_assembly = ?",
		workOrderID, models.ProductStatusPending, false).
		Find(&products).Error; err != nil {
		return nil, nil, err
	}

	var ready []uint
	var pending []events.Event

	for i := range products {
		product := &products[i]

		total, sorted, err := standardPartCounts(tx, product.ID)
		if err != nil {
			return nil, nil, err
		}
		if total == 0 || sorted < total {
			continue
		}

		product.ReadyForAssembly = true
		if err := tx.Model(product).Update("ready_for_assembly", true).Error; err != nil {
			return nil, nil, err
		}

		ready = append(ready, product.ID)
		pending = append(pending, events.NewProductReadyEvent(events.ProductReadyForAssembly{
			ProductID:   product.ID,
			ProductName: product.Name,
			WorkOrderID: workOrderID,
		}))
	}

	return ready, pending, nil
}

// standardPartCounts tallies a product's standard-category parts,
// including those owned through subassemblies
func standardPartCounts(tx *gorm.DB, productID uint) (total, sorted int64, err error) {
	direct := tx.Model(&models.Part{}).
		Where("product_id = ? AND category = ?", productID, models.CategoryStandard)
	if err = direct.Count(&total).Error; err != nil {
		return
	}
	var directSorted int64
	if err = tx.Model(&models.Part{}).
		Where("product_id = ? AND category = ? AND status = ?",
			productID, models.CategoryStandard, models.PartStatusSorted).
		Count(&directSorted).Error; err != nil {
		return
	}

	var subIDs []uint
	if err = tx.Model(&models.Subassembly{}).
		Where("product_id = ?", productID).
		Pluck("id", &subIDs).Error; err != nil {
		return
	}

	sorted = directSorted
	if len(subIDs) == 0 {
		return
	}

	var subTotal, subSorted int64
	if err = tx.Model(&models.Part{}).
		Where("subassembly_id IN ? AND category = ?", subIDs, models.CategoryStandard).
		Count(&subTotal).Error; err != nil {
		return
	}
	if err = tx.Model(&models.Part{}).
		Where("subassembly_id IN ? AND category = ? AND status = ?",
			subIDs, models.CategoryStandard, models.PartStatusSorted).
		Count(&subSorted).Error; err != nil {
		return
	}
	total += subTotal
	sorted += subSorted
	return
}

package engine

import (
	"fmt"
	"time"

	"github.com/millbrook-cnc/shopflow/internal/audit"
	"github.com/millbrook-cnc/shopflow/internal/events"
	"github.com/millbrook-cnc/shopflow/internal/models"
	"gorm.io/gorm"
)

// AssembleResult reports a completed assembly transition
type AssembleResult struct {
	ProductID      uint   `json:"product_id"`
	ProductName    string `json:"product_name"`
	PartsAssembled int    `json:"parts_assembled"`
	BinsFreed      int    `json:"bins_freed"`
	Message        string `json:"message"`
}

// AssembleByPartScan starts assembly of the product owning the scanned
// standard part
func (e *Engine) AssembleByPartScan(workOrderID uint, barcode, station string) (*AssembleResult, error) {
	target, err := ResolveBarcode(e.db, workOrderID, barcode)
	if err != nil {
		return nil, err
	}
	if target.Kind != EntityPart {
		return nil, errf(KindInvalidStatus, "barcode %q is a %s, expected a part", barcode, target.Kind)
	}

	productID, err := target.Part.OwningProductID(e.db)
	if err != nil {
		return nil, err
	}
	if productID == nil {
		return nil, errf(KindInvalidStatus, "part %q does not belong to a product", target.Part.Name)
	}
	return e.AssembleProduct(workOrderID, *productID, station)
}

// AssembleProduct transitions every part of the product (standard and
// filtered alike) to Assembled, clears their placements, and frees the
// bins they occupied. Requires all standard parts sorted.
func (e *Engine) AssembleProduct(workOrderID, productID uint, station string) (*AssembleResult, error) {
	var result AssembleResult
	var pending []events.Event

	err := e.db.Transaction(func(tx *gorm.DB) error {
		var product models.Product
		err := tx.Where("work_order_id = ?", workOrderID).First(&product, productID).Error
		if err == gorm.ErrRecordNotFound {
			return errf(KindNotFound, "product %d not found in work order %d", productID, workOrderID)
		}
		if err != nil {
			return err
		}
		if product.Status == models.ProductStatusAssembled {
			return errf(KindAlreadyProcessed, "product %q is already assembled", product.Name)
		}
		if product.Status == models.ProductStatusShipped {
			return errf(KindInvalidStatus, "product %q has already shipped", product.Name)
		}

		total, sorted, err := standardPartCounts(tx, product.ID)
		if err != nil {
			return err
		}
		if sorted < total {
			return errf(KindInvalidStatus,
				"product %q not ready: %d of %d standard parts sorted", product.Name, sorted, total)
		}

		assembled, freedRacks, freed, err := cascadeProductParts(tx, &product, models.PartStatusAssembled)
		if err != nil {
			return err
		}

		product.Status = models.ProductStatusAssembled
		product.StatusUpdatedAt = time.Now()
		if err := tx.Save(&product).Error; err != nil {
			return err
		}

		if err := audit.Append(tx, audit.Entry{
			Action:      "product.assembled",
			EntityType:  "product",
			EntityID:    product.ID,
			OldValue:    string(models.ProductStatusPending),
			NewValue:    string(models.ProductStatusAssembled),
			Station:     station,
			WorkOrderID: workOrderID,
			Details:     map[string]interface{}{"parts": assembled, "bins_freed": freed},
		}); err != nil {
			return err
		}

		result = AssembleResult{
			ProductID:      product.ID,
			ProductName:    product.Name,
			PartsAssembled: assembled,
			BinsFreed:      freed,
			Message:        fmt.Sprintf("Product %s assembled, %d bins freed", product.Name, freed),
		}
		pending = append(pending, events.NewProductAssembledEvent(events.ProductAssembled{
			ProductID:   product.ID,
			ProductName: product.Name,
			WorkOrderID: workOrderID,
			Station:     station,
		}))
		for _, rackID := range freedRacks {
			occEvent, err := rackOccupancyEvent(tx, rackID)
			if err != nil {
				return err
			}
			pending = append(pending, occEvent)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.publish(pending)
	return &result, nil
}

// cascadeProductParts moves every non-shipped part of the product to
// the target status, clears placements, and resets the bins the
// product occupied. Returns the count of parts actually transitioned,
// affected rack IDs, and the number of bins freed.
func cascadeProductParts(tx *gorm.DB, product *models.Product, to models.PartStatus) (int, []uint, int, error) {
	partIDs, err := collectProductPartIDs(tx, product.ID)
	if err != nil {
		return 0, nil, 0, err
	}

	moved := 0
	if len(partIDs) > 0 {
		res := tx.Model(&models.Part{}).
			Where("id IN ? AND status <> ?", partIDs, models.PartStatusShipped).
			Updates(map[string]interface{}{
				"status":            to,
				"status_updated_at": time.Now(),
				"bin_id":            nil,
				"location":          nil,
			})
		if res.Error != nil {
			return 0, nil, 0, res.Error
		}
		moved = int(res.RowsAffected)
	}

	// Affinity placement guarantees a bin only ever holds one product,
	// so every bin referencing this product empties out here.
	var bins []models.Bin
	if err := tx.Where("product_id = ?", product.ID).Find(&bins).Error; err != nil {
		return 0, nil, 0, err
	}
	rackSet := make(map[uint]bool)
	for i := range bins {
		bins[i].Reset()
		if err := tx.Save(&bins[i]).Error; err != nil {
			return 0, nil, 0, err
		}
		rackSet[bins[i].RackID] = true
	}
	var racks []uint
	for id := range rackSet {
		racks = append(racks, id)
	}
	return moved, racks, len(bins), nil
}

// collectProductPartIDs gathers direct and subassembly part IDs
func collectProductPartIDs(tx *gorm.DB, productID uint) ([]uint, error) {
	var ids []uint
	if err := tx.Model(&models.Part{}).
		Where("product_id = ?", productID).
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}

	var subIDs []uint
	if err := tx.Model(&models.Subassembly{}).
		Where("product_id = ?", productID).
		Pluck("id", &subIDs).Error; err != nil {
		return nil, err
	}
	if len(subIDs) > 0 {
		var subPartIDs []uint
		if err := tx.Model(&models.Part{}).
			Where("subassembly_id IN ?", subIDs).
			Pluck("id", &subPartIDs).Error; err != nil {
			return nil, err
		}
		ids = append(ids, subPartIDs...)
	}
	return ids, nil
}

package engine

import (
	"fmt"
	"time"

	"github.com/millbrook-cnc/shopflow/internal/audit"
	"github.com/millbrook-cnc/shopflow/internal/events"
	"github.com/millbrook-cnc/shopflow/internal/models"
	"gorm.io/gorm"
)

// ShipResult reports a shipping transition
type ShipResult struct {
	Kind         string `json:"kind"`
	EntityID     uint   `json:"entity_id"`
	Name         string `json:"name"`
	PartsShipped int    `json:"parts_shipped,omitempty"`
	GroupSize    int    `json:"group_size,omitempty"`
	Message      string `json:"message"`
}

// ShipScan ships whatever the barcode resolves to: a product cascades
// to all of its parts, hardware group-ships every unit sharing the
// scanned name, a detached product ships alone. Scanning a part ships
// its owning product.
func (e *Engine) ShipScan(workOrderID uint, barcode, station string) (*ShipResult, error) {
	target, err := ResolveBarcode(e.db, workOrderID, barcode)
	if err != nil {
		return nil, err
	}

	switch target.Kind {
	case EntityProduct:
		return e.ShipProduct(workOrderID, target.Product.ID, station)
	case EntityPart:
		productID, err := target.Part.OwningProductID(e.db)
		if err != nil {
			return nil, err
		}
		if productID == nil {
			return nil, errf(KindInvalidStatus, "part %q does not belong to a product", target.Part.Name)
		}
		return e.ShipProduct(workOrderID, *productID, station)
	case EntityHardware:
		return e.ShipHardwareGroup(workOrderID, target.Hardware.Name, station)
	case EntityDetachedProduct:
		return e.shipDetached(workOrderID, target.DetachedProduct, station)
	default:
		return nil, errf(KindInvalidStatus, "cannot ship a %s scan", target.Kind)
	}
}

// ShipProduct transitions a product and every one of its parts to
// Shipped, clearing any remaining placements
func (e *Engine) ShipProduct(workOrderID, productID uint, station string) (*ShipResult, error) {
	var result ShipResult
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
		if product.Status == models.ProductStatusShipped {
			return errf(KindAlreadyProcessed, "product %q has already shipped", product.Name)
		}

		oldStatus := product.Status
		shipped, freedRacks, _, err := cascadeProductParts(tx, &product, models.PartStatusShipped)
		if err != nil {
			return err
		}

		product.Status = models.ProductStatusShipped
		product.StatusUpdatedAt = time.Now()
		if err := tx.Save(&product).Error; err != nil {
			return err
		}

		if err := audit.Append(tx, audit.Entry{
			Action:      "product.shipped",
			EntityType:  "product",
			EntityID:    product.ID,
			OldValue:    string(oldStatus),
			NewValue:    string(models.ProductStatusShipped),
			Station:     station,
			WorkOrderID: workOrderID,
			Details:     map[string]interface{}{"parts": shipped},
		}); err != nil {
			return err
		}

		result = ShipResult{
			Kind:         "product",
			EntityID:     product.ID,
			Name:         product.Name,
			PartsShipped: shipped,
			Message:      fmt.Sprintf("Product %s shipped (%d parts)", product.Name, shipped),
		}
		pending = append(pending, events.NewProductShippedEvent(events.ProductShipped{
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

// ShipHardwareGroup ships every hardware row in the work order sharing
// the given name in one transaction; either all members ship or none.
func (e *Engine) ShipHardwareGroup(workOrderID uint, name, station string) (*ShipResult, error) {
	var result ShipResult
	var pending []events.Event

	err := e.db.Transaction(func(tx *gorm.DB) error {
		var members []models.Hardware
		if err := tx.Where("work_order_id = ? AND name = ?", workOrderID, name).
			Find(&members).Error; err != nil {
			return err
		}
		if len(members) == 0 {
			return errf(KindNotFound, "no hardware named %q in work order %d", name, workOrderID)
		}

		var ids []uint
		now := time.Now()
		for _, hw := range members {
			if hw.Status == models.PartStatusShipped {
				return errf(KindAlreadyProcessed, "hardware %q has already shipped", name)
			}
			ids = append(ids, hw.ID)
		}

		if err := tx.Model(&models.Hardware{}).
			Where("id IN ?", ids).
			Updates(map[string]interface{}{
				"status":            models.PartStatusShipped,
				"status_updated_at": now,
			}).Error; err != nil {
			return err
		}

		if err := audit.Append(tx, audit.Entry{
			Action:      "hardware.shipped",
			EntityType:  "hardware",
			EntityID:    ids[0],
			OldValue:    string(models.PartStatusPending),
			NewValue:    string(models.PartStatusShipped),
			Station:     station,
			WorkOrderID: workOrderID,
			Details:     map[string]interface{}{"name": name, "group_size": len(ids)},
		}); err != nil {
			return err
		}

		result = ShipResult{
			Kind:      "hardware",
			EntityID:  ids[0],
			Name:      name,
			GroupSize: len(ids),
			Message:   fmt.Sprintf("Hardware %s shipped (%d units)", name, len(ids)),
		}
		pending = append(pending, events.NewHardwareShippedEvent(events.HardwareShipped{
			HardwareIDs: ids,
			Name:        name,
			WorkOrderID: workOrderID,
			Station:     station,
		}))
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.publish(pending)
	return &result, nil
}

// shipDetached ships a single detached product, no cascade
func (e *Engine) shipDetached(workOrderID uint, dp *models.DetachedProduct, station string) (*ShipResult, error) {
	var result ShipResult

	err := e.db.Transaction(func(tx *gorm.DB) error {
		if dp.Status == models.PartStatusShipped {
			return errf(KindAlreadyProcessed, "detached product %q has already shipped", dp.Name)
		}
		old := dp.Status
		dp.Status = models.PartStatusShipped
		dp.StatusUpdatedAt = time.Now()
		if err := tx.Save(dp).Error; err != nil {
			return err
		}

		if err := audit.Append(tx, audit.Entry{
			Action:      "detached_product.shipped",
			EntityType:  "detached_product",
			EntityID:    dp.ID,
			OldValue:    string(old),
			NewValue:    string(models.PartStatusShipped),
			Station:     station,
			WorkOrderID: workOrderID,
		}); err != nil {
			return err
		}

		result = ShipResult{
			Kind:     "detached_product",
			EntityID: dp.ID,
			Name:     dp.Name,
			Message:  fmt.Sprintf("Detached product %s shipped", dp.Name),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/millbrook-cnc/shopflow/internal/audit"
	"github.com/millbrook-cnc/shopflow/internal/events"
	"github.com/millbrook-cnc/shopflow/internal/models"
	"gorm.io/gorm"
)

// errPlacementTaken signals that a concurrently committed scan consumed
// the selected bin between search and commit; the sort retries once.
var errPlacementTaken = errors.New("placement taken by concurrent scan")

// CutResult reports a processed nest sheet scan
type CutResult struct {
	SheetID   uint   `json:"sheet_id"`
	SheetName string `json:"sheet_name"`
	PartsCut  int    `json:"parts_cut"`
	Message   string `json:"message"`
}

// SortResult reports a committed part placement
type SortResult struct {
	PartID        uint   `json:"part_id"`
	PartName      string `json:"part_name"`
	RackName      string `json:"rack_name"`
	BinLabel      string `json:"bin_label"`
	Location      string `json:"location"`
	ReadyProducts []uint `json:"ready_products,omitempty"`
	Message       string `json:"message"`
}

// RemoveResult reports a part reverted from a bin
type RemoveResult struct {
	PartID   uint   `json:"part_id"`
	BinLabel string `json:"bin_label"`
	Message  string `json:"message"`
}

// ClearResult reports a fully cleared bin
type ClearResult struct {
	BinID        uint   `json:"bin_id"`
	BinLabel     string `json:"bin_label"`
	PartsCleared int    `json:"parts_cleared"`
	Message      string `json:"message"`
}

// ProcessNestSheetScan marks every pending part on the scanned sheet
// as cut and the sheet as processed. Re-scanning a processed sheet is
// rejected so CNC double-scans stay harmless.
func (e *Engine) ProcessNestSheetScan(workOrderID uint, barcode, station string) (*CutResult, error) {
	var result CutResult
	var pending []events.Event

	err := e.db.Transaction(func(tx *gorm.DB) error {
		var sheet models.NestSheet
		err := tx.Where("work_order_id = ? AND barcode = ?", workOrderID, barcode).First(&sheet).Error
		if err == gorm.ErrRecordNotFound {
			return errf(KindNotFound, "nest sheet %q not found in work order %d", barcode, workOrderID)
		}
		if err != nil {
			return err
		}
		if sheet.Processed {
			return errf(KindAlreadyProcessed, "nest sheet %q was already processed", sheet.Name)
		}

		now := time.Now()
		res := tx.Model(&models.Part{}).
			Where("nest_sheet_id = ? AND status = ?", sheet.ID, models.PartStatusPending).
			Updates(map[string]interface{}{
				"status":            models.PartStatusCut,
				"status_updated_at": now,
			})
		if res.Error != nil {
			return res.Error
		}

		sheet.Processed = true
		sheet.ProcessedAt = &now
		if err := tx.Save(&sheet).Error; err != nil {
			return err
		}

		if err := audit.Append(tx, audit.Entry{
			Action:      "nestsheet.cut",
			EntityType:  "nest_sheet",
			EntityID:    sheet.ID,
			OldValue:    string(models.PartStatusPending),
			NewValue:    string(models.PartStatusCut),
			Station:     station,
			WorkOrderID: workOrderID,
			Details:     map[string]interface{}{"parts_cut": res.RowsAffected},
		}); err != nil {
			return err
		}

		result = CutResult{
			SheetID:   sheet.ID,
			SheetName: sheet.Name,
			PartsCut:  int(res.RowsAffected),
			Message:   fmt.Sprintf("Nest sheet %s processed, %d parts cut", sheet.Name, res.RowsAffected),
		}
		pending = append(pending, events.NewPartsCutEvent(events.PartsCut{
			NestSheetID: sheet.ID,
			SheetName:   sheet.Name,
			WorkOrderID: workOrderID,
			PartCount:   result.PartsCut,
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

// SortPart places a cut part into a bin and commits the transition to
// Sorted. Placement search and commit are serialized per rack; if a
// concurrent scan takes the chosen bin first, the search runs once
// more against the updated grid.
func (e *Engine) SortPart(workOrderID uint, barcode, station string, preferredRackID *uint, force bool) (*SortResult, error) {
	target, err := ResolveBarcode(e.db, workOrderID, barcode)
	if err != nil {
		return nil, err
	}
	if target.Kind != EntityPart {
		return nil, errf(KindInvalidStatus, "barcode %q is a %s, expected a part", barcode, target.Kind)
	}
	part := target.Part
	if part.Status != models.PartStatusCut {
		return nil, errf(KindInvalidStatus,
			"part %q is %s, only cut parts can be sorted", part.Name, part.Status)
	}

	for attempt := 0; attempt < 2; attempt++ {
		placement, err := FindBin(e.db, part, workOrderID, preferredRackID, force)
		if err != nil {
			return nil, err
		}

		result, pending, err := e.commitSort(part, workOrderID, station, placement)
		if errors.Is(err, errPlacementTaken) {
			continue
		}
		if err != nil {
			return nil, err
		}
		e.publish(pending)
		return result, nil
	}
	return nil, errf(KindConflict, "bin contention while sorting part %q, rescan to retry", part.Name)
}

func (e *Engine) commitSort(part *models.Part, workOrderID uint, station string, placement *Placement) (*SortResult, []events.Event, error) {
	mu := e.lockRack(placement.RackID)
	defer mu.Unlock()

	var result SortResult
	var pending []events.Event

	err := e.db.Transaction(func(tx *gorm.DB) error {
		var bin models.Bin
		if err := tx.First(&bin, placement.BinID).Error; err != nil {
			return err
		}

		productID, err := part.OwningProductID(tx)
		if err != nil {
			return err
		}

		if !binStillSelectable(&bin, workOrderID, productID) {
			return errPlacementTaken
		}

		// Cross-work-order isolation is a hard invariant; a partial bin
		// of another job must never have survived selection.
		if bin.WorkOrderID != nil && *bin.WorkOrderID != workOrderID {
			return errf(KindConflict, "bin %s belongs to another work order", bin.Label)
		}

		var fresh models.Part
		if err := tx.First(&fresh, part.ID).Error; err != nil {
			return err
		}
		if fresh.Status != models.PartStatusCut {
			return errf(KindInvalidStatus,
				"part %q is %s, only cut parts can be sorted", fresh.Name, fresh.Status)
		}

		now := time.Now()
		if bin.PartsCount == 0 {
			bin.WorkOrderID = &workOrderID
			bin.ProductID = productID
			bin.PartID = &fresh.ID
			bin.AssignedAt = &now
			bin.Contents = fresh.Name
		}
		bin.PartsCount++
		bin.RecomputeStatus()
		if err := tx.Save(&bin).Error; err != nil {
			return err
		}

		location := placement.Location()
		fresh.Status = models.PartStatusSorted
		fresh.StatusUpdatedAt = now
		fresh.BinID = &bin.ID
		fresh.Location = &location
		if err := tx.Save(&fresh).Error; err != nil {
			return err
		}
		*part = fresh

		if err := audit.Append(tx, audit.Entry{
			Action:      "part.sorted",
			EntityType:  "part",
			EntityID:    fresh.ID,
			OldValue:    string(models.PartStatusCut),
			NewValue:    string(models.PartStatusSorted),
			Station:     station,
			WorkOrderID: workOrderID,
			Details:     map[string]interface{}{"bin": bin.Label, "rack": placement.RackName},
		}); err != nil {
			return err
		}

		ready, readyEvents, err := checkReadiness(tx, workOrderID)
		if err != nil {
			return err
		}
		pending = append(pending, readyEvents...)

		occEvent, err := rackOccupancyEvent(tx, placement.RackID)
		if err != nil {
			return err
		}

		result = SortResult{
			PartID:        fresh.ID,
			PartName:      fresh.Name,
			RackName:      placement.RackName,
			BinLabel:      bin.Label,
			Location:      location,
			ReadyProducts: ready,
			Message:       fmt.Sprintf("Part %s sorted to %s", fresh.Name, location),
		}
		pending = append(pending,
			events.NewPartSortedEvent(events.PartSorted{
				PartID:      fresh.ID,
				PartName:    fresh.Name,
				WorkOrderID: workOrderID,
				RackID:      placement.RackID,
				RackName:    placement.RackName,
				BinLabel:    bin.Label,
				Station:     station,
			}),
			occEvent,
		)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return &result, pending, nil
}

// binStillSelectable re-verifies under the rack lock that the bin can
// still take this part
func binStillSelectable(bin *models.Bin, workOrderID uint, productID *uint) bool {
	switch bin.Status {
	case models.BinStatusEmpty:
		return true
	case models.BinStatusPartial:
		if bin.WorkOrderID == nil || *bin.WorkOrderID != workOrderID {
			return false
		}
		if productID == nil || bin.ProductID == nil || *bin.ProductID != *productID {
			return false
		}
		return bin.PartsCount < bin.MaxCapacity
	default:
		return false
	}
}

// RemovePart reverts one sorted part to Cut and releases its bin slot
func (e *Engine) RemovePart(workOrderID uint, barcode, station string) (*RemoveResult, error) {
	var result RemoveResult
	var pending []events.Event

	err := e.db.Transaction(func(tx *gorm.DB) error {
		target, err := ResolveBarcode(tx, workOrderID, barcode)
		if err != nil {
			return err
		}
		if target.Kind != EntityPart {
			return errf(KindInvalidStatus, "barcode %q is a %s, expected a part", barcode, target.Kind)
		}
		part := target.Part
		if part.Status != models.PartStatusSorted {
			return errf(KindInvalidStatus, "part %q is %s, only sorted parts can be removed", part.Name, part.Status)
		}
		if part.BinID == nil {
			return errf(KindConflict, "part %q is sorted but has no bin reference", part.Name)
		}

		var bin models.Bin
		if err := tx.First(&bin, *part.BinID).Error; err != nil {
			return err
		}

		binLabel := bin.Label
		rackID := bin.RackID

		bin.PartsCount--
		if bin.PartsCount <= 0 {
			bin.Reset()
		} else {
			if bin.PartID != nil && *bin.PartID == part.ID {
				bin.PartID = nil
			}
			bin.RecomputeStatus()
		}
		if err := tx.Save(&bin).Error; err != nil {
			return err
		}

		part.Status = models.PartStatusCut
		part.StatusUpdatedAt = time.Now()
		part.BinID = nil
		part.Location = nil
		if err := tx.Save(part).Error; err != nil {
			return err
		}

		if err := audit.Append(tx, audit.Entry{
			Action:      "part.removed",
			EntityType:  "part",
			EntityID:    part.ID,
			OldValue:    string(models.PartStatusSorted),
			NewValue:    string(models.PartStatusCut),
			Station:     station,
			WorkOrderID: workOrderID,
			Details:     map[string]interface{}{"bin": binLabel},
		}); err != nil {
			return err
		}

		occEvent, err := rackOccupancyEvent(tx, rackID)
		if err != nil {
			return err
		}

		result = RemoveResult{
			PartID:   part.ID,
			BinLabel: binLabel,
			Message:  fmt.Sprintf("Part %s removed from %s", part.Name, binLabel),
		}
		pending = append(pending,
			events.NewPartRemovedEvent(events.PartRemoved{
				PartID:      part.ID,
				WorkOrderID: workOrderID,
				BinLabel:    binLabel,
				Station:     station,
			}),
			occEvent,
		)
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.publish(pending)
	return &result, nil
}

// ClearBin reverts every part currently sorted in the bin to Cut and
// resets the bin. Parts that already moved past Sorted are untouched.
func (e *Engine) ClearBin(workOrderID, binID uint, station string) (*ClearResult, error) {
	var result ClearResult
	var pending []events.Event

	err := e.db.Transaction(func(tx *gorm.DB) error {
		var bin models.Bin
		if err := tx.First(&bin, binID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return errf(KindNotFound, "bin %d not found", binID)
			}
			return err
		}
		if bin.WorkOrderID != nil && *bin.WorkOrderID != workOrderID {
			return errf(KindConflict, "bin %s belongs to another work order", bin.Label)
		}

		res := tx.Model(&models.Part{}).
			Where("bin_id = ? AND status = ?", bin.ID, models.PartStatusSorted).
			Updates(map[string]interface{}{
				"status":            models.PartStatusCut,
				"status_updated_at": time.Now(),
				"bin_id":            nil,
				"location":          nil,
			})
		if res.Error != nil {
			return res.Error
		}

		priorStatus := string(bin.Status)
		bin.Reset()
		if err := tx.Save(&bin).Error; err != nil {
			return err
		}

		if err := audit.Append(tx, audit.Entry{
			Action:      "bin.cleared",
			EntityType:  "bin",
			EntityID:    bin.ID,
			OldValue:    priorStatus,
			NewValue:    string(bin.Status),
			Station:     station,
			WorkOrderID: workOrderID,
			Details:     map[string]interface{}{"parts_cleared": res.RowsAffected},
		}); err != nil {
			return err
		}

		occEvent, err := rackOccupancyEvent(tx, bin.RackID)
		if err != nil {
			return err
		}

		result = ClearResult{
			BinID:        bin.ID,
			BinLabel:     bin.Label,
			PartsCleared: int(res.RowsAffected),
			Message:      fmt.Sprintf("Bin %s cleared, %d parts reverted to cut", bin.Label, res.RowsAffected),
		}
		pending = append(pending,
			events.NewBinClearedEvent(events.BinCleared{
				BinID:        bin.ID,
				BinLabel:     bin.Label,
				RackID:       bin.RackID,
				PartsCleared: result.PartsCleared,
				Station:      station,
			}),
			occEvent,
		)
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.publish(pending)
	return &result, nil
}

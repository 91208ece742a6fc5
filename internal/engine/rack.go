package engine

import (
	"fmt"
	"time"

	"github.com/millbrook-cnc/shopflow/internal/audit"
	"github.com/millbrook-cnc/shopflow/internal/events"
	"github.com/millbrook-cnc/shopflow/internal/models"
	"gorm.io/gorm"
)

// CreateRack persists a rack and deterministically creates one bin per
// (row, column) with capacity derived from the rack type
func (e *Engine) CreateRack(rack *models.StorageRack) error {
	if rack.Rows < 1 || rack.Columns < 1 {
		return errf(KindInvalidStatus, "rack grid must be at least 1x1, got %dx%d", rack.Rows, rack.Columns)
	}
	return e.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(rack).Error; err != nil {
			return fmt.Errorf("failed to create rack: %w", err)
		}
		bins := buildBins(rack)
		if err := tx.Create(&bins).Error; err != nil {
			return fmt.Errorf("failed to create bins: %w", err)
		}
		rack.Bins = bins
		return nil
	})
}

// ResizeRack discards and recreates every bin of the rack with the new
// grid dimensions. Destructive, so it is refused while any bin still
// holds parts.
func (e *Engine) ResizeRack(rackID uint, newRows, newCols int, station string) error {
	if newRows < 1 || newCols < 1 {
		return errf(KindInvalidStatus, "rack grid must be at least 1x1, got %dx%d", newRows, newCols)
	}
	return e.db.Transaction(func(tx *gorm.DB) error {
		var rack models.StorageRack
		if err := tx.First(&rack, rackID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return errf(KindNotFound, "rack %d not found", rackID)
			}
			return err
		}

		var occupied int64
		if err := tx.Model(&models.Bin{}).
			Where("rack_id = ? AND parts_count > 0", rackID).
			Count(&occupied).Error; err != nil {
			return err
		}
		if occupied > 0 {
			return errf(KindRackHasAssignedParts,
				"cannot resize rack %q: %d bins still hold parts", rack.Name, occupied)
		}

		if err := tx.Unscoped().Where("rack_id = ?", rackID).Delete(&models.Bin{}).Error; err != nil {
			return err
		}

		oldGrid := fmt.Sprintf("%dx%d", rack.Rows, rack.Columns)
		rack.Rows = newRows
		rack.Columns = newCols
		if err := tx.Save(&rack).Error; err != nil {
			return err
		}
		bins := buildBins(&rack)
		if err := tx.Create(&bins).Error; err != nil {
			return err
		}

		return audit.Append(tx, audit.Entry{
			Action:     "rack.resize",
			EntityType: "rack",
			EntityID:   rack.ID,
			OldValue:   oldGrid,
			NewValue:   fmt.Sprintf("%dx%d", newRows, newCols),
			Station:    station,
		})
	})
}

func buildBins(rack *models.StorageRack) []models.Bin {
	capacity := models.CapacityForType(rack.Type)
	bins := make([]models.Bin, 0, rack.Rows*rack.Columns)
	for row := 0; row < rack.Rows; row++ {
		for col := 0; col < rack.Columns; col++ {
			bins = append(bins, models.Bin{
				RackID:      rack.ID,
				Row:         row,
				Column:      col,
				Label:       models.BinLabel(row, col),
				Status:      models.BinStatusEmpty,
				MaxCapacity: capacity,
			})
		}
	}
	return bins
}

// BlockBin marks a bin unusable for placement until released
func (e *Engine) BlockBin(binID uint, reason, station string) error {
	return e.setBinOverride(binID, models.BinStatusBlocked, reason, station)
}

// ReserveBin holds a bin for manual use; it is skipped by allocation
func (e *Engine) ReserveBin(binID uint, station string) error {
	return e.setBinOverride(binID, models.BinStatusReserved, "", station)
}

// ReleaseBin removes a block/reserve override and re-derives the
// occupancy status
func (e *Engine) ReleaseBin(binID uint, station string) error {
	return e.db.Transaction(func(tx *gorm.DB) error {
		var bin models.Bin
		if err := tx.First(&bin, binID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return errf(KindNotFound, "bin %d not found", binID)
			}
			return err
		}
		if bin.Status != models.BinStatusBlocked && bin.Status != models.BinStatusReserved {
			return errf(KindInvalidStatus, "bin %s is not blocked or reserved", bin.Label)
		}
		old := string(bin.Status)
		bin.Status = models.BinStatusEmpty
		bin.BlockReason = ""
		bin.RecomputeStatus()
		if err := tx.Save(&bin).Error; err != nil {
			return err
		}
		return audit.Append(tx, audit.Entry{
			Action:     "bin.release",
			EntityType: "bin",
			EntityID:   bin.ID,
			OldValue:   old,
			NewValue:   string(bin.Status),
			Station:    station,
		})
	})
}

func (e *Engine) setBinOverride(binID uint, status models.BinStatus, reason, station string) error {
	return e.db.Transaction(func(tx *gorm.DB) error {
		var bin models.Bin
		if err := tx.First(&bin, binID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return errf(KindNotFound, "bin %d not found", binID)
			}
			return err
		}
		if bin.Status == status {
			return errf(KindAlreadyProcessed, "bin %s is already %s", bin.Label, status)
		}
		old := string(bin.Status)
		bin.Status = status
		bin.BlockReason = reason
		now := time.Now()
		bin.AssignedAt = &now
		if err := tx.Save(&bin).Error; err != nil {
			return err
		}
		return audit.Append(tx, audit.Entry{
			Action:     "bin." + string(status),
			EntityType: "bin",
			EntityID:   bin.ID,
			OldValue:   old,
			NewValue:   string(status),
			Station:    station,
			Details:    map[string]interface{}{"reason": reason},
		})
	})
}

// rackOccupancyEvent snapshots occupied-vs-total for a rack, for the
// RackOccupancyChanged broadcast after a commit
func rackOccupancyEvent(tx *gorm.DB, rackID uint) (events.Event, error) {
	var rack models.StorageRack
	if err := tx.First(&rack, rackID).Error; err != nil {
		return nil, err
	}
	var total, occupied int64
	if err := tx.Model(&models.Bin{}).Where("rack_id = ?", rackID).Count(&total).Error; err != nil {
		return nil, err
	}
	if err := tx.Model(&models.Bin{}).
		Where("rack_id = ? AND parts_count > 0", rackID).
		Count(&occupied).Error; err != nil {
		return nil, err
	}
	return events.NewRackOccupancyChangedEvent(events.RackOccupancyChanged{
		RackID:   rack.ID,
		RackName: rack.Name,
		Occupied: int(occupied),
		Total:    int(total),
	}), nil
}

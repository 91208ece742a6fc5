package engine

import (
	"fmt"

	"github.com/millbrook-cnc/shopflow/internal/models"
	"gorm.io/gorm"
)

// Placement identifies the bin a part should be committed into. FindBin
// returns it without mutating anything; the workflow commits it.
type Placement struct {
	RackID   uint
	RackName string
	BinID    uint
	Row      int
	Column   int
	Label    string
}

// Location is the operator-facing "Rack : Label" string stored on a
// sorted part
func (p Placement) Location() string {
	return fmt.Sprintf("%s : %s", p.RackName, p.Label)
}

// FindBin selects a bin for the part within the given work order.
//
// The part's name is classified to a rack type; candidate racks are the
// active racks of that type, with preferredRackID tried first when set
// (force admits a preferred rack of any type, e.g. a mobile cart).
// Within a rack, bins are walked in row-major order preferring a
// partial bin already holding the same product with remaining capacity,
// then any empty bin. Full, blocked, and reserved bins are never
// selected, nor is any bin occupied by a different work order.
func FindBin(db *gorm.DB, part *models.Part, workOrderID uint, preferredRackID *uint, force bool) (*Placement, error) {
	rackType, err := Classify(db, part.Name)
	if err != nil {
		return nil, err
	}

	var racks []models.StorageRack
	if err := db.Where("active = ? AND type = ?", true, rackType).
		Order("id ASC").Find(&racks).Error; err != nil {
		return nil, fmt.Errorf("failed to load racks: %w", err)
	}

	candidates := racks
	if preferredRackID != nil {
		var preferred models.StorageRack
		if err := db.First(&preferred, *preferredRackID).Error; err == nil && preferred.Active {
			if preferred.Type == rackType || force {
				reordered := []models.StorageRack{preferred}
				for _, r := range racks {
					if r.ID != preferred.ID {
						reordered = append(reordered, r)
					}
				}
				candidates = reordered
			}
		}
	}

	if len(candidates) == 0 {
		return nil, errf(KindNoPlacement, "no active rack of type %s available for part %q", rackType, part.Name)
	}

	productID, err := part.OwningProductID(db)
	if err != nil {
		return nil, err
	}

	for _, rack := range candidates {
		var bins []models.Bin
		if err := db.Where("rack_id = ?", rack.ID).
			Order("\"row\" ASC, \"column\" ASC").Find(&bins).Error; err != nil {
			return nil, fmt.Errorf("failed to load bins for rack %q: %w", rack.Name, err)
		}

		if bin := selectBin(bins, workOrderID, productID); bin != nil {
			return &Placement{
				RackID:   rack.ID,
				RackName: rack.Name,
				BinID:    bin.ID,
				Row:      bin.Row,
				Column:   bin.Column,
				Label:    bin.Label,
			}, nil
		}
	}

	return nil, errf(KindNoPlacement,
		"all bins full or blocked on %d rack(s) of type %s", len(candidates), rackType)
}

// selectBin applies the affinity-then-empty preference over a row-major
// ordered bin slice. Returns nil when no bin qualifies.
func selectBin(bins []models.Bin, workOrderID uint, productID *uint) *models.Bin {
	// Affinity pass: partial bin of the same work order already holding
	// this product, with room left
	if productID != nil {
		for i := range bins {
			b := &bins[i]
			if b.Status != models.BinStatusPartial {
				continue
			}
			if b.WorkOrderID == nil || *b.WorkOrderID != workOrderID {
				continue
			}
			if b.ProductID == nil || *b.ProductID != *productID {
				continue
			}
			if b.PartsCount < b.MaxCapacity {
				return b
			}
		}
	}

	// Fallback: first empty bin
	for i := range bins {
		if bins[i].Status == models.BinStatusEmpty {
			return &bins[i]
		}
	}
	return nil
}

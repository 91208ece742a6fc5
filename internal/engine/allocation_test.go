package engine

import (
	"testing"

	"github.com/millbrook-cnc/shopflow/internal/models"
	"gorm.io/gorm"
)

func binAt(t *testing.T, db *gorm.DB, rackID uint, row, col int) models.Bin {
	t.Helper()
	var bin models.Bin
	if err := db.Where("rack_id = ? AND \"row\" = ? AND \"column\" = ?", rackID, row, col).
		First(&bin).Error; err != nil {
		t.Fatalf("bin (%d,%d) of rack %d: %v", row, col, rackID, err)
	}
	return bin
}

func saveBin(t *testing.T, db *gorm.DB, bin *models.Bin) {
	t.Helper()
	if err := db.Save(bin).Error; err != nil {
		t.Fatalf("save bin %s: %v", bin.Label, err)
	}
}

func TestFindBinPicksFirstEmptyInRowMajorOrder(t *testing.T) {
	eng, db, _ := newTestEngine(t)
	order := seedWorkOrder(t, db, "WO-1")
	rack := seedRack(t, eng, "Standard-A", models.RackTypeStandard, 2, 3)
	product := seedProduct(t, db, order.ID, "Base Cabinet")
	part := seedPart(t, db, order.ID, &product.ID, "Side Panel", "P-1", models.CategoryStandard, models.PartStatusCut)

	placement, err := FindBin(db, &part, order.ID, nil, false)
	if err != nil {
		t.Fatalf("find bin: %v", err)
	}
	if placement.RackID != rack.ID || placement.Row != 0 || placement.Column != 0 {
		t.Errorf("expected first bin of rack, got rack %d (%d,%d)", placement.RackID, placement.Row, placement.Column)
	}
	if placement.Label != "A01" {
		t.Errorf("expected label A01, got %s", placement.Label)
	}
	if got := placement.Location(); got != "Standard-A : A01" {
		t.Errorf("unexpected location string %q", got)
	}
}

func TestFindBinPrefersPartialBinOfSameProduct(t *testing.T) {
	eng, db, _ := newTestEngine(t)
	order := seedWorkOrder(t, db, "WO-1")
	rack := seedRack(t, eng, "Standard-A", models.RackTypeStandard, 2, 3)
	product := seedProduct(t, db, order.ID, "Base Cabinet")
	part := seedPart(t, db, order.ID, &product.ID, "Bottom Deck", "P-2", models.CategoryStandard, models.PartStatusCut)

	// A later bin already holds a part of this product
	bin := binAt(t, db, rack.ID, 1, 1)
	bin.WorkOrderID = &order.ID
	bin.ProductID = &product.ID
	bin.PartsCount = 1
	bin.RecomputeStatus()
	saveBin(t, db, &bin)

	placement, err := FindBin(db, &part, order.ID, nil, false)
	if err != nil {
		t.Fatalf("find bin: %v", err)
	}
	if placement.BinID != bin.ID {
		t.Errorf("expected affinity bin %s, got %s", bin.Label, placement.Label)
	}
}

func TestFindBinAffinitySkipsOtherProduct(t *testing.T) {
	eng, db, _ := newTestEngine(t)
	order := seedWorkOrder(t, db, "WO-1")
	rack := seedRack(t, eng, "Standard-A", models.RackTypeStandard, 1, 3)
	cabinetA := seedProduct(t, db, order.ID, "Cabinet A")
	cabinetB := seedProduct(t, db, order.ID, "Cabinet B")
	part := seedPart(t, db, order.ID, &cabinetB.ID, "Side Panel", "P-3", models.CategoryStandard, models.PartStatusCut)

	// First bin belongs to another product of the same order
	bin := binAt(t, db, rack.ID, 0, 0)
	bin.WorkOrderID = &order.ID
	bin.ProductID = &cabinetA.ID
	bin.PartsCount = 1
	bin.RecomputeStatus()
	saveBin(t, db, &bin)

	placement, err := FindBin(db, &part, order.ID, nil, false)
	if err != nil {
		t.Fatalf("find bin: %v", err)
	}
	if placement.Label != "A02" {
		t.Errorf("expected next empty bin A02, got %s", placement.Label)
	}
}

func TestFindBinNeverPlacesIntoAnotherWorkOrder(t *testing.T) {
	eng, db, _ := newTestEngine(t)
	orderA := seedWorkOrder(t, db, "WO-A")
	orderB := seedWorkOrder(t, db, "WO-B")
	rack := seedRack(t, eng, "Standard-A", models.RackTypeStandard, 1, 2)
	productA := seedProduct(t, db, orderA.ID, "Cabinet A")
	productB := seedProduct(t, db, orderB.ID, "Cabinet B")
	part := seedPart(t, db, orderB.ID, &productB.ID, "Side Panel", "P-4", models.CategoryStandard, models.PartStatusCut)

	bin := binAt(t, db, rack.ID, 0, 0)
	bin.WorkOrderID = &orderA.ID
	bin.ProductID = &productA.ID
	bin.PartsCount = 1
	bin.RecomputeStatus()
	saveBin(t, db, &bin)

	placement, err := FindBin(db, &part, orderB.ID, nil, false)
	if err != nil {
		t.Fatalf("find bin: %v", err)
	}
	if placement.BinID == bin.ID {
		t.Fatal("part placed into a bin owned by another work order")
	}
	if placement.Label != "A02" {
		t.Errorf("expected A02, got %s", placement.Label)
	}
}

func TestFindBinSkipsBlockedAndReservedBins(t *testing.T) {
	eng, db, _ := newTestEngine(t)
	order := seedWorkOrder(t, db, "WO-1")
	rack := seedRack(t, eng, "Standard-A", models.RackTypeStandard, 1, 3)
	product := seedProduct(t, db, order.ID, "Cabinet")
	part := seedPart(t, db, order.ID, &product.ID, "Side Panel", "P-5", models.CategoryStandard, models.PartStatusCut)

	first := binAt(t, db, rack.ID, 0, 0)
	if err := eng.BlockBin(first.ID, "damaged shelf", "station-1"); err != nil {
		t.Fatalf("block: %v", err)
	}
	second := binAt(t, db, rack.ID, 0, 1)
	if err := eng.ReserveBin(second.ID, "station-1"); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	placement, err := FindBin(db, &part, order.ID, nil, false)
	if err != nil {
		t.Fatalf("find bin: %v", err)
	}
	if placement.Label != "A03" {
		t.Errorf("expected A03 past blocked and reserved, got %s", placement.Label)
	}
}

func TestFindBinNoPlacementWhenEverythingBlocked(t *testing.T) {
	eng, db, _ := newTestEngine(t)
	order := seedWorkOrder(t, db, "WO-1")
	rack := seedRack(t, eng, "Standard-A", models.RackTypeStandard, 1, 1)
	product := seedProduct(t, db, order.ID, "Cabinet")
	part := seedPart(t, db, order.ID, &product.ID, "Side Panel", "P-6", models.CategoryStandard, models.PartStatusCut)

	only := binAt(t, db, rack.ID, 0, 0)
	if err := eng.BlockBin(only.ID, "water damage", "station-1"); err != nil {
		t.Fatalf("block: %v", err)
	}

	_, err := FindBin(db, &part, order.ID, nil, false)
	if !IsKind(err, KindNoPlacement) {
		t.Fatalf("expected no placement, got %v", err)
	}
}

func TestFindBinSkipsInactiveRack(t *testing.T) {
	eng, db, _ := newTestEngine(t)
	order := seedWorkOrder(t, db, "WO-1")

	mothballed := models.StorageRack{Name: "Mothballed", Type: models.RackTypeStandard, Rows: 2, Columns: 2, Active: false}
	if err := eng.CreateRack(&mothballed); err != nil {
		t.Fatalf("rack: %v", err)
	}
	var saved models.StorageRack
	if err := db.First(&saved, mothballed.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if saved.Active {
		t.Fatal("rack created inactive was stored active")
	}

	product := seedProduct(t, db, order.ID, "Cabinet")
	part := seedPart(t, db, order.ID, &product.ID, "Side Panel", "P-11", models.CategoryStandard, models.PartStatusCut)

	// The only rack of the matching type is inactive: no placement
	_, err := FindBin(db, &part, order.ID, nil, false)
	if !IsKind(err, KindNoPlacement) {
		t.Fatalf("expected no placement with only an inactive rack, got %v", err)
	}

	// An active rack alongside it takes the part
	live := seedRack(t, eng, "Standard-A", models.RackTypeStandard, 2, 2)
	placement, err := FindBin(db, &part, order.ID, nil, false)
	if err != nil {
		t.Fatalf("find bin: %v", err)
	}
	if placement.RackID != live.ID {
		t.Errorf("part placed on rack %d, want active rack %d", placement.RackID, live.ID)
	}
}

func TestFindBinNoPlacementWithoutMatchingRack(t *testing.T) {
	eng, db, _ := newTestEngine(t)
	order := seedWorkOrder(t, db, "WO-1")
	seedRack(t, eng, "Standard-A", models.RackTypeStandard, 1, 1)

	rule := models.RoutingRule{Priority: 1, Keywords: "door", RackType: models.RackTypeDoorsAndFronts, Active: true}
	if err := eng.CreateRule(&rule); err != nil {
		t.Fatalf("rule: %v", err)
	}

	product := seedProduct(t, db, order.ID, "Cabinet")
	door := seedPart(t, db, order.ID, &product.ID, "Cabinet Door", "P-7", models.CategoryDoor, models.PartStatusCut)

	// Only a standard rack exists but the rule routes doors elsewhere
	_, err := FindBin(db, &door, order.ID, nil, false)
	if !IsKind(err, KindNoPlacement) {
		t.Fatalf("expected no placement for door part, got %v", err)
	}
}

func TestFindBinFollowsRoutingRule(t *testing.T) {
	eng, db, _ := newTestEngine(t)
	order := seedWorkOrder(t, db, "WO-1")
	seedRack(t, eng, "Standard-A", models.RackTypeStandard, 2, 2)
	doors := seedRack(t, eng, "Doors-1", models.RackTypeDoorsAndFronts, 2, 2)

	rule := models.RoutingRule{Priority: 1, Keywords: "door", RackType: models.RackTypeDoorsAndFronts, Active: true}
	if err := eng.CreateRule(&rule); err != nil {
		t.Fatalf("rule: %v", err)
	}

	product := seedProduct(t, db, order.ID, "Cabinet")
	door := seedPart(t, db, order.ID, &product.ID, "Cabinet Door Left", "P-8", models.CategoryDoor, models.PartStatusCut)

	placement, err := FindBin(db, &door, order.ID, nil, false)
	if err != nil {
		t.Fatalf("find bin: %v", err)
	}
	if placement.RackID != doors.ID {
		t.Errorf("door routed to rack %d, want doors rack %d", placement.RackID, doors.ID)
	}
}

func TestFindBinHonorsPreferredRack(t *testing.T) {
	eng, db, _ := newTestEngine(t)
	order := seedWorkOrder(t, db, "WO-1")
	seedRack(t, eng, "Standard-A", models.RackTypeStandard, 2, 2)
	rackB := seedRack(t, eng, "Standard-B", models.RackTypeStandard, 2, 2)
	product := seedProduct(t, db, order.ID, "Cabinet")
	part := seedPart(t, db, order.ID, &product.ID, "Side Panel", "P-9", models.CategoryStandard, models.PartStatusCut)

	placement, err := FindBin(db, &part, order.ID, &rackB.ID, false)
	if err != nil {
		t.Fatalf("find bin: %v", err)
	}
	if placement.RackID != rackB.ID {
		t.Errorf("expected preferred rack %d, got %d", rackB.ID, placement.RackID)
	}
}

func TestFindBinForceAdmitsCart(t *testing.T) {
	eng, db, _ := newTestEngine(t)
	order := seedWorkOrder(t, db, "WO-1")
	standard := seedRack(t, eng, "Standard-A", models.RackTypeStandard, 2, 2)
	cart := seedRack(t, eng, "Cart-7", models.RackTypeCart, 1, 2)
	product := seedProduct(t, db, order.ID, "Cabinet")
	part := seedPart(t, db, order.ID, &product.ID, "Side Panel", "P-10", models.CategoryStandard, models.PartStatusCut)

	// Without force a type-mismatched preferred rack is ignored
	placement, err := FindBin(db, &part, order.ID, &cart.ID, false)
	if err != nil {
		t.Fatalf("find bin: %v", err)
	}
	if placement.RackID != standard.ID {
		t.Errorf("expected type match to win without force, got rack %d", placement.RackID)
	}

	placement, err = FindBin(db, &part, order.ID, &cart.ID, true)
	if err != nil {
		t.Fatalf("find bin forced: %v", err)
	}
	if placement.RackID != cart.ID {
		t.Errorf("expected forced cart %d, got rack %d", cart.ID, placement.RackID)
	}
}

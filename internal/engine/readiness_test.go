package engine

import (
	"testing"

	"github.com/millbrook-cnc/shopflow/internal/events"
	"github.com/millbrook-cnc/shopflow/internal/models"
	"gorm.io/gorm"
)

func seedSubassembly(t *testing.T, db *gorm.DB, productID uint, name string) models.Subassembly {
	t.Helper()
	sub := models.Subassembly{ProductID: productID, Name: name}
	if err := db.Create(&sub).Error; err != nil {
		t.Fatalf("subassembly %s: %v", name, err)
	}
	return sub
}

func TestReadinessFiresWhenLastStandardPartSorts(t *testing.T) {
	eng, db, sink := newTestEngine(t)
	order := seedWorkOrder(t, db, "WO-1")
	seedRack(t, eng, "Standard-A", models.RackTypeStandard, 2, 2)
	seedRack(t, eng, "Doors-1", models.RackTypeDoorsAndFronts, 2, 2)
	if err := eng.CreateRule(&models.RoutingRule{
		Priority: 1, Keywords: "door", RackType: models.RackTypeDoorsAndFronts, Active: true,
	}); err != nil {
		t.Fatalf("rule: %v", err)
	}

	product := seedProduct(t, db, order.ID, "Base Cabinet")
	seedPart(t, db, order.ID, &product.ID, "Left Side", "P-1", models.CategoryStandard, models.PartStatusCut)
	seedPart(t, db, order.ID, &product.ID, "Right Side", "P-2", models.CategoryStandard, models.PartStatusCut)
	seedPart(t, db, order.ID, &product.ID, "Cabinet Door", "P-3", models.CategoryDoor, models.PartStatusCut)

	// First standard part: not ready yet
	first, err := eng.SortPart(order.ID, "P-1", "sort-1", nil, false)
	if err != nil {
		t.Fatalf("sort p1: %v", err)
	}
	if len(first.ReadyProducts) != 0 {
		t.Errorf("product ready after 1 of 2 standard parts: %v", first.ReadyProducts)
	}

	// Second standard part completes the set; the door is filtered out
	// of the count and must not be required.
	second, err := eng.SortPart(order.ID, "P-2", "sort-1", nil, false)
	if err != nil {
		t.Fatalf("sort p2: %v", err)
	}
	if len(second.ReadyProducts) != 1 || second.ReadyProducts[0] != product.ID {
		t.Errorf("expected product %d ready, got %v", product.ID, second.ReadyProducts)
	}

	var reloaded models.Product
	if err := db.First(&reloaded, product.ID).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	if !reloaded.ReadyForAssembly {
		t.Error("ready flag not persisted")
	}
	if len(sink.byType(events.ProductReadyForAssemblyEvent)) != 1 {
		t.Error("expected exactly one readiness event")
	}

	// Sorting the door afterwards must not fire readiness again
	if _, err := eng.SortPart(order.ID, "P-3", "sort-1", nil, false); err != nil {
		t.Fatalf("sort door: %v", err)
	}
	if len(sink.byType(events.ProductReadyForAssemblyEvent)) != 1 {
		t.Error("readiness fired twice for one product")
	}
}

func TestCheckReadinessIsIdempotent(t *testing.T) {
	eng, db, sink := newTestEngine(t)
	order := seedWorkOrder(t, db, "WO-1")
	seedRack(t, eng, "Standard-A", models.RackTypeStandard, 2, 2)
	product := seedProduct(t, db, order.ID, "Cabinet")
	seedPart(t, db, order.ID, &product.ID, "Side Panel", "P-1", models.CategoryStandard, models.PartStatusCut)

	if _, err := eng.SortPart(order.ID, "P-1", "sort-1", nil, false); err != nil {
		t.Fatalf("sort: %v", err)
	}

	ready, err := eng.CheckReadiness(order.ID)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if len(ready) != 0 {
		t.Errorf("already-flagged product reported ready again: %v", ready)
	}
	if len(sink.byType(events.ProductReadyForAssemblyEvent)) != 1 {
		t.Error("expected a single readiness event overall")
	}
}

func TestReadinessCountsSubassemblyParts(t *testing.T) {
	eng, db, _ := newTestEngine(t)
	order := seedWorkOrder(t, db, "WO-1")
	seedRack(t, eng, "Standard-A", models.RackTypeStandard, 2, 2)
	product := seedProduct(t, db, order.ID, "Pantry")
	sub := seedSubassembly(t, db, product.ID, "Drawer Box")

	seedPart(t, db, order.ID, &product.ID, "Side Panel", "P-1", models.CategoryStandard, models.PartStatusCut)
	subPart := seedPart(t, db, order.ID, nil, "Drawer Bottom", "P-2", models.CategoryStandard, models.PartStatusCut)
	subPart.SubassemblyID = &sub.ID
	if err := db.Save(&subPart).Error; err != nil {
		t.Fatalf("attach subassembly part: %v", err)
	}

	result, err := eng.SortPart(order.ID, "P-1", "sort-1", nil, false)
	if err != nil {
		t.Fatalf("sort direct: %v", err)
	}
	if len(result.ReadyProducts) != 0 {
		t.Error("product ready while subassembly part unsorted")
	}

	result, err = eng.SortPart(order.ID, "P-2", "sort-1", nil, false)
	if err != nil {
		t.Fatalf("sort subassembly part: %v", err)
	}
	if len(result.ReadyProducts) != 1 {
		t.Errorf("expected readiness after subassembly part sorted, got %v", result.ReadyProducts)
	}
}

func TestReadinessSkipsProductsWithoutStandardParts(t *testing.T) {
	eng, db, _ := newTestEngine(t)
	order := seedWorkOrder(t, db, "WO-1")
	seedProduct(t, db, order.ID, "Hardware-only Product")

	ready, err := eng.CheckReadiness(order.ID)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if len(ready) != 0 {
		t.Errorf("product with zero standard parts must never be ready, got %v", ready)
	}
}

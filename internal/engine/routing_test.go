package engine

import (
	"testing"

	"github.com/millbrook-cnc/shopflow/internal/models"
)

func TestClassifyDefaultsToStandard(t *testing.T) {
	db := setupTestDB(t)

	rackType, err := Classify(db, "Left Side Panel")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if rackType != models.RackTypeStandard {
		t.Errorf("expected standard with no rules, got %s", rackType)
	}
}

func TestClassifyFirstMatchByPriority(t *testing.T) {
	eng, db, _ := newTestEngine(t)

	rules := []models.RoutingRule{
		{Priority: 2, Keywords: "panel", RackType: models.RackTypeAdjustableShelf, Active: true},
		{Priority: 1, Keywords: "door", RackType: models.RackTypeDoorsAndFronts, Active: true},
	}
	for i := range rules {
		if err := eng.CreateRule(&rules[i]); err != nil {
			t.Fatalf("rule: %v", err)
		}
	}

	// Both rules match this name; priority 1 must win regardless of
	// insertion order.
	rackType, err := Classify(db, "Door Panel Left")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if rackType != models.RackTypeDoorsAndFronts {
		t.Errorf("expected doors rack from priority 1, got %s", rackType)
	}
}

func TestClassifyIsCaseInsensitive(t *testing.T) {
	eng, db, _ := newTestEngine(t)

	rule := models.RoutingRule{Priority: 1, Keywords: "Adjustable Shelf", RackType: models.RackTypeAdjustableShelf, Active: true}
	if err := eng.CreateRule(&rule); err != nil {
		t.Fatalf("rule: %v", err)
	}

	rackType, err := Classify(db, "ADJUSTABLE SHELF 600mm")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if rackType != models.RackTypeAdjustableShelf {
		t.Errorf("expected shelf rack, got %s", rackType)
	}
}

func TestClassifyIgnoresInactiveRules(t *testing.T) {
	eng, db, _ := newTestEngine(t)

	rule := models.RoutingRule{Priority: 1, Keywords: "door", RackType: models.RackTypeDoorsAndFronts, Active: false}
	if err := eng.CreateRule(&rule); err != nil {
		t.Fatalf("rule: %v", err)
	}

	rackType, err := Classify(db, "Cabinet Door Left")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if rackType != models.RackTypeStandard {
		t.Errorf("inactive rule must not classify, got %s", rackType)
	}
}

func TestCreateRuleRejectsDuplicatePriority(t *testing.T) {
	eng, _, _ := newTestEngine(t)

	first := models.RoutingRule{Priority: 1, Keywords: "door", RackType: models.RackTypeDoorsAndFronts, Active: true}
	if err := eng.CreateRule(&first); err != nil {
		t.Fatalf("first rule: %v", err)
	}

	dup := models.RoutingRule{Priority: 1, Keywords: "shelf", RackType: models.RackTypeAdjustableShelf, Active: true}
	err := eng.CreateRule(&dup)
	if !IsKind(err, KindDuplicatePriority) {
		t.Fatalf("expected duplicate priority error, got %v", err)
	}
}

func TestCreateRuleStoresInactiveFlag(t *testing.T) {
	eng, db, _ := newTestEngine(t)

	rule := models.RoutingRule{Priority: 1, Keywords: "door", RackType: models.RackTypeDoorsAndFronts, Active: false}
	if err := eng.CreateRule(&rule); err != nil {
		t.Fatalf("rule: %v", err)
	}

	var saved models.RoutingRule
	if err := db.First(&saved, rule.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if saved.Active {
		t.Fatal("rule created inactive was stored active")
	}
}

func TestInactiveRuleMaySharePriority(t *testing.T) {
	eng, db, _ := newTestEngine(t)

	active := models.RoutingRule{Priority: 1, Keywords: "door", RackType: models.RackTypeDoorsAndFronts, Active: true}
	if err := eng.CreateRule(&active); err != nil {
		t.Fatalf("active rule: %v", err)
	}

	inactive := models.RoutingRule{Priority: 1, Keywords: "shelf", RackType: models.RackTypeAdjustableShelf, Active: false}
	if err := eng.CreateRule(&inactive); err != nil {
		t.Fatalf("inactive rule should not collide: %v", err)
	}

	// The stored rows must reflect the flags: exactly one active rule
	// may hold priority 1.
	var activeCount int64
	if err := db.Model(&models.RoutingRule{}).
		Where("active = ? AND priority = ?", true, 1).
		Count(&activeCount).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if activeCount != 1 {
		t.Fatalf("%d active rules at priority 1, want 1", activeCount)
	}
}

func TestReactivatingRuleRechecksPriority(t *testing.T) {
	eng, _, _ := newTestEngine(t)

	active := models.RoutingRule{Priority: 1, Keywords: "door", RackType: models.RackTypeDoorsAndFronts, Active: true}
	if err := eng.CreateRule(&active); err != nil {
		t.Fatalf("active rule: %v", err)
	}
	parked := models.RoutingRule{Priority: 1, Keywords: "shelf", RackType: models.RackTypeAdjustableShelf, Active: false}
	if err := eng.CreateRule(&parked); err != nil {
		t.Fatalf("inactive rule: %v", err)
	}

	// Re-enabling the parked rule would put two active rules on the same
	// priority, so the update must be refused.
	parked.Active = true
	err := eng.UpdateRule(&parked)
	if !IsKind(err, KindDuplicatePriority) {
		t.Fatalf("expected duplicate priority on reactivation, got %v", err)
	}
}

func TestCreateRuleRejectsDuplicateKeyword(t *testing.T) {
	eng, _, _ := newTestEngine(t)

	rule := models.RoutingRule{Priority: 1, Keywords: "door, front, door", RackType: models.RackTypeDoorsAndFronts, Active: true}
	err := eng.CreateRule(&rule)
	if !IsKind(err, KindDuplicateKeyword) {
		t.Fatalf("expected duplicate keyword error, got %v", err)
	}
}

func TestUpdateRule(t *testing.T) {
	eng, db, _ := newTestEngine(t)

	rule := models.RoutingRule{Priority: 1, Keywords: "door", RackType: models.RackTypeDoorsAndFronts, Active: true}
	if err := eng.CreateRule(&rule); err != nil {
		t.Fatalf("rule: %v", err)
	}

	rule.Keywords = "door,front"
	if err := eng.UpdateRule(&rule); err != nil {
		t.Fatalf("update: %v", err)
	}

	var saved models.RoutingRule
	if err := db.First(&saved, rule.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if saved.Keywords != "door,front" {
		t.Errorf("keywords not saved, got %q", saved.Keywords)
	}
}

func TestUpdateRuleNotFound(t *testing.T) {
	eng, _, _ := newTestEngine(t)

	ghost := models.RoutingRule{ID: 999, Priority: 5, Keywords: "x", RackType: models.RackTypeStandard, Active: true}
	err := eng.UpdateRule(&ghost)
	if !IsKind(err, KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBinLabel(t *testing.T) {
	assert.Equal(t, "A01", BinLabel(0, 0))
	assert.Equal(t, "A12", BinLabel(0, 11))
	assert.Equal(t, "C05", BinLabel(2, 4))
	assert.Equal(t, "Z01", BinLabel(25, 0))
}

func TestCapacityForType(t *testing.T) {
	assert.Equal(t, StandardBinCapacity, CapacityForType(RackTypeStandard))
	assert.Equal(t, StandardBinCapacity, CapacityForType(RackTypeCart))
	assert.Equal(t, DoorsBinCapacity, CapacityForType(RackTypeDoorsAndFronts))
}

func TestBinRecomputeStatus(t *testing.T) {
	bin := Bin{MaxCapacity: 2}

	bin.RecomputeStatus()
	assert.Equal(t, BinStatusEmpty, bin.Status)

	bin.PartsCount = 1
	bin.RecomputeStatus()
	assert.Equal(t, BinStatusPartial, bin.Status)

	bin.PartsCount = 2
	bin.RecomputeStatus()
	assert.Equal(t, BinStatusFull, bin.Status)

	// Manual overrides survive recomputation until released
	bin.Status = BinStatusBlocked
	bin.PartsCount = 0
	bin.RecomputeStatus()
	assert.Equal(t, BinStatusBlocked, bin.Status)
}

func TestBinResetKeepsOverride(t *testing.T) {
	orderID, productID := uint(1), uint(2)
	bin := Bin{
		Status:      BinStatusReserved,
		WorkOrderID: &orderID,
		ProductID:   &productID,
		PartsCount:  3,
		MaxCapacity: 50,
	}
	bin.Reset()
	assert.Equal(t, BinStatusReserved, bin.Status)
	assert.Nil(t, bin.WorkOrderID)
	assert.Nil(t, bin.ProductID)
	assert.Zero(t, bin.PartsCount)
}

func TestBinOccupancyPercent(t *testing.T) {
	bin := Bin{PartsCount: 10, MaxCapacity: 50}
	assert.InDelta(t, 20.0, bin.OccupancyPercent(), 0.001)
	assert.InDelta(t, 80.0, bin.CapacityPercent(), 0.001)

	empty := Bin{MaxCapacity: 0}
	assert.Zero(t, empty.OccupancyPercent())
}

func TestRoutingRuleKeywordList(t *testing.T) {
	rule := RoutingRule{Keywords: " door , front ,, drawer front "}
	assert.Equal(t, []string{"door", "front", "drawer front"}, rule.KeywordList())
}

func TestRoutingRuleMatches(t *testing.T) {
	rule := RoutingRule{Keywords: "door,drawer front"}
	assert.True(t, rule.Matches("Cabinet Door Left"))
	assert.True(t, rule.Matches("DRAWER FRONT 600"))
	assert.False(t, rule.Matches("Side Panel"))

	empty := RoutingRule{Keywords: "  ,  "}
	assert.False(t, empty.Matches("door"))
}

func TestPartCategoryIsFiltered(t *testing.T) {
	assert.False(t, CategoryStandard.IsFiltered())
	assert.True(t, CategoryDoor.IsFiltered())
	assert.True(t, CategoryDrawerFront.IsFiltered())
	assert.True(t, CategoryAdjustableShelf.IsFiltered())
}

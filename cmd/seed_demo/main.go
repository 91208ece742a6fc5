package main

import (
	"fmt"
	"log"
	"time"

	"github.com/millbrook-cnc/shopflow/internal/config"
	"github.com/millbrook-cnc/shopflow/internal/database"
	"github.com/millbrook-cnc/shopflow/internal/engine"
	"github.com/millbrook-cnc/shopflow/internal/events"
	"github.com/millbrook-cnc/shopflow/internal/models"
	"github.com/shopspring/decimal"
)

func main() {
	fmt.Println("🌱 shopflow Demo Data Seeder")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()

	fmt.Println("✅ Connected to database")

	fmt.Println("🔨 Running database migrations...")
	err = db.AutoMigrate(
		&models.StationUser{},
		&models.WorkOrder{},
		&models.StorageRack{},
		&models.Bin{},
		&models.Product{},
		&models.Subassembly{},
		&models.Part{},
		&models.Hardware{},
		&models.DetachedProduct{},
		&models.NestSheet{},
		&models.RoutingRule{},
		&models.AuditLog{},
	)
	if err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}
	fmt.Println("✅ Migrations complete")

	var orderCount int64
	db.Model(&models.WorkOrder{}).Count(&orderCount)
	if orderCount > 0 {
		fmt.Printf("⚠️  Database already has %d work orders. Aborting.\n", orderCount)
		return
	}

	eng := engine.New(db.DB, events.NopSink{})

	// Racks
	racks := []models.StorageRack{
		{Name: "Standard-A", Type: models.RackTypeStandard, Rows: 4, Columns: 8, Active: true},
		{Name: "Standard-B", Type: models.RackTypeStandard, Rows: 4, Columns: 8, Active: true},
		{Name: "Doors-1", Type: models.RackTypeDoorsAndFronts, Rows: 3, Columns: 6, Active: true},
		{Name: "Shelves-1", Type: models.RackTypeAdjustableShelf, Rows: 2, Columns: 6, Active: true},
		{Name: "Cart-7", Type: models.RackTypeCart, Rows: 2, Columns: 4, Active: true, Portable: true},
	}
	for i := range racks {
		if err := eng.CreateRack(&racks[i]); err != nil {
			log.Fatalf("❌ Failed to create rack %s: %v", racks[i].Name, err)
		}
	}
	fmt.Printf("✅ Created %d racks\n", len(racks))

	// Routing rules
	rules := []models.RoutingRule{
		{Priority: 1, Name: "Doors and fronts", Keywords: "door,front", RackType: models.RackTypeDoorsAndFronts, Active: true},
		{Priority: 2, Name: "Adjustable shelves", Keywords: "adjustable shelf,adj shelf", RackType: models.RackTypeAdjustableShelf, Active: true},
	}
	for i := range rules {
		if err := eng.CreateRule(&rules[i]); err != nil {
			log.Fatalf("❌ Failed to create rule: %v", err)
		}
	}
	fmt.Printf("✅ Created %d routing rules\n", len(rules))

	// Work order with one kitchen run
	order := models.WorkOrder{Name: "WO-2025-0042", Active: true, ImportedAt: time.Now()}
	if err := db.Create(&order).Error; err != nil {
		log.Fatalf("❌ Failed to create work order: %v", err)
	}

	sheet := models.NestSheet{
		WorkOrderID: order.ID,
		Name:        "Sheet-001",
		Barcode:     "NS-001",
		Material:    "19mm Birch Ply",
	}
	if err := db.Create(&sheet).Error; err != nil {
		log.Fatalf("❌ Failed to create nest sheet: %v", err)
	}

	product := models.Product{
		WorkOrderID: order.ID,
		ItemNumber:  "B24",
		Name:        "Base Cabinet 24in",
		Status:      models.ProductStatusPending,
	}
	if err := db.Create(&product).Error; err != nil {
		log.Fatalf("❌ Failed to create product: %v", err)
	}

	dim := func(v string) decimal.Decimal {
		d, _ := decimal.NewFromString(v)
		return d
	}

	parts := []models.Part{
		{WorkOrderID: order.ID, ProductID: &product.ID, NestSheetID: &sheet.ID,
			Name: "Left Side Panel", Barcode: "P-0001", Material: "19mm Birch Ply",
			Length: dim("762.0"), Width: dim("584.2"), Thickness: dim("19.0"),
			Category: models.CategoryStandard},
		{WorkOrderID: order.ID, ProductID: &product.ID, NestSheetID: &sheet.ID,
			Name: "Right Side Panel", Barcode: "P-0002", Material: "19mm Birch Ply",
			Length: dim("762.0"), Width: dim("584.2"), Thickness: dim("19.0"),
			Category: models.CategoryStandard},
		{WorkOrderID: order.ID, ProductID: &product.ID, NestSheetID: &sheet.ID,
			Name: "Bottom Deck", Barcode: "P-0003", Material: "19mm Birch Ply",
			Length: dim("571.5"), Width: dim("584.2"), Thickness: dim("19.0"),
			Category: models.CategoryStandard},
		{WorkOrderID: order.ID, ProductID: &product.ID, NestSheetID: &sheet.ID,
			Name: "Cabinet Door Left", Barcode: "P-0004", Material: "19mm MDF",
			Length: dim("715.0"), Width: dim("297.0"), Thickness: dim("19.0"),
			Category: models.CategoryDoor},
	}
	if err := db.Create(&parts).Error; err != nil {
		log.Fatalf("❌ Failed to create parts: %v", err)
	}

	hardware := []models.Hardware{
		{WorkOrderID: order.ID, ProductID: &product.ID, Name: "Euro Hinge 110deg", Barcode: "H-0001", Quantity: 2},
		{WorkOrderID: order.ID, ProductID: &product.ID, Name: "Euro Hinge 110deg", Barcode: "H-0002", Quantity: 2},
	}
	if err := db.Create(&hardware).Error; err != nil {
		log.Fatalf("❌ Failed to create hardware: %v", err)
	}

	fmt.Printf("✅ Seeded work order %s: 1 product, %d parts, %d hardware\n",
		order.Name, len(parts), len(hardware))
	fmt.Println("🎉 Done. Scan NS-001 in cut mode to begin.")
}

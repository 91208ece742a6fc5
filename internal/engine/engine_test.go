package engine

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/millbrook-cnc/shopflow/internal/events"
	"github.com/millbrook-cnc/shopflow/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	// Shared-cache sqlite returns "table is locked" under concurrent
	// connections; one connection serializes access without changing
	// the engine's own locking behaviour.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(
		&models.StationUser{}, &models.WorkOrder{}, &models.StorageRack{},
		&models.Bin{}, &models.Product{}, &models.Subassembly{}, &models.Part{},
		&models.Hardware{}, &models.DetachedProduct{}, &models.NestSheet{},
		&models.RoutingRule{}, &models.AuditLog{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// captureSink records published events for assertions
type captureSink struct {
	mu     sync.Mutex
	events []events.Event
}

func (s *captureSink) Publish(e events.Event) {
	s.mu.Lock()
	s.events = append(s.events, e)
	s.mu.Unlock()
}

func (s *captureSink) byType(eventType string) []events.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []events.Event
	for _, e := range s.events {
		if e.Type() == eventType {
			out = append(out, e)
		}
	}
	return out
}

func newTestEngine(t *testing.T) (*Engine, *gorm.DB, *captureSink) {
	t.Helper()
	db := setupTestDB(t)
	sink := &captureSink{}
	return New(db, sink), db, sink
}

func seedWorkOrder(t *testing.T, db *gorm.DB, name string) models.WorkOrder {
	t.Helper()
	order := models.WorkOrder{Name: name, Active: true, ImportedAt: time.Now()}
	if err := db.Create(&order).Error; err != nil {
		t.Fatalf("work order: %v", err)
	}
	return order
}

func seedRack(t *testing.T, eng *Engine, name string, rackType models.RackType, rows, cols int) models.StorageRack {
	t.Helper()
	rack := models.StorageRack{Name: name, Type: rackType, Rows: rows, Columns: cols, Active: true}
	if err := eng.CreateRack(&rack); err != nil {
		t.Fatalf("rack %s: %v", name, err)
	}
	return rack
}

func seedProduct(t *testing.T, db *gorm.DB, orderID uint, name string) models.Product {
	t.Helper()
	product := models.Product{WorkOrderID: orderID, Name: name, Status: models.ProductStatusPending}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("product %s: %v", name, err)
	}
	return product
}

func seedPart(t *testing.T, db *gorm.DB, orderID uint, productID *uint, name, barcode string, category models.PartCategory, status models.PartStatus) models.Part {
	t.Helper()
	part := models.Part{
		WorkOrderID: orderID,
		ProductID:   productID,
		Name:        name,
		Barcode:     barcode,
		Category:    category,
		Status:      status,
	}
	if err := db.Create(&part).Error; err != nil {
		t.Fatalf("part %s: %v", name, err)
	}
	return part
}

func getBin(t *testing.T, db *gorm.DB, binID uint) models.Bin {
	t.Helper()
	var bin models.Bin
	if err := db.First(&bin, binID).Error; err != nil {
		t.Fatalf("bin %d: %v", binID, err)
	}
	return bin
}

func getPart(t *testing.T, db *gorm.DB, partID uint) models.Part {
	t.Helper()
	var part models.Part
	if err := db.First(&part, partID).Error; err != nil {
		t.Fatalf("part %d: %v", partID, err)
	}
	return part
}

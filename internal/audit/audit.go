package audit

import (
	"encoding/json"
	"log"

	"github.com/millbrook-cnc/shopflow/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Entry describes one workflow transition for the immutable trail
type Entry struct {
	Action      string
	EntityType  string
	EntityID    uint
	OldValue    string
	NewValue    string
	Station     string
	WorkOrderID uint
	Details     map[string]interface{}
}

// Append writes an audit record inside the caller's transaction so the
// trail commits or rolls back together with the transition it records.
func Append(tx *gorm.DB, e Entry) error {
	var details datatypes.JSON
	if len(e.Details) > 0 {
		raw, err := json.Marshal(e.Details)
		if err != nil {
			log.Printf("audit: dropping unmarshalable details for %s: %v", e.Action, err)
		} else {
			details = raw
		}
	}

	rec := models.AuditLog{
		Action:      e.Action,
		EntityType:  e.EntityType,
		EntityID:    e.EntityID,
		OldValue:    e.OldValue,
		NewValue:    e.NewValue,
		Station:     e.Station,
		WorkOrderID: e.WorkOrderID,
		Details:     details,
	}
	return tx.Create(&rec).Error
}

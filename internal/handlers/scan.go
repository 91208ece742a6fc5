package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/millbrook-cnc/shopflow/internal/engine"
)

// ScanRequest represents the payload from a scanner station
type ScanRequest struct {
	Barcode         string `json:"barcode"`
	Station         string `json:"station"`
	Mode            string `json:"mode"` // cut, sort, assembly, shipping, remove, lookup
	WorkOrderID     uint   `json:"work_order_id"`
	PreferredRackID *uint  `json:"preferred_rack_id,omitempty"`
	ForceRack       bool   `json:"force_rack,omitempty"`
}

// ScanResponse standardizes the scan result
type ScanResponse struct {
	Mode    string      `json:"mode"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// handleScan is the universal entry point for all barcode scans. The
// station's mode decides which workflow transition the scan drives.
func (r *Router) handleScan(w http.ResponseWriter, req *http.Request) {
	var body ScanRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	barcode := strings.TrimSpace(body.Barcode)
	if barcode == "" {
		respondError(w, http.StatusBadRequest, "Empty barcode")
		return
	}
	if body.WorkOrderID == 0 {
		respondError(w, http.StatusBadRequest, "work_order_id is required")
		return
	}

	// Duplicate scans inside the window are no-op rejections; operators
	// habitually double-trigger the scanner.
	if r.debounce.isDuplicate(body.Station, barcode) {
		respondError(w, http.StatusTooManyRequests, "Duplicate scan ignored")
		return
	}

	var data interface{}
	var message string
	var err error

	switch body.Mode {
	case "cut":
		var res *engine.CutResult
		res, err = r.engine.ProcessNestSheetScan(body.WorkOrderID, barcode, body.Station)
		if res != nil {
			data, message = res, res.Message
		}
	case "sort", "":
		var res *engine.SortResult
		res, err = r.engine.SortPart(body.WorkOrderID, barcode, body.Station, body.PreferredRackID, body.ForceRack)
		if res != nil {
			data, message = res, res.Message
		}
	case "assembly":
		var res *engine.AssembleResult
		res, err = r.engine.AssembleByPartScan(body.WorkOrderID, barcode, body.Station)
		if res != nil {
			data, message = res, res.Message
		}
	case "shipping":
		var res *engine.ShipResult
		res, err = r.engine.ShipScan(body.WorkOrderID, barcode, body.Station)
		if res != nil {
			data, message = res, res.Message
		}
	case "remove":
		var res *engine.RemoveResult
		res, err = r.engine.RemovePart(body.WorkOrderID, barcode, body.Station)
		if res != nil {
			data, message = res, res.Message
		}
	case "lookup":
		var target *engine.ScanTarget
		target, err = engine.ResolveBarcode(r.db.DB, body.WorkOrderID, barcode)
		if target != nil {
			data, message = target, "Barcode resolved to "+target.Kind.String()
		}
	default:
		respondError(w, http.StatusBadRequest, "Unknown scan mode: "+body.Mode)
		return
	}

	if err != nil {
		// A failed scan should be retryable immediately after the
		// operator fixes the cause
		r.debounce.forget(body.Station, barcode)
		respondEngineError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, ScanResponse{
		Mode:    body.Mode,
		Message: message,
		Data:    data,
	})
}

// scanDebouncer rejects repeats of the same barcode from the same
// station within a short window
type scanDebouncer struct {
	mu     sync.Mutex
	window time.Duration
	seen   map[string]time.Time
}

func newScanDebouncer(window time.Duration) *scanDebouncer {
	return &scanDebouncer{
		window: window,
		seen:   make(map[string]time.Time),
	}
}

func (d *scanDebouncer) isDuplicate(station, barcode string) bool {
	if d.window <= 0 {
		return false
	}
	key := station + "|" + barcode
	now := time.Now()

	d.mu.Lock()
	defer d.mu.Unlock()

	// Opportunistic prune of expired entries
	for k, t := range d.seen {
		if now.Sub(t) > d.window {
			delete(d.seen, k)
		}
	}

	if t, ok := d.seen[key]; ok && now.Sub(t) <= d.window {
		return true
	}
	d.seen[key] = now
	return false
}

func (d *scanDebouncer) forget(station, barcode string) {
	d.mu.Lock()
	delete(d.seen, station+"|"+barcode)
	d.mu.Unlock()
}

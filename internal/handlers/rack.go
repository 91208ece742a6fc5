package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/millbrook-cnc/shopflow/internal/models"
	"github.com/millbrook-cnc/shopflow/internal/services/printer"
)

// binView augments a bin with its derived reporting percentages
type binView struct {
	models.Bin
	OccupancyPercent float64 `json:"occupancy_percent"`
	CapacityPercent  float64 `json:"capacity_percent"`
}

func toBinViews(bins []models.Bin) []binView {
	views := make([]binView, len(bins))
	for i, b := range bins {
		views[i] = binView{
			Bin:              b,
			OccupancyPercent: b.OccupancyPercent(),
			CapacityPercent:  b.CapacityPercent(),
		}
	}
	return views
}

// listWorkOrders returns all work orders
func (r *Router) listWorkOrders(w http.ResponseWriter, req *http.Request) {
	var orders []models.WorkOrder
	if err := r.db.Order("imported_at DESC").Find(&orders).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch work orders")
		return
	}
	respondJSON(w, http.StatusOK, orders)
}

// listRacks returns all racks
func (r *Router) listRacks(w http.ResponseWriter, req *http.Request) {
	var racks []models.StorageRack
	if err := r.db.Find(&racks).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch racks")
		return
	}
	respondJSON(w, http.StatusOK, racks)
}

// getRack returns a rack with its bin grid and derived percentages
func (r *Router) getRack(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)
	id, _ := strconv.ParseUint(vars["id"], 10, 64)

	var rack models.StorageRack
	if err := r.db.First(&rack, id).Error; err != nil {
		respondError(w, http.StatusNotFound, "Rack not found")
		return
	}
	var bins []models.Bin
	if err := r.db.Where("rack_id = ?", rack.ID).
		Order("\"row\" ASC, \"column\" ASC").Find(&bins).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch bins")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"rack": rack,
		"bins": toBinViews(bins),
	})
}

// createRack creates a rack and its bin grid. A payload that omits
// "active" gets an active rack; an explicit false is stored as given.
func (r *Router) createRack(w http.ResponseWriter, req *http.Request) {
	var body struct {
		models.StorageRack
		Active *bool `json:"active"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	rack := body.StorageRack
	rack.Active = body.Active == nil || *body.Active
	if err := r.engine.CreateRack(&rack); err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, rack)
}

// resizeRack recreates the bin grid with new dimensions
func (r *Router) resizeRack(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)
	id, _ := strconv.ParseUint(vars["id"], 10, 64)

	var body struct {
		Rows    int    `json:"rows"`
		Columns int    `json:"columns"`
		Station string `json:"station"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid payload")
		return
	}

	if err := r.engine.ResizeRack(uint(id), body.Rows, body.Columns, body.Station); err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "resized"})
}

// rackLabels streams a printable PDF of QR labels for the rack's bins
func (r *Router) rackLabels(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)
	id, _ := strconv.ParseUint(vars["id"], 10, 64)

	var rack models.StorageRack
	if err := r.db.First(&rack, id).Error; err != nil {
		respondError(w, http.StatusNotFound, "Rack not found")
		return
	}
	var bins []models.Bin
	if err := r.db.Where("rack_id = ?", rack.ID).
		Order("\"row\" ASC, \"column\" ASC").Find(&bins).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch bins")
		return
	}

	pdf, err := printer.GenerateBinLabelsPDF(&rack, bins, printer.DefaultSheetConfig())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to generate labels")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", rack.Name+"-labels.pdf"))
	w.Write(pdf)
}

// blockBin marks a bin unusable
func (r *Router) blockBin(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)
	id, _ := strconv.ParseUint(vars["id"], 10, 64)

	var body struct {
		Reason  string `json:"reason"`
		Station string `json:"station"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	if err := r.engine.BlockBin(uint(id), body.Reason, body.Station); err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "blocked"})
}

// reserveBin holds a bin for manual use
func (r *Router) reserveBin(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)
	id, _ := strconv.ParseUint(vars["id"], 10, 64)

	var body struct {
		Station string `json:"station"`
	}
	json.NewDecoder(req.Body).Decode(&body)

	if err := r.engine.ReserveBin(uint(id), body.Station); err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "reserved"})
}

// releaseBin removes a block/reserve override
func (r *Router) releaseBin(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)
	id, _ := strconv.ParseUint(vars["id"], 10, 64)

	var body struct {
		Station string `json:"station"`
	}
	json.NewDecoder(req.Body).Decode(&body)

	if err := r.engine.ReleaseBin(uint(id), body.Station); err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "released"})
}

// clearBin reverts every sorted part in the bin to cut
func (r *Router) clearBin(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)
	id, _ := strconv.ParseUint(vars["id"], 10, 64)

	var body struct {
		WorkOrderID uint   `json:"work_order_id"`
		Station     string `json:"station"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid payload")
		return
	}

	result, err := r.engine.ClearBin(body.WorkOrderID, uint(id), body.Station)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/millbrook-cnc/shopflow/internal/models"
)

// listRules returns all routing rules ordered by priority
func (r *Router) listRules(w http.ResponseWriter, req *http.Request) {
	var rules []models.RoutingRule
	if err := r.db.Order("priority ASC").Find(&rules).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch rules")
		return
	}
	respondJSON(w, http.StatusOK, rules)
}

// createRule inserts a routing rule. Omitting "active" in the payload
// creates an active rule; an explicit false is stored as given.
func (r *Router) createRule(w http.ResponseWriter, req *http.Request) {
	var body struct {
		models.RoutingRule
		Active *bool `json:"active"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	rule := body.RoutingRule
	rule.Active = body.Active == nil || *body.Active
	if err := r.engine.CreateRule(&rule); err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, rule)
}

// updateRule saves changes to an existing rule
func (r *Router) updateRule(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)
	id, _ := strconv.ParseUint(vars["id"], 10, 64)

	var rule models.RoutingRule
	if err := json.NewDecoder(req.Body).Decode(&rule); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	rule.ID = uint(id)

	if err := r.engine.UpdateRule(&rule); err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rule)
}

// listAudit returns the transition trail, optionally scoped to one
// work order
func (r *Router) listAudit(w http.ResponseWriter, req *http.Request) {
	q := r.db.Order("created_at DESC").Limit(500)
	if wo := req.URL.Query().Get("work_order_id"); wo != "" {
		id, err := strconv.ParseUint(wo, 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid work_order_id")
			return
		}
		q = q.Where("work_order_id = ?", id)
	}

	var entries []models.AuditLog
	if err := q.Find(&entries).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch audit log")
		return
	}
	respondJSON(w, http.StatusOK, entries)
}

package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/millbrook-cnc/shopflow/internal/buildinfo"
	"github.com/millbrook-cnc/shopflow/internal/config"
	"github.com/millbrook-cnc/shopflow/internal/database"
	"github.com/millbrook-cnc/shopflow/internal/engine"
	"github.com/millbrook-cnc/shopflow/internal/middleware"
	"github.com/millbrook-cnc/shopflow/internal/notify"
)

// Router wraps the mux router with the database, engine, and hub
type Router struct {
	*mux.Router
	db     *database.DB
	engine *engine.Engine
	hub    *notify.Hub
	cfg    *config.Config

	debounce *scanDebouncer
}

// NewRouter creates a new HTTP router with all routes
func NewRouter(db *database.DB, eng *engine.Engine, hub *notify.Hub, cfg *config.Config) *Router {
	r := &Router{
		Router:   mux.NewRouter(),
		db:       db,
		engine:   eng,
		hub:      hub,
		cfg:      cfg,
		debounce: newScanDebouncer(cfg.Scan.DebounceWindow),
	}

	// Health check endpoint
	r.HandleFunc("/health", r.healthCheck).Methods("GET")

	// Auth routes
	auth := r.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/login", r.login).Methods("POST")
	auth.HandleFunc("/register", r.register).Methods("POST")

	// Station notification stream
	r.HandleFunc("/ws", func(w http.ResponseWriter, req *http.Request) {
		notify.ServeWs(hub, w, req)
	})

	// Protected API routes
	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.Auth(cfg.JWTSecret))

	api.HandleFunc("/scan", r.handleScan).Methods("POST")

	api.HandleFunc("/workorders", r.listWorkOrders).Methods("GET")

	api.HandleFunc("/racks", r.listRacks).Methods("GET")
	api.HandleFunc("/racks", r.createRack).Methods("POST")
	api.HandleFunc("/racks/{id}", r.getRack).Methods("GET")
	api.HandleFunc("/racks/{id}/resize", r.resizeRack).Methods("POST")
	api.HandleFunc("/racks/{id}/labels.pdf", r.rackLabels).Methods("GET")

	api.HandleFunc("/bins/{id}/block", r.blockBin).Methods("POST")
	api.HandleFunc("/bins/{id}/reserve", r.reserveBin).Methods("POST")
	api.HandleFunc("/bins/{id}/release", r.releaseBin).Methods("POST")
	api.HandleFunc("/bins/{id}/clear", r.clearBin).Methods("POST")

	api.HandleFunc("/rules", r.listRules).Methods("GET")
	api.HandleFunc("/rules", r.createRule).Methods("POST")
	api.HandleFunc("/rules/{id}", r.updateRule).Methods("PUT")

	api.HandleFunc("/audit", r.listAudit).Methods("GET")

	return r
}

// healthCheck returns the health status of the API
func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"commit": buildinfo.CommitHash,
	})
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// respondEngineError maps typed engine rejections to HTTP statuses;
// anything untyped is an internal error
func respondEngineError(w http.ResponseWriter, err error) {
	kind := engine.KindOf(err)
	status := http.StatusBadRequest
	switch kind {
	case engine.KindNotFound:
		status = http.StatusNotFound
	case engine.KindAlreadyProcessed, engine.KindConflict,
		engine.KindDuplicatePriority, engine.KindDuplicateKeyword:
		status = http.StatusConflict
	case 0:
		status = http.StatusInternalServerError
	}
	respondJSON(w, status, map[string]string{
		"error": err.Error(),
		"kind":  kind.String(),
	})
}

package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/aquaruse/laundrygo/internal/alerts"
	"github.com/aquaruse/laundrygo/internal/cache"
	"github.com/aquaruse/laundrygo/internal/config"
	"github.com/aquaruse/laundrygo/internal/gateway"
	"github.com/aquaruse/laundrygo/internal/inventory"
	"github.com/aquaruse/laundrygo/internal/middleware"
	"github.com/aquaruse/laundrygo/internal/notify"
	"github.com/gorilla/mux"
)

// Router wraps the mux router and the core components
type Router struct {
	*mux.Router
	cfg      *config.Config
	cache    *cache.Cache
	engine   *inventory.Engine
	gateway  *gateway.Gateway
	throttle *notify.Throttle
	hub      *alerts.Hub
}

// NewRouter creates a new HTTP router with all routes
func NewRouter(cfg *config.Config, c *cache.Cache, engine *inventory.Engine, gw *gateway.Gateway, throttle *notify.Throttle, hub *alerts.Hub) *Router {
	r := &Router{
		Router:   mux.NewRouter(),
		cfg:      cfg,
		cache:    c,
		engine:   engine,
		gateway:  gw,
		throttle: throttle,
		hub:      hub,
	}

	// Health check endpoint
	r.HandleFunc("/health", r.healthCheck).Methods("GET")

	// Auth routes
	auth := r.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/login", r.login).Methods("POST")
	auth.HandleFunc("/change_password", r.changePassword).Methods("POST")

	// API routes (protected)
	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.Auth(cfg.JWTSecret))

	api.HandleFunc("/orders", r.listOrders).Methods("GET")
	api.HandleFunc("/orders", r.createOrder).Methods("POST")
	api.HandleFunc("/orders/{id}", r.updateOrder).Methods("PUT")

	api.HandleFunc("/customers", r.listCustomers).Methods("GET")
	api.HandleFunc("/customers/search", r.searchCustomers).Methods("GET")

	api.HandleFunc("/supplies", r.getSupplies).Methods("GET")
	api.HandleFunc("/supplies", r.updateSupplies).Methods("PUT")
	api.HandleFunc("/supplies/check", r.checkSufficiency).Methods("POST")

	api.HandleFunc("/staff", r.listStaff).Methods("GET")
	api.HandleFunc("/staff", r.createStaff).Methods("POST")
	api.HandleFunc("/staff/{id}", r.updateStaff).Methods("PUT")
	api.HandleFunc("/staff/{id}", r.deleteStaff).Methods("DELETE")

	api.HandleFunc("/sync/status", r.syncStatus).Methods("GET")
	api.HandleFunc("/sync/replay", r.replayOffline).Methods("POST")

	api.HandleFunc("/admin/clear_all_data", r.clearAllData).Methods("POST")
	api.HandleFunc("/admin/reset_to_sample_data", r.resetToSampleData).Methods("POST")

	// Dashboard alert stream
	r.HandleFunc("/ws", func(w http.ResponseWriter, req *http.Request) {
		alerts.ServeWs(hub, w, req)
	})

	return r
}

// healthCheck returns the health status of the local server
func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"status":    "ok",
		"server":    "local",
		"instance":  r.cfg.InstanceID,
		"connected": r.gateway.IsConnected(),
	})
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondData wraps a payload in the uniform success envelope
func respondData(w http.ResponseWriter, status int, data interface{}) {
	respondJSON(w, status, map[string]interface{}{
		"success": true,
		"data":    data,
	})
}

// respondMessage sends a success envelope with a message only
func respondMessage(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]interface{}{
		"success": true,
		"message": message,
	})
}

// respondError sends an error response in the uniform envelope
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}

package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/aquaruse/laundrygo/internal/models"
	"github.com/aquaruse/laundrygo/internal/notify"
)

// getSupplies returns current supply quantities
func (r *Router) getSupplies(w http.ResponseWriter, req *http.Request) {
	respondData(w, http.StatusOK, r.cache.GetSupplies())
}

// updateSupplies merges a partial supply update (e.g. a restock)
func (r *Router) updateSupplies(w http.ResponseWriter, req *http.Request) {
	var partial map[string]int
	if err := json.NewDecoder(req.Body).Decode(&partial); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid payload")
		return
	}

	for key := range partial {
		if _, known := models.SupplyLabels[key]; !known {
			respondError(w, http.StatusBadRequest, "Unknown supply: "+key)
			return
		}
	}

	if err := r.cache.UpdateSupplies(partial); err != nil {
		// State is applied in memory; only the durable write failed
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data":    r.cache.GetSupplies(),
			"message": "Supplies updated, but local persistence failed",
		})
		return
	}

	r.emitStockAlerts(notify.Classify(r.cache.GetSupplies()))
	respondData(w, http.StatusOK, r.cache.GetSupplies())
}

// sufficiencyRequest asks whether an order would fit current stock
type sufficiencyRequest struct {
	ServiceType string `json:"service_type"`
	LoadCount   int    `json:"kg"`
}

// checkSufficiency runs a read-only sufficiency check
func (r *Router) checkSufficiency(w http.ResponseWriter, req *http.Request) {
	var payload sufficiencyRequest
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	if payload.LoadCount <= 0 {
		respondError(w, http.StatusBadRequest, "Please enter a valid load count")
		return
	}

	result := r.engine.CheckSufficiency(models.ServiceType(payload.ServiceType), payload.LoadCount)
	respondData(w, http.StatusOK, result)
}

// listCustomers returns the derived customer collection
func (r *Router) listCustomers(w http.ResponseWriter, req *http.Request) {
	respondData(w, http.StatusOK, r.cache.Customers())
}

// searchCustomers filters derived customers by name or number
func (r *Router) searchCustomers(w http.ResponseWriter, req *http.Request) {
	query := req.URL.Query().Get("query")
	respondData(w, http.StatusOK, r.cache.SearchCustomers(query))
}

// syncStatus reports gateway connectivity for the UI status indicator
func (r *Router) syncStatus(w http.ResponseWriter, req *http.Request) {
	status := r.gateway.HealthCheck()
	respondData(w, http.StatusOK, map[string]interface{}{
		"connected": status,
	})
}

// replayOffline manually triggers an offline replay pass
func (r *Router) replayOffline(w http.ResponseWriter, req *http.Request) {
	result := r.gateway.SyncOfflineData(req.Context())
	respondData(w, http.StatusOK, result)
}

package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/aquaruse/laundrygo/internal/models"
	"github.com/aquaruse/laundrygo/internal/utils"
)

// adminRequest gates destructive operations on the configured admin identity
type adminRequest struct {
	AdminEmail string `json:"admin_email"`
}

func (r *Router) requireAdmin(w http.ResponseWriter, req *http.Request) bool {
	var payload adminRequest
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid payload")
		return false
	}
	if payload.AdminEmail != r.cfg.AdminEmail {
		respondError(w, http.StatusForbidden, "Admin access required")
		return false
	}
	return true
}

// clearAllData wipes the cached dataset and marks the store as cleared so
// the wipe survives a restart.
func (r *Router) clearAllData(w http.ResponseWriter, req *http.Request) {
	if !r.requireAdmin(w, req) {
		return
	}
	if err := r.cache.ClearAll(); err != nil {
		respondError(w, http.StatusInternalServerError, "Could not clear data")
		return
	}
	log.Printf("🧹 All shop data cleared by admin")
	respondMessage(w, http.StatusOK, "All data cleared successfully")
}

// resetToSampleData restores the demo dataset used for onboarding and trials
func (r *Router) resetToSampleData(w http.ResponseWriter, req *http.Request) {
	if !r.requireAdmin(w, req) {
		return
	}

	orders, staff := sampleDataset(r.cfg.AdminEmail)
	if err := r.cache.ResetToSample(orders, staff); err != nil {
		respondError(w, http.StatusInternalServerError, "Could not reset data")
		return
	}
	log.Printf("🔄 Shop data reset to sample dataset")
	respondMessage(w, http.StatusOK, "Data reset to sample dataset")
}

// sampleDataset mirrors the starter data a fresh shop installation ships with
func sampleDataset(adminEmail string) ([]models.Order, []models.Staff) {
	orders := []models.Order{
		{
			OrderID:        "00001",
			CustomerName:   "Maria Santos",
			CustomerNumber: "09171234567",
			DateIssued:     "2026-08-28",
			ServiceType:    models.ServiceRegularLaundry,
			LoadCount:      3,
			TotalAmount:    180,
			AmountPaid:     180,
			Balance:        0,
			Status:         models.OrderStatusCompleted,
		},
		{
			OrderID:        "00002",
			CustomerName:   "Jose Ramirez",
			CustomerNumber: "09187654321",
			DateIssued:     "2026-08-30",
			ServiceType:    models.ServiceWashAndFold,
			LoadCount:      2,
			TotalAmount:    130,
			AmountPaid:     50,
			Balance:        80,
			Status:         models.OrderStatusOngoing,
		},
		{
			OrderID:        "00003",
			CustomerName:   "Maria Santos",
			CustomerNumber: "09171234567",
			DateIssued:     "2026-08-31",
			ServiceType:    models.ServiceDryCleaning,
			LoadCount:      1,
			TotalAmount:    250,
			AmountPaid:     0,
			Balance:        250,
			Status:         models.OrderStatusPending,
		},
	}

	adminHash, err := utils.HashPassword("admin123")
	if err != nil {
		log.Printf("⚠️  Could not hash sample admin password: %v", err)
	}
	staffHash, err := utils.HashPassword("staff123")
	if err != nil {
		log.Printf("⚠️  Could not hash sample staff password: %v", err)
	}

	staff := []models.Staff{
		{ID: 1, Name: "Admin", Email: adminEmail, Role: "admin", PasswordHash: adminHash},
		{ID: 2, Name: "Ana Cruz", Email: "ana@aquaruse", Phone: "09201112233", Role: "staff", PasswordHash: staffHash},
	}

	return orders, staff
}

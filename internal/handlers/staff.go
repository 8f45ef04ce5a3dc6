package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/aquaruse/laundrygo/internal/models"
	"github.com/aquaruse/laundrygo/internal/utils"
	"github.com/gorilla/mux"
)

// sanitizeStaff strips credential material before responding
func sanitizeStaff(staff []models.Staff) []models.Staff {
	out := make([]models.Staff, len(staff))
	for i, s := range staff {
		s.PasswordHash = ""
		out[i] = s
	}
	return out
}

// listStaff returns the staff collection without credentials
func (r *Router) listStaff(w http.ResponseWriter, req *http.Request) {
	respondData(w, http.StatusOK, sanitizeStaff(r.cache.Staff()))
}

// staffRequest is the add/update payload
type staffRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
	Password string `json:"password,omitempty"`
}

// createStaff adds a staff member with a bcrypt-hashed password
func (r *Router) createStaff(w http.ResponseWriter, req *http.Request) {
	var payload staffRequest
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	if payload.Name == "" || payload.Email == "" {
		respondError(w, http.StatusBadRequest, "Name and email are required")
		return
	}
	if _, exists := r.cache.FindStaffByEmail(payload.Email); exists {
		respondError(w, http.StatusConflict, "Staff with this email already exists")
		return
	}

	member := models.Staff{
		Name:  payload.Name,
		Email: payload.Email,
		Phone: payload.Phone,
		Role:  payload.Role,
	}
	if member.Role == "" {
		member.Role = "staff"
	}
	if payload.Password != "" {
		hash, err := utils.HashPassword(payload.Password)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Could not hash password")
			return
		}
		member.PasswordHash = hash
	}

	created, err := r.cache.AddStaff(member)
	if err != nil {
		log.Printf("⚠️  Staff %s applied in memory but not persisted: %v", member.Email, err)
	}

	if _, err := r.gateway.Write(req.Context(), http.MethodPost, "add_staff", created); err != nil {
		log.Printf("⚠️  Could not push staff %s: %v", created.Email, err)
	}

	created.PasswordHash = ""
	respondData(w, http.StatusCreated, created)
}

// updateStaff replaces a staff member by id
func (r *Router) updateStaff(w http.ResponseWriter, req *http.Request) {
	id, err := strconv.Atoi(mux.Vars(req)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid staff id")
		return
	}

	var payload staffRequest
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid payload")
		return
	}

	member := models.Staff{
		ID:    id,
		Name:  payload.Name,
		Email: payload.Email,
		Phone: payload.Phone,
		Role:  payload.Role,
	}
	if payload.Password != "" {
		hash, err := utils.HashPassword(payload.Password)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Could not hash password")
			return
		}
		member.PasswordHash = hash
	}

	if err := r.cache.UpdateStaff(member); err != nil {
		respondError(w, http.StatusNotFound, "Staff not found")
		return
	}

	if _, err := r.gateway.Write(req.Context(), http.MethodPut, "staff", member); err != nil {
		log.Printf("⚠️  Could not push staff update %d: %v", id, err)
	}

	member.PasswordHash = ""
	respondData(w, http.StatusOK, member)
}

// deleteStaff removes a staff member by id
func (r *Router) deleteStaff(w http.ResponseWriter, req *http.Request) {
	id, err := strconv.Atoi(mux.Vars(req)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid staff id")
		return
	}

	if err := r.cache.DeleteStaff(id, ""); err != nil {
		respondError(w, http.StatusNotFound, "Staff not found")
		return
	}

	if _, err := r.gateway.Write(req.Context(), http.MethodDelete, "staff", map[string]int{"id": id}); err != nil {
		log.Printf("⚠️  Could not push staff deletion %d: %v", id, err)
	}

	respondMessage(w, http.StatusOK, "Staff deleted successfully")
}

// loginRequest carries credentials for session login
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// login validates credentials against the cached staff collection, so staff
// can sign in while the remote is down.
func (r *Router) login(w http.ResponseWriter, req *http.Request) {
	var payload loginRequest
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid payload")
		return
	}

	member, found := r.cache.FindStaffByEmail(payload.Email)
	if !found || member.PasswordHash == "" || !utils.CheckPasswordHash(payload.Password, member.PasswordHash) {
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := utils.GenerateToken(&member, r.cfg.JWTSecret)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Could not create session")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"token":   token,
		"role":    member.Role,
		"name":    member.Name,
		"id":      member.ID,
	})
}

// changePasswordRequest carries a credential rotation
type changePasswordRequest struct {
	Email           string `json:"email"`
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// changePassword rotates a staff credential after verifying the current one
func (r *Router) changePassword(w http.ResponseWriter, req *http.Request) {
	var payload changePasswordRequest
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	if payload.NewPassword == "" {
		respondError(w, http.StatusBadRequest, "New password is required")
		return
	}

	member, found := r.cache.FindStaffByEmail(payload.Email)
	if !found || !utils.CheckPasswordHash(payload.CurrentPassword, member.PasswordHash) {
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	hash, err := utils.HashPassword(payload.NewPassword)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Could not hash password")
		return
	}
	member.PasswordHash = hash
	if err := r.cache.UpdateStaff(member); err != nil {
		respondError(w, http.StatusInternalServerError, "Could not update credentials")
		return
	}

	if _, err := r.gateway.Write(req.Context(), http.MethodPost, "change_password", map[string]string{
		"email":        payload.Email,
		"new_password": payload.NewPassword,
	}); err != nil {
		log.Printf("⚠️  Could not push password change for %s: %v", payload.Email, err)
	}

	respondMessage(w, http.StatusOK, "Password changed successfully")
}

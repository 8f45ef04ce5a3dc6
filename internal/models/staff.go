package models

// Staff is a staff member of the shop. Staff live inside the state snapshot
// document alongside orders; credentials are bcrypt hashes, never plaintext.
type Staff struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone,omitempty"`
	Role         string `json:"role"` // staff | admin
	PasswordHash string `json:"password_hash,omitempty"`
}

package utils

import (
	"testing"

	"github.com/aquaruse/laundrygo/internal/models"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("laundry123")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "laundry123" {
		t.Fatal("hash must not equal the plaintext password")
	}
	if !CheckPasswordHash("laundry123", hash) {
		t.Error("correct password must verify")
	}
	if CheckPasswordHash("wrong", hash) {
		t.Error("wrong password must not verify")
	}
}

func TestGenerateAndValidateToken(t *testing.T) {
	staff := &models.Staff{ID: 7, Name: "Ana Cruz", Email: "ana@aquaruse", Role: "staff"}

	token, err := GenerateToken(staff, "test-secret")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := ValidateToken(token, "test-secret")
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims["email"] != "ana@aquaruse" {
		t.Errorf("email claim = %v", claims["email"])
	}
	if claims["role"] != "staff" {
		t.Errorf("role claim = %v", claims["role"])
	}
	if id, ok := claims["id"].(float64); !ok || int(id) != 7 {
		t.Errorf("id claim = %v", claims["id"])
	}
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	staff := &models.Staff{ID: 1, Email: "ana@aquaruse"}
	token, err := GenerateToken(staff, "right-secret")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := ValidateToken(token, "wrong-secret"); err == nil {
		t.Error("a token signed with another secret must be rejected")
	}
	if _, err := ValidateToken("not-a-token", "right-secret"); err == nil {
		t.Error("garbage must be rejected")
	}
}

package middleware

import (
	"testing"

	"marketlens_backend/config"
)

func init() {
	config.AppConfig = &config.Config{JWTSecret: "test-secret"}
}

func TestGenerateAndValidateToken(t *testing.T) {
	token, err := GenerateToken(42, "user@example.com", "user")
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	claims, err := validateToken(token)
	if err != nil {
		t.Fatalf("validateToken error: %v", err)
	}
	if claims.UserID != 42 {
		t.Errorf("UserID = %d, want 42", claims.UserID)
	}
	if claims.Email != "user@example.com" {
		t.Errorf("Email = %q, want user@example.com", claims.Email)
	}
	if claims.Role != "user" {
		t.Errorf("Role = %q, want user", claims.Role)
	}
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	if _, err := validateToken("not-a-token"); err == nil {
		t.Error("expected error for malformed token")
	}
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	token, err := GenerateToken(1, "a@b.c", "user")
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	config.AppConfig.JWTSecret = "different-secret"
	defer func() { config.AppConfig.JWTSecret = "test-secret" }()

	if _, err := validateToken(token); err == nil {
		t.Error("expected error for token signed with another secret")
	}
}

package models

import "testing"

func TestIsValidAlertType(t *testing.T) {
	for _, valid := range ValidAlertTypes() {
		if !IsValidAlertType(valid) {
			t.Errorf("IsValidAlertType(%q) = false, want true", valid)
		}
	}

	for _, invalid := range []string{"", "price", "PRICE_ABOVE", "unknown"} {
		if IsValidAlertType(invalid) {
			t.Errorf("IsValidAlertType(%q) = true, want false", invalid)
		}
	}
}

func TestUserPasswordHashing(t *testing.T) {
	var user User
	if err := user.SetPassword("correct horse battery staple"); err != nil {
		t.Fatalf("SetPassword error: %v", err)
	}
	if user.PasswordHash == "correct horse battery staple" {
		t.Error("password must not be stored in plaintext")
	}

	if !user.CheckPassword("correct horse battery staple") {
		t.Error("CheckPassword should accept the original password")
	}
	if user.CheckPassword("wrong password") {
		t.Error("CheckPassword should reject a wrong password")
	}
}

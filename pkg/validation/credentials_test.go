package validation

import "testing"

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		valid   bool
		message string
	}{
		{name: "empty", email: "", valid: false, message: "Email is required"},
		{name: "blank", email: "   ", valid: false, message: "Email is required"},
		{name: "no at sign", email: "not-an-email", valid: false, message: "Please enter a valid email address"},
		{name: "missing domain", email: "user@", valid: false, message: "Please enter a valid email address"},
		{name: "missing tld", email: "user@host", valid: false, message: "Please enter a valid email address"},
		{name: "contains space", email: "us er@host.com", valid: false, message: "Please enter a valid email address"},
		{name: "minimal valid", email: "a@b.co", valid: true},
		{name: "typical valid", email: "maria.santos@eastgate.church", valid: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateEmail(tt.email)
			if got.Valid != tt.valid {
				t.Fatalf("ValidateEmail(%q).Valid = %v, want %v", tt.email, got.Valid, tt.valid)
			}
			if got.Message != tt.message {
				t.Errorf("ValidateEmail(%q).Message = %q, want %q", tt.email, got.Message, tt.message)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		valid    bool
		message  string
	}{
		{name: "empty", password: "", valid: false, message: "Password is required"},
		{name: "too short", password: "short1A", valid: false, message: "Password must be at least 8 characters long"},
		{name: "no uppercase", password: "alllowercase1", valid: false, message: "Password must contain at least one uppercase letter"},
		{name: "no lowercase", password: "ALLUPPER1", valid: false, message: "Password must contain at least one lowercase letter"},
		{name: "no digit", password: "NoDigitsHere", valid: false, message: "Password must contain at least one number"},
		{name: "valid", password: "GoodPass1", valid: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidatePassword(tt.password)
			if got.Valid != tt.valid {
				t.Fatalf("ValidatePassword(%q).Valid = %v, want %v", tt.password, got.Valid, tt.valid)
			}
			if got.Message != tt.message {
				t.Errorf("ValidatePassword(%q).Message = %q, want %q", tt.password, got.Message, tt.message)
			}
		})
	}
}

func TestValidatePasswordFirstFailureWins(t *testing.T) {
	// "short" fails length, uppercase and digit rules; length is reported.
	got := ValidatePassword("short")
	if got.Valid {
		t.Fatal("expected invalid result")
	}
	if got.Message != "Password must be at least 8 characters long" {
		t.Errorf("Message = %q, want length failure first", got.Message)
	}
}

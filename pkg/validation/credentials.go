package validation

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidationResult is the outcome of a single credential check.
// Message is set only when Valid is false.
type ValidationResult struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateEmail checks that the input is a non-blank, well-shaped email address.
func ValidateEmail(email string) ValidationResult {
	if strings.TrimSpace(email) == "" {
		return ValidationResult{Valid: false, Message: "Email is required"}
	}
	if !emailPattern.MatchString(email) {
		return ValidationResult{Valid: false, Message: "Please enter a valid email address"}
	}
	return ValidationResult{Valid: true}
}

// ValidatePassword enforces the sign-up password policy: at least 8
// characters with an uppercase letter, a lowercase letter and a digit.
// Rules are checked in order and the first failure wins.
func ValidatePassword(password string) ValidationResult {
	if password == "" {
		return ValidationResult{Valid: false, Message: "Password is required"}
	}
	if len(password) < 8 {
		return ValidationResult{Valid: false, Message: "Password must be at least 8 characters long"}
	}
	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasUpper {
		return ValidationResult{Valid: false, Message: "Password must contain at least one uppercase letter"}
	}
	if !hasLower {
		return ValidationResult{Valid: false, Message: "Password must contain at least one lowercase letter"}
	}
	if !hasDigit {
		return ValidationResult{Valid: false, Message: "Password must contain at least one number"}
	}
	return ValidationResult{Valid: true}
}

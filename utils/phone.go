package utils

import (
	"regexp"
	"strings"
)

// Accepts an optional leading + followed by 10-15 digit/space/hyphen/paren
// characters.
var phonePattern = regexp.MustCompile(`^\+?[0-9 ()\-]{10,15}$`)

var nonDigit = regexp.MustCompile(`\D`)

// ValidatePhoneNumber reports whether the input looks like a phone number a
// caller could actually dial.
func ValidatePhoneNumber(phoneNumber string) bool {
	return phonePattern.MatchString(strings.TrimSpace(phoneNumber))
}

// NormalizePhoneNumber strips formatting for storage, keeping a leading +.
func NormalizePhoneNumber(phoneNumber string) string {
	trimmed := strings.TrimSpace(phoneNumber)
	digits := nonDigit.ReplaceAllString(trimmed, "")
	if strings.HasPrefix(trimmed, "+") {
		return "+" + digits
	}
	return digits
}

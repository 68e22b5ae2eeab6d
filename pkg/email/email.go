// Package email normalizes and validates recipient addresses.
package email

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// MaxLength is the longest address accepted (RFC 5321 path limit).
const MaxLength = 254

var validate = validator.New()

// Normalize trims surrounding space and lower-cases the whole address.
func Normalize(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

// IsValid reports whether addr, once trimmed, is a bare address with no
// display name.
func IsValid(addr string) bool {
	return validate.Var(strings.TrimSpace(addr), "required,max=254,email") == nil
}

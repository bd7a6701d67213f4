// Package security validates and compares the API key that protects the
// HTTP server.
package security

import (
	"crypto/subtle"
	"regexp"
)

var validKeyPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// APIKeyValidator checks the format of API keys and compares them.
type APIKeyValidator struct {
	minLength int
	maxLength int
}

// NewAPIKeyValidator accepts keys of 8 to 128 URL-safe characters.
func NewAPIKeyValidator() *APIKeyValidator {
	return &APIKeyValidator{
		minLength: 8,
		maxLength: 128,
	}
}

// ValidateAPIKey validates API key format and length
func (v *APIKeyValidator) ValidateAPIKey(apiKey string) bool {
	if len(apiKey) < v.minLength || len(apiKey) > v.maxLength {
		return false
	}
	return validKeyPattern.MatchString(apiKey)
}

// MaskAPIKey creates a masked version for logging (shows only first/last few chars)
func (v *APIKeyValidator) MaskAPIKey(apiKey string) string {
	if len(apiKey) == 0 {
		return "[empty]"
	}
	if len(apiKey) <= 8 {
		return "[***]"
	}
	return apiKey[:3] + "..." + apiKey[len(apiKey)-3:]
}

// SecureCompare compares two keys in constant time.
func (v *APIKeyValidator) SecureCompare(expected, given string) bool {
	return subtle.ConstantTimeCompare([]byte(expected), []byte(given)) == 1
}

package nlu

import (
	"fmt"
	"strings"
)

// Credentials is the interface all provider credential types implement.
// Credential material travels with the request that needs it; it is never
// written to environment variables or any other process-wide state.
type Credentials interface {
	// Validate checks if the credentials are properly formatted and present.
	Validate() error

	// Redacted returns a safe-to-log version of the credentials.
	Redacted() string
}

// APIKeyCredentials holds authentication for API-based providers.
type APIKeyCredentials struct {
	// APIKey is the authentication token for the provider's API.
	APIKey string
}

// Validate checks that the API key is present.
// Format validation is left to individual providers since key formats vary.
func (c APIKeyCredentials) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("API key is required")
	}
	return nil
}

// Redacted returns a safe-to-log version with the API key masked.
func (c APIKeyCredentials) Redacted() string {
	return fmt.Sprintf("APIKey: %s", maskSecret(c.APIKey))
}

// NoCredentials is used by providers that require no authentication,
// such as the local analyzer or a self-hosted endpoint.
type NoCredentials struct{}

// Validate always succeeds.
func (NoCredentials) Validate() error { return nil }

// Redacted returns a fixed marker.
func (NoCredentials) Redacted() string { return "(none)" }

// maskSecret masks all but the first and last four characters of a secret.
// Short secrets are fully masked.
func maskSecret(secret string) string {
	if len(secret) <= 8 {
		return strings.Repeat("*", len(secret))
	}
	return secret[:4] + strings.Repeat("*", len(secret)-8) + secret[len(secret)-4:]
}

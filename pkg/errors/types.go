// Package errors defines the error taxonomy shared across the scriptflow
// pipeline. Errors carry enough structure for callers to branch on the
// failure class without parsing message strings.
package errors

import (
	"fmt"
	"time"
)

// ValidationError represents user input validation failures.
// Use this for invalid answers, malformed draft graphs, or constraint violations.
type ValidationError struct {
	// Field identifies which input field failed validation
	Field string

	// Message is the human-readable error description
	Message string

	// Suggestion provides actionable guidance for fixing the error
	Suggestion string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// NotFoundError represents a resource not found error.
// Use this when a requested resource (app, function, session) does not exist.
type NotFoundError struct {
	// Resource is the type of resource (e.g., "app", "function", "session")
	Resource string

	// ID is the identifier that was not found
	ID string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ProviderError represents NLU provider failures.
// Use this for errors originating from external language-model providers.
type ProviderError struct {
	// Provider is the name of the provider (e.g., "anthropic", "openai")
	Provider string

	// Model is the model variant attempted, if any
	Model string

	// StatusCode is the HTTP status code (if applicable)
	StatusCode int

	// Message is the human-readable error message
	Message string

	// RequestID correlates this error with provider logs
	RequestID string

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("provider %s error", e.Provider)
	if e.Model != "" {
		msg = fmt.Sprintf("%s (model %s)", msg, e.Model)
	}
	if e.StatusCode > 0 {
		msg = fmt.Sprintf("%s [HTTP %d]", msg, e.StatusCode)
	}
	msg = fmt.Sprintf("%s: %s", msg, e.Message)
	if e.RequestID != "" {
		msg = fmt.Sprintf("%s (request-id: %s)", msg, e.RequestID)
	}
	return msg
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// MalformedResponseError indicates a provider returned a body that failed
// strict schema validation. The orchestrator treats it like any other
// provider failure and advances the fallback chain.
type MalformedResponseError struct {
	// Provider is the provider whose response failed to decode
	Provider string

	// Reason explains the schema mismatch
	Reason string

	// Cause is the underlying decode or validation error
	Cause error
}

// Error implements the error interface.
func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response from provider %s: %s", e.Provider, e.Reason)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *MalformedResponseError) Unwrap() error {
	return e.Cause
}

// GuardrailError indicates that a synthesized script matched a forbidden
// capability pattern. The rejected script is never attached to this error.
type GuardrailError struct {
	// Pattern is the name of the forbidden pattern that matched
	Pattern string

	// Line is the 1-based line number of the first match
	Line int

	// Snippet is the offending line with credentials-safe truncation
	Snippet string
}

// Error implements the error interface.
func (e *GuardrailError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("guardrail violation %q at line %d: %s", e.Pattern, e.Line, e.Snippet)
	}
	return fmt.Sprintf("guardrail violation %q", e.Pattern)
}

// ConfigError represents configuration problems.
// Use this for configuration file errors, missing settings, or invalid values.
type ConfigError struct {
	// Key is the configuration key that has the problem (e.g., "providers[0].endpoint")
	Key string

	// Reason explains what's wrong with the configuration
	Reason string

	// Cause is the underlying error (e.g., file read error, parse error)
	Cause error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("config error at %s: %s", e.Key, e.Reason)
	}
	return fmt.Sprintf("config error: %s", e.Reason)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// TimeoutError represents operation timeouts.
// Use this when an operation exceeds its configured deadline.
type TimeoutError struct {
	// Operation describes what timed out (e.g., "intent analysis", "provider call")
	Operation string

	// Duration is how long the operation ran before timing out
	Duration time.Duration

	// Cause is the underlying error (if any)
	Cause error
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s operation timed out after %v", e.Operation, e.Duration)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *TimeoutError) Unwrap() error {
	return e.Cause
}

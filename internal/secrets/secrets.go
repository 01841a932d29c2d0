// Package secrets resolves provider credentials from scheme-prefixed
// references. Supported forms:
//
//   - env:OPENAI_API_KEY      -> environment variable
//   - keychain:openai-api-key -> system keychain entry
//
// Unprefixed references default to the env scheme. Resolved values are
// request-scoped: they are handed to the provider factory and never written
// to process-wide state.
package secrets

import (
	"os"
	"strings"

	"github.com/zalando/go-keyring"

	"github.com/shinobi1046-lgtm/scriptflow/pkg/errors"
)

// keyringService is the system keychain service name for all entries.
const keyringService = "scriptflow"

// Resolver resolves secret references.
type Resolver struct {
	service string
}

// NewResolver creates a resolver backed by the environment and the system
// keychain.
func NewResolver() *Resolver {
	return &Resolver{service: keyringService}
}

// Resolve returns the secret a reference points at.
func (r *Resolver) Resolve(ref string) (string, error) {
	scheme, name := splitRef(ref)
	if name == "" {
		return "", &errors.ConfigError{Key: "secret", Reason: "empty secret reference"}
	}

	switch scheme {
	case "env":
		value := os.Getenv(name)
		if value == "" {
			return "", &errors.NotFoundError{Resource: "environment variable", ID: name}
		}
		return value, nil
	case "keychain":
		value, err := keyring.Get(r.service, name)
		if err != nil {
			return "", &errors.NotFoundError{Resource: "keychain entry", ID: name}
		}
		return value, nil
	default:
		return "", &errors.ConfigError{Key: "secret", Reason: "unknown secret scheme " + scheme}
	}
}

// APIKey resolves the API key for a named provider. The lookup order is the
// SCRIPTFLOW_<PROVIDER>_API_KEY environment variable, then
// <PROVIDER>_API_KEY, then the keychain entry "<provider>-api-key".
func (r *Resolver) APIKey(provider string) (string, error) {
	upper := strings.ToUpper(provider)
	for _, name := range []string{"SCRIPTFLOW_" + upper + "_API_KEY", upper + "_API_KEY"} {
		if value := os.Getenv(name); value != "" {
			return value, nil
		}
	}
	if value, err := keyring.Get(r.service, strings.ToLower(provider)+"-api-key"); err == nil && value != "" {
		return value, nil
	}
	return "", &errors.NotFoundError{Resource: "API key", ID: provider}
}

// Store writes a keychain entry for a provider's API key.
func (r *Resolver) Store(provider, value string) error {
	name := strings.ToLower(provider) + "-api-key"
	if err := keyring.Set(r.service, name, value); err != nil {
		return errors.Wrap(err, "storing keychain entry "+name)
	}
	return nil
}

// splitRef splits "scheme:name", defaulting to the env scheme.
func splitRef(ref string) (scheme, name string) {
	if i := strings.IndexByte(ref, ':'); i >= 0 {
		return ref[:i], ref[i+1:]
	}
	return "env", ref
}

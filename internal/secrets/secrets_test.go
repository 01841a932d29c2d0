package secrets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinobi1046-lgtm/scriptflow/pkg/errors"
)

func TestResolve_EnvScheme(t *testing.T) {
	t.Setenv("SCRIPTFLOW_TEST_SECRET", "s3cret")

	r := NewResolver()

	value, err := r.Resolve("env:SCRIPTFLOW_TEST_SECRET")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", value)

	// Unprefixed references default to env.
	value, err = r.Resolve("SCRIPTFLOW_TEST_SECRET")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", value)
}

func TestResolve_MissingEnv(t *testing.T) {
	r := NewResolver()
	_, err := r.Resolve("env:SCRIPTFLOW_DEFINITELY_UNSET")
	var nf *errors.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestResolve_UnknownScheme(t *testing.T) {
	r := NewResolver()
	_, err := r.Resolve("vault:whatever")
	var cfgErr *errors.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestResolve_EmptyReference(t *testing.T) {
	r := NewResolver()
	_, err := r.Resolve("")
	assert.Error(t, err)

	_, err = r.Resolve("env:")
	assert.Error(t, err)
}

func TestAPIKey_EnvLookupOrder(t *testing.T) {
	t.Setenv("SCRIPTFLOW_OPENAI_API_KEY", "prefixed")
	t.Setenv("OPENAI_API_KEY", "plain")

	r := NewResolver()
	value, err := r.APIKey("openai")
	require.NoError(t, err)
	assert.Equal(t, "prefixed", value, "prefixed variable wins")

	t.Setenv("SCRIPTFLOW_OPENAI_API_KEY", "")
	value, err = r.APIKey("openai")
	require.NoError(t, err)
	assert.Equal(t, "plain", value)
}

func TestSplitRef(t *testing.T) {
	tests := []struct {
		ref, scheme, name string
	}{
		{"env:FOO", "env", "FOO"},
		{"keychain:openai-api-key", "keychain", "openai-api-key"},
		{"FOO", "env", "FOO"},
		{"weird:a:b", "weird", "a:b"},
	}
	for _, tt := range tests {
		scheme, name := splitRef(tt.ref)
		assert.Equal(t, tt.scheme, scheme, tt.ref)
		assert.Equal(t, tt.name, name, tt.ref)
	}
}

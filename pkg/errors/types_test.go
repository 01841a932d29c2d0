package errors_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sferrors "github.com/shinobi1046-lgtm/scriptflow/pkg/errors"
)

func TestValidationError(t *testing.T) {
	err := &sferrors.ValidationError{
		Field:   "trigger",
		Message: "no trigger descriptor resolved",
	}
	assert.Contains(t, err.Error(), "trigger")
	assert.Contains(t, err.Error(), "no trigger descriptor resolved")

	bare := &sferrors.ValidationError{Message: "empty request"}
	assert.Equal(t, "validation failed: empty request", bare.Error())
}

func TestProviderError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := &sferrors.ProviderError{
		Provider:   "openai",
		Model:      "gpt-4o-mini",
		StatusCode: 503,
		Message:    "upstream unavailable",
		Cause:      cause,
	}

	assert.Contains(t, err.Error(), "openai")
	assert.Contains(t, err.Error(), "HTTP 503")
	assert.Contains(t, err.Error(), "gpt-4o-mini")
	assert.ErrorIs(t, err, cause)
}

func TestMalformedResponseError(t *testing.T) {
	cause := errors.New("unexpected end of JSON input")
	err := &sferrors.MalformedResponseError{
		Provider: "gemini",
		Reason:   "missing required field \"intent\"",
		Cause:    cause,
	}

	assert.Contains(t, err.Error(), "gemini")
	assert.ErrorIs(t, err, cause)

	var target *sferrors.MalformedResponseError
	require.True(t, errors.As(err, &target))
	assert.Equal(t, "gemini", target.Provider)
}

func TestGuardrailError(t *testing.T) {
	err := &sferrors.GuardrailError{
		Pattern: "node_require",
		Line:    12,
		Snippet: `const fs = require("fs");`,
	}
	assert.Contains(t, err.Error(), "node_require")
	assert.Contains(t, err.Error(), "line 12")
}

func TestTimeoutError(t *testing.T) {
	err := &sferrors.TimeoutError{
		Operation: "intent analysis",
		Duration:  5 * time.Second,
	}
	assert.Contains(t, err.Error(), "intent analysis")
	assert.Contains(t, err.Error(), "5s")
}

func TestWrap(t *testing.T) {
	assert.Nil(t, sferrors.Wrap(nil, "context"))

	base := errors.New("boom")
	wrapped := sferrors.Wrap(base, "loading catalog")
	require.Error(t, wrapped)
	assert.Equal(t, "loading catalog: boom", wrapped.Error())
	assert.ErrorIs(t, wrapped, base)

	formatted := sferrors.Wrapf(base, "loading catalog %q", "gmail")
	assert.Contains(t, formatted.Error(), `"gmail"`)
}

package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sferrors "github.com/shinobi1046-lgtm/scriptflow/pkg/errors"
	"github.com/shinobi1046-lgtm/scriptflow/pkg/nlu"
)

func newTestAnthropic(t *testing.T, baseURL string) nlu.Provider {
	t.Helper()
	p, err := NewAnthropicProvider(
		nlu.ProviderConfig{Name: "anthropic", UnitCost: 3, BaseURL: baseURL},
		nlu.APIKeyCredentials{APIKey: "ak-test"},
	)
	require.NoError(t, err)
	return p
}

func TestAnthropic_Complete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "ak-test", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicAPIVersion, r.Header.Get("anthropic-version"))

		var req anthropicRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.NotZero(t, req.MaxTokens, "max_tokens is mandatory for the messages API")

		resp := map[string]any{
			"content": []map[string]any{
				{"type": "text", "text": `{"intent":"x"}`},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	p := newTestAnthropic(t, srv.URL)
	raw, err := p.Complete(context.Background(), nlu.CompletionRequest{
		Model:  "claude-3-5-haiku-latest",
		System: "analyze",
		Prompt: "track my emails",
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"intent":"x"}`, raw)
}

func TestAnthropic_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"type": "overloaded_error", "message": "overloaded"},
		})
	}))
	defer srv.Close()

	p := newTestAnthropic(t, srv.URL)
	_, err := p.Complete(context.Background(), nlu.CompletionRequest{Model: "claude-3-5-haiku-latest"})

	var provErr *sferrors.ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, http.StatusServiceUnavailable, provErr.StatusCode)
	assert.Equal(t, "anthropic", provErr.Provider)
}

func TestAnthropic_RequiresAPIKey(t *testing.T) {
	_, err := NewAnthropicProvider(nlu.ProviderConfig{Name: "anthropic"}, nlu.NoCredentials{})
	assert.Error(t, err)
}

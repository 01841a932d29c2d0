package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/shinobi1046-lgtm/scriptflow/pkg/errors"
	"github.com/shinobi1046-lgtm/scriptflow/pkg/nlu"
)

const (
	// anthropicAPIBaseURL is the base URL for the Anthropic API
	anthropicAPIBaseURL = "https://api.anthropic.com/v1"

	// anthropicAPIVersion is the API version to use
	anthropicAPIVersion = "2023-06-01"
)

var defaultAnthropicModels = []nlu.ModelInfo{
	{ID: "claude-3-5-haiku-latest", Name: "Claude Haiku", Tier: nlu.ModelTierFast},
	{ID: "claude-sonnet-4-20250514", Name: "Claude Sonnet", Tier: nlu.ModelTierBalanced},
}

// AnthropicProvider implements the Provider interface for Anthropic's
// Messages API.
type AnthropicProvider struct {
	apiKey        string
	baseURL       string
	unitCost      float64
	models        []nlu.ModelInfo
	responseQuery string
	httpClient    *http.Client
}

// NewAnthropicProvider creates a new Anthropic provider instance.
func NewAnthropicProvider(cfg nlu.ProviderConfig, creds nlu.Credentials) (nlu.Provider, error) {
	apiCreds, ok := creds.(nlu.APIKeyCredentials)
	if !ok {
		return nil, &errors.ConfigError{
			Key:    "anthropic.credentials",
			Reason: "Anthropic provider requires API key credentials",
		}
	}
	if err := apiCreds.Validate(); err != nil {
		return nil, &errors.ConfigError{Key: "anthropic.api_key", Reason: err.Error()}
	}

	client, err := newHTTPClient("scriptflow-anthropic/1.0")
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = anthropicAPIBaseURL
	}
	models := cfg.ModelInfos()
	if len(models) == 0 {
		models = defaultAnthropicModels
	}

	return &AnthropicProvider{
		apiKey:        apiCreds.APIKey,
		baseURL:       baseURL,
		unitCost:      cfg.UnitCost,
		models:        models,
		responseQuery: cfg.ResponseQuery,
		httpClient:    client,
	}, nil
}

// Name returns the provider identifier.
func (p *AnthropicProvider) Name() string { return "anthropic" }

// UnitCost returns the configured relative cost per request.
func (p *AnthropicProvider) UnitCost() float64 { return p.unitCost }

// Models returns the model variants in attempt order.
func (p *AnthropicProvider) Models() []nlu.ModelInfo { return p.models }

// ResponseQuery returns the configured payload extraction query.
func (p *AnthropicProvider) ResponseQuery() string { return p.responseQuery }

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	Messages    []anthropicMessage `json:"messages"`
	MaxTokens   int                `json:"max_tokens"`
	System      string             `json:"system,omitempty"`
	Temperature float64            `json:"temperature"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

type anthropicErrorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends a messages request and returns the text content.
func (p *AnthropicProvider) Complete(ctx context.Context, req nlu.CompletionRequest) (string, error) {
	requestID := uuid.New().String()

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	apiReq := anthropicRequest{
		Model:       req.Model,
		Messages:    []anthropicMessage{{Role: "user", Content: req.Prompt}},
		MaxTokens:   maxTokens,
		System:      req.System,
		Temperature: req.Temperature,
	}

	body, err := json.Marshal(apiReq)
	if err != nil {
		return "", &errors.ProviderError{
			Provider:  "anthropic",
			Model:     req.Model,
			Message:   fmt.Sprintf("failed to marshal request: %v", err),
			RequestID: requestID,
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return "", &errors.ProviderError{
			Provider:  "anthropic",
			Model:     req.Model,
			Message:   fmt.Sprintf("failed to create request: %v", err),
			RequestID: requestID,
		}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", p.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicAPIVersion)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return "", &errors.ProviderError{
			Provider:  "anthropic",
			Model:     req.Model,
			Message:   fmt.Sprintf("request failed: %v", err),
			RequestID: requestID,
			Cause:     err,
		}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &errors.ProviderError{
			Provider:   "anthropic",
			Model:      req.Model,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("failed to read response: %v", err),
			RequestID:  requestID,
		}
	}

	if resp.StatusCode != http.StatusOK {
		var errResp anthropicErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error.Message != "" {
			return "", &errors.ProviderError{
				Provider:   "anthropic",
				Model:      req.Model,
				StatusCode: resp.StatusCode,
				Message:    errResp.Error.Message,
				RequestID:  requestID,
			}
		}
		return "", &errors.ProviderError{
			Provider:   "anthropic",
			Model:      req.Model,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("API request failed with status %d", resp.StatusCode),
			RequestID:  requestID,
		}
	}

	var apiResp anthropicResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", &errors.ProviderError{
			Provider:  "anthropic",
			Model:     req.Model,
			Message:   fmt.Sprintf("failed to parse response envelope: %v", err),
			RequestID: requestID,
		}
	}

	for _, block := range apiResp.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", &errors.ProviderError{
		Provider:  "anthropic",
		Model:     req.Model,
		Message:   "response contained no text content",
		RequestID: requestID,
	}
}

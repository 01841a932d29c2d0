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

const openaiAPIBaseURL = "https://api.openai.com/v1"

// defaultOpenAIModels are the variants tried in order when the
// configuration does not override them.
var defaultOpenAIModels = []nlu.ModelInfo{
	{ID: "gpt-4o-mini", Name: "GPT-4o mini", Tier: nlu.ModelTierFast},
	{ID: "gpt-4o", Name: "GPT-4o", Tier: nlu.ModelTierBalanced},
}

// OpenAIProvider implements the Provider interface for OpenAI-compatible
// chat-completion APIs.
type OpenAIProvider struct {
	apiKey        string
	baseURL       string
	unitCost      float64
	models        []nlu.ModelInfo
	responseQuery string
	httpClient    *http.Client
}

// NewOpenAIProvider creates a new OpenAI provider instance.
func NewOpenAIProvider(cfg nlu.ProviderConfig, creds nlu.Credentials) (nlu.Provider, error) {
	apiCreds, ok := creds.(nlu.APIKeyCredentials)
	if !ok {
		return nil, &errors.ConfigError{
			Key:    "openai.credentials",
			Reason: "OpenAI provider requires API key credentials",
		}
	}
	if err := apiCreds.Validate(); err != nil {
		return nil, &errors.ConfigError{Key: "openai.api_key", Reason: err.Error()}
	}

	client, err := newHTTPClient("scriptflow-openai/1.0")
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = openaiAPIBaseURL
	}
	models := cfg.ModelInfos()
	if len(models) == 0 {
		models = defaultOpenAIModels
	}

	return &OpenAIProvider{
		apiKey:        apiCreds.APIKey,
		baseURL:       baseURL,
		unitCost:      cfg.UnitCost,
		models:        models,
		responseQuery: cfg.ResponseQuery,
		httpClient:    client,
	}, nil
}

// Name returns the provider identifier.
func (p *OpenAIProvider) Name() string { return "openai" }

// UnitCost returns the configured relative cost per request.
func (p *OpenAIProvider) UnitCost() float64 { return p.unitCost }

// Models returns the model variants in attempt order.
func (p *OpenAIProvider) Models() []nlu.ModelInfo { return p.models }

// ResponseQuery returns the configured payload extraction query.
func (p *OpenAIProvider) ResponseQuery() string { return p.responseQuery }

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiRequest struct {
	Model          string          `json:"model"`
	Messages       []openaiMessage `json:"messages"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *openaiFormat   `json:"response_format,omitempty"`
}

type openaiFormat struct {
	Type string `json:"type"`
}

type openaiResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type openaiErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Complete sends a chat-completion request and returns the message content.
func (p *OpenAIProvider) Complete(ctx context.Context, req nlu.CompletionRequest) (string, error) {
	requestID := uuid.New().String()

	apiReq := openaiRequest{
		Model: req.Model,
		Messages: []openaiMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.Prompt},
		},
		MaxTokens:      req.MaxTokens,
		Temperature:    req.Temperature,
		ResponseFormat: &openaiFormat{Type: "json_object"},
	}

	body, err := json.Marshal(apiReq)
	if err != nil {
		return "", &errors.ProviderError{
			Provider:  "openai",
			Model:     req.Model,
			Message:   fmt.Sprintf("failed to marshal request: %v", err),
			RequestID: requestID,
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", &errors.ProviderError{
			Provider:  "openai",
			Model:     req.Model,
			Message:   fmt.Sprintf("failed to create request: %v", err),
			RequestID: requestID,
		}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return "", &errors.ProviderError{
			Provider:  "openai",
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
			Provider:   "openai",
			Model:      req.Model,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("failed to read response: %v", err),
			RequestID:  requestID,
		}
	}

	if resp.StatusCode != http.StatusOK {
		var errResp openaiErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error.Message != "" {
			return "", &errors.ProviderError{
				Provider:   "openai",
				Model:      req.Model,
				StatusCode: resp.StatusCode,
				Message:    errResp.Error.Message,
				RequestID:  requestID,
			}
		}
		return "", &errors.ProviderError{
			Provider:   "openai",
			Model:      req.Model,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("API request failed with status %d", resp.StatusCode),
			RequestID:  requestID,
		}
	}

	var apiResp openaiResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", &errors.ProviderError{
			Provider:  "openai",
			Model:     req.Model,
			Message:   fmt.Sprintf("failed to parse response envelope: %v", err),
			RequestID: requestID,
		}
	}
	if len(apiResp.Choices) == 0 {
		return "", &errors.ProviderError{
			Provider:  "openai",
			Model:     req.Model,
			Message:   "response contained no choices",
			RequestID: requestID,
		}
	}

	return apiResp.Choices[0].Message.Content, nil
}

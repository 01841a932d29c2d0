package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"github.com/shinobi1046-lgtm/scriptflow/pkg/errors"
	"github.com/shinobi1046-lgtm/scriptflow/pkg/nlu"
)

const geminiAPIBaseURL = "https://generativelanguage.googleapis.com/v1beta"

var defaultGeminiModels = []nlu.ModelInfo{
	{ID: "gemini-2.0-flash", Name: "Gemini Flash", Tier: nlu.ModelTierFast},
	{ID: "gemini-2.5-pro", Name: "Gemini Pro", Tier: nlu.ModelTierBalanced},
}

// GeminiProvider implements the Provider interface for the Google
// generateContent API. The API key travels as a query parameter, which is
// why the shared HTTP client redacts key-like parameters from logs.
type GeminiProvider struct {
	apiKey        string
	baseURL       string
	unitCost      float64
	models        []nlu.ModelInfo
	responseQuery string
	httpClient    *http.Client
}

// NewGeminiProvider creates a new Gemini provider instance.
func NewGeminiProvider(cfg nlu.ProviderConfig, creds nlu.Credentials) (nlu.Provider, error) {
	apiCreds, ok := creds.(nlu.APIKeyCredentials)
	if !ok {
		return nil, &errors.ConfigError{
			Key:    "gemini.credentials",
			Reason: "Gemini provider requires API key credentials",
		}
	}
	if err := apiCreds.Validate(); err != nil {
		return nil, &errors.ConfigError{Key: "gemini.api_key", Reason: err.Error()}
	}

	client, err := newHTTPClient("scriptflow-gemini/1.0")
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = geminiAPIBaseURL
	}
	models := cfg.ModelInfos()
	if len(models) == 0 {
		models = defaultGeminiModels
	}

	return &GeminiProvider{
		apiKey:        apiCreds.APIKey,
		baseURL:       baseURL,
		unitCost:      cfg.UnitCost,
		models:        models,
		responseQuery: cfg.ResponseQuery,
		httpClient:    client,
	}, nil
}

// Name returns the provider identifier.
func (p *GeminiProvider) Name() string { return "gemini" }

// UnitCost returns the configured relative cost per request.
func (p *GeminiProvider) UnitCost() float64 { return p.unitCost }

// Models returns the model variants in attempt order.
func (p *GeminiProvider) Models() []nlu.ModelInfo { return p.models }

// ResponseQuery returns the configured payload extraction query.
func (p *GeminiProvider) ResponseQuery() string { return p.responseQuery }

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
	Role  string       `json:"role,omitempty"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent   `json:"system_instruction,omitempty"`
	Contents          []geminiContent  `json:"contents"`
	GenerationConfig  geminiGenConfig  `json:"generationConfig"`
}

type geminiGenConfig struct {
	Temperature      float64 `json:"temperature"`
	MaxOutputTokens  int     `json:"maxOutputTokens,omitempty"`
	ResponseMimeType string  `json:"responseMimeType"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

type geminiErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Complete sends a generateContent request and returns the text payload.
func (p *GeminiProvider) Complete(ctx context.Context, req nlu.CompletionRequest) (string, error) {
	requestID := uuid.New().String()

	apiReq := geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: req.Prompt}}, Role: "user"}},
		GenerationConfig: geminiGenConfig{
			Temperature:      req.Temperature,
			MaxOutputTokens:  req.MaxTokens,
			ResponseMimeType: "application/json",
		},
	}
	if req.System != "" {
		apiReq.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: req.System}}}
	}

	body, err := json.Marshal(apiReq)
	if err != nil {
		return "", &errors.ProviderError{
			Provider:  "gemini",
			Model:     req.Model,
			Message:   fmt.Sprintf("failed to marshal request: %v", err),
			RequestID: requestID,
		}
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		p.baseURL, url.PathEscape(req.Model), url.QueryEscape(p.apiKey))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", &errors.ProviderError{
			Provider:  "gemini",
			Model:     req.Model,
			Message:   fmt.Sprintf("failed to create request: %v", err),
			RequestID: requestID,
		}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return "", &errors.ProviderError{
			Provider:  "gemini",
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
			Provider:   "gemini",
			Model:      req.Model,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("failed to read response: %v", err),
			RequestID:  requestID,
		}
	}

	if resp.StatusCode != http.StatusOK {
		var errResp geminiErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error.Message != "" {
			return "", &errors.ProviderError{
				Provider:   "gemini",
				Model:      req.Model,
				StatusCode: resp.StatusCode,
				Message:    errResp.Error.Message,
				RequestID:  requestID,
			}
		}
		return "", &errors.ProviderError{
			Provider:   "gemini",
			Model:      req.Model,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("API request failed with status %d", resp.StatusCode),
			RequestID:  requestID,
		}
	}

	var apiResp geminiResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", &errors.ProviderError{
			Provider:  "gemini",
			Model:     req.Model,
			Message:   fmt.Sprintf("failed to parse response envelope: %v", err),
			RequestID: requestID,
		}
	}
	if len(apiResp.Candidates) == 0 || len(apiResp.Candidates[0].Content.Parts) == 0 {
		return "", &errors.ProviderError{
			Provider:  "gemini",
			Model:     req.Model,
			Message:   "response contained no candidates",
			RequestID: requestID,
		}
	}

	return apiResp.Candidates[0].Content.Parts[0].Text, nil
}

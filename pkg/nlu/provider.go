// Package nlu provides natural-language understanding for automation
// requests: intent extraction and clarification-question generation.
//
// External providers are tried in ascending cost order with a per-provider
// model-variant sub-chain; a deterministic local analyzer terminates the
// chain and never fails, so the orchestrator as a whole is total. The
// package owns strict JSON-schema decoding of provider output; providers
// own only the transport.
package nlu

import (
	"context"
)

// Provider defines the interface that all NLU providers must implement.
// Implementations return the raw text payload; decoding and validation
// belong to the orchestrator.
type Provider interface {
	// Name returns the unique identifier for this provider (e.g., "anthropic", "openai").
	Name() string

	// UnitCost is the provider's relative cost per request, used to order
	// the fallback chain (ascending).
	UnitCost() float64

	// Models lists the provider's model variants in attempt order
	// (cheapest or fastest first).
	Models() []ModelInfo

	// Complete sends a completion request and returns the raw text payload.
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// ModelInfo describes one model variant of a provider.
type ModelInfo struct {
	// ID is the provider-specific model identifier (e.g., "gpt-4o-mini").
	ID string

	// Name is the human-readable model name.
	Name string

	// Tier is a rough quality/cost label (fast, balanced, strategic).
	Tier ModelTier
}

// ModelTier represents performance/cost trade-offs for model variants.
type ModelTier string

const (
	// ModelTierFast prioritizes speed and cost-efficiency.
	ModelTierFast ModelTier = "fast"

	// ModelTierBalanced offers a balance between capability and cost.
	ModelTierBalanced ModelTier = "balanced"

	// ModelTierStrategic provides maximum capability for complex requests.
	ModelTierStrategic ModelTier = "strategic"
)

// CompletionRequest contains the parameters for a single provider attempt.
type CompletionRequest struct {
	// Model is the model variant to use for this attempt.
	Model string

	// System is the system/instruction prompt.
	System string

	// Prompt is the user-turn content.
	Prompt string

	// MaxTokens limits the response length.
	MaxTokens int

	// Temperature controls randomness. NLU tasks run at 0 for determinism.
	Temperature float64
}

// ProviderConfig is the configuration a factory receives when a provider is
// activated. Credentials are passed separately and are request-scoped at the
// call sites; nothing here is written to process-wide state.
type ProviderConfig struct {
	// Name is the provider identifier.
	Name string `yaml:"name"`

	// UnitCost is the relative per-request cost used for chain ordering.
	UnitCost float64 `yaml:"unit_cost"`

	// BaseURL overrides the provider's default endpoint when non-empty.
	BaseURL string `yaml:"base_url,omitempty"`

	// Models lists model variants in attempt order. Empty uses the
	// provider's built-in defaults.
	Models []ModelConfig `yaml:"models,omitempty"`

	// ResponseQuery is an optional gojq expression applied to the decoded
	// payload to select the result object out of a vendor envelope.
	ResponseQuery string `yaml:"response_query,omitempty"`
}

// ModelConfig is the configuration shape of one model variant.
type ModelConfig struct {
	ID   string    `yaml:"id"`
	Name string    `yaml:"name,omitempty"`
	Tier ModelTier `yaml:"tier,omitempty"`
}

// ModelInfos converts configured models to ModelInfo values.
func (c ProviderConfig) ModelInfos() []ModelInfo {
	infos := make([]ModelInfo, 0, len(c.Models))
	for _, m := range c.Models {
		infos = append(infos, ModelInfo{ID: m.ID, Name: m.Name, Tier: m.Tier})
	}
	return infos
}

// PayloadExtractor is implemented by providers whose responses need a gojq
// extraction step before schema validation.
type PayloadExtractor interface {
	// ResponseQuery returns the configured gojq expression, or "" for none.
	ResponseQuery() string
}

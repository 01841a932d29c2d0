package providers

import (
	"github.com/shinobi1046-lgtm/scriptflow/pkg/nlu"
)

func init() {
	// Register all built-in provider factories.
	// Factories are registered at import time but not instantiated.
	// Call nlu.Activate() to instantiate based on config.
	nlu.RegisterFactory("openai", NewOpenAIProvider)
	nlu.RegisterFactory("anthropic", NewAnthropicProvider)
	nlu.RegisterFactory("gemini", NewGeminiProvider)
}

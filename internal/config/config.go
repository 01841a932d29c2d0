// Package config loads the ScriptFlow configuration file: provider chain,
// catalog location, logging, and clarification limits.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/shinobi1046-lgtm/scriptflow/pkg/errors"
	"github.com/shinobi1046-lgtm/scriptflow/pkg/nlu"
)

// Config is the top-level configuration.
type Config struct {
	// Providers is the NLU provider chain. Order does not matter; the
	// orchestrator re-sorts by unit cost.
	Providers []nlu.ProviderConfig `yaml:"providers"`

	// CatalogPath points at a capability catalog YAML file. Empty means
	// the embedded default catalog.
	CatalogPath string `yaml:"catalog"`

	// WatchCatalog reloads the catalog when the file changes.
	WatchCatalog bool `yaml:"watch_catalog"`

	// Logging controls log output.
	Logging Logging `yaml:"logging"`

	// MaxQuestions caps clarification questions per turn.
	MaxQuestions int `yaml:"max_questions"`

	// SessionDB is the path of the local session database. Empty means
	// sessions.db under the config directory.
	SessionDB string `yaml:"session_db"`
}

// Logging holds log settings.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file exists: no remote
// providers (the local analyzer handles everything), embedded catalog,
// text logs.
func Default() *Config {
	return &Config{
		Logging:      Logging{Level: "info", Format: "text"},
		MaxQuestions: 3,
	}
}

// Load reads and validates a configuration file. A missing file returns the
// defaults rather than an error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, &errors.ConfigError{Key: "file", Reason: "cannot read " + path, Cause: err}
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, &errors.ConfigError{Key: "file", Reason: "invalid YAML in " + path, Cause: err}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks structural constraints.
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Providers))
	for i, p := range c.Providers {
		if p.Name == "" {
			return &errors.ConfigError{Key: providerKey(i, "name"), Reason: "provider name is required"}
		}
		if seen[p.Name] {
			return &errors.ConfigError{Key: providerKey(i, "name"), Reason: "duplicate provider " + p.Name}
		}
		seen[p.Name] = true
		if p.UnitCost < 0 {
			return &errors.ConfigError{Key: providerKey(i, "unit_cost"), Reason: "unit cost must not be negative"}
		}
		for j, m := range p.Models {
			if m.ID == "" {
				return &errors.ConfigError{Key: providerKey(i, "models"), Reason: fmt.Sprintf("model %d has no id", j)}
			}
		}
	}
	if c.MaxQuestions < 0 {
		return &errors.ConfigError{Key: "max_questions", Reason: "must not be negative"}
	}
	return nil
}

func providerKey(i int, field string) string {
	return fmt.Sprintf("providers[%d].%s", i, field)
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinobi1046-lgtm/scriptflow/pkg/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
providers:
  - name: openai
    unit_cost: 1.0
    models:
      - id: gpt-4o-mini
        tier: fast
  - name: anthropic
    unit_cost: 3.0
catalog: /etc/scriptflow/catalog.yaml
logging:
  level: debug
  format: json
max_questions: 2
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Len(t, cfg.Providers, 2)
	assert.Equal(t, "openai", cfg.Providers[0].Name)
	assert.Equal(t, 1.0, cfg.Providers[0].UnitCost)
	assert.Equal(t, "gpt-4o-mini", cfg.Providers[0].Models[0].ID)
	assert.Equal(t, "/etc/scriptflow/catalog.yaml", cfg.CatalogPath)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 2, cfg.MaxQuestions)
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Empty(t, cfg.Providers)
	assert.Equal(t, 3, cfg.MaxQuestions)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "providers: [oops")
	_, err := Load(path)
	var cfgErr *errors.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantKey string
	}{
		{
			name: "empty provider name",
			mutate: func(c *Config) {
				c.Providers[0].Name = ""
			},
			wantKey: "providers[0].name",
		},
		{
			name: "duplicate provider",
			mutate: func(c *Config) {
				c.Providers[1].Name = c.Providers[0].Name
			},
			wantKey: "providers[1].name",
		},
		{
			name: "negative unit cost",
			mutate: func(c *Config) {
				c.Providers[0].UnitCost = -1
			},
			wantKey: "providers[0].unit_cost",
		},
		{
			name: "negative max questions",
			mutate: func(c *Config) {
				c.MaxQuestions = -1
			},
			wantKey: "max_questions",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, `
providers:
  - name: openai
    unit_cost: 1.0
  - name: gemini
    unit_cost: 2.0
`)
			cfg, err := Load(path)
			require.NoError(t, err)

			tt.mutate(cfg)
			verr := cfg.Validate()
			var cfgErr *errors.ConfigError
			require.ErrorAs(t, verr, &cfgErr)
			assert.Equal(t, tt.wantKey, cfgErr.Key)
		})
	}
}

func TestDirRespectsXDGConfigHome(t *testing.T) {
	base := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", base)

	dir, err := Dir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "scriptflow"), dir)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

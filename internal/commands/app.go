package commands

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/shinobi1046-lgtm/scriptflow/internal/config"
	"github.com/shinobi1046-lgtm/scriptflow/internal/metrics"
	"github.com/shinobi1046-lgtm/scriptflow/internal/secrets"
	"github.com/shinobi1046-lgtm/scriptflow/pkg/catalog"
	"github.com/shinobi1046-lgtm/scriptflow/pkg/nlu"
	"github.com/shinobi1046-lgtm/scriptflow/pkg/pipeline"

	// Register the provider factories.
	_ "github.com/shinobi1046-lgtm/scriptflow/pkg/nlu/providers"
)

// openCatalog resolves the configured catalog: a file-backed store when a
// path is set (optionally hot-reloaded), otherwise the embedded default.
func openCatalog(ctx context.Context, cfg *config.Config) (catalog.Catalog, error) {
	embedded, err := catalog.Default()
	if err != nil {
		return nil, err
	}
	if cfg.CatalogPath == "" {
		return embedded, nil
	}

	store := catalog.NewStore(embedded, slog.Default())
	if err := store.LoadFile(cfg.CatalogPath); err != nil {
		return nil, err
	}
	if cfg.WatchCatalog {
		if err := store.Watch(ctx, cfg.CatalogPath); err != nil {
			return nil, err
		}
	}
	return store, nil
}

// activateProviders activates every configured provider whose credentials
// resolve. Providers without credentials are skipped with a warning; an
// empty chain still works through the local analyzer.
func activateProviders(cfg *config.Config) []nlu.Provider {
	resolver := secrets.NewResolver()
	for _, pc := range cfg.Providers {
		key, err := resolver.APIKey(pc.Name)
		if err != nil {
			slog.Warn("skipping provider without credentials", "provider", pc.Name)
			continue
		}
		if err := nlu.Activate(pc, nlu.APIKeyCredentials{APIKey: key}); err != nil {
			slog.Warn("provider activation failed", "provider", pc.Name, "error", err)
		}
	}
	return nlu.DefaultRegistry().Active()
}

// app bundles the wired pipeline with its supporting pieces.
type app struct {
	pipeline *pipeline.Pipeline
	config   *config.Config
	metrics  *prometheus.Registry
}

// buildApp wires the full resolution pipeline from configuration.
func buildApp(ctx context.Context, flags *rootFlags) (*app, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}

	cat, err := openCatalog(ctx, cfg)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)
	orch, err := nlu.New(activateProviders(cfg), cat, nlu.Config{
		OnAttempt: collector.OnAttempt,
		Logger:    slog.Default(),
	})
	if err != nil {
		return nil, err
	}

	return &app{
		pipeline: pipeline.New(pipeline.Config{
			Catalog:      cat,
			Orchestrator: orch,
			Logger:       slog.Default(),
			MaxQuestions: cfg.MaxQuestions,
		}),
		config:  cfg,
		metrics: registry,
	}, nil
}

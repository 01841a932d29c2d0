// Package commands implements the scriptflow CLI command tree.
package commands

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/shinobi1046-lgtm/scriptflow/internal/config"
	"github.com/shinobi1046-lgtm/scriptflow/internal/log"
)

// rootFlags are the persistent flags shared by every command.
type rootFlags struct {
	configPath string
	logLevel   string
	logFormat  string
}

// NewRoot builds the scriptflow command tree.
func NewRoot(version string) *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:   "scriptflow",
		Short: "Turn natural-language automation requests into runnable scripts",
		Long: `scriptflow resolves a natural-language automation request into a
workflow graph and a runnable Apps Script program, asking clarifying
questions until it has enough information and rejecting any output
that uses forbidden runtime capabilities.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := log.FromEnv()
			if flags.logLevel != "" {
				cfg.Level = flags.logLevel
			}
			if flags.logFormat != "" {
				cfg.Format = log.Format(flags.logFormat)
			}
			slog.SetDefault(log.New(cfg))
			return nil
		},
	}

	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default: ~/.config/scriptflow/config.yaml)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flags.logFormat, "log-format", "", "log format (text, json)")

	root.AddCommand(
		newBuildCommand(flags),
		newCatalogCommand(flags),
		newProvidersCommand(flags),
		newValidateCommand(),
		newSessionsCommand(flags),
		newAuthCommand(),
		newVersionCommand(version),
	)
	return root
}

// loadConfig resolves the effective configuration for a command.
func loadConfig(flags *rootFlags) (*config.Config, error) {
	path := flags.configPath
	if path == "" {
		var err error
		path, err = config.Path()
		if err != nil {
			return nil, err
		}
	}
	return config.Load(path)
}

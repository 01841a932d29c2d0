package commands

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/shinobi1046-lgtm/scriptflow/internal/cli"
	"github.com/shinobi1046-lgtm/scriptflow/internal/secrets"
)

func newAuthCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage provider credentials",
	}
	cmd.AddCommand(newAuthSetCommand())
	return cmd
}

func newAuthSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set <provider>",
		Short: "Store a provider API key in the system keychain",
		Example: `  scriptflow auth set openai
  scriptflow auth set anthropic`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			provider := strings.ToLower(args[0])

			var key string
			form := huh.NewForm(huh.NewGroup(
				huh.NewInput().
					Title(fmt.Sprintf("API key for %s", provider)).
					EchoMode(huh.EchoModePassword).
					Value(&key).
					Validate(func(s string) error {
						if strings.TrimSpace(s) == "" {
							return fmt.Errorf("a key is required")
						}
						return nil
					}),
			))
			if err := form.Run(); err != nil {
				return err
			}

			if err := secrets.NewResolver().Store(provider, key); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderOK("stored key for "+provider))
			return nil
		},
	}
}

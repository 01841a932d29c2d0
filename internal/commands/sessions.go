package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shinobi1046-lgtm/scriptflow/internal/cli"
	"github.com/shinobi1046-lgtm/scriptflow/internal/config"
	"github.com/shinobi1046-lgtm/scriptflow/internal/store"
)

func newSessionsCommand(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Manage stored conversation sessions",
	}
	cmd.AddCommand(newSessionsListCommand(flags), newSessionsDeleteCommand(flags))
	return cmd
}

// openSessions opens the configured session database.
func openSessions(flags *rootFlags) (*store.SessionStore, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}
	path, err := config.SessionDBPath(cfg)
	if err != nil {
		return nil, err
	}
	return store.Open(path)
}

func newSessionsListCommand(flags *rootFlags) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored sessions, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			sessions, err := openSessions(flags)
			if err != nil {
				return err
			}
			defer sessions.Close()

			summaries, err := sessions.List(cmd.Context(), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(summaries) == 0 {
				fmt.Fprintln(out, cli.RenderInfo("no stored sessions"))
				return nil
			}
			for _, s := range summaries {
				fmt.Fprintf(out, "%s %s %s\n   %s\n",
					cli.Bold.Render(s.ID),
					cli.Muted.Render(string(s.Phase)),
					cli.Muted.Render(s.UpdatedAt.Local().Format("2006-01-02 15:04")),
					s.Request)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum sessions to list")
	return cmd
}

func newSessionsDeleteCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <session-id>",
		Short: "Delete a stored session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sessions, err := openSessions(flags)
			if err != nil {
				return err
			}
			defer sessions.Close()

			if err := sessions.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderOK("deleted "+args[0]))
			return nil
		},
	}
}

package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shinobi1046-lgtm/scriptflow/internal/cli"
	"github.com/shinobi1046-lgtm/scriptflow/pkg/nlu"
)

func newProvidersCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "Show configured NLU providers in fallback order",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}

			active := activateProviders(cfg)
			out := cmd.OutOrStdout()

			if len(active) == 0 {
				fmt.Fprintln(out, cli.RenderInfo("no remote providers configured; the local analyzer handles every request"))
			}
			for i, p := range active {
				var models []string
				for _, m := range p.Models() {
					models = append(models, m.ID)
				}
				fmt.Fprintf(out, "%d. %s %s\n   %s %s\n",
					i+1,
					cli.Header.Render(p.Name()),
					cli.Muted.Render(fmt.Sprintf("(unit cost %.2f)", p.UnitCost())),
					cli.Muted.Render("models:"),
					strings.Join(models, ", "))
			}

			available := nlu.DefaultRegistry().ListFactories()
			fmt.Fprintln(out, cli.Muted.Render("available factories: "+strings.Join(available, ", ")))
			fmt.Fprintln(out, cli.Muted.Render("every chain ends at the local deterministic analyzer"))
			return nil
		},
	}
}

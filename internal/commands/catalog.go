package commands

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shinobi1046-lgtm/scriptflow/internal/cli"
	"github.com/shinobi1046-lgtm/scriptflow/pkg/catalog"
	"github.com/shinobi1046-lgtm/scriptflow/pkg/errors"
	"github.com/shinobi1046-lgtm/scriptflow/pkg/synth"
)

func newCatalogCommand(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the capability catalog",
	}
	cmd.AddCommand(newCatalogListCommand(flags), newCatalogShowCommand(flags))
	return cmd
}

// commandCatalog loads the catalog a command should inspect.
func commandCatalog(cmd *cobra.Command, flags *rootFlags) (catalog.Catalog, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}
	return openCatalog(cmd.Context(), cfg)
}

func newCatalogListCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List applications and their functions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := commandCatalog(cmd, flags)
			if err != nil {
				return err
			}

			generated := make(map[string]bool)
			for _, id := range synth.RegisteredFunctions() {
				generated[id] = true
			}

			out := cmd.OutOrStdout()
			for _, app := range cat.Apps() {
				functions := cat.Functions(app)
				fmt.Fprintf(out, "%s %s\n", cli.Header.Render(app), cli.Muted.Render(fmt.Sprintf("(%d functions)", len(functions))))
				for _, fn := range functions {
					marker := ""
					if !generated[fn.ID] {
						marker = cli.Muted.Render("  (stub codegen)")
					}
					fmt.Fprintf(out, "  %s  %s%s\n", cli.Bold.Render(fn.ID), fn.Name, marker)
				}
			}
			return nil
		},
	}
}

func newCatalogShowCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show <app>",
		Short: "Show one application's functions in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := commandCatalog(cmd, flags)
			if err != nil {
				return err
			}

			app := strings.ToLower(args[0])
			functions := cat.Functions(app)
			if len(functions) == 0 {
				return &errors.NotFoundError{Resource: "application", ID: app}
			}

			out := cmd.OutOrStdout()
			for _, fn := range functions {
				fmt.Fprintf(out, "%s %s\n", cli.Header.Render(fn.ID), cli.Muted.Render("["+fn.Category+"]"))
				fmt.Fprintf(out, "  %s\n", fn.Description)
				if len(fn.Keywords) > 0 {
					fmt.Fprintf(out, "  %s %s\n", cli.Muted.Render("keywords:"), strings.Join(fn.Keywords, ", "))
				}
				for _, name := range sortedParamNames(fn) {
					spec := fn.Parameters[name]
					marker := ""
					if spec.Required {
						marker = cli.StatusError.Render(" (required)")
					}
					fmt.Fprintf(out, "  %s %s %s%s\n", cli.Muted.Render("param:"), cli.Bold.Render(name), spec.Type, marker)
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}
}

func sortedParamNames(fn catalog.FunctionDescriptor) []string {
	required := fn.RequiredParams()
	seen := make(map[string]bool, len(required))
	for _, name := range required {
		seen[name] = true
	}
	names := append([]string{}, required...)
	var optional []string
	for name := range fn.Parameters {
		if !seen[name] {
			optional = append(optional, name)
		}
	}
	sort.Strings(optional)
	return append(names, optional...)
}

package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shinobi1046-lgtm/scriptflow/internal/cli"
	"github.com/shinobi1046-lgtm/scriptflow/pkg/errors"
	"github.com/shinobi1046-lgtm/scriptflow/pkg/guardrail"
)

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <script.gs>",
		Short: "Run the guardrail scan against a script file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return errors.Wrap(err, "reading "+args[0])
			}

			out := cmd.OutOrStdout()
			if err := guardrail.New().Scan(string(data)); err != nil {
				var gerr *errors.GuardrailError
				if errors.As(err, &gerr) {
					fmt.Fprintln(out, cli.RenderError(fmt.Sprintf(
						"%s: %s pattern at line %d: %s",
						args[0], gerr.Pattern, gerr.Line, gerr.Snippet)))
				}
				return err
			}

			fmt.Fprintln(out, cli.RenderOK(args[0]+" passes the guardrail scan"))
			return nil
		},
	}
}

package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/shinobi1046-lgtm/scriptflow/internal/cli"
	"github.com/shinobi1046-lgtm/scriptflow/internal/config"
	"github.com/shinobi1046-lgtm/scriptflow/internal/store"
	"github.com/shinobi1046-lgtm/scriptflow/pkg/conversation"
	"github.com/shinobi1046-lgtm/scriptflow/pkg/errors"
	"github.com/shinobi1046-lgtm/scriptflow/pkg/pipeline"
)

// maxBuildTurns bounds the clarification loop so a misbehaving resolution
// cannot spin forever.
const maxBuildTurns = 20

func newBuildCommand(flags *rootFlags) *cobra.Command {
	var (
		outPath   string
		resumeID  string
		dumpStats bool
	)

	cmd := &cobra.Command{
		Use:   "build [request]",
		Short: "Build a workflow from a natural-language request",
		Example: `  scriptflow build "track invoice emails in a spreadsheet"
  scriptflow build --resume 6f1c... "ok"
  scriptflow build -o Code.gs "auto-reply to support emails"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := buildApp(ctx, flags)
			if err != nil {
				return err
			}

			dbPath, err := config.SessionDBPath(a.config)
			if err != nil {
				return err
			}
			sessions, err := store.Open(dbPath)
			if err != nil {
				return err
			}
			defer sessions.Close()

			var session *conversation.Session
			if resumeID != "" {
				session, err = sessions.Load(ctx, resumeID)
				if err != nil {
					return err
				}
			}

			request := strings.TrimSpace(strings.Join(args, " "))
			if session == nil && request == "" {
				if err := promptForRequest(&request); err != nil {
					return err
				}
			}

			req := pipeline.Request{Session: session, OriginalRequest: request}
			if session != nil && request != "" {
				// A trailing argument on resume is confirmation input.
				req.OriginalRequest = ""
				req.Confirmation = request
			}

			for turn := 0; turn < maxBuildTurns; turn++ {
				resp, err := resolveTurn(ctx, a.pipeline, sessions, req)
				if err != nil {
					return reportResolveError(cmd, err)
				}

				if !resp.NeedsQuestions {
					printArtifact(cmd, resp)
					if dumpStats {
						printMetrics(cmd, a)
					}
					return writeScript(cmd, outPath, resp.Artifact.RenderedScript)
				}

				answers, confirmation, err := askQuestions(resp.Questions)
				if err != nil {
					return err
				}
				req = pipeline.Request{
					Session:      resp.Session,
					Answers:      answers,
					Confirmation: confirmation,
				}
			}
			return errors.New("conversation did not converge; try a more specific request")
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write the generated script to a file")
	cmd.Flags().StringVar(&resumeID, "resume", "", "resume a stored session by id")
	cmd.Flags().BoolVar(&dumpStats, "show-metrics", false, "print provider attempt metrics after the run")
	return cmd
}

// resolveTurn runs one pipeline turn and persists the session even when
// resolution fails, so a --resume retry replays the latest phase rather than
// a stale one.
func resolveTurn(ctx context.Context, p *pipeline.Pipeline, sessions *store.SessionStore, req pipeline.Request) (*pipeline.Response, error) {
	resp, resolveErr := p.Resolve(ctx, req)

	session := req.Session
	if resp != nil {
		session = resp.Session
	}
	if session != nil {
		if err := sessions.Save(ctx, session); err != nil {
			return nil, err
		}
	}
	return resp, resolveErr
}

// promptForRequest asks for the automation description when no argument was
// given.
func promptForRequest(request *string) error {
	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("What should this automation do?").
			Placeholder("e.g. track invoice emails in a spreadsheet").
			Value(request).
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return fmt.Errorf("a request is required")
				}
				return nil
			}),
	))
	return form.Run()
}

// askQuestions renders one turn's questions as a form. The synthetic confirm
// question maps to free-text confirmation input instead of an answer.
func askQuestions(questions []conversation.Question) (map[string]string, string, error) {
	answers := make(map[string]string, len(questions))
	values := make([]*string, len(questions))

	var fields []huh.Field
	for i, q := range questions {
		value := new(string)
		values[i] = value
		if q.Kind == conversation.KindChoice {
			fields = append(fields, huh.NewSelect[string]().
				Title(q.Prompt).
				Options(huh.NewOptions(q.Choices...)...).
				Value(value))
		} else {
			fields = append(fields, huh.NewInput().
				Title(q.Prompt).
				Value(value))
		}
	}

	if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		return nil, "", err
	}

	var confirmation string
	for i, q := range questions {
		answer := strings.TrimSpace(*values[i])
		if q.ID == "confirm" {
			if answer == "Yes" {
				confirmation = "yes"
			} else {
				confirmation = "edit"
			}
			continue
		}
		if answer != "" {
			answers[q.ID] = answer
		}
	}
	return answers, confirmation, nil
}

// printArtifact renders the accepted workflow to the terminal.
func printArtifact(cmd *cobra.Command, resp *pipeline.Response) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, cli.RenderOK(cli.Bold.Render("Workflow accepted")))
	fmt.Fprintln(out)

	for i, node := range resp.Artifact.Nodes {
		connector := "   "
		if i > 0 {
			connector = cli.Muted.Render(" → ")
		}
		fmt.Fprintf(out, "%s%s %s\n", connector, cli.Header.Render(node.DisplayName()), cli.Muted.Render("("+node.FunctionID+")"))
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, cli.ScriptBlock.Render(resp.Artifact.RenderedScript))
	fmt.Fprintln(out, cli.RenderInfo("session "+resp.Session.ID))
}

// printMetrics dumps the gathered attempt counters.
func printMetrics(cmd *cobra.Command, a *app) {
	families, err := a.metrics.Gather()
	if err != nil {
		return
	}
	out := cmd.OutOrStdout()
	for _, fam := range families {
		for _, m := range fam.GetMetric() {
			var labels []string
			for _, lp := range m.GetLabel() {
				labels = append(labels, lp.GetName()+"="+lp.GetValue())
			}
			value := m.GetCounter().GetValue()
			if m.GetHistogram() != nil {
				value = float64(m.GetHistogram().GetSampleCount())
			}
			fmt.Fprintf(out, "%s{%s} %v\n", fam.GetName(), strings.Join(labels, ","), value)
		}
	}
}

// reportResolveError renders guardrail rejections with their violation
// detail; other failures pass through.
func reportResolveError(cmd *cobra.Command, err error) error {
	var gerr *errors.GuardrailError
	if errors.As(err, &gerr) {
		fmt.Fprintln(cmd.OutOrStdout(), cli.RenderError(fmt.Sprintf(
			"generated script rejected: %s pattern at line %d: %s",
			gerr.Pattern, gerr.Line, gerr.Snippet)))
	}
	return err
}

// writeScript writes the accepted script to a file when requested.
func writeScript(cmd *cobra.Command, path, script string) error {
	if path == "" {
		return nil
	}
	if err := os.WriteFile(path, []byte(script), 0644); err != nil {
		return errors.Wrap(err, "writing script to "+path)
	}
	fmt.Fprintln(cmd.OutOrStdout(), cli.RenderOK("script written to "+path))
	return nil
}

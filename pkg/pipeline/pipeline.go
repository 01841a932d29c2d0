// Package pipeline is the request-resolution entry point: it wires intent
// analysis, answer normalization, function resolution, clarification,
// synthesis, and the guardrail scan into one caller-facing operation.
package pipeline

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shinobi1046-lgtm/scriptflow/internal/log"
	"github.com/shinobi1046-lgtm/scriptflow/pkg/catalog"
	"github.com/shinobi1046-lgtm/scriptflow/pkg/conversation"
	"github.com/shinobi1046-lgtm/scriptflow/pkg/guardrail"
	"github.com/shinobi1046-lgtm/scriptflow/pkg/intent"
	"github.com/shinobi1046-lgtm/scriptflow/pkg/nlu"
	"github.com/shinobi1046-lgtm/scriptflow/pkg/synth"
)

// Request is one turn of a resolution conversation. Session is optional: a
// nil session starts a new conversation. Answers are merged into the
// session and normalized before anything else runs.
type Request struct {
	Session         *conversation.Session
	OriginalRequest string
	Answers         map[string]string
	DraftNodes      []synth.Node

	// Confirmation is the free-text input consumed in the confirm phase.
	Confirmation string
}

// Response is the outcome of one turn: either outstanding questions or an
// accepted artifact. Guardrail rejections surface as errors instead.
type Response struct {
	Session        *conversation.Session
	NeedsQuestions bool
	Questions      []conversation.Question
	Artifact       *synth.WorkflowArtifact
}

// Pipeline resolves natural-language automation requests.
type Pipeline struct {
	catalog      catalog.Catalog
	orchestrator *nlu.Orchestrator
	resolver     *intent.Resolver
	synthesizer  *synth.Synthesizer
	controller   *conversation.Controller
	logger       *slog.Logger
}

// Config assembles a pipeline. Catalog and Orchestrator are required.
type Config struct {
	Catalog      catalog.Catalog
	Orchestrator *nlu.Orchestrator
	Logger       *slog.Logger
	MaxQuestions int
}

// New wires a pipeline from its parts.
func New(cfg Config) *Pipeline {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	synthesizer := synth.New(cfg.Catalog)
	return &Pipeline{
		catalog:      cfg.Catalog,
		orchestrator: cfg.Orchestrator,
		resolver:     intent.NewResolver(cfg.Catalog),
		synthesizer:  synthesizer,
		controller: conversation.NewController(synthesizer, guardrail.New(), conversation.ControllerConfig{
			MaxQuestionsPerTurn: cfg.MaxQuestions,
			Logger:              logger,
		}),
		logger: logger,
	}
}

// Resolve runs one turn. It returns questions while information is missing,
// the accepted artifact once synthesis passes the guardrail scan, and a
// GuardrailError when generation is rejected; the session always comes back
// for the caller to persist.
func (p *Pipeline) Resolve(ctx context.Context, req Request) (*Response, error) {
	session := req.Session
	if session == nil {
		session = conversation.NewSession(req.OriginalRequest)
	}
	if session.OriginalRequest == "" {
		session.OriginalRequest = req.OriginalRequest
	}
	prompt := session.OriginalRequest

	merged := make(map[string]string, len(session.Answers)+len(req.Answers))
	for k, v := range session.Answers {
		merged[k] = v
	}
	for k, v := range req.Answers {
		merged[k] = v
	}
	session.Answers = intent.NormalizeAnswers(merged)

	logger := log.WithSession(p.logger, session.ID)

	// A brand-new conversation with no answers yet gets provider-generated
	// clarification questions before any resolution is attempted.
	if session.Phase == conversation.PhaseCollect && len(session.Answers) == 0 {
		questions, err := p.orchestrator.GenerateQuestions(ctx, prompt, session.Answers, 0)
		if err != nil {
			return nil, err
		}
		if len(questions) > 0 {
			session.PendingQuestions = mapQuestions(questions)
			logger.Info("clarification questions generated", "count", len(questions))
			return &Response{
				Session:        session,
				NeedsQuestions: true,
				Questions:      session.PendingQuestions,
			}, nil
		}
	}

	result, err := p.orchestrator.AnalyzeIntent(ctx, prompt, session.Answers)
	if err != nil {
		return nil, err
	}
	ictx := intent.Context{
		Intent:     result.Intent,
		TriggerApp: result.TriggerApp,
		ActionApps: result.ActionApps,
		Prompt:     prompt,
		Answers:    session.Answers,
	}

	selections, err := p.resolver.SelectAll(ictx)
	if err != nil {
		return nil, err
	}
	for _, sel := range selections {
		logger.Debug("function selected",
			log.AppKey, sel.App,
			log.FunctionKey, sel.FunctionID,
			"confidence", sel.Confidence,
		)
	}

	nodes := req.DraftNodes
	if len(nodes) == 0 {
		nodes, err = p.synthesizer.BuildNodes(selections)
		if err != nil {
			return nil, err
		}
	}

	if session.Phase == conversation.PhaseCollect {
		questions := p.controller.Collect(session, nodes)
		if len(questions) > 0 {
			return &Response{Session: session, NeedsQuestions: true, Questions: questions}, nil
		}
	}

	if session.Phase == conversation.PhaseConfirm {
		if req.Confirmation == "" {
			return &Response{
				Session:        session,
				NeedsQuestions: true,
				Questions:      []conversation.Question{confirmQuestion(nodes)},
			}, nil
		}
		p.controller.Confirm(session, req.Confirmation)
		if session.Phase == conversation.PhaseCollect {
			// Edit request: surface the collect questions again. When the
			// edit left nothing missing, re-confirm instead.
			questions := p.controller.Collect(session, nodes)
			if len(questions) == 0 {
				questions = []conversation.Question{confirmQuestion(nodes)}
			}
			return &Response{Session: session, NeedsQuestions: true, Questions: questions}, nil
		}
	}

	if session.Phase == conversation.PhaseGenerate {
		err := p.controller.Generate(session, synth.Request{
			Title:      titleFor(prompt),
			Trigger:    session.Answers[intent.KeyTrigger],
			Selections: selections,
		})
		if err != nil {
			return nil, err
		}
	}

	logger.Info("workflow accepted",
		log.PhaseKey, string(session.Phase),
		"nodes", len(session.Artifact.Nodes),
	)
	return &Response{Session: session, Artifact: session.Artifact}, nil
}

// confirmQuestion is the synthetic confirmation prompt surfaced between
// collection and generation.
func confirmQuestion(nodes []synth.Node) conversation.Question {
	steps := make([]string, 0, len(nodes))
	for _, n := range nodes {
		steps = append(steps, n.DisplayName())
	}
	return conversation.Question{
		ID:       "confirm",
		Prompt:   "Ready to generate: " + strings.Join(steps, " -> ") + ". Proceed?",
		Kind:     conversation.KindChoice,
		Choices:  []string{"Yes", "Edit"},
		Required: true,
		Category: conversation.CategoryPermission,
	}
}

// mapQuestions converts provider questions into conversation questions.
func mapQuestions(questions []nlu.Question) []conversation.Question {
	out := make([]conversation.Question, 0, len(questions))
	for _, q := range questions {
		out = append(out, conversation.Question{
			ID:       q.ID,
			Prompt:   q.Prompt,
			Kind:     q.Kind,
			Choices:  q.Choices,
			Required: q.Required,
			Category: q.Category,
		})
	}
	return out
}

const maxTitleLen = 60

// titleFor derives the script title from the original request.
func titleFor(prompt string) string {
	title := strings.TrimSpace(prompt)
	if title == "" {
		return "Automated workflow"
	}
	if len(title) > maxTitleLen {
		title = strings.TrimSpace(title[:maxTitleLen]) + "..."
	}
	return title
}

package conversation

import (
	"log/slog"
	"regexp"

	"github.com/shinobi1046-lgtm/scriptflow/internal/log"
	"github.com/shinobi1046-lgtm/scriptflow/pkg/guardrail"
	"github.com/shinobi1046-lgtm/scriptflow/pkg/synth"
)

// defaultMaxQuestionsPerTurn bounds how many questions one turn surfaces so
// the user is never flooded.
const defaultMaxQuestionsPerTurn = 3

// confirmPattern matches affirmative confirmation input. Anything else is
// an edit request.
var confirmPattern = regexp.MustCompile(`(?i)^\s*(ok|yes|confirm)`)

// Controller drives sessions through the clarification phases.
type Controller struct {
	synthesizer     *synth.Synthesizer
	validator       *guardrail.Validator
	logger          *slog.Logger
	maxQuestionsPer int
}

// ControllerConfig tunes a controller. Zero values pick defaults.
type ControllerConfig struct {
	MaxQuestionsPerTurn int
	Logger              *slog.Logger
}

// NewController creates a controller over a synthesizer and validator.
func NewController(s *synth.Synthesizer, v *guardrail.Validator, cfg ControllerConfig) *Controller {
	maxQ := cfg.MaxQuestionsPerTurn
	if maxQ <= 0 {
		maxQ = defaultMaxQuestionsPerTurn
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		synthesizer:     s,
		validator:       v,
		logger:          logger,
		maxQuestionsPer: maxQ,
	}
}

// Collect runs one collect-phase turn: compute the draft graph's missing
// required fields and either surface questions or advance to confirmation.
func (c *Controller) Collect(s *Session, nodes []synth.Node) []Question {
	missing := MissingFields(nodes, s.Answers)
	if len(missing) == 0 {
		s.PendingQuestions = nil
		c.transition(s, PhaseConfirm, 0)
		return nil
	}

	capped := missing
	if len(capped) > c.maxQuestionsPer {
		capped = capped[:c.maxQuestionsPer]
	}
	questions := make([]Question, 0, len(capped))
	for _, m := range capped {
		questions = append(questions, questionFor(m, nodes))
	}
	s.PendingQuestions = questions
	c.transition(s, PhaseCollect, len(missing))
	return questions
}

// Confirm consumes free-text confirmation input. Affirmative input advances
// to generation; anything else is an edit request and returns to collect,
// with answers expected to have been merged by the caller beforehand.
func (c *Controller) Confirm(s *Session, input string) {
	if confirmPattern.MatchString(input) {
		c.transition(s, PhaseGenerate, 0)
		return
	}
	c.transition(s, PhaseCollect, 0)
}

// Generate synthesizes the workflow and runs the guardrail scan. Acceptance
// stores the artifact and finishes the session; a guardrail rejection keeps
// the session in the generate phase so the caller can adjust answers and
// retry, and the rejected script is never stored.
func (c *Controller) Generate(s *Session, req synth.Request) error {
	artifact, err := c.synthesizer.Synthesize(req)
	if err != nil {
		return err
	}
	if err := c.validator.Scan(artifact.RenderedScript); err != nil {
		c.transition(s, PhaseGenerate, 0)
		return err
	}

	artifact.Status = synth.StatusAccepted
	s.Artifact = artifact
	c.transition(s, PhaseDone, 0)
	return nil
}

// transition moves the session to next and logs the edge.
func (c *Controller) transition(s *Session, next Phase, missingCount int) {
	prior := s.Phase
	s.Phase = next
	c.logger.Info("phase transition",
		log.SessionIDKey, s.ID,
		"from", string(prior),
		log.PhaseKey, string(next),
		"missing_fields", missingCount,
	)
}

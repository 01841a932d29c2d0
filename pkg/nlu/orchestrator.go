package nlu

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/itchyny/gojq"

	"github.com/shinobi1046-lgtm/scriptflow/internal/log"
	"github.com/shinobi1046-lgtm/scriptflow/pkg/catalog"
	"github.com/shinobi1046-lgtm/scriptflow/pkg/errors"
)

// AttemptOutcome classifies a single provider attempt.
type AttemptOutcome string

const (
	// OutcomeSuccess means the attempt returned a conforming payload.
	OutcomeSuccess AttemptOutcome = "success"

	// OutcomeProviderError means the call failed in transport or returned
	// a non-success status.
	OutcomeProviderError AttemptOutcome = "provider_error"

	// OutcomeMalformed means the body failed strict schema decode.
	OutcomeMalformed AttemptOutcome = "malformed"

	// OutcomeLocalFallback marks the terminal local analyzer result.
	OutcomeLocalFallback AttemptOutcome = "local_fallback"
)

// AttemptEvent is emitted once per attempt for observability.
type AttemptEvent struct {
	Provider string
	Model    string
	Task     Task
	Outcome  AttemptOutcome
	Latency  time.Duration
	Err      error
}

// Config configures orchestrator behavior.
type Config struct {
	// AttemptTimeout bounds every individual provider call.
	// Default: 20s.
	AttemptTimeout time.Duration

	// OnAttempt is called after every attempt (including the local
	// fallback). Useful for metrics; may be nil.
	OnAttempt func(AttemptEvent)

	// Logger receives per-attempt structured logs. Defaults to slog.Default().
	Logger *slog.Logger
}

// DefaultConfig returns sensible orchestrator defaults.
func DefaultConfig() Config {
	return Config{AttemptTimeout: 20 * time.Second}
}

// Orchestrator issues NLU tasks against an ordered provider chain with a
// terminal deterministic analyzer. It is safe for concurrent use; each call
// runs its own attempt sequence.
type Orchestrator struct {
	providers []Provider
	queries   map[string]*gojq.Code
	catalog   catalog.Catalog
	local     *LocalAnalyzer
	dec       *decoder
	cfg       Config
	logger    *slog.Logger
}

// New creates an orchestrator over the given providers. Providers are
// re-sorted by ascending unit cost (name-tiebreak) so chain order never
// depends on caller ordering.
func New(providers []Provider, cat catalog.Catalog, cfg Config) (*Orchestrator, error) {
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = DefaultConfig().AttemptTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = log.WithComponent(logger, "nlu")

	ordered := make([]Provider, len(providers))
	copy(ordered, providers)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].UnitCost() != ordered[j].UnitCost() {
			return ordered[i].UnitCost() < ordered[j].UnitCost()
		}
		return ordered[i].Name() < ordered[j].Name()
	})

	queries := make(map[string]*gojq.Code)
	for _, p := range ordered {
		if extractor, ok := p.(PayloadExtractor); ok {
			code, err := compileQuery(extractor.ResponseQuery())
			if err != nil {
				return nil, err
			}
			if code != nil {
				queries[p.Name()] = code
			}
		}
	}

	return &Orchestrator{
		providers: ordered,
		queries:   queries,
		catalog:   cat,
		local:     NewLocalAnalyzer(cat),
		dec:       newDecoder(),
		cfg:       cfg,
		logger:    logger,
	}, nil
}

// AnalyzeIntent extracts the automation intent for a prompt.
// It never returns an error other than context cancellation.
func (o *Orchestrator) AnalyzeIntent(ctx context.Context, prompt string, answers map[string]string) (*IntentResult, error) {
	result, err := o.Run(ctx, Request{Task: TaskAnalyzeIntent, Prompt: prompt, Answers: answers})
	if err != nil {
		return nil, err
	}
	return result.Intent, nil
}

// GenerateQuestions produces clarification questions for a prompt.
// It never returns an error other than context cancellation.
func (o *Orchestrator) GenerateQuestions(ctx context.Context, prompt string, answers map[string]string, max int) ([]Question, error) {
	result, err := o.Run(ctx, Request{Task: TaskGenerateQuestions, Prompt: prompt, Answers: answers, MaxQuestions: max})
	if err != nil {
		return nil, err
	}
	return result.Questions, nil
}

// Run executes one NLU task through the fallback chain: providers in
// ascending cost order, model variants in listed order within each provider,
// one bounded attempt each, terminal local analyzer. The only error Run can
// return is the context's, so cancellation propagates and skips the rest.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Result, error) {
	system, user := buildTaskPrompts(req, o.catalog)

	for _, provider := range o.providers {
		models := provider.Models()
		if len(models) == 0 {
			models = []ModelInfo{{}}
		}

		for _, model := range models {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			result, err := o.attempt(ctx, provider, model.ID, system, user, req.Task)
			if err == nil {
				return result, nil
			}
			// Failed attempt: the chain advances; nothing is retried.
		}
	}

	// Every provider/variant attempt failed. The local analyzer is total,
	// so the orchestrated task still succeeds with a lowered-confidence result.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	result := o.local.Run(req)
	o.emit(AttemptEvent{
		Provider: localAnalyzerName,
		Task:     req.Task,
		Outcome:  OutcomeLocalFallback,
		Latency:  time.Since(start),
	})
	o.logger.Info("all providers exhausted, local analyzer produced result",
		"task", string(req.Task),
	)
	return result, nil
}

// attempt issues one bounded provider call and strictly decodes the body.
func (o *Orchestrator) attempt(ctx context.Context, provider Provider, model, system, user string, task Task) (*Result, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, o.cfg.AttemptTimeout)
	defer cancel()

	start := time.Now()
	raw, err := provider.Complete(attemptCtx, CompletionRequest{
		Model:       model,
		System:      system,
		Prompt:      user,
		MaxTokens:   1024,
		Temperature: 0,
	})
	latency := time.Since(start)

	if err != nil {
		if attemptCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			err = &errors.TimeoutError{Operation: "provider call", Duration: o.cfg.AttemptTimeout, Cause: err}
		}
		o.emit(AttemptEvent{Provider: provider.Name(), Model: model, Task: task, Outcome: OutcomeProviderError, Latency: latency, Err: err})
		o.logger.Warn("provider attempt failed",
			log.ProviderKey, provider.Name(),
			log.ModelKey, model,
			"task", string(task),
			log.Duration(latency.Milliseconds()),
			log.Error(err),
		)
		return nil, err
	}

	result, err := o.dec.decode(provider.Name(), raw, o.queries[provider.Name()], task)
	if err != nil {
		o.emit(AttemptEvent{Provider: provider.Name(), Model: model, Task: task, Outcome: OutcomeMalformed, Latency: latency, Err: err})
		o.logger.Warn("provider response failed strict decode",
			log.ProviderKey, provider.Name(),
			log.ModelKey, model,
			"task", string(task),
			log.Error(err),
		)
		return nil, err
	}

	o.emit(AttemptEvent{Provider: provider.Name(), Model: model, Task: task, Outcome: OutcomeSuccess, Latency: latency})
	o.logger.Debug("provider attempt succeeded",
		log.ProviderKey, provider.Name(),
		log.ModelKey, model,
		"task", string(task),
		log.Duration(latency.Milliseconds()),
	)
	return result, nil
}

func (o *Orchestrator) emit(event AttemptEvent) {
	if o.cfg.OnAttempt != nil {
		o.cfg.OnAttempt(event)
	}
}

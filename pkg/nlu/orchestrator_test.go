package nlu

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinobi1046-lgtm/scriptflow/pkg/catalog"
	"github.com/shinobi1046-lgtm/scriptflow/pkg/errors"
)

// mockProvider is a scriptable provider for orchestrator tests.
type mockProvider struct {
	mu       sync.Mutex
	name     string
	cost     float64
	models   []ModelInfo
	response string
	err      error
	calls    []string // model IDs in call order
}

func (m *mockProvider) Name() string        { return m.name }
func (m *mockProvider) UnitCost() float64   { return m.cost }
func (m *mockProvider) Models() []ModelInfo { return m.models }

func (m *mockProvider) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req.Model)
	m.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func (m *mockProvider) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func testCatalog(t *testing.T) *catalog.InMemory {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)
	return cat
}

const validIntentJSON = `{"intent":"tracking_automation","trigger_app":"gmail","action_apps":["sheets"],"confidence":0.9}`

func TestOrchestrator_CostOrderShortCircuits(t *testing.T) {
	cheap := &mockProvider{name: "cheap", cost: 1, response: validIntentJSON}
	expensive := &mockProvider{name: "expensive", cost: 10, response: validIntentJSON}

	// Deliberately pass providers out of cost order.
	orch, err := New([]Provider{expensive, cheap}, testCatalog(t), DefaultConfig())
	require.NoError(t, err)

	intent, err := orch.AnalyzeIntent(context.Background(), "track my emails in a sheet", nil)
	require.NoError(t, err)

	assert.Equal(t, "cheap", intent.Source)
	assert.Equal(t, 1, cheap.callCount())
	assert.Equal(t, 0, expensive.callCount(), "cheaper success must short-circuit costlier providers")
}

func TestOrchestrator_ModelVariantSubFallback(t *testing.T) {
	failing := &mockProvider{
		name:   "tiered",
		cost:   1,
		err:    fmt.Errorf("upstream overloaded"),
		models: []ModelInfo{{ID: "tier-fast"}, {ID: "tier-balanced"}},
	}
	backup := &mockProvider{name: "backup", cost: 2, response: validIntentJSON}

	orch, err := New([]Provider{failing, backup}, testCatalog(t), DefaultConfig())
	require.NoError(t, err)

	intent, err := orch.AnalyzeIntent(context.Background(), "track my emails", nil)
	require.NoError(t, err)

	// Both variants of the cheap provider are attempted before moving on.
	assert.Equal(t, []string{"tier-fast", "tier-balanced"}, failing.calls)
	assert.Equal(t, "backup", intent.Source)
}

func TestOrchestrator_AllProvidersFailUsesLocalAnalyzer(t *testing.T) {
	p1 := &mockProvider{name: "a", cost: 1, err: fmt.Errorf("boom")}
	p2 := &mockProvider{name: "b", cost: 2, response: "this is not json"}

	orch, err := New([]Provider{p1, p2}, testCatalog(t), DefaultConfig())
	require.NoError(t, err)

	intent, err := orch.AnalyzeIntent(context.Background(), "automate my emails and track them in a spreadsheet", nil)
	require.NoError(t, err, "orchestrator must be total when providers fail")
	require.NotNil(t, intent)

	assert.Equal(t, "local", intent.Source)
	assert.Equal(t, "gmail", intent.TriggerApp)
	assert.Contains(t, intent.ActionApps, "sheets")
	assert.Less(t, intent.Confidence, 0.5, "local fallback reports lowered confidence")
}

func TestOrchestrator_MalformedResponseAdvancesChain(t *testing.T) {
	// Valid JSON, but missing required fields: must fail strict decode.
	malformed := &mockProvider{name: "bad", cost: 1, response: `{"intent":"x"}`}
	good := &mockProvider{name: "good", cost: 2, response: validIntentJSON}

	orch, err := New([]Provider{malformed, good}, testCatalog(t), DefaultConfig())
	require.NoError(t, err)

	intent, err := orch.AnalyzeIntent(context.Background(), "anything", nil)
	require.NoError(t, err)
	assert.Equal(t, "good", intent.Source)
	assert.Equal(t, 1, malformed.callCount(), "failed attempts are not retried")
}

func TestOrchestrator_CancellationSkipsRemainingAttempts(t *testing.T) {
	p1 := &mockProvider{name: "a", cost: 1, err: fmt.Errorf("boom")}
	p2 := &mockProvider{name: "b", cost: 2, response: validIntentJSON}

	orch, err := New([]Provider{p1, p2}, testCatalog(t), DefaultConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = orch.AnalyzeIntent(ctx, "anything", nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, p2.callCount())
}

func TestOrchestrator_AttemptEventsEmitted(t *testing.T) {
	failing := &mockProvider{name: "a", cost: 1, err: fmt.Errorf("boom")}

	var events []AttemptEvent
	cfg := DefaultConfig()
	cfg.OnAttempt = func(e AttemptEvent) { events = append(events, e) }

	orch, err := New([]Provider{failing}, testCatalog(t), cfg)
	require.NoError(t, err)

	_, err = orch.AnalyzeIntent(context.Background(), "track emails", nil)
	require.NoError(t, err)

	require.Len(t, events, 2)
	assert.Equal(t, OutcomeProviderError, events[0].Outcome)
	assert.Equal(t, "a", events[0].Provider)
	assert.Equal(t, OutcomeLocalFallback, events[1].Outcome)
	assert.Equal(t, "local", events[1].Provider)
}

// stallProvider blocks until its context is cancelled.
type stallProvider struct{ name string }

func (s *stallProvider) Name() string        { return s.name }
func (s *stallProvider) UnitCost() float64   { return 1 }
func (s *stallProvider) Models() []ModelInfo { return nil }

func (s *stallProvider) Complete(ctx context.Context, _ CompletionRequest) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestOrchestrator_AttemptTimeoutClassified(t *testing.T) {
	var events []AttemptEvent
	orch, err := New([]Provider{&stallProvider{name: "slow"}}, testCatalog(t), Config{
		AttemptTimeout: 10 * time.Millisecond,
		OnAttempt:      func(e AttemptEvent) { events = append(events, e) },
	})
	require.NoError(t, err)

	intent, err := orch.AnalyzeIntent(context.Background(), "track emails", nil)
	require.NoError(t, err, "a stalled provider must not stall the task")
	assert.Equal(t, "local", intent.Source)

	require.NotEmpty(t, events)
	assert.Equal(t, OutcomeProviderError, events[0].Outcome)
	var terr *errors.TimeoutError
	require.ErrorAs(t, events[0].Err, &terr)
	assert.Equal(t, "provider call", terr.Operation)
	assert.Equal(t, 10*time.Millisecond, terr.Duration)
}

func TestOrchestrator_GenerateQuestionsFallback(t *testing.T) {
	failing := &mockProvider{name: "a", cost: 1, err: fmt.Errorf("down")}

	orch, err := New([]Provider{failing}, testCatalog(t), DefaultConfig())
	require.NoError(t, err)

	questions, err := orch.GenerateQuestions(context.Background(), "automate my emails", nil, 3)
	require.NoError(t, err)
	require.NotEmpty(t, questions)

	var hasTrigger bool
	for _, q := range questions {
		if q.Category == "trigger" {
			hasTrigger = true
		}
	}
	assert.True(t, hasTrigger, "an underspecified request must yield a trigger question")
}

func TestOrchestrator_Deterministic(t *testing.T) {
	orch, err := New(nil, testCatalog(t), DefaultConfig())
	require.NoError(t, err)

	first, err := orch.AnalyzeIntent(context.Background(), "track my emails in a sheet", nil)
	require.NoError(t, err)
	second, err := orch.AnalyzeIntent(context.Background(), "track my emails in a sheet", nil)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

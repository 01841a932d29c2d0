// Package conversation implements the turn-by-turn clarification state
// machine. Sessions are owned by the caller: the controller mutates the
// session it is handed for one turn and never stores it, so concurrent
// requests share no state.
package conversation

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/shinobi1046-lgtm/scriptflow/pkg/synth"
)

// Phase is a conversation lifecycle stage. Phases only advance
// COLLECT -> CONFIRM -> GENERATE -> DONE, except the explicit edit branch
// CONFIRM -> COLLECT.
type Phase string

const (
	PhaseCollect  Phase = "COLLECT_REQUIREMENTS"
	PhaseConfirm  Phase = "CONFIRM_REQUIREMENTS"
	PhaseGenerate Phase = "GENERATE_SPEC"
	PhaseDone     Phase = "DONE"
)

// Question input kinds.
const (
	KindChoice = "choice"
	KindText   = "text"
)

// Question categories.
const (
	CategoryTrigger     = "trigger"
	CategoryFilter      = "filter"
	CategoryDestination = "destination"
	CategoryPermission  = "permission"
)

// Question is a structured clarification prompt surfaced to the user.
type Question struct {
	ID       string   `json:"id"`
	Prompt   string   `json:"prompt"`
	Kind     string   `json:"kind"`
	Choices  []string `json:"choices,omitempty"`
	Required bool     `json:"required"`
	Category string   `json:"category"`
}

// Session is one conversation's caller-owned state. Callers persist and
// replay it across turns; nothing here is server-resident.
type Session struct {
	ID               string                  `json:"id"`
	Phase            Phase                   `json:"phase"`
	OriginalRequest  string                  `json:"original_request"`
	Answers          map[string]string       `json:"answers"`
	PendingQuestions []Question              `json:"pending_questions,omitempty"`
	Artifact         *synth.WorkflowArtifact `json:"artifact,omitempty"`
}

// NewSession starts a session in the collect phase.
func NewSession(originalRequest string) *Session {
	return &Session{
		ID:              uuid.New().String(),
		Phase:           PhaseCollect,
		OriginalRequest: originalRequest,
		Answers:         make(map[string]string),
	}
}

// MissingField identifies one unresolved required field of a draft node.
// Kind is always the generic text kind; the field's declared type is not
// propagated.
type MissingField struct {
	NodeID string `json:"node_id"`
	Field  string `json:"field"`
	Kind   string `json:"kind"`
}

// AnswerKey is the canonical answer-map key for a node field.
func (m MissingField) AnswerKey() string {
	return m.NodeID + "." + m.Field
}

// MissingFields computes the unresolved required fields of a draft graph,
// in node order. A field counts as resolved when the answers hold it under
// "{nodeID}.{field}" or the node carries a concrete inline value; resolver
// placeholders do not count.
func MissingFields(nodes []synth.Node, answers map[string]string) []MissingField {
	var missing []MissingField
	for _, node := range nodes {
		for _, field := range node.Required {
			if answers[node.ID+"."+field] != "" {
				continue
			}
			if inline, ok := node.Parameters[field]; ok && inline != "" && !isPlaceholder(inline) {
				continue
			}
			missing = append(missing, MissingField{NodeID: node.ID, Field: field, Kind: KindText})
		}
	}
	return missing
}

// isPlaceholder reports whether a parameter value is an explicit unresolved
// marker rather than a concrete value.
func isPlaceholder(value string) bool {
	return strings.HasPrefix(value, "{{") && strings.HasSuffix(value, "}}")
}

// questionFor builds the clarification question for one missing field.
func questionFor(m MissingField, nodes []synth.Node) Question {
	label := m.NodeID
	for _, node := range nodes {
		if node.ID == m.NodeID {
			label = node.DisplayName()
			break
		}
	}
	return Question{
		ID:       m.AnswerKey(),
		Prompt:   fmt.Sprintf("Please provide %s for %s", m.Field, label),
		Kind:     m.Kind,
		Required: true,
		Category: categoryFor(m.Field),
	}
}

// categoryFor buckets a field name into a question category.
func categoryFor(field string) string {
	f := strings.ToLower(field)
	switch {
	case strings.Contains(f, "trigger") || strings.Contains(f, "schedule"):
		return CategoryTrigger
	case strings.Contains(f, "query") || strings.Contains(f, "filter") || strings.Contains(f, "criteria"):
		return CategoryFilter
	case strings.Contains(f, "token") || strings.Contains(f, "key") || strings.Contains(f, "scope"):
		return CategoryPermission
	default:
		return CategoryDestination
	}
}

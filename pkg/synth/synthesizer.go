package synth

import (
	"strings"

	"github.com/shinobi1046-lgtm/scriptflow/pkg/catalog"
	"github.com/shinobi1046-lgtm/scriptflow/pkg/errors"
	"github.com/shinobi1046-lgtm/scriptflow/pkg/intent"
)

// Request carries everything a synthesis run needs. Selections must be in
// execution order: trigger first, then actions.
type Request struct {
	Title      string
	Trigger    string
	Selections []intent.Selection
}

// Synthesizer assembles selections into workflow artifacts.
type Synthesizer struct {
	catalog catalog.Catalog
}

// New creates a synthesizer over the given catalog.
func New(cat catalog.Catalog) *Synthesizer {
	return &Synthesizer{catalog: cat}
}

// BuildNodes converts selections into graph nodes with deterministic ids,
// labels, required-field lists, and grid positions.
func (s *Synthesizer) BuildNodes(selections []intent.Selection) ([]Node, error) {
	if len(selections) == 0 {
		return nil, &errors.ValidationError{Field: "selections", Message: "workflow needs at least one step"}
	}

	nodes := make([]Node, 0, len(selections))
	for i, sel := range selections {
		descriptor, err := lookupFunction(s.catalog, sel.App, sel.FunctionID)
		if err != nil {
			return nil, err
		}

		params := make(map[string]string, len(sel.Parameters))
		for k, v := range sel.Parameters {
			params[k] = v
		}

		nodes = append(nodes, Node{
			ID:         nodeID(i),
			App:        sel.App,
			FunctionID: sel.FunctionID,
			Label:      descriptor.Name,
			Parameters: params,
			Required:   descriptor.RequiredParams(),
			Position:   gridPosition(i),
		})
	}
	return nodes, nil
}

// BuildEdges connects consecutive nodes with a data-type label inferred
// from the upstream step.
func BuildEdges(nodes []Node) []Edge {
	if len(nodes) < 2 {
		return nil
	}
	edges := make([]Edge, 0, len(nodes)-1)
	for i := 1; i < len(nodes); i++ {
		edges = append(edges, Edge{
			Source:   nodes[i-1].ID,
			Target:   nodes[i].ID,
			DataType: dataTypeFor(nodes[i-1].FunctionID),
		})
	}
	return edges
}

// Synthesize builds the full artifact with a pending validation status.
// Callers must run the guardrail scan before exposing the script.
func (s *Synthesizer) Synthesize(req Request) (*WorkflowArtifact, error) {
	nodes, err := s.BuildNodes(req.Selections)
	if err != nil {
		return nil, err
	}

	title := req.Title
	if title == "" {
		title = "Automated workflow"
	}
	script, err := renderScript(title, req.Trigger, nodes)
	if err != nil {
		return nil, err
	}

	return &WorkflowArtifact{
		Nodes:          nodes,
		Edges:          BuildEdges(nodes),
		RenderedScript: script,
		Status:         StatusPending,
	}, nil
}

// dataTypeFor labels the data a step emits to its successor.
func dataTypeFor(functionID string) string {
	switch {
	case strings.Contains(functionID, "search") || strings.Contains(functionID, "auto_reply"):
		return "messages"
	case strings.Contains(functionID, "read_range"):
		return "rows"
	case strings.Contains(functionID, "list_files"):
		return "file names"
	case strings.Contains(functionID, "list_events"):
		return "events"
	default:
		return "items"
	}
}

func lookupFunction(cat catalog.Catalog, app, id string) (catalog.FunctionDescriptor, error) {
	for _, fn := range cat.Functions(app) {
		if fn.ID == id {
			return fn, nil
		}
	}
	return catalog.FunctionDescriptor{}, &errors.NotFoundError{Resource: "function", ID: app + "/" + id}
}

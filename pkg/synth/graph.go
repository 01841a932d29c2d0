// Package synth assembles resolved function selections into a workflow
// artifact: an ordered node/edge graph plus rendered runtime source. Code
// generation is table-driven; each (app, function) pair maps to a fragment
// generator and fragments compose through a fixed program skeleton.
package synth

import "fmt"

// ValidationStatus tracks whether an artifact passed the guardrail scan.
type ValidationStatus string

const (
	StatusPending  ValidationStatus = "PENDING"
	StatusAccepted ValidationStatus = "ACCEPTED"
	StatusRejected ValidationStatus = "REJECTED"
)

// Position is a layout hint for rendering consumers. It carries no
// execution semantics.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Node is one step of the workflow graph.
type Node struct {
	ID         string            `json:"id"`
	App        string            `json:"app"`
	FunctionID string            `json:"function_id"`
	Label      string            `json:"label"`
	Parameters map[string]string `json:"parameters"`
	Required   []string          `json:"required,omitempty"`
	Position   Position          `json:"position"`
}

// DisplayName returns the node's label, falling back to its function id.
func (n Node) DisplayName() string {
	if n.Label != "" {
		return n.Label
	}
	return n.FunctionID
}

// Edge connects two nodes and labels the data flowing between them.
type Edge struct {
	Source   string `json:"source"`
	Target   string `json:"target"`
	DataType string `json:"data_type"`
}

// WorkflowArtifact is the pipeline's final product. RenderedScript is only
// exposed to callers once Status is StatusAccepted.
type WorkflowArtifact struct {
	Nodes          []Node           `json:"nodes"`
	Edges          []Edge           `json:"edges"`
	RenderedScript string           `json:"rendered_script,omitempty"`
	Status         ValidationStatus `json:"status"`
}

// Grid layout constants. Purely cosmetic.
const (
	gridColumns = 4
	gridOriginX = 80
	gridOriginY = 80
	gridStepX   = 260
	gridStepY   = 180
)

// gridPosition places node i on a deterministic left-to-right grid.
func gridPosition(i int) Position {
	return Position{
		X: gridOriginX + (i%gridColumns)*gridStepX,
		Y: gridOriginY + (i/gridColumns)*gridStepY,
	}
}

// nodeID returns the stable identifier for the i-th node of a run.
func nodeID(i int) string {
	return fmt.Sprintf("node_%d", i+1)
}

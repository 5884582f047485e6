package model

import "encoding/json"

// Node types accepted by the workflow runner
const (
	NodeTypeAgent = "agent"
	NodeTypeTool  = "tool"
)

// WorkflowNode is a node of the saved workflow document
type WorkflowNode struct {
	ID     string          `json:"id"`
	Type   string          `json:"type"`
	Label  string          `json:"label"`
	Config json.RawMessage `json:"config,omitempty"`
}

// WorkflowEdge is an edge of the saved workflow document. An unlabeled edge
// omits the label key entirely.
type WorkflowEdge struct {
	ID     string  `json:"id,omitempty"`
	Source string  `json:"source"`
	Target string  `json:"target"`
	Label  *string `json:"label,omitempty"`
}

// Workflow is the body of POST /workflows
type Workflow struct {
	Name  string         `json:"name"`
	Nodes []WorkflowNode `json:"nodes"`
	Edges []WorkflowEdge `json:"edges"`
}

// WorkflowSaved is returned by POST /workflows
type WorkflowSaved struct {
	Status string `json:"status"`
	Path   string `json:"path,omitempty"`
}

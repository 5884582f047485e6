// Package workflow edits node/edge graphs and saves them as workflow
// documents.
package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/penwyp/go-team-monitor/internal/core/model"
)

// DefaultName is used when a workflow is saved without a name
const DefaultName = "workflow"

// Position is a node's canvas position. It is not part of the saved
// document.
type Position struct {
	X float64
	Y float64
}

// Node is an editor node. Empty Type and Label fall back to "agent" and
// the node ID on save.
type Node struct {
	ID       string
	Type     string
	Label    string
	Config   json.RawMessage
	Position Position
	Selected bool
}

// Edge is an editor edge; Label is optional
type Edge struct {
	ID       string
	Source   string
	Target   string
	Label    *string
	Selected bool
}

// ChangeType names a change-set operation
type ChangeType string

const (
	ChangeAdd      ChangeType = "add"
	ChangeRemove   ChangeType = "remove"
	ChangeReplace  ChangeType = "replace"
	ChangePosition ChangeType = "position"
	ChangeSelect   ChangeType = "select"
)

// NodeChange mutates the node collection. Add and Replace use Item;
// Position uses Position; Select uses Selected.
type NodeChange struct {
	Type     ChangeType
	ID       string
	Item     Node
	Position Position
	Selected bool
}

// EdgeChange mutates the edge collection
type EdgeChange struct {
	Type     ChangeType
	ID       string
	Item     Edge
	Selected bool
}

// Connection is a completed drag-link gesture
type Connection struct {
	Source string
	Target string
	Label  *string
}

// Saver posts a workflow document
type Saver interface {
	SaveWorkflow(ctx context.Context, wf model.Workflow) (*model.WorkflowSaved, error)
}

// Editor holds the graph being edited. Nothing about the graph is
// validated: dangling edges, cycles and duplicate IDs are saved as is.
type Editor struct {
	mu    sync.RWMutex
	name  string
	nodes []Node
	edges []Edge
}

// NewEditor creates an empty editor for the named workflow
func NewEditor(name string) *Editor {
	if name == "" {
		name = DefaultName
	}
	return &Editor{name: name}
}

// FromWorkflow seeds an editor from a saved document
func FromWorkflow(wf model.Workflow) *Editor {
	e := NewEditor(wf.Name)
	for i, n := range wf.Nodes {
		e.nodes = append(e.nodes, Node{
			ID:       n.ID,
			Type:     n.Type,
			Label:    n.Label,
			Config:   n.Config,
			Position: Position{X: 0, Y: float64(i) * 100},
		})
	}
	for _, edge := range wf.Edges {
		id := edge.ID
		if id == "" {
			id = edgeID(edge.Source, edge.Target)
		}
		e.edges = append(e.edges, Edge{ID: id, Source: edge.Source, Target: edge.Target, Label: edge.Label})
	}
	return e
}

// Name returns the workflow name
func (e *Editor) Name() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.name
}

// SetName renames the workflow
func (e *Editor) SetName(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.name = name
}

// Nodes returns a copy of the node collection
func (e *Editor) Nodes() []Node {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]Node(nil), e.nodes...)
}

// Edges returns a copy of the edge collection
func (e *Editor) Edges() []Edge {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]Edge(nil), e.edges...)
}

// ApplyNodeChanges applies changes in order. Changes naming an unknown ID
// are ignored.
func (e *Editor) ApplyNodeChanges(changes ...NodeChange) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, c := range changes {
		if c.Type == ChangeAdd {
			e.nodes = append(e.nodes, c.Item)
			continue
		}
		i := indexOf(e.nodes, c.ID, func(n Node) string { return n.ID })
		if i < 0 {
			continue
		}
		switch c.Type {
		case ChangeRemove:
			e.nodes = append(e.nodes[:i], e.nodes[i+1:]...)
		case ChangeReplace:
			e.nodes[i] = c.Item
		case ChangePosition:
			e.nodes[i].Position = c.Position
		case ChangeSelect:
			e.nodes[i].Selected = c.Selected
		}
	}
}

// ApplyEdgeChanges applies changes in order. Changes naming an unknown ID
// are ignored.
func (e *Editor) ApplyEdgeChanges(changes ...EdgeChange) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, c := range changes {
		if c.Type == ChangeAdd {
			e.edges = append(e.edges, c.Item)
			continue
		}
		i := indexOf(e.edges, c.ID, func(edge Edge) string { return edge.ID })
		if i < 0 {
			continue
		}
		switch c.Type {
		case ChangeRemove:
			e.edges = append(e.edges[:i], e.edges[i+1:]...)
		case ChangeReplace:
			e.edges[i] = c.Item
		case ChangeSelect:
			e.edges[i].Selected = c.Selected
		}
	}
}

// Connect appends one edge for conn. A connection identical to an
// existing edge's endpoints is not added twice.
func (e *Editor) Connect(conn Connection) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, edge := range e.edges {
		if edge.Source == conn.Source && edge.Target == conn.Target {
			return false
		}
	}
	e.edges = append(e.edges, Edge{
		ID:     edgeID(conn.Source, conn.Target),
		Source: conn.Source,
		Target: conn.Target,
		Label:  conn.Label,
	})
	return true
}

// Document projects the graph into the saved form
func (e *Editor) Document() model.Workflow {
	e.mu.RLock()
	defer e.mu.RUnlock()

	wf := model.Workflow{
		Name:  e.name,
		Nodes: make([]model.WorkflowNode, 0, len(e.nodes)),
		Edges: make([]model.WorkflowEdge, 0, len(e.edges)),
	}
	for _, n := range e.nodes {
		node := model.WorkflowNode{ID: n.ID, Type: n.Type, Label: n.Label, Config: n.Config}
		if node.Type == "" {
			node.Type = model.NodeTypeAgent
		}
		if node.Label == "" {
			node.Label = n.ID
		}
		wf.Nodes = append(wf.Nodes, node)
	}
	for _, edge := range e.edges {
		wf.Edges = append(wf.Edges, model.WorkflowEdge{Source: edge.Source, Target: edge.Target, Label: edge.Label})
	}
	return wf
}

// Save posts the projected document
func (e *Editor) Save(ctx context.Context, saver Saver) (*model.WorkflowSaved, error) {
	saved, err := saver.SaveWorkflow(ctx, e.Document())
	if err != nil {
		return nil, fmt.Errorf("failed to save workflow %q: %w", e.Name(), err)
	}
	return saved, nil
}

func edgeID(source, target string) string {
	return "edge-" + source + "-" + target
}

func indexOf[T any](items []T, id string, key func(T) string) int {
	for i, item := range items {
		if key(item) == id {
			return i
		}
	}
	return -1
}

package graph

import (
	"encoding/json"

	"github.com/agenthands/agentflow/internal/model"
)

// NodeKind separates real agent nodes from synthetic stand-ins.
type NodeKind int

const (
	KindAgent NodeKind = iota
	KindPlaceholder
)

// NodeRef is a tagged node identity: either a real agent id or a
// placeholder for a foreign parent whose record has not been disclosed.
// The string form ("placeholder-<parentID>") exists only at the edge and
// serialization boundary, never as a sentinel inside the engine.
type NodeRef struct {
	kind NodeKind
	id   string
}

// AgentRef identifies the node backed by a real agent record.
func AgentRef(id string) NodeRef {
	return NodeRef{kind: KindAgent, id: id}
}

// PlaceholderRef identifies the synthetic node standing in for parentID.
func PlaceholderRef(parentID string) NodeRef {
	return NodeRef{kind: KindPlaceholder, id: parentID}
}

func (r NodeRef) Kind() NodeKind { return r.kind }

// AgentID returns the agent id for real nodes, or the represented parent
// id for placeholders.
func (r NodeRef) AgentID() string { return r.id }

func (r NodeRef) IsPlaceholder() bool { return r.kind == KindPlaceholder }

// Key is the unique string identity used for edges and rendering.
func (r NodeRef) Key() string {
	if r.kind == KindPlaceholder {
		return "placeholder-" + r.id
	}
	return r.id
}

// Position is a 2-D world coordinate.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DecisionRecord is one opaque decision-log entry attached to a node.
type DecisionRecord struct {
	Entry     json.RawMessage `json:"entry"`
	Timestamp string          `json:"timestamp,omitempty"`
}

// NodeData is the mutable payload of a graph node.
type NodeData struct {
	Label        string
	Name         string
	Status       model.AgentStatus
	LastUpdated  string
	ParentID     string
	IsForeign    bool
	Progress     *float64
	Step         string
	DecisionLogs []DecisionRecord
	Highlighted  bool
}

// Node is one vertex of the agent graph.
type Node struct {
	Ref      NodeRef
	Position Position
	Data     NodeData
}

// clone returns a copy safe to hand to consumers; the decision log slice
// is duplicated so later appends never show through.
func (n Node) clone() Node {
	out := n
	if n.Data.DecisionLogs != nil {
		out.Data.DecisionLogs = append([]DecisionRecord(nil), n.Data.DecisionLogs...)
	}
	return out
}

// cloneNodes deep-copies a node slice.
func cloneNodes(nodes []Node) []Node {
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		out[i] = n.clone()
	}
	return out
}

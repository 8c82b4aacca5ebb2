package graph

import (
	"encoding/json"
	"log"
	"math"
	"sync"

	"github.com/agenthands/agentflow/internal/model"
)

// Snapshot is one consistent, immutable view of the graph. Consumers
// always receive a fresh copy; the engine never mutates a snapshot it has
// already handed out, so readers cannot observe a partially-updated graph.
type Snapshot struct {
	Nodes []Node
	Edges []Edge
}

// Engine owns the mutable node collection and applies stream events as
// transitions, each producing a brand-new snapshot. Stream events arrive
// on the subscription goroutine and selection changes on the UI
// goroutine, so mutations are serialized by a mutex; callbacks always run
// outside the lock with a snapshot copy.
type Engine struct {
	viewerID string
	cfg      LayoutConfig

	mu    sync.Mutex
	nodes []Node
	edges []Edge

	onSnapshot    func(Snapshot)
	onCenterOwner func()
}

// NewEngine creates an engine for the given viewer.
func NewEngine(viewerID string, cfg LayoutConfig) *Engine {
	return &Engine{viewerID: viewerID, cfg: cfg}
}

// OnSnapshot registers the consumer callback invoked after every applied
// event. Register before the first event arrives.
func (e *Engine) OnSnapshot(fn func(Snapshot)) { e.onSnapshot = fn }

// OnCenterOwner registers the "center view on owner" side effect requested
// when one of the viewer's own agents appears.
func (e *Engine) OnCenterOwner(fn func()) { e.onCenterOwner = fn }

// Snapshot returns a copy of the current graph.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() Snapshot {
	return Snapshot{Nodes: cloneNodes(e.nodes), Edges: append([]Edge(nil), e.edges...)}
}

func (e *Engine) emit(snap Snapshot) {
	if e.onSnapshot != nil {
		e.onSnapshot(snap)
	}
}

// relayoutLocked recomputes group centers, node positions, and edges for
// the whole graph, pinning the owner last.
func (e *Engine) relayoutLocked() {
	centers := ComputeGroupCenters(e.nodes, e.viewerID, e.cfg)
	arranged := ApplyParentLayout(e.nodes, centers, e.cfg)
	e.nodes = EnforceOwnerAtCenter(arranged, e.viewerID, e.cfg)
	e.edges = BuildEdges(e.nodes)
}

// LoadSnapshot rebuilds the graph from a full agent list, discarding all
// prior nodes. Used for the initial fetch and for explicit refreshes.
func (e *Engine) LoadSnapshot(agents []model.Agent) {
	e.mu.Lock()
	e.nodes = BuildSnapshotNodes(agents, e.viewerID, e.cfg)
	e.relayoutLocked()
	snap := e.snapshotLocked()
	e.mu.Unlock()
	e.emit(snap)
}

// ApplyAdd appends a newly sighted agent. Duplicate delivery is a no-op.
func (e *Engine) ApplyAdd(a model.Agent) {
	e.mu.Lock()
	if e.findLocked(AgentRef(a.ID)) != nil {
		e.mu.Unlock()
		return
	}

	e.nodes = append(e.nodes, NewAgentNode(a, e.viewerID, len(e.nodes), e.cfg))
	e.nodes = append(e.nodes, MissingPlaceholders(e.nodes, resolveParentID(a, e.viewerID), e.cfg)...)
	e.relayoutLocked()
	snap := e.snapshotLocked()
	e.mu.Unlock()
	e.emit(snap)

	if (a.OwnerID == e.viewerID || a.ID == e.viewerID) && e.onCenterOwner != nil {
		e.onCenterOwner()
	}
}

// ApplyRemove drops the agent's node and garbage-collects placeholders
// that lost their last child.
func (e *Engine) ApplyRemove(id string) {
	e.mu.Lock()
	kept := e.nodes[:0]
	for _, n := range e.nodes {
		if n.Ref == AgentRef(id) {
			continue
		}
		kept = append(kept, n)
	}
	e.nodes = PruneUnusedPlaceholders(kept)
	e.relayoutLocked()
	snap := e.snapshotLocked()
	e.mu.Unlock()
	e.emit(snap)
}

// ApplyUpdate replaces the node's data fields in place, synthesizing or
// pruning placeholders as the parent link demands.
func (e *Engine) ApplyUpdate(a model.Agent) {
	e.mu.Lock()
	if n := e.findLocked(AgentRef(a.ID)); n != nil {
		status := a.Status
		if status == "" {
			status = model.StatusIdle
		}
		n.Data.Label = a.Name
		n.Data.Name = a.Name
		n.Data.Status = status
		n.Data.LastUpdated = a.LastUpdated
		n.Data.ParentID = resolveParentID(a, e.viewerID)
		n.Data.IsForeign = a.OwnerID == "" || a.OwnerID != e.viewerID
	}

	e.nodes = append(e.nodes, MissingPlaceholders(e.nodes, resolveParentID(a, e.viewerID), e.cfg)...)
	e.nodes = PruneUnusedPlaceholders(e.nodes)
	e.relayoutLocked()
	snap := e.snapshotLocked()
	e.mu.Unlock()
	e.emit(snap)
}

// ApplyStatus patches status and lastUpdated on the matching node. The
// event timestamp wins; the prior value is kept when the event has none.
// Positions are untouched, so no layout pass runs.
func (e *Engine) ApplyStatus(agentID string, status model.AgentStatus, timestamp string) {
	e.mu.Lock()
	n := e.findLocked(AgentRef(agentID))
	if n == nil {
		e.mu.Unlock()
		return
	}
	if status == "" {
		status = model.StatusIdle
	}
	n.Data.Status = status
	if timestamp != "" {
		n.Data.LastUpdated = timestamp
	}
	snap := e.snapshotLocked()
	e.mu.Unlock()
	e.emit(snap)
}

// ApplyProgress patches progress/step on the matching node. Non-finite
// progress values are discarded silently.
func (e *Engine) ApplyProgress(agentID string, progress float64, step, timestamp string) {
	if math.IsNaN(progress) || math.IsInf(progress, 0) {
		return
	}
	e.mu.Lock()
	n := e.findLocked(AgentRef(agentID))
	if n == nil {
		e.mu.Unlock()
		return
	}
	p := progress
	n.Data.Progress = &p
	n.Data.Step = step
	if timestamp != "" {
		n.Data.LastUpdated = timestamp
	}
	snap := e.snapshotLocked()
	e.mu.Unlock()
	e.emit(snap)
}

// ApplyDecision appends an entry to the node's decision log. Prior entries
// are never removed or reordered.
func (e *Engine) ApplyDecision(agentID string, entry json.RawMessage, timestamp string) {
	e.mu.Lock()
	n := e.findLocked(AgentRef(agentID))
	if n == nil {
		e.mu.Unlock()
		log.Printf("[graph] decision_log for unknown agent %q dropped", agentID)
		return
	}
	logs := append([]DecisionRecord(nil), n.Data.DecisionLogs...)
	n.Data.DecisionLogs = append(logs, DecisionRecord{Entry: entry, Timestamp: timestamp})
	if timestamp != "" {
		n.Data.LastUpdated = timestamp
	}
	snap := e.snapshotLocked()
	e.mu.Unlock()
	e.emit(snap)
}

// SetHighlighted marks the selected node and clears the rest.
func (e *Engine) SetHighlighted(agentID string) {
	e.mu.Lock()
	for i := range e.nodes {
		e.nodes[i].Data.Highlighted = e.nodes[i].Ref == AgentRef(agentID)
	}
	snap := e.snapshotLocked()
	e.mu.Unlock()
	e.emit(snap)
}

func (e *Engine) findLocked(ref NodeRef) *Node {
	for i := range e.nodes {
		if e.nodes[i].Ref == ref {
			return &e.nodes[i]
		}
	}
	return nil
}

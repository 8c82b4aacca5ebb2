package graph

import (
	"sort"

	"github.com/agenthands/agentflow/internal/model"
)

const (
	ownerNodeLabel       = "My manager agent"
	placeholderNodeLabel = "Another user's agent"
)

// defaultChildPosition is where a freshly sighted owned child lands before
// the next layout pass.
var defaultChildPosition = Position{X: 400, Y: 200}

// resolveParentID normalizes an agent's parent link for the viewer: a
// parentless agent the viewer owns hangs off the owner node rather than
// floating unattached on top of it.
func resolveParentID(a model.Agent, viewerID string) string {
	if a.ParentID == "" && a.OwnerID == viewerID && a.ID != viewerID {
		return viewerID
	}
	return a.ParentID
}

// NewAgentNode converts an agent record into a graph node. positionIdx
// picks the grid fallback slot for nodes that are not the viewer's
// children.
func NewAgentNode(a model.Agent, viewerID string, positionIdx int, cfg LayoutConfig) Node {
	parentID := resolveParentID(a, viewerID)
	isMyChild := parentID != "" && a.OwnerID == viewerID
	pos := GridPosition(positionIdx, cfg)
	if isMyChild {
		pos = defaultChildPosition
	}

	status := a.Status
	if status == "" {
		status = model.StatusIdle
	}

	return Node{
		Ref:      AgentRef(a.ID),
		Position: pos,
		Data: NodeData{
			Label:       a.Name,
			Name:        a.Name,
			Status:      status,
			LastUpdated: a.LastUpdated,
			ParentID:    parentID,
			IsForeign:   a.OwnerID != viewerID,
		},
	}
}

// NewOwnerNode synthesizes the viewer's own top-level node. It exists even
// when the backend has no record for it yet.
func NewOwnerNode(viewerID string) Node {
	return Node{
		Ref:      AgentRef(viewerID),
		Position: defaultChildPosition,
		Data: NodeData{
			Label:  ownerNodeLabel,
			Name:   ownerNodeLabel,
			Status: model.StatusIdle,
		},
	}
}

// NewPlaceholderNode synthesizes the stand-in for a foreign parent agent.
func NewPlaceholderNode(parentID string) Node {
	return Node{
		Ref: PlaceholderRef(parentID),
		Data: NodeData{
			Label:     placeholderNodeLabel,
			Name:      placeholderNodeLabel,
			IsForeign: true,
		},
	}
}

// BuildSnapshotNodes synthesizes the full node set from an agent snapshot:
// the owner node, the viewer's children, one placeholder per distinct
// unknown foreign parent, and the foreign children themselves.
func BuildSnapshotNodes(agents []model.Agent, viewerID string, cfg LayoutConfig) []Node {
	owner := NewOwnerNode(viewerID)
	nodes := []Node{owner}
	known := map[string]struct{}{viewerID: {}}

	for idx, a := range agents {
		if a.ID == viewerID || a.OwnerID != viewerID {
			continue
		}
		nodes = append(nodes, NewAgentNode(a, viewerID, idx, cfg))
		known[a.ID] = struct{}{}
	}

	var foreign []model.Agent
	for _, a := range agents {
		if _, ok := known[a.ID]; ok {
			continue
		}
		foreign = append(foreign, a)
		known[a.ID] = struct{}{}
	}

	// Placeholders anchor only parents that no node in the set covers.
	parentIDs := make(map[string]struct{})
	for _, a := range foreign {
		if a.ParentID == "" {
			continue
		}
		if _, ok := known[a.ParentID]; ok {
			continue
		}
		parentIDs[a.ParentID] = struct{}{}
	}

	sortedPIDs := make([]string, 0, len(parentIDs))
	for pid := range parentIDs {
		sortedPIDs = append(sortedPIDs, pid)
	}
	sort.Strings(sortedPIDs)
	for _, pid := range sortedPIDs {
		nodes = append(nodes, NewPlaceholderNode(pid))
	}

	for _, a := range foreign {
		n := NewAgentNode(a, viewerID, 0, cfg)
		n.Position = Position{}
		nodes = append(nodes, n)
	}

	return nodes
}

// MissingPlaceholders returns the placeholder needed to anchor parentID,
// if neither a real node nor an existing placeholder covers it.
func MissingPlaceholders(nodes []Node, parentID string, cfg LayoutConfig) []Node {
	if parentID == "" {
		return nil
	}
	for _, n := range nodes {
		if n.Ref == AgentRef(parentID) || n.Ref == PlaceholderRef(parentID) {
			return nil
		}
	}
	ph := NewPlaceholderNode(parentID)
	ph.Position = GridPosition(len(nodes), cfg)
	return []Node{ph}
}

// PruneUnusedPlaceholders drops placeholders that no remaining node
// references as parent.
func PruneUnusedPlaceholders(nodes []Node) []Node {
	active := make(map[string]struct{})
	for _, n := range nodes {
		if pid := n.Data.ParentID; pid != "" {
			active[pid] = struct{}{}
		}
	}

	out := nodes[:0]
	for _, n := range nodes {
		if n.Ref.IsPlaceholder() {
			if _, ok := active[n.Ref.AgentID()]; !ok {
				continue
			}
		}
		out = append(out, n)
	}
	return out
}

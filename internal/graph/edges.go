package graph

import "fmt"

// Edge is a derived parent→child link. Edges are never stored; they are
// rebuilt wholesale from the node set's parent ids.
type Edge struct {
	ID           string
	Source       string
	Target       string
	SourceHandle string
	TargetHandle string
	Animated     bool
}

// HandlePair names the attachment sides chosen for an edge.
type HandlePair struct {
	Source string
	Target string
}

// PickHandles selects attachment sides from the relative position of
// parent and child: the axis with the larger absolute delta wins, and the
// sign of the delta picks the side.
func PickHandles(parentPos, childPos Position) HandlePair {
	dx := childPos.X - parentPos.X
	dy := childPos.Y - parentPos.Y
	ax := abs(dx)
	ay := abs(dy)

	if ax >= ay {
		if dx >= 0 {
			return HandlePair{Source: "s-right", Target: "t-left"}
		}
		return HandlePair{Source: "s-left", Target: "t-right"}
	}
	if dy >= 0 {
		return HandlePair{Source: "s-bottom", Target: "t-top"}
	}
	return HandlePair{Source: "s-top", Target: "t-bottom"}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// handleID prefixes a handle name with its node key.
func handleID(nodeKey, handle string) string {
	return nodeKey + "-" + handle
}

// newParentChildEdge links child to its parent node, falling back to the
// placeholder key when the parent is not in the node set. Handles are left
// empty when the parent's position is unknown.
func newParentChildEdge(parent *Node, child Node, parentID string) Edge {
	sourceKey := PlaceholderRef(parentID).Key()
	if parent != nil {
		sourceKey = parent.Ref.Key()
	}

	e := Edge{
		ID:       fmt.Sprintf("e-%s-%s", sourceKey, child.Ref.Key()),
		Source:   sourceKey,
		Target:   child.Ref.Key(),
		Animated: true,
	}
	if parent != nil {
		h := PickHandles(parent.Position, child.Position)
		e.SourceHandle = handleID(sourceKey, h.Source)
		e.TargetHandle = handleID(child.Ref.Key(), h.Target)
	}
	return e
}

// BuildEdges recomputes every parent→child edge from the current node set.
// Each node with a parent id yields exactly one incoming edge, sourced
// from the real parent when present, otherwise its placeholder.
func BuildEdges(nodes []Node) []Edge {
	byKey := make(map[string]*Node, len(nodes))
	for i := range nodes {
		byKey[nodes[i].Ref.Key()] = &nodes[i]
	}

	var edges []Edge
	for _, n := range nodes {
		pid := n.Data.ParentID
		if pid == "" {
			continue
		}
		parent := byKey[pid]
		if parent == nil || parent.Ref.IsPlaceholder() {
			parent = byKey[PlaceholderRef(pid).Key()]
		}
		edges = append(edges, newParentChildEdge(parent, n, pid))
	}
	return edges
}

package graph

import (
	"math"
	"sort"
)

// LayoutConfig holds the tunable geometry of the radial layout.
type LayoutConfig struct {
	OwnerCenter  Position
	BaseRadius   float64
	DeltaRadius  float64
	SlotsPerRing int
	ChildRadius  float64
	GridSpacing  Position
}

// DefaultLayoutConfig returns the stock geometry.
func DefaultLayoutConfig() LayoutConfig {
	return LayoutConfig{
		OwnerCenter:  Position{X: 0, Y: 0},
		BaseRadius:   600,
		DeltaRadius:  320,
		SlotsPerRing: 12,
		ChildRadius:  140,
		GridSpacing:  Position{X: 220, Y: 180},
	}
}

const gridColumns = 4

// GridPosition is the simple fallback arrangement for nodes that have no
// center/radius placement: 4 columns, fixed spacing.
func GridPosition(idx int, cfg LayoutConfig) Position {
	col := idx % gridColumns
	row := idx / gridColumns
	return Position{
		X: 100 + float64(col)*cfg.GridSpacing.X,
		Y: 100 + float64(row)*cfg.GridSpacing.Y,
	}
}

// RingPosition places slot index on the expanding ring sequence around the
// owner center. Rings hold SlotsPerRing slots each; angles advance
// clockwise.
func RingPosition(index int, cfg LayoutConfig) Position {
	ring := index / cfg.SlotsPerRing
	posInRing := index % cfg.SlotsPerRing
	angle := -2 * math.Pi * float64(posInRing) / float64(cfg.SlotsPerRing)
	radius := cfg.BaseRadius + float64(ring)*cfg.DeltaRadius
	return Position{
		X: cfg.OwnerCenter.X + radius*math.Cos(angle),
		Y: cfg.OwnerCenter.Y + radius*math.Sin(angle),
	}
}

// Centroid averages the positions of the given nodes.
func Centroid(nodes []Node) Position {
	if len(nodes) == 0 {
		return Position{}
	}
	var sx, sy float64
	for _, n := range nodes {
		sx += n.Position.X
		sy += n.Position.Y
	}
	return Position{X: sx / float64(len(nodes)), Y: sy / float64(len(nodes))}
}

// ArrangeChildrenAround distributes count children equidistantly on a
// circle around center. Coordinates are rounded to whole units.
func ArrangeChildrenAround(center Position, count int, radius float64) []Position {
	if count <= 0 {
		return nil
	}
	positions := make([]Position, 0, count)
	for i := 0; i < count; i++ {
		angle := 2 * math.Pi * float64(i) / float64(count)
		positions = append(positions, Position{
			X: math.Round(center.X + radius*math.Cos(angle)),
			Y: math.Round(center.Y + radius*math.Sin(angle)),
		})
	}
	return positions
}

// groupByParent buckets nodes under their parent id. Nodes without a
// parent are left out.
func groupByParent(nodes []Node) map[string][]Node {
	groups := make(map[string][]Node)
	for _, n := range nodes {
		if pid := n.Data.ParentID; pid != "" {
			groups[pid] = append(groups[pid], n)
		}
	}
	return groups
}

// ComputeGroupCenters maps each distinct parent id to a center: foreign
// parents get ring slots in lexicographic id order (deterministic for a
// given input set), and the owner is assigned last so no other pass can
// displace it.
func ComputeGroupCenters(nodes []Node, ownerID string, cfg LayoutConfig) map[string]Position {
	centers := make(map[string]Position)

	pidSet := make(map[string]struct{})
	for _, n := range nodes {
		pid := n.Data.ParentID
		if pid != "" && pid != ownerID {
			pidSet[pid] = struct{}{}
		}
	}

	sorted := make([]string, 0, len(pidSet))
	for pid := range pidSet {
		sorted = append(sorted, pid)
	}
	sort.Strings(sorted)
	for idx, pid := range sorted {
		centers[pid] = RingPosition(idx, cfg)
	}

	centers[ownerID] = cfg.OwnerCenter
	return centers
}

// ApplyParentLayout moves every parent to its group center and its
// children onto a circle around it. Groups are processed in sorted parent
// id order so repeated runs over the same node set agree. Input order of
// the returned slice is preserved.
func ApplyParentLayout(nodes []Node, centers map[string]Position, cfg LayoutConfig) []Node {
	byKey := make(map[string]*Node, len(nodes))
	out := cloneNodes(nodes)
	for i := range out {
		byKey[out[i].Ref.Key()] = &out[i]
	}

	groups := groupByParent(nodes)
	pids := make([]string, 0, len(groups))
	for pid := range groups {
		pids = append(pids, pid)
	}
	sort.Strings(pids)

	for _, pid := range pids {
		children := groups[pid]
		center, ok := centers[pid]
		if !ok {
			center = Centroid(children)
		}

		// The parent may be a real node or a placeholder.
		parent := byKey[pid]
		if parent == nil {
			parent = byKey[PlaceholderRef(pid).Key()]
		}
		if parent != nil {
			parent.Position = center
		}

		childPositions := ArrangeChildrenAround(center, len(children), cfg.ChildRadius)
		for i, child := range children {
			pos := GridPosition(i, cfg)
			if i < len(childPositions) {
				pos = childPositions[i]
			}
			if n := byKey[child.Ref.Key()]; n != nil {
				n.Position = pos
			}
		}
	}

	return out
}

// EnforceOwnerAtCenter pins the owner node to the configured center. Runs
// after every other placement pass.
func EnforceOwnerAtCenter(nodes []Node, ownerID string, cfg LayoutConfig) []Node {
	for i := range nodes {
		if nodes[i].Ref == AgentRef(ownerID) {
			nodes[i].Position = cfg.OwnerCenter
		}
	}
	return nodes
}

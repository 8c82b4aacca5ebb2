package graph

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRingPosition_FirstSlotIsDueEast(t *testing.T) {
	cfg := DefaultLayoutConfig()
	pos := RingPosition(0, cfg)
	assert.InDelta(t, cfg.BaseRadius, pos.X, 1e-9)
	assert.InDelta(t, 0, pos.Y, 1e-9)
}

func TestRingPosition_AdvancesClockwise(t *testing.T) {
	cfg := DefaultLayoutConfig()
	// Slot 3 of 12 is a quarter turn. Clockwise from east means up in
	// screen coordinates (negative Y).
	pos := RingPosition(3, cfg)
	assert.InDelta(t, 0, pos.X, 1e-9)
	assert.InDelta(t, -cfg.BaseRadius, pos.Y, 1e-9)
}

func TestRingPosition_SecondRingGrowsRadius(t *testing.T) {
	cfg := DefaultLayoutConfig()
	// Slot 12 wraps to the second ring, back at angle zero.
	pos := RingPosition(cfg.SlotsPerRing, cfg)
	assert.InDelta(t, cfg.BaseRadius+cfg.DeltaRadius, pos.X, 1e-9)
	assert.InDelta(t, 0, pos.Y, 1e-9)
}

func TestGridPosition_WrapsAfterFourColumns(t *testing.T) {
	cfg := DefaultLayoutConfig()
	assert.Equal(t, Position{X: 100, Y: 100}, GridPosition(0, cfg))
	assert.Equal(t, Position{X: 100 + 3*cfg.GridSpacing.X, Y: 100}, GridPosition(3, cfg))
	assert.Equal(t, Position{X: 100, Y: 100 + cfg.GridSpacing.Y}, GridPosition(4, cfg))
}

func TestArrangeChildrenAround_Equidistant(t *testing.T) {
	center := Position{X: 10, Y: 20}
	positions := ArrangeChildrenAround(center, 4, 140)
	assert.Len(t, positions, 4)

	for _, p := range positions {
		dist := math.Hypot(p.X-center.X, p.Y-center.Y)
		// Rounding moves each coordinate by at most half a unit.
		assert.InDelta(t, 140, dist, 1.0)
	}
	assert.Equal(t, Position{X: 150, Y: 20}, positions[0])
}

func TestArrangeChildrenAround_ZeroChildren(t *testing.T) {
	assert.Nil(t, ArrangeChildrenAround(Position{}, 0, 140))
}

func TestComputeGroupCenters_SortedAssignmentIsDeterministic(t *testing.T) {
	cfg := DefaultLayoutConfig()
	nodes := []Node{
		{Ref: AgentRef("c1"), Data: NodeData{ParentID: "p-zebra"}},
		{Ref: AgentRef("c2"), Data: NodeData{ParentID: "p-alpha"}},
		{Ref: AgentRef("c3"), Data: NodeData{ParentID: "owner"}},
	}

	centers := ComputeGroupCenters(nodes, "owner", cfg)

	// Foreign parents take ring slots in lexicographic order, regardless
	// of the order their children appeared.
	assert.Equal(t, RingPosition(0, cfg), centers["p-alpha"])
	assert.Equal(t, RingPosition(1, cfg), centers["p-zebra"])
	assert.Equal(t, cfg.OwnerCenter, centers["owner"])

	// Same input, shuffled, same assignment.
	shuffled := []Node{nodes[1], nodes[2], nodes[0]}
	again := ComputeGroupCenters(shuffled, "owner", cfg)
	assert.Equal(t, centers, again)
}

func TestApplyParentLayout_ParentAtCenterChildrenOnCircle(t *testing.T) {
	cfg := DefaultLayoutConfig()
	nodes := []Node{
		{Ref: AgentRef("parent")},
		{Ref: AgentRef("a"), Data: NodeData{ParentID: "parent"}},
		{Ref: AgentRef("b"), Data: NodeData{ParentID: "parent"}},
	}
	centers := map[string]Position{"parent": {X: 300, Y: 400}}

	out := ApplyParentLayout(nodes, centers, cfg)

	assert.Equal(t, Position{X: 300, Y: 400}, out[0].Position)
	for _, n := range out[1:] {
		dist := math.Hypot(n.Position.X-300, n.Position.Y-400)
		assert.InDelta(t, cfg.ChildRadius, dist, 1.0)
	}
	// Input order is preserved.
	assert.Equal(t, AgentRef("a"), out[1].Ref)
	assert.Equal(t, AgentRef("b"), out[2].Ref)
}

func TestApplyParentLayout_PlaceholderParentMoves(t *testing.T) {
	cfg := DefaultLayoutConfig()
	nodes := []Node{
		{Ref: PlaceholderRef("ghost")},
		{Ref: AgentRef("child"), Data: NodeData{ParentID: "ghost"}},
	}
	centers := map[string]Position{"ghost": {X: 50, Y: 60}}

	out := ApplyParentLayout(nodes, centers, cfg)
	assert.Equal(t, Position{X: 50, Y: 60}, out[0].Position)
}

func TestApplyParentLayout_MissingCenterFallsBackToCentroid(t *testing.T) {
	cfg := DefaultLayoutConfig()
	nodes := []Node{
		{Ref: AgentRef("p")},
		{Ref: AgentRef("a"), Position: Position{X: 0, Y: 0}, Data: NodeData{ParentID: "p"}},
		{Ref: AgentRef("b"), Position: Position{X: 100, Y: 0}, Data: NodeData{ParentID: "p"}},
	}

	out := ApplyParentLayout(nodes, map[string]Position{}, cfg)
	assert.Equal(t, Position{X: 50, Y: 0}, out[0].Position)
}

func TestApplyParentLayout_DoesNotMutateInput(t *testing.T) {
	cfg := DefaultLayoutConfig()
	nodes := []Node{
		{Ref: AgentRef("p"), Position: Position{X: 1, Y: 2}},
		{Ref: AgentRef("a"), Position: Position{X: 3, Y: 4}, Data: NodeData{ParentID: "p"}},
	}

	_ = ApplyParentLayout(nodes, map[string]Position{"p": {X: 900, Y: 900}}, cfg)
	assert.Equal(t, Position{X: 1, Y: 2}, nodes[0].Position)
	assert.Equal(t, Position{X: 3, Y: 4}, nodes[1].Position)
}

func TestEnforceOwnerAtCenter_PinsOnlyOwner(t *testing.T) {
	cfg := DefaultLayoutConfig()
	nodes := []Node{
		{Ref: AgentRef("owner"), Position: Position{X: 500, Y: 500}},
		{Ref: AgentRef("other"), Position: Position{X: 7, Y: 8}},
	}

	out := EnforceOwnerAtCenter(nodes, "owner", cfg)
	assert.Equal(t, cfg.OwnerCenter, out[0].Position)
	assert.Equal(t, Position{X: 7, Y: 8}, out[1].Position)
}

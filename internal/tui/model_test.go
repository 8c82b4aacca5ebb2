package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"

	"github.com/agenthands/agentflow/internal/chat"
	"github.com/agenthands/agentflow/internal/graph"
	"github.com/agenthands/agentflow/internal/model"
	"github.com/agenthands/agentflow/internal/session"
)

func testSnapshot(ids ...string) graph.Snapshot {
	var nodes []graph.Node
	for _, id := range ids {
		nodes = append(nodes, graph.Node{
			Ref:  graph.AgentRef(id),
			Data: graph.NodeData{Label: id, Name: id, Status: model.StatusIdle},
		})
	}
	return graph.Snapshot{Nodes: nodes}
}

func apply(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	assert.True(t, ok)
	return out
}

func TestModel_SnapshotMsgReplacesNodes(t *testing.T) {
	m := NewModel(Deps{ViewerID: "v1", Updates: make(chan tea.Msg)})

	m = apply(t, m, SnapshotMsg(testSnapshot("v1", "a1")))
	assert.Len(t, m.snapshot.Nodes, 2)

	m = apply(t, m, SnapshotMsg(testSnapshot("v1")))
	assert.Len(t, m.snapshot.Nodes, 1)
}

func TestModel_SelectionClearedWhenAgentDisappears(t *testing.T) {
	sess := session.NewContext()
	m := NewModel(Deps{ViewerID: "v1", Updates: make(chan tea.Msg), Session: sess})

	m = apply(t, m, SnapshotMsg(testSnapshot("a1", "v1")))
	m = apply(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, "a1", m.selected)

	m = apply(t, m, SnapshotMsg(testSnapshot("v1")))
	assert.Empty(t, m.selected)
	assert.Equal(t, session.Selection{}, sess.Selected())
}

func TestModel_TabCyclesAgentsInSortedOrder(t *testing.T) {
	sess := session.NewContext()
	m := NewModel(Deps{ViewerID: "v1", Updates: make(chan tea.Msg), Session: sess})
	m = apply(t, m, SnapshotMsg(testSnapshot("charlie", "alpha", "bravo")))

	m = apply(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, "alpha", m.selected)
	m = apply(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, "bravo", m.selected)
	m = apply(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, "charlie", m.selected)
	m = apply(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, "alpha", m.selected)

	assert.Equal(t, "alpha", sess.Selected().AgentID)
}

func TestModel_SubmitStartsTurnAndAppendsTranscript(t *testing.T) {
	var gotAgent, gotInput string
	m := NewModel(Deps{
		ViewerID: "v1",
		Updates:  make(chan tea.Msg),
		Session:  session.NewContext(),
		StartTurn: func(agentID, input string) string {
			gotAgent, gotInput = agentID, input
			return "turn-1"
		},
	})
	m = apply(t, m, SnapshotMsg(testSnapshot("a1")))
	m = apply(t, m, tea.KeyMsg{Type: tea.KeyTab})

	m.input.SetValue("run the report")
	m = apply(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, "a1", gotAgent)
	assert.Equal(t, "run the report", gotInput)
	assert.True(t, m.busy)
	assert.Len(t, m.entries, 2)
	assert.True(t, m.entries[0].IsUser)
	assert.Equal(t, "turn-1", m.entries[1].TurnID)
	assert.Empty(t, m.input.Value())
}

func TestModel_SubmitIgnoredWithoutSelection(t *testing.T) {
	m := NewModel(Deps{
		ViewerID:  "v1",
		Updates:   make(chan tea.Msg),
		StartTurn: func(agentID, input string) string { t.Fatal("must not start"); return "" },
	})
	m.input.SetValue("hello")
	m = apply(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Empty(t, m.entries)
}

func TestModel_TurnMsgUpdatesTranscript(t *testing.T) {
	m := NewModel(Deps{ViewerID: "v1", Updates: make(chan tea.Msg)})

	m = apply(t, m, TurnMsg(chat.Turn{ID: "turn-1", Text: "partial"}))
	m = apply(t, m, TurnMsg(chat.Turn{ID: "turn-1", Text: "partial answer"}))
	assert.Equal(t, "partial answer", m.turns["turn-1"].Text)

	m = apply(t, m, TurnDoneMsg{TurnID: "turn-1"})
	assert.False(t, m.busy)
}

func TestModel_TurnErrorReplacesText(t *testing.T) {
	m := NewModel(Deps{ViewerID: "v1", Updates: make(chan tea.Msg)})
	m.busy = true

	m = apply(t, m, TurnErrorMsg{TurnID: "turn-1", Body: "model overloaded"})
	assert.False(t, m.busy)
	assert.Equal(t, "model overloaded", m.turns["turn-1"].Text)
	assert.False(t, m.turns["turn-1"].IsThinking)
}

func TestModel_HistoryMsgOnlyAppliesToSelectedAgent(t *testing.T) {
	m := NewModel(Deps{ViewerID: "v1", Updates: make(chan tea.Msg), Session: session.NewContext()})
	m = apply(t, m, SnapshotMsg(testSnapshot("a1")))
	m = apply(t, m, tea.KeyMsg{Type: tea.KeyTab})

	m = apply(t, m, HistoryMsg{AgentID: "other", Messages: []model.AgentMessage{{Content: "stale"}}})
	assert.Empty(t, m.entries)

	m = apply(t, m, HistoryMsg{AgentID: "a1", Messages: []model.AgentMessage{
		{Role: model.RoleUser, Content: "hi"},
		{Role: model.RoleAssistant, Content: "hello"},
	}})
	assert.Len(t, m.entries, 2)
	assert.True(t, m.entries[0].IsUser)
	assert.False(t, m.entries[1].IsUser)
}

func TestModel_RenderNodeClampsProgress(t *testing.T) {
	m := NewModel(Deps{ViewerID: "v1", Updates: make(chan tea.Msg)})

	node := func(p float64) graph.Node {
		return graph.Node{
			Ref:  graph.AgentRef("a1"),
			Data: graph.NodeData{Label: "a1", Status: model.StatusRunning, Progress: &p},
		}
	}

	over := m.renderNode(node(1.5))
	assert.Contains(t, over, "100%")
	assert.NotContains(t, over, "150")

	under := m.renderNode(node(-0.25))
	assert.Contains(t, under, "0%")
	assert.NotContains(t, under, "-")

	assert.Contains(t, m.renderNode(node(0.42)), "42%")
}

func TestModel_ConnStateShowsInHeader(t *testing.T) {
	m := NewModel(Deps{ViewerID: "v1", Updates: make(chan tea.Msg)})

	m = apply(t, m, ConnStateMsg{Connected: true})
	assert.Contains(t, m.viewHeader(), "connected")

	m = apply(t, m, ConnStateMsg{Connected: false})
	assert.Contains(t, m.viewHeader(), "reconnecting")
}

// Package tui is the terminal console: a live view of the agent graph on
// the left and a chat transcript with the selected agent on the right.
package tui

import (
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/agenthands/agentflow/internal/chat"
	"github.com/agenthands/agentflow/internal/graph"
	"github.com/agenthands/agentflow/internal/model"
	"github.com/agenthands/agentflow/internal/session"
)

// Messages delivered through the updates channel. Producers (the stream
// subscription, the turn decoder) push these; the program loop pulls them
// one at a time.
type (
	// SnapshotMsg carries a fresh graph snapshot.
	SnapshotMsg graph.Snapshot

	// TurnMsg carries the in-progress state of one assistant turn.
	TurnMsg chat.Turn

	// TurnDoneMsg signals that a turn's event stream ended.
	TurnDoneMsg struct{ TurnID string }

	// TurnErrorMsg signals that a turn failed; Body is the error text to
	// show in place of the assistant reply.
	TurnErrorMsg struct {
		TurnID string
		Body   string
	}

	// ConnStateMsg reports the event-stream connection state.
	ConnStateMsg struct {
		Connected bool
		Err       error
	}

	// HistoryMsg carries the stored transcript for a newly selected agent.
	HistoryMsg struct {
		AgentID  string
		Messages []model.AgentMessage
	}
)

// transcriptEntry is one row of the chat panel: either a user message or
// an assistant turn identified by TurnID.
type transcriptEntry struct {
	IsUser bool
	Text   string
	TurnID string
}

// Deps wires the console to the rest of the program.
type Deps struct {
	ViewerID string

	// Updates delivers SnapshotMsg/TurnMsg/... from producer goroutines.
	Updates <-chan tea.Msg

	// StartTurn posts the user input to the selected agent and returns
	// the turn ID whose TurnMsg updates will follow on Updates.
	StartTurn func(agentID, input string) string

	Session session.Writer
	Engine  *graph.Engine
}

// Model is the bubbletea model for the console.
type Model struct {
	deps Deps

	width  int
	height int

	snapshot graph.Snapshot
	selected string

	entries []transcriptEntry
	turns   map[string]chat.Turn

	connected bool
	connErr   error
	notice    string
	busy      bool

	input textinput.Model
	spin  spinner.Model
}

// NewModel creates the console model. The caller seeds the first snapshot
// so the node list is populated before the first stream event arrives.
func NewModel(deps Deps) Model {
	ti := textinput.New()
	ti.Placeholder = "Message the selected agent..."
	ti.CharLimit = 2000
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		deps:  deps,
		turns: make(map[string]chat.Turn),
		input: ti,
		spin:  sp,
	}
	if deps.Engine != nil {
		m.snapshot = deps.Engine.Snapshot()
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		waitForUpdate(m.deps.Updates),
		m.spin.Tick,
		textinput.Blink,
	)
}

// waitForUpdate returns a Cmd that blocks for the next producer message.
func waitForUpdate(ch <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return tea.Quit()
		}
		return msg
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "tab":
			m.cycleSelection(1)
			return m, nil
		case "shift+tab":
			m.cycleSelection(-1)
			return m, nil
		case "enter":
			return m.submit()
		}

	case SnapshotMsg:
		m.snapshot = graph.Snapshot(msg)
		if m.selected != "" && m.findAgentNode(m.selected) == nil {
			m.selected = ""
			if m.deps.Session != nil {
				m.deps.Session.Clear()
			}
		}
		return m, waitForUpdate(m.deps.Updates)

	case TurnMsg:
		turn := chat.Turn(msg)
		m.turns[turn.ID] = turn
		return m, waitForUpdate(m.deps.Updates)

	case TurnDoneMsg:
		m.busy = false
		return m, waitForUpdate(m.deps.Updates)

	case TurnErrorMsg:
		m.busy = false
		turn := m.turns[msg.TurnID]
		turn.ID = msg.TurnID
		turn.IsThinking = false
		turn.Text = msg.Body
		m.turns[msg.TurnID] = turn
		return m, waitForUpdate(m.deps.Updates)

	case ConnStateMsg:
		m.connected = msg.Connected
		m.connErr = msg.Err
		return m, waitForUpdate(m.deps.Updates)

	case HistoryMsg:
		// Stale responses for a previously selected agent are dropped.
		if msg.AgentID == m.selected {
			m.entries = historyEntries(msg.Messages)
		}
		return m, waitForUpdate(m.deps.Updates)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit posts the typed message to the selected agent as a new turn.
func (m Model) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" || m.busy || m.selected == "" || m.deps.StartTurn == nil {
		return m, nil
	}

	turnID := m.deps.StartTurn(m.selected, text)
	m.entries = append(m.entries,
		transcriptEntry{IsUser: true, Text: text},
		transcriptEntry{TurnID: turnID},
	)
	m.busy = true
	m.input.Reset()
	return m, nil
}

// cycleSelection moves the chat target through the agent nodes in sorted
// key order. Placeholders are not selectable.
func (m *Model) cycleSelection(step int) {
	ids := m.agentIDs()
	if len(ids) == 0 {
		return
	}

	idx := -1
	for i, id := range ids {
		if id == m.selected {
			idx = i
			break
		}
	}
	idx = ((idx+step)%len(ids) + len(ids)) % len(ids)
	m.selected = ids[idx]

	name := m.selected
	if n := m.findAgentNode(m.selected); n != nil {
		name = n.Data.Name
	}
	if m.deps.Session != nil {
		m.deps.Session.OpenChatWith(m.selected, name)
	}
	if m.deps.Engine != nil {
		m.deps.Engine.SetHighlighted(m.selected)
	}
	m.notice = "Now chatting with " + name
}

func (m Model) agentIDs() []string {
	ids := make([]string, 0, len(m.snapshot.Nodes))
	for _, n := range m.snapshot.Nodes {
		if !n.Ref.IsPlaceholder() {
			ids = append(ids, n.Ref.AgentID())
		}
	}
	sort.Strings(ids)
	return ids
}

func historyEntries(messages []model.AgentMessage) []transcriptEntry {
	entries := make([]transcriptEntry, 0, len(messages))
	for _, msg := range messages {
		entries = append(entries, transcriptEntry{
			IsUser: msg.Role == model.RoleUser,
			Text:   msg.Content,
		})
	}
	return entries
}

func (m Model) findAgentNode(id string) *graph.Node {
	for i := range m.snapshot.Nodes {
		if m.snapshot.Nodes[i].Ref == graph.AgentRef(id) {
			return &m.snapshot.Nodes[i]
		}
	}
	return nil
}

package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/agenthands/agentflow/internal/chat"
	"github.com/agenthands/agentflow/internal/graph"
	"github.com/agenthands/agentflow/internal/model"
)

const graphPanelWidth = 42

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))

	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	foreignStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	userStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	toolStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))

	graphPanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(0, 1).
			Width(graphPanelWidth)
)

var statusGlyphs = map[model.AgentStatus]string{
	model.StatusIdle:    "·",
	model.StatusRunning: "▶",
	model.StatusDone:    "✓",
	model.StatusError:   "✗",
}

func (m Model) View() string {
	header := m.viewHeader()
	body := lipgloss.JoinHorizontal(lipgloss.Top, m.viewGraph(), " ", m.viewChat())
	return header + "\n" + body + "\n" + m.viewInput() + "\n"
}

func (m Model) viewHeader() string {
	conn := okStyle.Render("connected")
	if !m.connected {
		conn = errStyle.Render("reconnecting")
		if m.connErr != nil {
			conn += dimStyle.Render(" (" + truncate(m.connErr.Error(), 48) + ")")
		}
	}

	parts := []string{
		titleStyle.Render("agentflow"),
		dimStyle.Render("viewer " + m.deps.ViewerID),
		conn,
	}
	if m.notice != "" {
		parts = append(parts, dimStyle.Render(m.notice))
	}
	return strings.Join(parts, "  ")
}

func (m Model) viewGraph() string {
	var b strings.Builder
	b.WriteString(dimStyle.Render(fmt.Sprintf("agents (%d)", len(m.snapshot.Nodes))))
	b.WriteString("\n")

	for _, n := range m.snapshot.Nodes {
		b.WriteString(m.renderNode(n))
		b.WriteString("\n")
	}
	return graphPanelStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func (m Model) renderNode(n graph.Node) string {
	if n.Ref.IsPlaceholder() {
		return foreignStyle.Render("◌ " + n.Data.Label)
	}

	glyph, ok := statusGlyphs[n.Data.Status]
	if !ok {
		glyph = "·"
	}
	line := glyph + " " + truncate(n.Data.Label, 28)
	if n.Data.Progress != nil {
		line += fmt.Sprintf(" %3.0f%%", clamp01(*n.Data.Progress)*100)
	}
	if n.Data.Step != "" {
		line += " " + dimStyle.Render(truncate(n.Data.Step, 20))
	}

	switch {
	case n.Ref.AgentID() == m.selected || n.Data.Highlighted:
		return selectedStyle.Render(line)
	case n.Data.IsForeign:
		return foreignStyle.Render(line)
	default:
		return line
	}
}

func (m Model) viewChat() string {
	if len(m.entries) == 0 {
		hint := "Press tab to pick an agent, then type to chat."
		if m.selected == "" && len(m.snapshot.Nodes) == 0 {
			hint = "Waiting for agents..."
		}
		return dimStyle.Render(hint)
	}

	var b strings.Builder
	for _, e := range m.entries {
		if e.IsUser {
			b.WriteString(userStyle.Render("you ") + e.Text + "\n")
			continue
		}
		if e.TurnID == "" {
			// Hydrated history entry; no live turn behind it.
			b.WriteString(e.Text + "\n")
			continue
		}
		b.WriteString(m.renderTurn(e.TurnID))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) renderTurn(turnID string) string {
	turn, ok := m.turns[turnID]
	if !ok {
		return dimStyle.Render(m.spin.View()+" waiting for reply") + "\n"
	}

	var b strings.Builder
	for _, exec := range turn.ToolExecutions {
		label := exec.ToolName
		if label == "" {
			label = exec.AgentName
		}
		line := toolStyle.Render("⚙ "+label) + dimStyle.Render(" ["+string(exec.Status)+"]")
		if exec.Result != "" && exec.Status != chat.ExecThinking {
			line += " " + dimStyle.Render(truncate(exec.Result, 60))
		}
		b.WriteString(line + "\n")
	}
	if turn.Text != "" {
		b.WriteString(turn.Text + "\n")
	}
	if turn.IsThinking {
		b.WriteString(dimStyle.Render(m.spin.View()+" thinking") + "\n")
	}
	return b.String()
}

func (m Model) viewInput() string {
	if m.busy {
		return dimStyle.Render(m.spin.View() + " streaming reply...")
	}
	return m.input.View()
}

// clamp01 bounds a stored progress value to the displayable range. The
// engine keeps whatever finite value the stream carried; display caps it.
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}

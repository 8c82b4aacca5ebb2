package chat

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strings"
	"time"
)

const maxLineSize = 1024 * 1024 // 1 MB

// eventEnvelope is the wire shape of one chat stream event.
type eventEnvelope struct {
	Type string    `json:"type"`
	Data eventData `json:"data"`
}

// eventData carries the union of payload fields across all event types.
// Agent lifecycle events use name/tool/delta; tool events use the
// snake_case agent_name/tool_name pair.
type eventData struct {
	Delta      string         `json:"delta"`
	Name       string         `json:"name"`
	Tool       string         `json:"tool"`
	Message    string         `json:"message"`
	Result     string         `json:"result"`
	AgentName  string         `json:"agent_name"`
	ToolName   string         `json:"tool_name"`
	Parameters map[string]any `json:"parameters"`
}

// TurnDecoder accumulates one chat turn from its streamed response body:
// token deltas grow the text, lifecycle events maintain the
// tool-execution cards, and every applied event emits a fresh Turn
// snapshot through onUpdate.
type TurnDecoder struct {
	turnID   string
	onUpdate func(Turn)

	text       strings.Builder
	isThinking bool
	executions map[string]*ToolExecution
	order      []string
	recovery   string

	now func() time.Time
}

// NewTurnDecoder creates a decoder for one turn. onUpdate may be nil.
func NewTurnDecoder(turnID string, onUpdate func(Turn)) *TurnDecoder {
	return &TurnDecoder{
		turnID:     turnID,
		onUpdate:   onUpdate,
		executions: make(map[string]*ToolExecution),
		now:        time.Now,
	}
}

// Run reads the streamed body line by line until EOF or cancellation.
func (d *TurnDecoder) Run(ctx context.Context, body io.Reader) error {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, maxLineSize), maxLineSize)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		d.handleLine(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read chat stream: %w", err)
	}
	return nil
}

// Turn returns the current snapshot.
func (d *TurnDecoder) Turn() Turn {
	executions := make([]ToolExecution, 0, len(d.order))
	for _, id := range d.order {
		if exec := d.executions[id]; exec != nil {
			executions = append(executions, *exec)
		}
	}
	return Turn{
		ID:             d.turnID,
		Text:           d.text.String(),
		IsThinking:     d.isThinking,
		ToolExecutions: executions,
	}
}

func (d *TurnDecoder) emit() {
	if d.onUpdate != nil {
		d.onUpdate(d.Turn())
	}
}

func (d *TurnDecoder) handleLine(line string) {
	if !strings.HasPrefix(line, "data:") {
		return
	}
	payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
	if payload == "" {
		return
	}

	var ev eventEnvelope
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		d.recover(payload)
		return
	}
	d.apply(ev)
}

// recover gives a line that failed to decode one rescue attempt: fragments
// accumulate until the buffer holds both braces, then a single decode is
// tried. A successful rescue is logged but not dispatched; replaying a
// late fragment could duplicate or resurrect stale tool events. Either
// way the buffer is discarded, bounding its growth.
func (d *TurnDecoder) recover(payload string) {
	d.recovery += payload
	if !strings.Contains(d.recovery, "{") || !strings.Contains(d.recovery, "}") {
		return
	}

	var ev eventEnvelope
	if err := json.Unmarshal([]byte(d.recovery), &ev); err != nil {
		log.Printf("[chat] discarding unparseable fragment buffer (%d bytes)", len(d.recovery))
	} else {
		log.Printf("[chat] recovered split event %q (not dispatched)", ev.Type)
	}
	d.recovery = ""
}

func (d *TurnDecoder) apply(ev eventEnvelope) {
	switch ev.Type {
	case "text":
		d.text.WriteString(ev.Data.Delta)

	case "agent_creating":
		tool := ev.Data.Tool
		if tool == "" {
			tool = "Agent"
		}
		id := GenerateToolID(ev.Data.Name, tool)
		d.put(id, &ToolExecution{
			ToolID:    id,
			ToolName:  tool,
			AgentName: ev.Data.Name,
			Status:    ExecCreating,
			StartTime: d.now(),
			Progress:  fmt.Sprintf("Creating agent %q...", ev.Data.Name),
		})
		d.isThinking = true

	case "agent_created":
		tool := ev.Data.Tool
		if tool == "" {
			tool = "Agent"
		}
		if exec := d.executions[GenerateToolID(ev.Data.Name, tool)]; exec != nil {
			exec.Status = ExecCreated
			exec.Progress = fmt.Sprintf("Agent %q created", ev.Data.Name)
		}

	case "agent_executing":
		id := GenerateToolID(ev.Data.Name, "Agent")
		progress := fmt.Sprintf("Agent %q is running...", ev.Data.Name)
		if exec := d.executions[id]; exec != nil {
			exec.Status = ExecExecuting
			exec.Progress = progress
		} else {
			d.put(id, &ToolExecution{
				ToolID:    id,
				ToolName:  "Agent",
				AgentName: ev.Data.Name,
				Status:    ExecExecuting,
				StartTime: d.now(),
				Progress:  progress,
			})
		}
		d.isThinking = true

	case "agent_thinking":
		id := GenerateToolID(ev.Data.Name, "Agent")
		progress := fmt.Sprintf("Agent %q is thinking...", ev.Data.Name)
		if exec := d.executions[id]; exec != nil {
			exec.Status = ExecThinking
			exec.Progress = progress
			exec.Result += ev.Data.Delta
		} else {
			d.put(id, &ToolExecution{
				ToolID:    id,
				ToolName:  "Agent",
				AgentName: ev.Data.Name,
				Status:    ExecThinking,
				StartTime: d.now(),
				Progress:  progress,
				Result:    ev.Data.Delta,
			})
		}
		d.isThinking = true

	case "agent_completed":
		if exec := d.executions[GenerateToolID(ev.Data.Name, "Agent")]; exec != nil {
			exec.Status = ExecCompleted
			end := d.now()
			exec.EndTime = &end
			exec.Progress = fmt.Sprintf("Agent %q finished", ev.Data.Name)
			if ev.Data.Result != "" {
				exec.Result = ev.Data.Result
			}
		}
		d.isThinking = false

	case "agent_updated":
		name := ev.Data.Name
		if name == "" {
			name = "Agent"
		}
		id := GenerateToolID(name, "Agent")
		progress := ev.Data.Message
		if progress == "" {
			progress = "Processing..."
		}
		if exec := d.executions[id]; exec != nil {
			exec.Progress = progress
		} else {
			d.put(id, &ToolExecution{
				ToolID:    id,
				ToolName:  "Agent",
				AgentName: name,
				Status:    ExecExecuting,
				StartTime: d.now(),
				Progress:  progress,
			})
		}
		d.isThinking = true

	case "tool_called":
		agent := ev.Data.AgentName
		if agent == "" {
			agent = "Agent"
		}
		tool := ev.Data.ToolName
		if tool == "" {
			tool = "Tool"
		}
		id := GenerateToolID(agent, tool)
		progress := ev.Data.Message
		if progress == "" {
			progress = "Running tool..."
		}
		d.put(id, &ToolExecution{
			ToolID:     id,
			ToolName:   tool,
			AgentName:  agent,
			Status:     ExecExecuting,
			StartTime:  d.now(),
			Progress:   progress,
			Parameters: ev.Data.Parameters,
		})
		d.isThinking = true

	case "tool_completed":
		agent := ev.Data.AgentName
		if agent == "" {
			agent = "Agent"
		}
		tool := ev.Data.ToolName
		if tool == "" {
			tool = "Tool"
		}
		if exec := d.executions[GenerateToolID(agent, tool)]; exec != nil {
			exec.Status = ExecCompleted
			end := d.now()
			exec.EndTime = &end
			exec.Result = ev.Data.Result
			if ev.Data.Message != "" {
				exec.Progress = ev.Data.Message
			} else {
				exec.Progress = "Tool finished"
			}
		}

	default:
		log.Printf("[chat] unhandled event type %q", ev.Type)
		return
	}

	d.emit()
}

// put stores an execution, keeping the discovery-order position of an id
// that is being overwritten.
func (d *TurnDecoder) put(id string, exec *ToolExecution) {
	if _, seen := d.executions[id]; !seen {
		d.order = append(d.order, id)
	}
	d.executions[id] = exec
}

package stream

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/agenthands/agentflow/internal/model"
)

// Event is the closed set of graph-op events carried on the agent stream.
type Event interface {
	op() string
}

// AddEvent announces a newly created agent.
type AddEvent struct {
	Agent model.Agent
}

// RemoveEvent announces a deleted agent.
type RemoveEvent struct {
	ID string
}

// UpdateEvent carries the full replacement record for an agent.
type UpdateEvent struct {
	Agent model.Agent
}

// StatusEvent patches a single agent's lifecycle status.
type StatusEvent struct {
	AgentID   string
	Status    model.AgentStatus
	Timestamp string
}

// ProgressEvent reports fractional progress for a running agent.
type ProgressEvent struct {
	AgentID   string
	Progress  float64
	Step      string
	Timestamp string
}

// DecisionEvent appends one opaque entry to an agent's decision log.
type DecisionEvent struct {
	AgentID   string
	Entry     json.RawMessage
	Timestamp string
}

func (AddEvent) op() string      { return "add" }
func (RemoveEvent) op() string   { return "remove" }
func (UpdateEvent) op() string   { return "update" }
func (StatusEvent) op() string   { return "status_update" }
func (ProgressEvent) op() string { return "progress" }
func (DecisionEvent) op() string { return "decision_log" }

// errDroppedEvent marks payloads that are discarded silently rather than
// logged (non-finite progress values).
var errDroppedEvent = errors.New("event dropped")

// envelope is the raw wire shape shared by all ops.
type envelope struct {
	Op        string          `json:"op"`
	ID        string          `json:"id"`
	Agent     *model.Agent    `json:"agent"`
	AgentID   string          `json:"agent_id"`
	Status    string          `json:"status"`
	Progress  json.RawMessage `json:"progress"`
	Step      string          `json:"step"`
	Entry     json.RawMessage `json:"entry"`
	Timestamp string          `json:"timestamp"`
}

// DecodeEvent parses one data line into a typed event. Unknown ops and
// malformed payloads come back as errors for the caller to log and drop;
// errDroppedEvent asks for a silent drop.
func DecodeEvent(line []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(line, &env); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}

	switch env.Op {
	case "add":
		if env.Agent == nil {
			return nil, fmt.Errorf("add event without agent payload")
		}
		return AddEvent{Agent: *env.Agent}, nil
	case "remove":
		if env.ID == "" {
			return nil, fmt.Errorf("remove event without id")
		}
		return RemoveEvent{ID: env.ID}, nil
	case "update":
		if env.Agent == nil {
			return nil, fmt.Errorf("update event without agent payload")
		}
		return UpdateEvent{Agent: *env.Agent}, nil
	case "status_update":
		agentID := env.AgentID
		if agentID == "" && env.Agent != nil {
			// Some producers nest the id under the agent object.
			agentID = env.Agent.ID
		}
		status := model.AgentStatus(env.Status)
		if status == "" {
			status = model.StatusIdle
		}
		return StatusEvent{AgentID: agentID, Status: status, Timestamp: env.Timestamp}, nil
	case "progress":
		progress, ok := parseProgress(env.Progress)
		if !ok {
			return nil, errDroppedEvent
		}
		return ProgressEvent{
			AgentID:   env.AgentID,
			Progress:  progress,
			Step:      env.Step,
			Timestamp: env.Timestamp,
		}, nil
	case "decision_log":
		entry := env.Entry
		if len(entry) == 0 {
			// Fall back to the whole payload when no entry field exists.
			entry = append(json.RawMessage(nil), line...)
		}
		return DecisionEvent{AgentID: env.AgentID, Entry: entry, Timestamp: env.Timestamp}, nil
	default:
		return nil, fmt.Errorf("unknown op %q", env.Op)
	}
}

// parseProgress accepts JSON numbers and numeric strings; everything else,
// including non-finite values, is rejected.
func parseProgress(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 {
		return 0, false
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return n, true
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		n, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return n, true
	}

	return 0, false
}

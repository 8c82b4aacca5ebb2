package chat

import "time"

// ExecutionStatus tracks one tool/sub-agent card through its lifecycle.
type ExecutionStatus string

const (
	ExecCreating  ExecutionStatus = "creating"
	ExecCreated   ExecutionStatus = "created"
	ExecExecuting ExecutionStatus = "executing"
	ExecThinking  ExecutionStatus = "thinking"
	ExecCompleted ExecutionStatus = "completed"
	ExecError     ExecutionStatus = "error"
)

// ToolExecution is one tracked unit of agent/tool activity within a turn.
type ToolExecution struct {
	ToolID     string
	ToolName   string
	AgentName  string
	Status     ExecutionStatus
	StartTime  time.Time
	EndTime    *time.Time
	Progress   string
	Parameters map[string]any
	Result     string
	Error      string
}

// Turn is the streaming view of one assistant response: the accumulated
// text plus the tool executions discovered so far, in discovery order.
type Turn struct {
	ID             string
	Text           string
	IsThinking     bool
	ToolExecutions []ToolExecution
}

// Message is one transcript entry.
type Message struct {
	ID             string
	Text           string
	IsUser         bool
	Timestamp      time.Time
	IsThinking     bool
	ToolExecutions []ToolExecution
}

package model

// AgentStatus is the lifecycle state reported by the backend.
type AgentStatus string

const (
	StatusIdle    AgentStatus = "idle"
	StatusRunning AgentStatus = "running"
	StatusDone    AgentStatus = "done"
	StatusError   AgentStatus = "error"
)

// Agent is a server-managed autonomous task entity. The backend owns the
// record; this side only reads it. JSON tags follow the wire casing
// (snake_case); timestamps are kept as opaque strings.
type Agent struct {
	ID          string      `json:"id"`
	OwnerID     string      `json:"owner_id"`
	Name        string      `json:"name"`
	Instruction string      `json:"instruction"`
	Tool        string      `json:"tool,omitempty"`
	ParentID    string      `json:"parent_id,omitempty"`
	Status      AgentStatus `json:"status,omitempty"`
	LastUpdated string      `json:"last_updated,omitempty"`
	CreatedAt   string      `json:"created_at,omitempty"`
	UpdatedAt   string      `json:"updated_at,omitempty"`
}

// IsRoot reports whether the agent was spawned without a parent.
func (a Agent) IsRoot() bool {
	return a.ParentID == ""
}

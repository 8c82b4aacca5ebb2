package model

// MessageRole distinguishes user input from assistant output.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// AgentMessage is one stored chat message for an agent session.
type AgentMessage struct {
	ID        string      `json:"id"`
	AgentID   string      `json:"agent_id"`
	SessionID string      `json:"session_id"`
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	CreatedAt string      `json:"created_at"`
}

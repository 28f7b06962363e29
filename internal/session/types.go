package session

import "time"

// Role identifies who produced a SessionMessage.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleToolUse   Role = "tool_use"
	RoleToolResult Role = "tool_result"
)

// Message is one line of a session transcript. Sequence ordering is array
// index within the transcript file, not a field on the struct.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	ToolName  string    `json:"toolName,omitempty"`
	Error     string    `json:"error,omitempty"`
}

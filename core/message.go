package core

// Role identifies the author of a Message.
type Role string

const (
	// RoleSystem carries instructions that frame the conversation.
	RoleSystem Role = "system"
	// RoleUser carries caller supplied input.
	RoleUser Role = "user"
	// RoleAssistant carries model output, including tool call requests.
	RoleAssistant Role = "assistant"
	// RoleTool carries the result of a tool call back to the model.
	RoleTool Role = "tool"
)

// ToolCall describes a tool invocation requested by a model.
type ToolCall struct {
	ID        string `json:"id,omitempty"` // Provider supplied correlation id
	Name      string `json:"name"`         // Tool name as bound on the agent
	Arguments string `json:"arguments"`    // Serialized JSON argument object
}

// Message is one entry of an ordered conversation.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`   // Set on assistant messages requesting tools
	ToolCallID string     `json:"tool_call_id,omitempty"` // Set on tool messages
	IsError    bool       `json:"is_error,omitempty"`     // Tool message reports a failure
}

// UserMessage returns a user message with the given text.
func UserMessage(text string) Message { return Message{Role: RoleUser, Content: text} }

// SystemMessage returns a system message with the given text.
func SystemMessage(text string) Message { return Message{Role: RoleSystem, Content: text} }

// AssistantMessage returns an assistant message with the given text.
func AssistantMessage(text string) Message { return Message{Role: RoleAssistant, Content: text} }

// ToolResultMessage returns a tool message answering the call with id.
func ToolResultMessage(id, content string, isError bool) Message {
	return Message{Role: RoleTool, Content: content, ToolCallID: id, IsError: isError}
}

// CloneMessages returns a copy of msgs safe for independent appends.
func CloneMessages(msgs []Message) []Message {
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}

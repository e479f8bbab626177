package models

import "time"

// Message represents an individual entry in an assistant conversation. It contains the core
// components of a chat message including its unique identifier, the participant's role, the
// accumulated content, and the precise time when the message was created.
//
// Source carries the answer origin reported by the backend ("documents", "general", or
// "error"); it is empty for user messages and for assistant messages that never reported one.
type Message struct {
	ID        string
	Role      Role
	Content   string
	Source    string
	Timestamp time.Time

	StreamState StreamState
}

// Role represents the role of a message participant.
type Role string

// StreamState tracks the delivery lifecycle of an assistant message.
type StreamState string

const (
	// RoleUser represents a message typed by the signed-in user.
	RoleUser Role = "user"
	// RoleAssistant represents a message produced by the assistant stream.
	RoleAssistant Role = "assistant"

	// StreamStateLoading marks a message whose request is sent but has produced no content yet.
	StreamStateLoading StreamState = "loading"
	// StreamStateStreaming marks a message that is receiving fragments.
	StreamStateStreaming StreamState = "streaming"
	// StreamStateEnded marks a message that completed and became immutable history.
	StreamStateEnded StreamState = "ended"
	// StreamStateInterrupted marks a message cut short by cancellation or a transport failure.
	// Its partial content stays visible but is never presented as a completed answer.
	StreamStateInterrupted StreamState = "interrupted"
)

// ContextLimit is the number of most recent messages sent upstream as conversation context
// with each assistant request.
const ContextLimit = 10

// ContextWindow returns the trailing portion of history that accompanies a new assistant
// request. The full history is kept locally; only this window travels upstream.
func ContextWindow(messages []Message) []Message {
	if len(messages) <= ContextLimit {
		return messages
	}
	return messages[len(messages)-ContextLimit:]
}

// Done reports whether the message reached a terminal state.
func (s StreamState) Done() bool {
	return s == StreamStateEnded || s == StreamStateInterrupted
}

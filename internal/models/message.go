// Package models holds the conversation types shared by the chat session,
// the endpoint clients and the proxy server.
package models

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is one turn of a conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Greeting is the assistant turn a new interactive conversation opens with.
const Greeting = "Hey there! 💪 I'm FitBuddy, your AI fitness companion. I'm here to help you with workouts, nutrition, motivation, and all things fitness. What can I help you with today?"

// Clone returns a copy of msgs that shares no backing array with it.
func Clone(msgs []Message) []Message {
	if msgs == nil {
		return nil
	}
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}

// Package transport defines the wire-level DTOs for the chat API.
package transport

// ChatMessage is one turn of the caller-supplied message list.
type ChatMessage struct {
	Role    string `json:"role" validate:"required,oneof=user assistant system"`
	Content string `json:"content" validate:"required,max=8000"`
}

// ChatRequest is the body of POST /chat. The last message must be a user
// turn; it is the one processed. SessionID is generated when absent. Stage
// is an optional resume hint and is never trusted to move a session forward.
type ChatRequest struct {
	SessionID string        `json:"sessionId" validate:"omitempty,max=128"`
	Messages  []ChatMessage `json:"messages" validate:"required,min=1,max=64,dive"`
	ModelID   string        `json:"modelId" validate:"omitempty,max=64"`
	Flags     []string      `json:"flags" validate:"omitempty,max=8,dive,max=32"`
	Stage     string        `json:"stage" validate:"omitempty,max=32"`
}

// LastUserMessage returns the trailing message when it is a user turn.
func (r *ChatRequest) LastUserMessage() (string, bool) {
	if len(r.Messages) == 0 {
		return "", false
	}
	last := r.Messages[len(r.Messages)-1]
	if last.Role != "user" {
		return "", false
	}
	return last.Content, true
}

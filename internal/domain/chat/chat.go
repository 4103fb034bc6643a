// Package chat defines the conversational assistant's session types.
package chat

// Roles used in a session history.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// FallbackReply is returned when the model produces no text.
const FallbackReply = "I'm not sure."

// Message is one turn of a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// StartResponse is returned when a session is opened.
type StartResponse struct {
	SessionID string `json:"sessionId"`
}

// SendRequest is the body of a chat turn.
type SendRequest struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

// SendResponse carries the model's reply.
type SendResponse struct {
	Reply string `json:"reply"`
}

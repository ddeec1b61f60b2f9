// Package chat defines the shared data model for a single assistant
// conversation: messages, plans, per-request logs, and the typed event
// stream sent back to clients.
package chat

// Message roles. Conversation order is insertion order; messages are never
// mutated after they are appended to a history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is one turn of a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is the inbound payload for one chat turn. The Canvas credential
// fields are opaque passthrough: the server forwards them to the tool
// executor without interpreting them.
type Request struct {
	Messages    []Message `json:"messages"`
	CanvasURL   string    `json:"canvas_url,omitempty"`
	CanvasToken string    `json:"canvas_token,omitempty"`
}

// LatestUserContent returns the content of the most recent user message, or
// an empty string when the request carries none.
func (r Request) LatestUserContent() string {
	for i := len(r.Messages) - 1; i >= 0; i-- {
		if r.Messages[i].Role == RoleUser {
			return r.Messages[i].Content
		}
	}
	return ""
}

// RecentWindow returns the most recent n messages. The full history stays
// with the client; only this window is forwarded to the model so prompt size
// stays bounded regardless of conversation length.
func RecentWindow(messages []Message, n int) []Message {
	if n <= 0 || len(messages) <= n {
		return messages
	}
	return messages[len(messages)-n:]
}

package domain

import "time"

// ChatMessage is the provider-agnostic chat message shape used by the LLM
// integrations.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Action types surfaced alongside a chat reply.
const (
	ActionProductAdded   = "product_added"
	ActionItemsReordered = "items_reordered"
)

// ChatAction is a structured side-channel record the UI can react to
// (toasts, cart badge refresh).
type ChatAction struct {
	Type    string         `json:"type"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

// ChatResponse is the result of processing one customer message.
type ChatResponse struct {
	Message      string       `json:"message"`
	IsSuccess    bool         `json:"isSuccess"`
	ErrorMessage string       `json:"errorMessage,omitempty"`
	Timestamp    time.Time    `json:"timestamp"`
	Actions      []ChatAction `json:"actions"`
}

// Package types holds the gateway's request and response wire shapes.
package types

// ChatRequest is the client's chat call. The gateway injects the resolved
// user and forces streaming mode before forwarding.
type ChatRequest struct {
	Query          string         `json:"query" binding:"required"`
	Inputs         map[string]any `json:"inputs"`
	ConversationID string         `json:"conversation_id"`
}

// ChatFeedbackRequest rates a single answer. Pointer fields so that only
// what the client actually set is forwarded.
type ChatFeedbackRequest struct {
	Rating  *string `json:"rating"`
	Content *string `json:"content"`
}

// ConversationRenameRequest renames a conversation, or asks the backend to
// auto-generate a name.
type ConversationRenameRequest struct {
	Name         *string `json:"name"`
	AutoGenerate bool    `json:"auto_generate"`
}

// LoginResult is returned by the code-exchange login endpoint.
type LoginResult struct {
	Token      string `json:"token"`
	ExpiresIn  int64  `json:"expires_in"`
	Expiration string `json:"expiration"`
}

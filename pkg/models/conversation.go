package models

// Message is one entry in a conversation. Order within a conversation is
// significant and preserved as stored.
type Message struct {
	ID        int64  `json:"id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// Conversation is a user's saved chat session keyed by ID. The ID is supplied
// by the client and doubles as the storage key; UserID scopes visibility.
type Conversation struct {
	ID int64 `json:"id"`
	// Title always marshals, even when empty; clients key off its presence.
	Title string `json:"title"`
	// Messages marshals as [] rather than null; callers normalize before write.
	Messages []Message `json:"messages"`
	UserID   string    `json:"user_id"`
	// Timestamps are RFC3339 UTC strings set by the service on write.
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

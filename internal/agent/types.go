package agent

import (
	"maps"
	"time"
)

// Message roles used in conversation history.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// UserInput is a single raw request from the user.
type UserInput struct {
	ID        string            `json:"id"`
	UserID    string            `json:"user_id"`
	SessionID string            `json:"session_id"`
	Text      string            `json:"text"`
	Timestamp time.Time         `json:"timestamp"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Message is one turn of a conversation.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Conversation is the conversation state owned by the context manager.
// Handlers receive it by reference for the duration of one request and must
// not mutate it; they return an updated copy instead.
type Conversation struct {
	SessionID string         `json:"session_id"`
	UserID    string         `json:"user_id"`
	History   []Message      `json:"history"`
	State     map[string]any `json:"state,omitempty"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// NewConversation creates an empty conversation for a session.
func NewConversation(sessionID, userID string) *Conversation {
	return &Conversation{
		SessionID: sessionID,
		UserID:    userID,
		History:   []Message{},
		State:     make(map[string]any),
		UpdatedAt: time.Now(),
	}
}

// Clone returns a copy whose history and state can be modified independently.
// State values themselves are shared.
func (c *Conversation) Clone() *Conversation {
	if c == nil {
		return nil
	}
	out := *c
	out.History = append([]Message(nil), c.History...)
	out.State = make(map[string]any, len(c.State))
	maps.Copy(out.State, c.State)
	return &out
}

// Append adds a turn to the history.
func (c *Conversation) Append(role, content string) {
	c.History = append(c.History, Message{Role: role, Content: content, Timestamp: time.Now()})
	c.UpdatedAt = time.Now()
}

// HistoryLen is nil-safe.
func (c *Conversation) HistoryLen() int {
	if c == nil {
		return 0
	}
	return len(c.History)
}

// Entity is a value extracted from the user's text during intent classification.
type Entity struct {
	Name       string  `json:"name"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence,omitempty"`
}

// Intent is the classifier's view of what the user wants.
type Intent struct {
	Name       string   `json:"name"`
	Confidence float64  `json:"confidence"`
	Entities   []Entity `json:"entities,omitempty"`
	Category   string   `json:"category,omitempty"`
}

// HasEntity reports whether an entity with the given name was extracted.
func (i Intent) HasEntity(name string) bool {
	for _, e := range i.Entities {
		if e.Name == name {
			return true
		}
	}
	return false
}

// NextStepAction is a follow-up the assistant suggests to the user.
type NextStepAction struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
}

// AgentResponse is what the user gets back for a request.
type AgentResponse struct {
	Content     string           `json:"content"`
	NextActions []NextStepAction `json:"next_actions"`
	Confidence  float64          `json:"confidence"`
	// ProcessingTime is in milliseconds.
	ProcessingTime int64          `json:"processing_time_ms"`
	Pattern        string         `json:"pattern,omitempty"`
	RequestID      string         `json:"request_id,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// Package session stores conversations between requests.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/sushant23/ai-agent-demo-sub001/internal/agent"
)

// DefaultMaxHistory caps stored history when no limit is configured.
const DefaultMaxHistory = 50

var (
	// ErrStorageClosed is returned after Close.
	ErrStorageClosed = errors.New("session storage closed")
	// ErrInvalidConversation is returned for nil conversations or missing session IDs.
	ErrInvalidConversation = errors.New("conversation requires a session id")
)

// Manager owns conversation state. Load returns a fresh conversation for
// unknown sessions; UpdateContext persists the state after a successful request.
type Manager interface {
	Load(ctx context.Context, sessionID, userID string) (*agent.Conversation, error)
	UpdateContext(ctx context.Context, conv *agent.Conversation) error
	Delete(ctx context.Context, sessionID string) error
	Close() error
}

// trimHistory keeps the newest max turns.
func trimHistory(conv *agent.Conversation, max int) {
	if max > 0 && len(conv.History) > max {
		conv.History = append([]agent.Message(nil), conv.History[len(conv.History)-max:]...)
	}
}

// MemoryStore is an in-process Manager. Stored conversations are copied on
// the way in and out.
type MemoryStore struct {
	sessions   map[string]*agent.Conversation
	maxHistory int
	mu         sync.RWMutex
	closed     bool
}

// NewMemoryStore creates a memory store. maxHistory <= 0 uses DefaultMaxHistory.
func NewMemoryStore(maxHistory int) *MemoryStore {
	if maxHistory <= 0 {
		maxHistory = DefaultMaxHistory
	}
	return &MemoryStore{
		sessions:   make(map[string]*agent.Conversation),
		maxHistory: maxHistory,
	}
}

// Load returns a copy of the stored conversation or a new one
func (s *MemoryStore) Load(ctx context.Context, sessionID, userID string) (*agent.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStorageClosed
	}

	if conv, ok := s.sessions[sessionID]; ok {
		return conv.Clone(), nil
	}
	return agent.NewConversation(sessionID, userID), nil
}

// UpdateContext stores a copy of conv
func (s *MemoryStore) UpdateContext(ctx context.Context, conv *agent.Conversation) error {
	if conv == nil || conv.SessionID == "" {
		return ErrInvalidConversation
	}

	stored := conv.Clone()
	trimHistory(stored, s.maxHistory)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStorageClosed
	}
	s.sessions[conv.SessionID] = stored
	return nil
}

// Delete removes a session
func (s *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStorageClosed
	}
	delete(s.sessions, sessionID)
	return nil
}

// Len returns the number of stored sessions
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Close releases the store
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.sessions = nil
	return nil
}

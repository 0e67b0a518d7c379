package session

import (
	"context"
	"sync"

	"github.com/worktrack/attendance-bot/internal/core/domain"
	"github.com/worktrack/attendance-bot/internal/core/ports"
)

// MemoryStore is the default session store: an in-process table keyed by
// conversation id. State is ephemeral; a restart drops all in-flight
// workflows.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[int64]domain.Session
}

var _ ports.SessionStore = (*MemoryStore)(nil)

// NewMemoryStore returns an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[int64]domain.Session)}
}

// Get returns a copy of the conversation's session, or an idle session when
// none exists. The data bag is copied so callers never alias store state.
func (s *MemoryStore) Get(_ context.Context, conversationID int64) (domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[conversationID]
	if !ok {
		return domain.Session{ConversationID: conversationID}, nil
	}
	return cloneSession(sess), nil
}

// SetState moves the conversation to the given state, creating the session
// lazily on first use.
func (s *MemoryStore) SetState(_ context.Context, conversationID int64, state domain.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.sessions[conversationID]
	sess.ConversationID = conversationID
	sess.State = state
	s.sessions[conversationID] = sess
	return nil
}

// UpdateData merges fields into the conversation's data bag, last write wins
// per key.
func (s *MemoryStore) UpdateData(_ context.Context, conversationID int64, data map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.sessions[conversationID]
	sess.ConversationID = conversationID
	if sess.Data == nil {
		sess.Data = make(map[string]string, len(data))
	}
	for k, v := range data {
		sess.Data[k] = v
	}
	s.sessions[conversationID] = sess
	return nil
}

// Clear resets the conversation to idle with an empty bag.
func (s *MemoryStore) Clear(_ context.Context, conversationID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, conversationID)
	return nil
}

func cloneSession(sess domain.Session) domain.Session {
	clone := sess
	if sess.Data != nil {
		clone.Data = make(map[string]string, len(sess.Data))
		for k, v := range sess.Data {
			clone.Data[k] = v
		}
	}
	return clone
}

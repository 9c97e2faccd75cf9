package memory

import (
	"context"
	"sync"
	"time"
)

// InMemoryStore keeps history in process memory. Sessions idle for longer than
// SessionIdleTimeout are dropped on the next access.
type InMemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*session
	now      func() time.Time
}

type session struct {
	msgs    []Message
	touched time.Time
}

// NewInMemoryStore creates an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string]*session), now: time.Now}
}

func (s *InMemoryStore) Append(_ context.Context, sessionID string, msgs ...Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expireLocked()

	sess, ok := s.sessions[sessionID]
	if !ok {
		sess = &session{}
		s.sessions[sessionID] = sess
	}
	sess.msgs = append(sess.msgs, msgs...)
	if over := len(sess.msgs) - MaxMessagesPerSession; over > 0 {
		sess.msgs = append([]Message(nil), sess.msgs[over:]...)
	}
	sess.touched = s.now()
	return nil
}

func (s *InMemoryStore) Recent(_ context.Context, sessionID string, n int) ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expireLocked()

	sess, ok := s.sessions[sessionID]
	if !ok || n <= 0 {
		return nil, nil
	}
	msgs := sess.msgs
	if len(msgs) > n {
		msgs = msgs[len(msgs)-n:]
	}
	return append([]Message(nil), msgs...), nil
}

func (s *InMemoryStore) Clear(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

func (s *InMemoryStore) Close() error { return nil }

func (s *InMemoryStore) expireLocked() {
	cutoff := s.now().Add(-SessionIdleTimeout)
	for id, sess := range s.sessions {
		if sess.touched.Before(cutoff) {
			delete(s.sessions, id)
		}
	}
}

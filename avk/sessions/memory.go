package sessions

import (
	"context"
	"errors"
	"sync"
	"time"
)

// MemoryStore keeps sessions in process memory keyed by token
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*Session)}
}

func (s *MemoryStore) Create(_ context.Context, session *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[session.SessionToken]; ok {
		return errors.New("session token already exists")
	}

	cp := *session
	s.sessions[session.SessionToken] = &cp

	return nil
}

func (s *MemoryStore) FindByToken(_ context.Context, token string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[token]
	if !ok {
		return nil, ErrSessionNotFound
	}

	cp := *session
	return &cp, nil
}

func (s *MemoryStore) DeleteByToken(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, token)
	return nil
}

func (s *MemoryStore) DeleteByUser(_ context.Context, userID string) (int64, error) {
	return s.deleteWhere(func(session *Session) bool { return session.UserID == userID }), nil
}

func (s *MemoryStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	return s.deleteWhere(func(session *Session) bool { return session.Expired(now) }), nil
}

// returns the number of stored sessions
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *MemoryStore) deleteWhere(match func(*Session) bool) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64

	for token, session := range s.sessions {
		if match(session) {
			delete(s.sessions, token)
			n++
		}
	}

	return n
}

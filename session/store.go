package session

import (
	"sync"
	"time"
)

// TokenStore persists the session token for an SDK client. The session
// manager is the sole writer.
type TokenStore interface {
	// Token returns the stored token, or false when absent or expired.
	Token() (string, bool)

	// Set stores a token until expiresAt.
	Set(token string, expiresAt time.Time)

	// Clear removes the stored token; idempotent.
	Clear()
}

// MemoryTokenStore is an in-memory TokenStore.
type MemoryTokenStore struct {
	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// NewMemoryTokenStore creates an empty in-memory token store.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

func (s *MemoryTokenStore) Token() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token == "" || time.Now().After(s.expiresAt) {
		return "", false
	}
	return s.token, true
}

func (s *MemoryTokenStore) Set(token string, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = token
	s.expiresAt = expiresAt
}

func (s *MemoryTokenStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = ""
	s.expiresAt = time.Time{}
}

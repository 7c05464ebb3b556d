package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/layer-3/hyperdash/core"
	"github.com/layer-3/hyperdash/ports"
)

// MemoryStore is an in-memory implementation of the Store interface, used in
// tests and single-instance development setups.
type MemoryStore struct {
	mu                sync.Mutex
	challenges        map[string]challengeEntry
	invalidatedTokens map[string]time.Time
}

type challengeEntry struct {
	challenge *core.Challenge
	expiresAt time.Time
	consumed  bool
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() ports.Store {
	return &MemoryStore{
		challenges:        make(map[string]challengeEntry),
		invalidatedTokens: make(map[string]time.Time),
	}
}

// PutChallenge stores an issued challenge until it expires. The entry,
// including a consumed marker left by TakeChallenge, is purged once the TTL
// lapses.
func (s *MemoryStore) PutChallenge(ctx context.Context, c *core.Challenge, ttl time.Duration) error {
	key := strings.ToLower(c.Address)
	expiresAt := time.Now().Add(ttl)

	s.mu.Lock()
	s.challenges[key] = challengeEntry{
		challenge: c,
		expiresAt: expiresAt,
	}
	s.mu.Unlock()

	go func() {
		time.Sleep(ttl)

		s.mu.Lock()
		defer s.mu.Unlock()

		// Only delete if no newer challenge replaced this one.
		if entry, exists := s.challenges[key]; exists && !entry.expiresAt.After(expiresAt) {
			delete(s.challenges, key)
		}
	}()

	return nil
}

// TakeChallenge retrieves and removes a challenge. A consumed or unknown
// address fails so a signature can never be replayed against the same
// challenge.
func (s *MemoryStore) TakeChallenge(ctx context.Context, address string) (*core.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(address)
	entry, exists := s.challenges[key]
	if !exists {
		return nil, core.ErrInvalidChallenge
	}
	if entry.consumed {
		return nil, core.ErrChallengeConsumed
	}
	if time.Now().After(entry.expiresAt) {
		delete(s.challenges, key)
		return nil, core.ErrInvalidChallenge
	}

	// Keep a consumed marker rather than deleting outright so a replay is
	// distinguishable from an unknown challenge until the TTL lapses.
	entry.consumed = true
	s.challenges[key] = entry

	return entry.challenge, nil
}

// InvalidateToken marks a token as invalidated.
func (s *MemoryStore) InvalidateToken(ctx context.Context, tokenID string, expiry time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiryTime := time.Now().Add(expiry)
	s.invalidatedTokens[tokenID] = expiryTime

	go func() {
		time.Sleep(expiry)

		s.mu.Lock()
		defer s.mu.Unlock()

		// Only delete if the expiry time hasn't been extended since.
		if storedExpiry, exists := s.invalidatedTokens[tokenID]; exists && !storedExpiry.After(expiryTime) {
			delete(s.invalidatedTokens, tokenID)
		}
	}()

	return nil
}

// IsTokenInvalidated checks if a token is invalidated.
func (s *MemoryStore) IsTokenInvalidated(ctx context.Context, tokenID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiryTime, exists := s.invalidatedTokens[tokenID]
	if !exists {
		return false, nil
	}

	if time.Now().After(expiryTime) {
		return false, nil
	}

	return true, nil
}

package userstore

import (
	"context"
	"strings"
	"sync"

	"github.com/layer-3/hyperdash/core"
	"github.com/layer-3/hyperdash/ports"
)

// MemoryStore is an in-memory UserStore for tests and development.
type MemoryStore struct {
	mu       sync.RWMutex
	byID     map[string]*core.User
	byWallet map[string]string // lowercased address -> user ID
	byEmail  map[string]string
}

// NewMemoryStore creates a new in-memory user store.
func NewMemoryStore() ports.UserStore {
	return &MemoryStore{
		byID:     make(map[string]*core.User),
		byWallet: make(map[string]string),
		byEmail:  make(map[string]string),
	}
}

func (s *MemoryStore) GetByID(ctx context.Context, id string) (*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.byID[id]
	if !exists {
		return nil, core.ErrUserNotFound
	}
	return cloneUser(user), nil
}

func (s *MemoryStore) GetByWallet(ctx context.Context, address string) (*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, exists := s.byWallet[strings.ToLower(address)]
	if !exists {
		return nil, core.ErrUserNotFound
	}
	return cloneUser(s.byID[id]), nil
}

func (s *MemoryStore) GetByEmail(ctx context.Context, email string) (*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, exists := s.byEmail[strings.ToLower(email)]
	if !exists {
		return nil, core.ErrUserNotFound
	}
	return cloneUser(s.byID[id]), nil
}

func (s *MemoryStore) Create(ctx context.Context, user *core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, w := range user.Wallets {
		if _, taken := s.byWallet[strings.ToLower(w.Address)]; taken {
			return core.ErrWalletLinked
		}
	}

	s.byID[user.ID] = cloneUser(user)
	if user.Email != "" {
		s.byEmail[strings.ToLower(user.Email)] = user.ID
	}
	for _, w := range user.Wallets {
		s.byWallet[strings.ToLower(w.Address)] = user.ID
	}
	return nil
}

func (s *MemoryStore) LinkWallet(ctx context.Context, userID string, wallet core.Wallet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, exists := s.byID[userID]
	if !exists {
		return core.ErrUserNotFound
	}

	key := strings.ToLower(wallet.Address)
	if owner, taken := s.byWallet[key]; taken {
		if owner == userID {
			return nil
		}
		return core.ErrWalletLinked
	}

	user.Wallets = append(user.Wallets, wallet)
	s.byWallet[key] = userID
	return nil
}

func cloneUser(u *core.User) *core.User {
	c := *u
	c.Wallets = append([]core.Wallet(nil), u.Wallets...)
	return &c
}

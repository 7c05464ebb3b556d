package ports

import (
	"context"

	"github.com/layer-3/hyperdash/core"
)

// UserStore persists user accounts and their linked wallets. Lookups return
// core.ErrUserNotFound when no account matches.
type UserStore interface {
	// GetByID returns the user with the given ID, including linked wallets
	// and derived counters.
	GetByID(ctx context.Context, id string) (*core.User, error)

	// GetByWallet returns the user a wallet address is linked to.
	GetByWallet(ctx context.Context, address string) (*core.User, error)

	// GetByEmail returns the user with the given email.
	GetByEmail(ctx context.Context, email string) (*core.User, error)

	// Create inserts a new user. The user must carry at least one
	// authentication method (email or a wallet).
	Create(ctx context.Context, user *core.User) error

	// LinkWallet attaches a wallet to an existing user. Linking an address
	// already owned by another user returns core.ErrWalletLinked.
	LinkWallet(ctx context.Context, userID string, wallet core.Wallet) error
}

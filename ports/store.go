package ports

import (
	"context"
	"time"

	"github.com/layer-3/hyperdash/core"
)

// Store holds short-lived auth state: issued challenges (single use) and
// revoked refresh token IDs. Entries carry a TTL so abandoned challenges and
// expired revocations age out on their own.
type Store interface {
	// PutChallenge stores an issued challenge until it expires, keyed by the
	// wallet address it was issued for. Each address has at most one
	// outstanding challenge; issuing a new one replaces the previous.
	PutChallenge(ctx context.Context, c *core.Challenge, ttl time.Duration) error

	// TakeChallenge retrieves and atomically removes the challenge issued to
	// the given address. A second take returns core.ErrChallengeConsumed.
	TakeChallenge(ctx context.Context, address string) (*core.Challenge, error)

	// InvalidateToken marks a refresh token ID as revoked for the given duration.
	InvalidateToken(ctx context.Context, tokenID string, expiry time.Duration) error

	// IsTokenInvalidated checks whether a refresh token ID has been revoked.
	IsTokenInvalidated(ctx context.Context, tokenID string) (bool, error)
}

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/layer-3/hyperdash/core"
	"github.com/layer-3/hyperdash/ports"
	"github.com/redis/go-redis/v9"
)

// consumedMarkerTTL is how long a taken challenge leaves a tombstone behind,
// so a replay is reported as consumed rather than unknown. Matches the
// longest a challenge could have lived.
const consumedMarkerTTL = 5 * time.Minute

// RedisStore is a Redis implementation of the Store interface.
type RedisStore struct {
	client          *redis.Client
	challengePrefix string
	consumedPrefix  string
	revokedPrefix   string
}

// NewRedisStore creates a new Redis store.
func NewRedisStore(client *redis.Client) ports.Store {
	return &RedisStore{
		client:          client,
		challengePrefix: "hyperdash:challenge:",
		consumedPrefix:  "hyperdash:challenge:consumed:",
		revokedPrefix:   "hyperdash:invalidated:",
	}
}

// PutChallenge stores an issued challenge with its TTL.
func (s *RedisStore) PutChallenge(ctx context.Context, c *core.Challenge, ttl time.Duration) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal challenge: %w", err)
	}

	if err := s.client.Set(ctx, s.challengePrefix+strings.ToLower(c.Address), payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store challenge: %w", err)
	}

	return nil
}

// TakeChallenge atomically fetches and deletes a challenge. GETDEL guarantees
// a signature can be verified against an issued challenge at most once even
// across concurrent verification attempts. A tombstone is left behind so a
// second take reports core.ErrChallengeConsumed, not an unknown challenge.
func (s *RedisStore) TakeChallenge(ctx context.Context, address string) (*core.Challenge, error) {
	key := strings.ToLower(address)

	val, err := s.client.GetDel(ctx, s.challengePrefix+key).Result()
	if err == redis.Nil {
		consumed, err := s.client.Exists(ctx, s.consumedPrefix+key).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to check consumed challenge: %w", err)
		}
		if consumed > 0 {
			return nil, core.ErrChallengeConsumed
		}
		return nil, core.ErrInvalidChallenge
	}
	if err != nil {
		return nil, fmt.Errorf("failed to take challenge: %w", err)
	}

	var c core.Challenge
	if err := json.Unmarshal([]byte(val), &c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal challenge: %w", err)
	}

	// Best effort: a lost tombstone only degrades a replay to the unknown
	// challenge error.
	_ = s.client.Set(ctx, s.consumedPrefix+key, "1", consumedMarkerTTL).Err()

	return &c, nil
}

// InvalidateToken marks a token as invalidated in Redis.
func (s *RedisStore) InvalidateToken(ctx context.Context, tokenID string, expiry time.Duration) error {
	key := s.revokedPrefix + tokenID

	if err := s.client.Set(ctx, key, "1", expiry).Err(); err != nil {
		return fmt.Errorf("failed to invalidate token: %w", err)
	}

	return nil
}

// IsTokenInvalidated checks if a token is invalidated in Redis.
func (s *RedisStore) IsTokenInvalidated(ctx context.Context, tokenID string) (bool, error) {
	val, err := s.client.Exists(ctx, s.revokedPrefix+tokenID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token invalidation: %w", err)
	}

	return val > 0, nil
}

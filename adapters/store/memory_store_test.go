package store

import (
	"context"
	"testing"
	"time"

	"github.com/layer-3/hyperdash/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryChallengeSingleUse(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	c := &core.Challenge{
		Address:   "0xAbC0000000000000000000000000000000000001",
		Nonce:     "n1",
		Message:   "sign me",
		ExpiresAt: time.Now().Add(time.Minute),
	}
	require.NoError(t, s.PutChallenge(ctx, c, time.Minute))

	// Address lookup is case-insensitive.
	got, err := s.TakeChallenge(ctx, "0xabc0000000000000000000000000000000000001")
	require.NoError(t, err)
	assert.Equal(t, "n1", got.Nonce)

	_, err = s.TakeChallenge(ctx, c.Address)
	assert.ErrorIs(t, err, core.ErrChallengeConsumed)
}

func TestMemoryChallengeEntriesPurgedAfterTTL(t *testing.T) {
	s := NewMemoryStore().(*MemoryStore)
	ctx := context.Background()

	c := &core.Challenge{
		Address:   "0xAbC0000000000000000000000000000000000001",
		Nonce:     "n1",
		ExpiresAt: time.Now().Add(20 * time.Millisecond),
	}
	require.NoError(t, s.PutChallenge(ctx, c, 20*time.Millisecond))

	_, err := s.TakeChallenge(ctx, c.Address)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return len(s.challenges) == 0
	}, time.Second, 10*time.Millisecond, "consumed entry must be swept once the TTL lapses")

	_, err = s.TakeChallenge(ctx, c.Address)
	assert.ErrorIs(t, err, core.ErrInvalidChallenge)
}

func TestMemoryChallengeSweepSparesReplacement(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	addr := "0xAbC0000000000000000000000000000000000001"
	first := &core.Challenge{Address: addr, Nonce: "n1", ExpiresAt: time.Now().Add(20 * time.Millisecond)}
	require.NoError(t, s.PutChallenge(ctx, first, 20*time.Millisecond))

	second := &core.Challenge{Address: addr, Nonce: "n2", ExpiresAt: time.Now().Add(time.Minute)}
	require.NoError(t, s.PutChallenge(ctx, second, time.Minute))

	// The first challenge's sweep fires after its TTL but must not remove
	// the replacement.
	time.Sleep(50 * time.Millisecond)

	got, err := s.TakeChallenge(ctx, addr)
	require.NoError(t, err)
	assert.Equal(t, "n2", got.Nonce)
}

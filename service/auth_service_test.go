package service

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/layer-3/hyperdash/adapters/store"
	"github.com/layer-3/hyperdash/adapters/tokenizer"
	"github.com/layer-3/hyperdash/adapters/userstore"
	"github.com/layer-3/hyperdash/core"
	"github.com/layer-3/hyperdash/internal/eth"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *AuthService {
	t.Helper()

	signKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	return NewAuthService(
		tokenizer.NewJWTTokenizer(signKey),
		store.NewMemoryStore(),
		userstore.NewMemoryStore(),
		nil,
		nil,
		zerolog.Nop(),
	)
}

func newWallet(t *testing.T) (*ecdsa.PrivateKey, string) {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return key, crypto.PubkeyToAddress(key.PublicKey).Hex()
}

func signChallenge(t *testing.T, key *ecdsa.PrivateKey, message string) string {
	t.Helper()
	sig, err := eth.SignPersonal([]byte(message), key)
	require.NoError(t, err)
	return hexutil.Encode(sig)
}

func TestWalletLoginHappyPath(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	key, addr := newWallet(t)

	challenge, err := svc.CreateChallenge(ctx, addr)
	require.NoError(t, err)
	assert.NotEmpty(t, challenge.Nonce)
	assert.Contains(t, challenge.Message, addr)
	assert.Contains(t, challenge.Message, challenge.Nonce)
	assert.True(t, challenge.ExpiresAt.After(time.Now()))

	result, err := svc.VerifyWallet(ctx, addr, signChallenge(t, key, challenge.Message), challenge.Message, "ethereum")
	require.NoError(t, err)
	assert.NotEmpty(t, result.AccessToken)
	assert.NotEmpty(t, result.RefreshToken)
	assert.Equal(t, "Bearer", result.TokenType)
	assert.True(t, result.IsNewUser)
	require.NotNil(t, result.User)
	assert.True(t, result.User.HasWallet(strings.ToLower(addr)))
}

func TestWalletLoginSecondTimeIsNotNewUser(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	key, addr := newWallet(t)

	c1, err := svc.CreateChallenge(ctx, addr)
	require.NoError(t, err)
	first, err := svc.VerifyWallet(ctx, addr, signChallenge(t, key, c1.Message), c1.Message, "ethereum")
	require.NoError(t, err)

	c2, err := svc.CreateChallenge(ctx, addr)
	require.NoError(t, err)
	second, err := svc.VerifyWallet(ctx, addr, signChallenge(t, key, c2.Message), c2.Message, "ethereum")
	require.NoError(t, err)

	assert.False(t, second.IsNewUser)
	assert.Equal(t, first.User.ID, second.User.ID)
}

func TestWalletLoginRejectsInvalidSignature(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	_, addr := newWallet(t)
	otherKey, _ := newWallet(t)

	challenge, err := svc.CreateChallenge(ctx, addr)
	require.NoError(t, err)

	// Signed by a different key than the claimed address.
	_, err = svc.VerifyWallet(ctx, addr, signChallenge(t, otherKey, challenge.Message), challenge.Message, "ethereum")
	assert.ErrorIs(t, err, core.ErrInvalidSignature)
}

func TestWalletLoginRejectsTamperedMessage(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	key, addr := newWallet(t)

	challenge, err := svc.CreateChallenge(ctx, addr)
	require.NoError(t, err)

	tampered := challenge.Message + "\nextra line"
	_, err = svc.VerifyWallet(ctx, addr, signChallenge(t, key, tampered), tampered, "ethereum")
	assert.ErrorIs(t, err, core.ErrInvalidChallenge)
}

func TestChallengeIsSingleUse(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	key, addr := newWallet(t)

	challenge, err := svc.CreateChallenge(ctx, addr)
	require.NoError(t, err)
	sig := signChallenge(t, key, challenge.Message)

	_, err = svc.VerifyWallet(ctx, addr, sig, challenge.Message, "ethereum")
	require.NoError(t, err)

	// Replaying the same signed challenge must fail.
	_, err = svc.VerifyWallet(ctx, addr, sig, challenge.Message, "ethereum")
	assert.ErrorIs(t, err, core.ErrChallengeConsumed)
}

func TestChallengeConsumedByFailedAttempt(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	key, addr := newWallet(t)
	otherKey, _ := newWallet(t)

	challenge, err := svc.CreateChallenge(ctx, addr)
	require.NoError(t, err)

	_, err = svc.VerifyWallet(ctx, addr, signChallenge(t, otherKey, challenge.Message), challenge.Message, "ethereum")
	require.ErrorIs(t, err, core.ErrInvalidSignature)

	// A failed attempt burns the challenge; a later valid signature needs a
	// fresh nonce.
	_, err = svc.VerifyWallet(ctx, addr, signChallenge(t, key, challenge.Message), challenge.Message, "ethereum")
	assert.ErrorIs(t, err, core.ErrChallengeConsumed)
}

func TestVerifyWalletWithoutChallenge(t *testing.T) {
	svc := newTestService(t)
	key, addr := newWallet(t)

	msg := "a message that was never issued"
	_, err := svc.VerifyWallet(context.Background(), addr, signChallenge(t, key, msg), msg, "ethereum")
	assert.ErrorIs(t, err, core.ErrInvalidChallenge)
}

func TestCreateChallengeRejectsMalformedAddress(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.CreateChallenge(context.Background(), "not-an-address")
	assert.ErrorIs(t, err, core.ErrInvalidAddress)
}

func TestCurrentUserIsIdempotent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	key, addr := newWallet(t)

	challenge, err := svc.CreateChallenge(ctx, addr)
	require.NoError(t, err)
	result, err := svc.VerifyWallet(ctx, addr, signChallenge(t, key, challenge.Message), challenge.Message, "ethereum")
	require.NoError(t, err)

	first, err := svc.CurrentUser(ctx, result.AccessToken)
	require.NoError(t, err)
	second, err := svc.CurrentUser(ctx, result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRefreshRotatesAndRevokesOldToken(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	key, addr := newWallet(t)

	challenge, err := svc.CreateChallenge(ctx, addr)
	require.NoError(t, err)
	result, err := svc.VerifyWallet(ctx, addr, signChallenge(t, key, challenge.Message), challenge.Message, "ethereum")
	require.NoError(t, err)

	rotated, err := svc.Refresh(ctx, result.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, result.RefreshToken, rotated.RefreshToken)

	// The old refresh token is now revoked.
	_, err = svc.Refresh(ctx, result.RefreshToken)
	assert.ErrorIs(t, err, core.ErrTokenInvalidated)

	// So is the access token paired with it.
	_, err = svc.CurrentUser(ctx, result.AccessToken)
	assert.ErrorIs(t, err, core.ErrTokenInvalidated)

	// The rotated pair keeps working.
	_, err = svc.CurrentUser(ctx, rotated.AccessToken)
	assert.NoError(t, err)
}

func TestLogoutRevokesSession(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	key, addr := newWallet(t)

	challenge, err := svc.CreateChallenge(ctx, addr)
	require.NoError(t, err)
	result, err := svc.VerifyWallet(ctx, addr, signChallenge(t, key, challenge.Message), challenge.Message, "ethereum")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, result.AccessToken))

	_, err = svc.CurrentUser(ctx, result.AccessToken)
	assert.ErrorIs(t, err, core.ErrTokenInvalidated)
	_, err = svc.Refresh(ctx, result.RefreshToken)
	assert.ErrorIs(t, err, core.ErrTokenInvalidated)

	// Logging out twice is harmless.
	assert.NoError(t, svc.Logout(ctx, result.AccessToken))
}

func TestCurrentUserRejectsGarbageToken(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.CurrentUser(context.Background(), "not.a.jwt")
	assert.Error(t, err)
}

func TestLinkWalletToExistingAccount(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	key1, addr1 := newWallet(t)
	c1, err := svc.CreateChallenge(ctx, addr1)
	require.NoError(t, err)
	first, err := svc.VerifyWallet(ctx, addr1, signChallenge(t, key1, c1.Message), c1.Message, "ethereum")
	require.NoError(t, err)

	key2, addr2 := newWallet(t)
	c2, err := svc.CreateChallenge(ctx, addr2)
	require.NoError(t, err)

	updated, err := svc.LinkWallet(ctx, first.User.ID, addr2, signChallenge(t, key2, c2.Message), c2.Message, "")
	require.NoError(t, err)
	assert.True(t, updated.HasWallet(strings.ToLower(addr2)))
	assert.Len(t, updated.Wallets, 2)

	// Logging in with the linked wallet resolves the same account.
	c3, err := svc.CreateChallenge(ctx, addr2)
	require.NoError(t, err)
	second, err := svc.VerifyWallet(ctx, addr2, signChallenge(t, key2, c3.Message), c3.Message, "ethereum")
	require.NoError(t, err)
	assert.False(t, second.IsNewUser)
	assert.Equal(t, first.User.ID, second.User.ID)
}

func TestLinkWalletOwnedByAnotherAccount(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	key1, addr1 := newWallet(t)
	c1, err := svc.CreateChallenge(ctx, addr1)
	require.NoError(t, err)
	first, err := svc.VerifyWallet(ctx, addr1, signChallenge(t, key1, c1.Message), c1.Message, "ethereum")
	require.NoError(t, err)

	key2, addr2 := newWallet(t)
	c2, err := svc.CreateChallenge(ctx, addr2)
	require.NoError(t, err)
	_, err = svc.VerifyWallet(ctx, addr2, signChallenge(t, key2, c2.Message), c2.Message, "ethereum")
	require.NoError(t, err)

	c3, err := svc.CreateChallenge(ctx, addr2)
	require.NoError(t, err)
	_, err = svc.LinkWallet(ctx, first.User.ID, addr2, signChallenge(t, key2, c3.Message), c3.Message, "")
	assert.ErrorIs(t, err, core.ErrWalletLinked)
}

func TestLinkWalletRequiresOwnershipProof(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	key1, addr1 := newWallet(t)
	c1, err := svc.CreateChallenge(ctx, addr1)
	require.NoError(t, err)
	first, err := svc.VerifyWallet(ctx, addr1, signChallenge(t, key1, c1.Message), c1.Message, "ethereum")
	require.NoError(t, err)

	// A signature from the wrong key must not link the wallet, and the
	// failed attempt burns the challenge.
	wrongKey, _ := newWallet(t)
	_, addr2 := newWallet(t)
	c2, err := svc.CreateChallenge(ctx, addr2)
	require.NoError(t, err)
	_, err = svc.LinkWallet(ctx, first.User.ID, addr2, signChallenge(t, wrongKey, c2.Message), c2.Message, "")
	assert.ErrorIs(t, err, core.ErrInvalidSignature)

	_, err = svc.LinkWallet(ctx, first.User.ID, addr2, signChallenge(t, wrongKey, c2.Message), c2.Message, "")
	assert.ErrorIs(t, err, core.ErrChallengeConsumed)

	user, err := svc.CurrentUser(ctx, first.AccessToken)
	require.NoError(t, err)
	assert.Len(t, user.Wallets, 1)
}

package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/layer-3/hyperdash/core"
	"github.com/layer-3/hyperdash/internal/eth"
	"github.com/layer-3/hyperdash/ports"
	"github.com/rs/zerolog"
)

const (
	// ChainEthereum is the chain identifier recorded for EVM wallet logins.
	ChainEthereum = "ethereum"

	// revokedFloorTTL keeps revocation records for already-expired tokens
	// around long enough to cover clock skew between instances.
	revokedFloorTTL = time.Hour
)

// AuthService implements the identity backend contract: challenge issuance,
// wallet and Google credential verification, and the access/refresh token
// lifecycle.
type AuthService struct {
	tokenizer ports.Tokenizer
	store     ports.Store
	users     ports.UserStore
	google    ports.GoogleVerifier
	eventPub  ports.EventPublisher
	log       zerolog.Logger

	challengeTTL time.Duration
	accessTTL    time.Duration
	refreshTTL   time.Duration
}

// NewAuthService creates a new authentication service. The Google verifier
// and event publisher may be nil; the corresponding features are then
// disabled and best-effort respectively.
func NewAuthService(
	tokenizer ports.Tokenizer,
	store ports.Store,
	users ports.UserStore,
	google ports.GoogleVerifier,
	eventPub ports.EventPublisher,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		tokenizer:    tokenizer,
		store:        store,
		users:        users,
		google:       google,
		eventPub:     eventPub,
		log:          log.With().Str("component", "auth").Logger(),
		challengeTTL: 5 * time.Minute,
		accessTTL:    7 * 24 * time.Hour,
		refreshTTL:   30 * 24 * time.Hour,
	}
}

// CreateChallenge issues a single-use login challenge for a wallet address.
// Re-requesting a challenge replaces any outstanding one for the address.
func (s *AuthService) CreateChallenge(ctx context.Context, address string) (*core.Challenge, error) {
	if !common.IsHexAddress(address) {
		return nil, core.ErrInvalidAddress
	}
	canonical := common.HexToAddress(address).Hex()

	nonceBytes := make([]byte, 32)
	if _, err := rand.Read(nonceBytes); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	nonce := hex.EncodeToString(nonceBytes)

	now := time.Now().UTC()
	challenge := &core.Challenge{
		ID:        uuid.New().String(),
		Address:   canonical,
		Nonce:     nonce,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.challengeTTL),
	}
	challenge.Message = SignInMessage(challenge)

	if err := s.store.PutChallenge(ctx, challenge, s.challengeTTL); err != nil {
		return nil, fmt.Errorf("failed to store challenge: %w", err)
	}

	s.log.Debug().Str("address", canonical).Str("challenge_id", challenge.ID).Msg("challenge issued")

	return challenge, nil
}

// SignInMessage renders the human-readable text the wallet signs. Verification
// compares the submitted message against this text byte-for-byte, so the
// layout is part of the wire contract.
func SignInMessage(c *core.Challenge) string {
	return fmt.Sprintf(
		"hyperdash.io wants you to sign in with your Ethereum account:\n%s\n\n"+
			"Signing is free and will not trigger a blockchain transaction.\n\n"+
			"Nonce: %s\nIssued At: %s\nExpiration Time: %s",
		c.Address,
		c.Nonce,
		c.IssuedAt.Format(time.RFC3339),
		c.ExpiresAt.Format(time.RFC3339),
	)
}

// VerifyWallet authenticates a user by their signature over an issued
// challenge message. The challenge is consumed on the first attempt, success
// or not: a rejected signature forces a fresh nonce round-trip.
func (s *AuthService) VerifyWallet(ctx context.Context, address, signature, message, chain string) (*core.AuthResult, error) {
	if !common.IsHexAddress(address) {
		return nil, core.ErrInvalidAddress
	}
	canonical := common.HexToAddress(address)

	if err := s.consumeChallenge(ctx, canonical, signature, message); err != nil {
		return nil, err
	}

	if chain == "" {
		chain = ChainEthereum
	}

	user, isNew, err := s.findOrCreateWalletUser(ctx, canonical.Hex(), chain)
	if err != nil {
		return nil, err
	}

	result, err := s.issueTokens(user, canonical.Hex())
	if err != nil {
		return nil, err
	}
	result.IsNewUser = isNew

	s.log.Info().Str("user_id", user.ID).Str("address", canonical.Hex()).Bool("new_user", isNew).Msg("wallet login")

	return result, nil
}

// consumeChallenge takes the outstanding challenge for the address and
// verifies the signature over the issued message. The challenge is consumed
// on the first attempt, success or not: a rejected signature forces a fresh
// nonce round-trip.
func (s *AuthService) consumeChallenge(ctx context.Context, canonical common.Address, signature, message string) error {
	challenge, err := s.store.TakeChallenge(ctx, canonical.Hex())
	if err != nil {
		return err
	}

	if time.Now().After(challenge.ExpiresAt) {
		return core.ErrTokenExpired
	}

	// The wallet must have signed exactly the message we issued.
	if message != challenge.Message {
		return core.ErrInvalidChallenge
	}

	verified, err := eth.VerifyPersonal([]byte(message), signature, canonical)
	if err != nil || !verified {
		return core.ErrInvalidSignature
	}
	return nil
}

// LinkWallet attaches an additional wallet to an existing account after the
// same challenge-response proof used for login. An address already owned by
// another account is rejected with core.ErrWalletLinked. Returns the updated
// user.
func (s *AuthService) LinkWallet(ctx context.Context, userID, address, signature, message, chain string) (*core.User, error) {
	if !common.IsHexAddress(address) {
		return nil, core.ErrInvalidAddress
	}
	canonical := common.HexToAddress(address)

	if err := s.consumeChallenge(ctx, canonical, signature, message); err != nil {
		return nil, err
	}

	if chain == "" {
		chain = ChainEthereum
	}
	wallet := core.Wallet{
		Address:   strings.ToLower(canonical.Hex()),
		Chain:     chain,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.users.LinkWallet(ctx, userID, wallet); err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", userID).Str("address", canonical.Hex()).Msg("wallet linked")

	return s.users.GetByID(ctx, userID)
}

// VerifyGoogle authenticates a user by a Google-issued ID token.
func (s *AuthService) VerifyGoogle(ctx context.Context, rawIDToken string) (*core.AuthResult, error) {
	if s.google == nil {
		return nil, fmt.Errorf("google login is not configured")
	}

	identity, err := s.google.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidToken, err)
	}

	user, err := s.users.GetByEmail(ctx, identity.Email)
	isNew := false
	if err == core.ErrUserNotFound {
		user = &core.User{
			ID:        uuid.New().String(),
			Email:     strings.ToLower(identity.Email),
			CreatedAt: time.Now().UTC(),
		}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		isNew = true
	} else if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	result, err := s.issueTokens(user, "")
	if err != nil {
		return nil, err
	}
	result.IsNewUser = isNew

	s.log.Info().Str("user_id", user.ID).Bool("new_user", isNew).Msg("google login")

	return result, nil
}

// Refresh rotates the refresh token and issues a new token pair. The old
// refresh token is revoked for the remainder of its lifetime.
func (s *AuthService) Refresh(ctx context.Context, refreshTokenStr string) (*core.AuthResult, error) {
	session, err := s.tokenizer.RefreshTokenToSession(refreshTokenStr)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", err)
	}

	if time.Now().After(session.RefreshExpiry) {
		return nil, core.ErrTokenExpired
	}

	invalidated, err := s.store.IsTokenInvalidated(ctx, session.RefreshID)
	if err != nil {
		return nil, fmt.Errorf("failed to check token invalidation: %w", err)
	}
	if invalidated {
		return nil, core.ErrTokenInvalidated
	}

	if err := s.store.InvalidateToken(ctx, session.RefreshID, time.Until(session.RefreshExpiry)); err != nil {
		return nil, fmt.Errorf("failed to invalidate old token: %w", err)
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	return s.issueTokens(user, session.Address)
}

// RefreshByAccess rotates a session identified by a still-valid access token.
// Dashboard clients hold only the access token; rotating through it revokes
// the paired refresh ID, which invalidates the old pair as a unit.
func (s *AuthService) RefreshByAccess(ctx context.Context, accessTokenStr string) (*core.AuthResult, error) {
	session, err := s.ValidateAccessToken(ctx, accessTokenStr)
	if err != nil {
		return nil, err
	}

	if err := s.store.InvalidateToken(ctx, session.RefreshID, s.refreshTTL); err != nil {
		return nil, fmt.Errorf("failed to invalidate old token: %w", err)
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	return s.issueTokens(user, session.Address)
}

// Logout revokes the refresh token paired with the presented access token.
// An expired access token is still honored. The access token does not carry
// the refresh expiry, so the revocation record is kept for the full refresh
// lifetime, an upper bound on how long the paired token could stay valid.
func (s *AuthService) Logout(ctx context.Context, accessTokenStr string) error {
	session, err := s.tokenizer.AccessTokenToSession(accessTokenStr)
	if err != nil {
		return fmt.Errorf("invalid access token: %w", err)
	}

	ttl := s.refreshTTL
	if ttl < revokedFloorTTL {
		ttl = revokedFloorTTL
	}

	if err := s.store.InvalidateToken(ctx, session.RefreshID, ttl); err != nil {
		return fmt.Errorf("failed to invalidate token: %w", err)
	}

	// The token is already revoked; event delivery failure must not fail the
	// logout.
	if s.eventPub != nil {
		if err := s.eventPub.PublishLogout(ctx, session.UserID, session.RefreshID); err != nil {
			s.log.Warn().Err(err).Str("user_id", session.UserID).Msg("failed to publish logout event")
		}
	}

	return nil
}

// CurrentUser resolves the user behind a valid, unrevoked access token.
func (s *AuthService) CurrentUser(ctx context.Context, accessTokenStr string) (*core.User, error) {
	session, err := s.ValidateAccessToken(ctx, accessTokenStr)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	return user, nil
}

// ValidateAccessToken parses and validates an access token, including the
// revocation status of its paired refresh token.
func (s *AuthService) ValidateAccessToken(ctx context.Context, accessTokenStr string) (*core.Session, error) {
	session, err := s.tokenizer.AccessTokenToSession(accessTokenStr)
	if err != nil {
		return nil, fmt.Errorf("invalid access token: %w", err)
	}

	if time.Now().After(session.AccessExpiry) {
		return nil, core.ErrTokenExpired
	}

	if session.RefreshID != "" {
		invalidated, err := s.store.IsTokenInvalidated(ctx, session.RefreshID)
		if err != nil {
			return nil, fmt.Errorf("failed to check token invalidation: %w", err)
		}
		if invalidated {
			return nil, core.ErrTokenInvalidated
		}
	}

	return session, nil
}

// AccessTTL returns the lifetime of issued access tokens.
func (s *AuthService) AccessTTL() time.Duration {
	return s.accessTTL
}

func (s *AuthService) findOrCreateWalletUser(ctx context.Context, address, chain string) (*core.User, bool, error) {
	user, err := s.users.GetByWallet(ctx, address)
	if err == nil {
		return user, false, nil
	}
	if err != core.ErrUserNotFound {
		return nil, false, fmt.Errorf("failed to look up user: %w", err)
	}

	now := time.Now().UTC()
	user = &core.User{
		ID:        uuid.New().String(),
		CreatedAt: now,
		Wallets: []core.Wallet{{
			Address:   strings.ToLower(address),
			Chain:     chain,
			CreatedAt: now,
		}},
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, false, fmt.Errorf("failed to create user: %w", err)
	}

	return user, true, nil
}

func (s *AuthService) issueTokens(user *core.User, address string) (*core.AuthResult, error) {
	now := time.Now().UTC()
	session := &core.Session{
		ID:            uuid.New().String(),
		UserID:        user.ID,
		Address:       address,
		IssuedAt:      now,
		AccessExpiry:  now.Add(s.accessTTL),
		RefreshExpiry: now.Add(s.refreshTTL),
		RefreshID:     uuid.New().String(),
	}

	accessToken, err := s.tokenizer.SessionToAccessToken(session)
	if err != nil {
		return nil, fmt.Errorf("failed to create access token: %w", err)
	}

	refreshToken, err := s.tokenizer.SessionToRefreshToken(session)
	if err != nil {
		return nil, fmt.Errorf("failed to create refresh token: %w", err)
	}

	return &core.AuthResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		User:         user,
		ExpiresIn:    int64(s.accessTTL.Seconds()),
	}, nil
}

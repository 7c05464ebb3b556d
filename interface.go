// Package hyperdash is the client SDK for the dashboard auth flow: it drives
// the wallet challenge-response login against a gateway and owns the session
// lifecycle (token persistence, user state, refresh, logout).
package hyperdash

import (
	"context"
	"time"

	"github.com/layer-3/hyperdash/core"
)

// NonceChallenge is the server-issued login challenge as seen by a client.
// Message must be passed to the wallet and back to VerifyWallet verbatim.
type NonceChallenge struct {
	Nonce     string    `json:"nonce"`
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Gateway is the surface the session manager drives. Implemented by
// gateway.Client against a running gateway or identity backend.
type Gateway interface {
	// RequestNonce asks the backend for a single-use login challenge.
	RequestNonce(ctx context.Context, walletAddress string) (*NonceChallenge, error)

	// VerifyWallet submits a signed challenge and returns issued tokens.
	VerifyWallet(ctx context.Context, walletAddress, signature, message, chain string) (*core.AuthResult, error)

	// VerifyGoogle submits a Google ID token and returns issued tokens.
	VerifyGoogle(ctx context.Context, idToken string) (*core.AuthResult, error)

	// CurrentUser resolves the user behind a bearer token.
	CurrentUser(ctx context.Context, token string) (*core.User, error)

	// RefreshToken exchanges a bearer token for a fresh one.
	RefreshToken(ctx context.Context, token string) (string, error)

	// Logout revokes a bearer token server-side.
	Logout(ctx context.Context, token string) error
}

// State is the authentication state of a session manager.
type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateAuthenticated
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

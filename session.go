package hyperdash

import (
	"context"
	"sync"
	"time"

	"github.com/layer-3/hyperdash/core"
	"github.com/layer-3/hyperdash/session"
	"github.com/layer-3/hyperdash/wallet"
)

// SessionManager is the single source of truth for authentication state on
// the client side. It is the only writer of the token store.
//
// Every state-mutating operation (Initialize, Login, WalletLogin, Logout)
// records a generation number before its network round-trip and commits its
// result only if no newer operation started in the meantime. Overlapping
// calls therefore cannot interleave their commits: the newest call wins, the
// superseded one reports ErrSuperseded instead of silently clobbering state.
type SessionManager struct {
	gw     Gateway
	tokens session.TokenStore

	mu    sync.Mutex
	gen   uint64
	state State
	user  *core.User
	token string
}

// NewSessionManager creates a manager in StateUninitialized.
func NewSessionManager(gw Gateway, tokens session.TokenStore) *SessionManager {
	return &SessionManager{
		gw:     gw,
		tokens: tokens,
		state:  StateUninitialized,
	}
}

// State returns the current authentication state.
func (m *SessionManager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// User returns the resolved user, or nil when not authenticated.
func (m *SessionManager) User() *core.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user
}

// Token returns the in-memory token reference, or empty when absent.
func (m *SessionManager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

// IsAuthenticated reports whether the manager holds a validated session.
func (m *SessionManager) IsAuthenticated() bool {
	return m.State() == StateAuthenticated
}

// begin bumps the generation and returns the number this operation must
// present to commit.
func (m *SessionManager) begin(next State) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gen++
	if next != m.state {
		m.state = next
	}
	return m.gen
}

// commit applies a state transition if gen is still current. The token store
// is written here and only here, so a superseded operation can never clobber
// the winner's persisted token.
func (m *SessionManager) commit(gen uint64, state State, user *core.User, token string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.gen {
		return false
	}
	m.state = state
	m.user = user
	m.token = token
	if token != "" {
		m.tokens.Set(token, time.Now().Add(session.DefaultTTL))
	} else {
		m.tokens.Clear()
	}
	return true
}

// Initialize resolves the persisted token, if any, into an authentication
// state: a token that yields a user means Authenticated; a missing, expired
// or rejected token means Unauthenticated with the token discarded.
func (m *SessionManager) Initialize(ctx context.Context) error {
	gen := m.begin(StateLoading)

	token, ok := m.tokens.Token()
	if !ok {
		if !m.commit(gen, StateUnauthenticated, nil, "") {
			return ErrSuperseded
		}
		return nil
	}

	user, err := m.gw.CurrentUser(ctx, token)
	if err != nil {
		// Whatever the failure (expired token, revoked session, upstream
		// down), the persisted token is not worth keeping around.
		if !m.commit(gen, StateUnauthenticated, nil, "") {
			return ErrSuperseded
		}
		return nil
	}

	if !m.commit(gen, StateAuthenticated, user, token) {
		return ErrSuperseded
	}
	return nil
}

// Login resolves the token into a user and persists it on success. A token
// that fails validation is not kept: persisting a known-bad token would only
// make the next page load retry it.
func (m *SessionManager) Login(ctx context.Context, token string) error {
	if m.State() == StateUninitialized {
		return ErrNotInitialized
	}

	gen := m.begin(StateLoading)

	user, err := m.gw.CurrentUser(ctx, token)
	if err != nil {
		if !m.commit(gen, StateUnauthenticated, nil, "") {
			return ErrSuperseded
		}
		return err
	}

	if !m.commit(gen, StateAuthenticated, user, token) {
		return ErrSuperseded
	}
	return nil
}

// WalletLogin runs the full challenge-response flow: connect the wallet,
// fetch a nonce, sign the issued message verbatim, verify, then persist and
// resolve the token.
func (m *SessionManager) WalletLogin(ctx context.Context, w *wallet.Client) (*core.AuthResult, error) {
	if m.State() == StateUninitialized {
		return nil, ErrNotInitialized
	}

	conn, err := w.Connect(ctx)
	if err != nil {
		return nil, err
	}

	challenge, err := m.gw.RequestNonce(ctx, conn.Address)
	if err != nil {
		return nil, err
	}

	signature, err := w.Sign(ctx, challenge.Message)
	if err != nil {
		return nil, err
	}

	result, err := m.gw.VerifyWallet(ctx, conn.Address, signature, challenge.Message, "ethereum")
	if err != nil {
		return nil, err
	}

	if err := m.Login(ctx, result.AccessToken); err != nil {
		return nil, err
	}
	return result, nil
}

// Logout revokes the session best-effort and always clears local state. The
// network outcome is deliberately ignored: retrying logout against an
// already-invalid token must never block the user from clearing state.
func (m *SessionManager) Logout(ctx context.Context) error {
	if m.State() == StateUninitialized {
		return ErrNotInitialized
	}

	gen := m.begin(StateLoading)

	if token, ok := m.tokens.Token(); ok {
		_ = m.gw.Logout(ctx, token)
	}

	if !m.commit(gen, StateUnauthenticated, nil, "") {
		// A newer operation started meanwhile and owns the state now.
		// Clearing here would clobber its token, so leave it alone.
		return nil
	}
	return nil
}

// Refresh exchanges the persisted token for a fresh one. Returns true on
// success; on failure the existing token and state are left untouched and
// the caller decides whether to force a logout.
//
// Refresh participates in the generation counter like every other mutating
// operation: an earlier Initialize or Login that resolved the pre-refresh
// token must not commit it back over the new one.
func (m *SessionManager) Refresh(ctx context.Context) bool {
	if m.State() == StateUninitialized {
		return false
	}

	token, ok := m.tokens.Token()
	if !ok {
		return false
	}

	m.mu.Lock()
	m.gen++
	gen := m.gen
	user := m.user
	m.mu.Unlock()

	newToken, err := m.gw.RefreshToken(ctx, token)
	if err != nil {
		// Undo the bump if no newer operation started meanwhile, so a
		// failed refresh does not discard a concurrent call's result.
		m.mu.Lock()
		if m.gen == gen {
			m.gen--
		}
		m.mu.Unlock()
		return false
	}

	// A refresh that succeeded proves the session is live; commit restores
	// Authenticated even if a superseded operation had flipped the state to
	// Loading meanwhile.
	return m.commit(gen, StateAuthenticated, user, newToken)
}

// Package wallet abstracts over a signing capability (a browser-injected
// wallet, a hardware signer, a local key) to produce an address and sign
// login challenges. The one hard contract here: the message handed to Sign is
// signed verbatim, never normalized or re-encoded, because the
// backend compares it byte-for-byte against the challenge it issued.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

var (
	// ErrWalletUnavailable is returned when no signing capability is present.
	ErrWalletUnavailable = errors.New("no wallet available")

	// ErrNotConnected is returned when Sign is called before a successful Connect.
	ErrNotConnected = errors.New("wallet not connected")

	// ErrUserRejected is returned when the wallet reports user cancellation.
	ErrUserRejected = errors.New("signing rejected by user")

	// ErrSigningFailed is returned for any other signing error.
	ErrSigningFailed = errors.New("signing failed")
)

// Provider is the capability a Client wraps. Implementations map their
// native user-cancellation error to ErrUserRejected.
type Provider interface {
	// RequestAccounts returns the addresses the user has authorized.
	RequestAccounts(ctx context.Context) ([]string, error)

	// SignPersonal produces an EIP-191 personal_sign signature over the
	// exact message bytes by the given account.
	SignPersonal(ctx context.Context, address string, message []byte) ([]byte, error)
}

// Connection is the state established by Connect.
type Connection struct {
	Address string
}

// Client drives a Provider through the connect/sign lifecycle. Construct one
// per consumer and pass it explicitly; there is no package-level instance.
type Client struct {
	provider Provider

	mu   sync.Mutex
	conn *Connection
}

// NewClient wraps a provider. A nil provider models an environment without a
// wallet; Connect then fails with ErrWalletUnavailable.
func NewClient(provider Provider) *Client {
	return &Client{provider: provider}
}

// Connect requests account access and establishes the signer handle reused by
// subsequent Sign calls. Returns the first authorized account.
func (c *Client) Connect(ctx context.Context) (Connection, error) {
	if c.provider == nil {
		return Connection{}, ErrWalletUnavailable
	}

	accounts, err := c.provider.RequestAccounts(ctx)
	if err != nil {
		if errors.Is(err, ErrUserRejected) {
			return Connection{}, ErrUserRejected
		}
		return Connection{}, fmt.Errorf("%w: %v", ErrWalletUnavailable, err)
	}
	if len(accounts) == 0 {
		return Connection{}, ErrWalletUnavailable
	}

	conn := Connection{Address: accounts[0]}

	c.mu.Lock()
	c.conn = &conn
	c.mu.Unlock()

	return conn, nil
}

// Sign signs the message with the connected account and returns the signature
// as 0x-prefixed hex.
func (c *Client) Sign(ctx context.Context, message string) (string, error) {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		return "", ErrNotConnected
	}

	sig, err := c.provider.SignPersonal(ctx, conn.Address, []byte(message))
	if err != nil {
		if errors.Is(err, ErrUserRejected) {
			return "", ErrUserRejected
		}
		return "", fmt.Errorf("%w: %v", ErrSigningFailed, err)
	}

	return hexutil.Encode(sig), nil
}

// Address returns the connected account, if any.
func (c *Client) Address() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return "", false
	}
	return c.conn.Address, true
}

// Disconnect clears the in-memory handle; idempotent.
func (c *Client) Disconnect() {
	c.mu.Lock()
	c.conn = nil
	c.mu.Unlock()
}

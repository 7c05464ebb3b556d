package core

import "time"

// Challenge is a single-use login challenge bound to one wallet address.
// Message is the exact text presented to the wallet for signing; verification
// compares the submitted message byte-for-byte against the issued one, so the
// message must never be reconstructed on the client side.
type Challenge struct {
	ID        string    // unique identifier, doubles as the single-use store key
	Address   string    // wallet address the challenge was issued for
	Nonce     string    // random nonce embedded in the message
	Message   string    // full sign-in message the wallet must sign verbatim
	IssuedAt  time.Time // when the challenge was created
	ExpiresAt time.Time // when the challenge expires
}

// Session represents an authenticated user session.
type Session struct {
	ID            string    // unique session identifier
	UserID        string    // user the session belongs to
	Address       string    // wallet address used to authenticate, empty for email logins
	IssuedAt      time.Time // when the session was created
	AccessExpiry  time.Time // when the access capability expires
	RefreshExpiry time.Time // when the refresh capability expires
	RefreshID     string    // unique identifier for the refresh token
}

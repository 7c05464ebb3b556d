package core

import "time"

// Wallet is a blockchain address linked to a user account.
type Wallet struct {
	Address   string    `json:"address"`
	Chain     string    `json:"chain"`
	CreatedAt time.Time `json:"created_at"`
}

// User is an account resolved from a valid access token. A user always has at
// least one authentication method: an email or a linked wallet.
type User struct {
	ID                     string    `json:"id"`
	Email                  string    `json:"email,omitempty"`
	CreatedAt              time.Time `json:"created_at"`
	Wallets                []Wallet  `json:"wallets"`
	ExchangeKeysCount      int       `json:"exchange_keys_count"`
	CopySubscriptionsCount int       `json:"copy_subscriptions_count"`
}

// HasWallet reports whether addr is linked to the user. Address comparison is
// done by the caller in canonical (checksummed or lowercased) form.
func (u *User) HasWallet(addr string) bool {
	for _, w := range u.Wallets {
		if w.Address == addr {
			return true
		}
	}
	return false
}

// AuthResult is the outcome of a successful credential verification.
type AuthResult struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
	User         *User  `json:"user"`
	IsNewUser    bool   `json:"is_new_user"`
	ExpiresIn    int64  `json:"expires_in"`
}

package tokenizer

import "github.com/golang-jwt/jwt/v5"

// AccessClaims combines standard claims with access-specific ones.
type AccessClaims struct {
	jwt.RegisteredClaims
	Address   string `json:"addr,omitempty"` // wallet address used to authenticate
	RefreshID string `json:"rid"`            // ID of the paired refresh token
}

// RefreshClaims are the standard claims plus the authenticating address.
type RefreshClaims struct {
	jwt.RegisteredClaims
	Address string `json:"addr,omitempty"`
}

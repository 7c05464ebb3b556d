package wallet

import (
	"context"
	"crypto/ecdsa"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/layer-3/hyperdash/internal/eth"
)

// KeyProvider is a Provider backed by in-process secp256k1 keys. Used by
// tests and headless login flows where no browser wallet exists.
type KeyProvider struct {
	keys  map[string]*ecdsa.PrivateKey // lowercased address -> key
	order []string
}

// NewKeyProvider creates a provider holding the given keys. The first key
// added is the account Connect returns.
func NewKeyProvider(keys ...*ecdsa.PrivateKey) *KeyProvider {
	p := &KeyProvider{keys: make(map[string]*ecdsa.PrivateKey)}
	for _, key := range keys {
		addr := crypto.PubkeyToAddress(key.PublicKey).Hex()
		p.keys[strings.ToLower(addr)] = key
		p.order = append(p.order, addr)
	}
	return p
}

func (p *KeyProvider) RequestAccounts(ctx context.Context) ([]string, error) {
	return append([]string(nil), p.order...), nil
}

func (p *KeyProvider) SignPersonal(ctx context.Context, address string, message []byte) ([]byte, error) {
	key, exists := p.keys[strings.ToLower(address)]
	if !exists {
		return nil, ErrNotConnected
	}
	return eth.SignPersonal(message, key)
}

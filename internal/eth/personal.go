// Package eth implements EIP-191 personal-message signing and recovery on top
// of go-ethereum's secp256k1 primitives. Wallets sign the sign-in message with
// personal_sign, so the server side must hash with the same prefix before
// recovering the signer address.
package eth

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// SignatureLength is the byte length of an [R || S || V] wallet signature.
const SignatureLength = 65

// PersonalHash returns the EIP-191 hash of msg, the digest personal_sign
// implementations actually sign.
func PersonalHash(msg []byte) []byte {
	prefixed := fmt.Sprintf("\x19Ethereum Signed Message:\n%d%s", len(msg), msg)
	return crypto.Keccak256([]byte(prefixed))
}

// SignPersonal signs msg with key and returns a 65-byte [R || S || V]
// signature with V in {27, 28}, matching what browser wallets emit.
func SignPersonal(msg []byte, key *ecdsa.PrivateKey) ([]byte, error) {
	sig, err := crypto.Sign(PersonalHash(msg), key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign message: %w", err)
	}
	sig[SignatureLength-1] += 27
	return sig, nil
}

// RecoverPersonal recovers the address that produced sig over msg.
func RecoverPersonal(msg, sig []byte) (common.Address, error) {
	if len(sig) != SignatureLength {
		return common.Address{}, fmt.Errorf("signature must be %d bytes, got %d", SignatureLength, len(sig))
	}

	// Wallets set V to 27/28, crypto.SigToPub wants 0/1.
	normalized := make([]byte, SignatureLength)
	copy(normalized, sig)
	if normalized[SignatureLength-1] >= 27 {
		normalized[SignatureLength-1] -= 27
	}
	if v := normalized[SignatureLength-1]; v != 0 && v != 1 {
		return common.Address{}, fmt.Errorf("invalid recovery id %d", v)
	}

	pub, err := crypto.SigToPub(PersonalHash(msg), normalized)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to recover public key: %w", err)
	}

	return crypto.PubkeyToAddress(*pub), nil
}

// VerifyPersonal reports whether sigHex is a valid personal_sign signature of
// msg by expected.
func VerifyPersonal(msg []byte, sigHex string, expected common.Address) (bool, error) {
	sig, err := hexutil.Decode(sigHex)
	if err != nil {
		return false, fmt.Errorf("failed to decode signature: %w", err)
	}

	recovered, err := RecoverPersonal(msg, sig)
	if err != nil {
		return false, err
	}

	return recovered == expected, nil
}

// Package signer holds the wallet key material that authorizes every
// transaction sent to Lighter. Exactly one Identity exists per process.
package signer

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// SigningError indicates missing or malformed key material. It is fatal:
// no retry can succeed until the configuration is fixed.
type SigningError struct {
	Reason string
	Err    error
}

func (e *SigningError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("signing error: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("signing error: %s", e.Reason)
}

func (e *SigningError) Unwrap() error { return e.Err }

// Identity owns the secp256k1 private key. The key never leaves this
// struct: it is not logged, serialized, or exposed through any accessor.
type Identity struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address
}

// FromPrivateKeyHex parses a hex-encoded private key ("0x..." or bare)
// and derives the wallet address.
func FromPrivateKeyHex(hexKey string) (*Identity, error) {
	trimmed := strings.TrimSpace(hexKey)
	trimmed = strings.TrimPrefix(trimmed, "0x")
	if trimmed == "" {
		return nil, &SigningError{Reason: "private key is empty"}
	}

	privateKey, err := crypto.HexToECDSA(trimmed)
	if err != nil {
		return nil, &SigningError{Reason: "invalid private key hex", Err: err}
	}

	return &Identity{
		privateKey: privateKey,
		address:    crypto.PubkeyToAddress(privateKey.PublicKey),
	}, nil
}

// Address returns the wallet address derived from the public key.
func (id *Identity) Address() common.Address {
	return id.address
}

// SignMessage hashes the message with Keccak256 and signs the digest.
// The signature is 65 bytes in [R || S || V] form.
func (id *Identity) SignMessage(message []byte) ([]byte, error) {
	if id.privateKey == nil {
		return nil, &SigningError{Reason: "no key material loaded"}
	}

	hash := crypto.Keccak256Hash(message)
	sig, err := crypto.Sign(hash.Bytes(), id.privateKey)
	if err != nil {
		return nil, &SigningError{Reason: "failed to sign message", Err: err}
	}
	return sig, nil
}

// VerifySignature reports whether sig over message recovers to addr.
func VerifySignature(addr common.Address, message, sig []byte) bool {
	if len(sig) != 65 {
		return false
	}
	hash := crypto.Keccak256Hash(message)
	pubBytes, err := crypto.Ecrecover(hash.Bytes(), sig)
	if err != nil {
		return false
	}
	pub, err := crypto.UnmarshalPubkey(pubBytes)
	if err != nil {
		return false
	}
	return crypto.PubkeyToAddress(*pub) == addr
}

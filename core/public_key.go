package core

import (
	"bytes"
	"crypto"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
)

// PublicKeyLength is the minimum encoded key size: the first 256 bytes carry
// the RSA modulus big-endian, any trailing bytes the public exponent.
const PublicKeyLength = 0x100

// PublicKey is an opaque byte vector identifying a wallet. The all-zero
// default value marks the sender of coinbase transactions.
type PublicKey struct {
	raw []byte
}

// DefaultPublicKey returns the zero-valued coinbase sentinel key.
func DefaultPublicKey() PublicKey {
	return PublicKey{raw: make([]byte, PublicKeyLength)}
}

// NewPublicKey validates the length invariant and wraps the bytes.
func NewPublicKey(raw []byte) (PublicKey, error) {
	if len(raw) < PublicKeyLength {
		return PublicKey{}, fmt.Errorf("public key has to be at least %d bytes long, got %d", PublicKeyLength, len(raw))
	}
	out := make([]byte, len(raw))
	copy(out, raw)
	return PublicKey{raw: out}, nil
}

// Bytes returns the canonical byte encoding.
func (pk PublicKey) Bytes() []byte {
	return pk.raw
}

// Equal reports byte equality.
func (pk PublicKey) Equal(other PublicKey) bool {
	return bytes.Equal(pk.raw, other.raw)
}

// IsDefault reports whether this is the zero-valued coinbase sentinel.
func (pk PublicKey) IsDefault() bool {
	for _, b := range pk.raw {
		if b != 0 {
			return false
		}
	}
	return len(pk.raw) == PublicKeyLength
}

// Address derives the wallet address for this key.
func (pk PublicKey) Address() Address {
	return Address{key: pk}
}

// rsaPublicKey rebuilds the RSA key from the modulus/exponent split. Keys
// without exponent bytes are rejected outright instead of failing deep in
// the verifier.
func (pk PublicKey) rsaPublicKey() (*rsa.PublicKey, error) {
	if len(pk.raw) <= PublicKeyLength {
		return nil, errors.New("public key carries no exponent")
	}
	modulus := new(big.Int).SetBytes(pk.raw[:PublicKeyLength])
	exponent := new(big.Int).SetBytes(pk.raw[PublicKeyLength:])
	if !exponent.IsInt64() {
		return nil, errors.New("public key exponent out of range")
	}
	return &rsa.PublicKey{N: modulus, E: int(exponent.Int64())}, nil
}

// VerifySignature checks sig over the SHA-256 digest of data under this key
// using RSA-PKCS1v15.
func (pk PublicKey) VerifySignature(digest HashDigest, sig Signature) error {
	key, err := pk.rsaPublicKey()
	if err != nil {
		return err
	}
	if err := rsa.VerifyPKCS1v15(key, crypto.SHA256, digest.Bytes(), sig.Bytes()); err != nil {
		return fmt.Errorf("signature verification failed: %w", err)
	}
	return nil
}

// MarshalJSON renders the key as a sequence of byte-valued integers, the
// shape peers on the wire expect.
func (pk PublicKey) MarshalJSON() ([]byte, error) {
	return marshalByteSeq(pk.raw)
}

// UnmarshalJSON parses the integer-sequence form and re-checks the length
// invariant.
func (pk *PublicKey) UnmarshalJSON(data []byte) error {
	raw, err := unmarshalByteSeq(data)
	if err != nil {
		return err
	}
	parsed, err := NewPublicKey(raw)
	if err != nil {
		return err
	}
	*pk = parsed
	return nil
}

// marshalByteSeq encodes bytes as a JSON array of integers.
func marshalByteSeq(b []byte) ([]byte, error) {
	seq := make([]uint16, len(b))
	for i, v := range b {
		seq[i] = uint16(v)
	}
	return json.Marshal(seq)
}

// unmarshalByteSeq decodes a JSON array of byte-valued integers.
func unmarshalByteSeq(data []byte) ([]byte, error) {
	var seq []int
	if err := json.Unmarshal(data, &seq); err != nil {
		return nil, err
	}
	out := make([]byte, len(seq))
	for i, v := range seq {
		if v < 0 || v > 0xff {
			return nil, fmt.Errorf("byte value out of range: %d", v)
		}
		out[i] = byte(v)
	}
	return out, nil
}

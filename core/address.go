package core

import (
	"github.com/mr-tron/base58"
)

// Address is the textual identity of a wallet, a thin wrapper over the
// underlying public key bytes. Equality is byte equality of the key.
type Address struct {
	key PublicKey
}

// DefaultAddress is the coinbase sender sentinel.
func DefaultAddress() Address {
	return Address{key: DefaultPublicKey()}
}

// ParseAddress decodes the base58 textual form.
func ParseAddress(s string) (Address, error) {
	raw, err := base58.Decode(s)
	if err != nil {
		return Address{}, err
	}
	key, err := NewPublicKey(raw)
	if err != nil {
		return Address{}, err
	}
	return Address{key: key}, nil
}

// String renders the address as base58.
func (a Address) String() string {
	return base58.Encode(a.key.Bytes())
}

// PublicKey returns the key backing this address.
func (a Address) PublicKey() PublicKey {
	return a.key
}

// Bytes returns the canonical byte encoding, the raw key bytes.
func (a Address) Bytes() []byte {
	return a.key.Bytes()
}

// Equal reports byte equality of the underlying keys.
func (a Address) Equal(other Address) bool {
	return a.key.Equal(other.key)
}

// IsDefault reports whether this is the coinbase sentinel address.
func (a Address) IsDefault() bool {
	return a.key.IsDefault()
}

func (a Address) MarshalJSON() ([]byte, error) {
	return a.key.MarshalJSON()
}

func (a *Address) UnmarshalJSON(data []byte) error {
	return a.key.UnmarshalJSON(data)
}

package core

import (
	"bytes"
	"fmt"
)

// SignatureLength is the fixed RSA-2048 signature size.
const SignatureLength = 256

// Signature is a fixed-length RSA signature over a value's hash digest.
type Signature struct {
	raw []byte
}

// NewSignature wraps the bytes iff they have exactly the required length.
func NewSignature(raw []byte) (Signature, error) {
	if len(raw) != SignatureLength {
		return Signature{}, fmt.Errorf("signature has to be %d bytes long, got %d", SignatureLength, len(raw))
	}
	out := make([]byte, SignatureLength)
	copy(out, raw)
	return Signature{raw: out}, nil
}

// Bytes returns the raw signature bytes.
func (s Signature) Bytes() []byte {
	return s.raw
}

// Equal reports byte equality.
func (s Signature) Equal(other Signature) bool {
	return bytes.Equal(s.raw, other.raw)
}

func (s Signature) MarshalJSON() ([]byte, error) {
	return marshalByteSeq(s.raw)
}

func (s *Signature) UnmarshalJSON(data []byte) error {
	raw, err := unmarshalByteSeq(data)
	if err != nil {
		return err
	}
	parsed, err := NewSignature(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

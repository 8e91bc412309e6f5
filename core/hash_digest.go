package core

// Canonical byte encoding and SHA-256 digests for every domain value. The
// byte layouts here feed both hashing and signing and must stay bit-exact
// across peers; the outer JSON framing is independent of them.

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// HashLength is the size of a HashDigest in bytes.
const HashLength = 32

// HashDigest is a SHA-256 digest of a value's canonical bytes.
type HashDigest [HashLength]byte

// Hashable is any value with a canonical byte encoding.
type Hashable interface {
	Bytes() []byte
}

// HashOf digests a value's canonical bytes.
func HashOf(h Hashable) HashDigest {
	return sha256.Sum256(h.Bytes())
}

// HashBytes digests a raw byte slice.
func HashBytes(b []byte) HashDigest {
	return sha256.Sum256(b)
}

// String renders the digest as lowercase hex.
func (h HashDigest) String() string {
	return hex.EncodeToString(h[:])
}

// Short renders the trailing 12 hex characters, enough to eyeball a block in
// operator output.
func (h HashDigest) Short() string {
	s := h.String()
	return s[len(s)-12:]
}

// Bytes returns the raw digest bytes.
func (h HashDigest) Bytes() []byte {
	return h[:]
}

// Difficulty reports the count of leading zero bytes.
func (h HashDigest) Difficulty() int {
	n := 0
	for _, b := range h {
		if b != 0 {
			break
		}
		n++
	}
	return n
}

// Less orders digests by raw lexicographic byte comparison.
func (h HashDigest) Less(other HashDigest) bool {
	return bytes.Compare(h[:], other[:]) < 0
}

// ParseHashDigest decodes a lowercase hex digest.
func ParseHashDigest(s string) (HashDigest, error) {
	var h HashDigest
	raw, err := hex.DecodeString(s)
	if err != nil {
		return h, fmt.Errorf("decode hash digest: %w", err)
	}
	if len(raw) != HashLength {
		return h, fmt.Errorf("hash digest must be %d bytes, got %d", HashLength, len(raw))
	}
	copy(h[:], raw)
	return h, nil
}

// hashDigestFromSlice converts an exact-length slice, panicking otherwise.
// Callers hold the length invariant.
func hashDigestFromSlice(b []byte) HashDigest {
	if len(b) != HashLength {
		panic(fmt.Sprintf("hash digest must be %d bytes, got %d", HashLength, len(b)))
	}
	var h HashDigest
	copy(h[:], b)
	return h
}

// int64Bytes is the canonical little-endian encoding of an i64.
func int64Bytes(v int64) []byte {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(v))
	return buf[:]
}

// uint64Bytes is the canonical little-endian encoding of a u64.
func uint64Bytes(v uint64) []byte {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	return buf[:]
}

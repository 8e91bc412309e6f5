package core

// Wallet holds the node's RSA private key. The same key signs transactions
// and seeds the libp2p peer identity, so a node's address and its transport
// identity share a cryptographic root.

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// walletModulusBits is the only supported key size; it yields the fixed
// 256-byte signatures and public key modulus the wire format depends on.
const walletModulusBits = 2048

// Wallet wraps a validated RSA private key loaded from a PEM file.
type Wallet struct {
	privateKey *rsa.PrivateKey
}

// LoadWallet reads a PKCS#8 PEM encoded RSA private key and validates it.
func LoadWallet(pemPath string) (*Wallet, error) {
	raw, err := os.ReadFile(pemPath)
	if err != nil {
		return nil, fmt.Errorf("read wallet %s: %w", pemPath, err)
	}
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, fmt.Errorf("wallet %s: no PEM block found", pemPath)
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse wallet key: %w", err)
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("wallet key is %T, want RSA", parsed)
	}
	return NewWallet(key)
}

// NewWallet validates the key material and wraps it.
func NewWallet(key *rsa.PrivateKey) (*Wallet, error) {
	if err := key.Validate(); err != nil {
		return nil, fmt.Errorf("wallet key did not validate: %w", err)
	}
	if key.N.BitLen() != walletModulusBits {
		return nil, fmt.Errorf("wallet key modulus is %d bits, want %d", key.N.BitLen(), walletModulusBits)
	}
	return &Wallet{privateKey: key}, nil
}

// PublicKey encodes modulus followed by exponent, both big-endian.
func (w *Wallet) PublicKey() PublicKey {
	pub := &w.privateKey.PublicKey
	raw := make([]byte, 0, PublicKeyLength+4)
	modulus := pub.N.Bytes()
	// Left-pad the modulus to the fixed width; leading zero bytes are legal.
	for i := len(modulus); i < PublicKeyLength; i++ {
		raw = append(raw, 0)
	}
	raw = append(raw, modulus...)
	raw = append(raw, exponentBytes(pub.E)...)
	key, err := NewPublicKey(raw)
	if err != nil {
		// Construction from a validated 2048-bit key cannot miss the length
		// invariant.
		logrus.Panicf("wallet public key: %v", err)
	}
	return key
}

// exponentBytes is the big-endian encoding of the public exponent with no
// leading zeros.
func exponentBytes(e int) []byte {
	out := []byte{}
	for v := uint64(e); v > 0; v >>= 8 {
		out = append([]byte{byte(v & 0xff)}, out...)
	}
	return out
}

// Address derives the node's own address.
func (w *Wallet) Address() Address {
	return w.PublicKey().Address()
}

// Sign hashes the input with SHA-256 and signs the digest with
// RSA-PKCS1v15 over SHA-256.
func (w *Wallet) Sign(h Hashable) (Signature, error) {
	digest := HashOf(h)
	raw, err := rsa.SignPKCS1v15(rand.Reader, w.privateKey, crypto.SHA256, digest.Bytes())
	if err != nil {
		return Signature{}, fmt.Errorf("sign: %w", err)
	}
	return NewSignature(raw)
}

// NewTx constructs and signs a regular value transfer to receiver.
func (w *Wallet) NewTx(receiver Address, amount uint64) (*Tx, error) {
	return newSignedTx(w, w.Address(), receiver, amount)
}

// NewCoinbaseTx constructs a transaction crediting this wallet from the
// default (zero) sender. Coinbase transactions are self-signed by the
// receiver.
func (w *Wallet) NewCoinbaseTx(amount uint64) (*Tx, error) {
	return newSignedTx(w, DefaultAddress(), w.Address(), amount)
}

func newSignedTx(w *Wallet, sender, receiver Address, amount uint64) (*Tx, error) {
	tx := &Tx{
		Amount:    amount,
		Timestamp: time.Now().Unix(),
		Sender:    sender,
		Receiver:  receiver,
	}
	sig, err := w.Sign(txBody{tx})
	if err != nil {
		return nil, err
	}
	tx.Signature = sig
	return tx, nil
}

// ExportPKCS8DER serializes the private key as PKCS#8 DER.
func (w *Wallet) ExportPKCS8DER() ([]byte, error) {
	der, err := x509.MarshalPKCS8PrivateKey(w.privateKey)
	if err != nil {
		return nil, fmt.Errorf("export pkcs8: %w", err)
	}
	return der, nil
}

// PrivateKey exposes the raw key to the transport layer only.
func (w *Wallet) PrivateKey() *rsa.PrivateKey {
	return w.privateKey
}

package core

// Tx is a signed value transfer. Its canonical bytes exclude the signature:
// the signature is computed over them, so it cannot be part of them.

// Tx transfers amount from sender to receiver. A transaction whose sender is
// the default (zero) address is a coinbase transaction seeding a balance.
type Tx struct {
	Amount    uint64    `json:"amount"`
	Timestamp int64     `json:"timestamp"`
	Sender    Address   `json:"sender"`
	Receiver  Address   `json:"receiver"`
	Signature Signature `json:"signature"`
}

// txBody is the signed portion of a transaction.
type txBody struct {
	tx *Tx
}

func (b txBody) Bytes() []byte {
	out := []byte{}
	out = append(out, uint64Bytes(b.tx.Amount)...)
	out = append(out, int64Bytes(b.tx.Timestamp)...)
	out = append(out, b.tx.Sender.Bytes()...)
	out = append(out, b.tx.Receiver.Bytes()...)
	return out
}

// Bytes is the canonical encoding used when hashing a transaction into a
// block; identical to the signed body.
func (tx *Tx) Bytes() []byte {
	return txBody{tx}.Bytes()
}

// Hash digests the canonical bytes.
func (tx *Tx) Hash() HashDigest {
	return HashOf(tx)
}

// IsCoinbase reports whether the sender is the default (zero) address.
func (tx *Tx) IsCoinbase() bool {
	return tx.Sender.IsDefault()
}

// VerifySignature checks the signature over the transaction body. Coinbase
// transactions are self-signed by the receiver, so the receiver key is the
// verification root there; all other transactions verify under the sender.
func (tx *Tx) VerifySignature() error {
	key := tx.Sender.PublicKey()
	if tx.IsCoinbase() {
		key = tx.Receiver.PublicKey()
	}
	digest := HashOf(txBody{tx})
	if err := key.VerifySignature(digest, tx.Signature); err != nil {
		return err
	}
	return nil
}

// DiffForAddress is the signed contribution of this transaction to the
// balance of addr: credit to the receiver, debit from the sender, zero for
// unrelated addresses.
func (tx *Tx) DiffForAddress(addr Address) int64 {
	var diff int64
	if addr.Equal(tx.Receiver) {
		diff += int64(tx.Amount)
	}
	if addr.Equal(tx.Sender) {
		diff -= int64(tx.Amount)
	}
	return diff
}

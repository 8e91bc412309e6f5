package core

// Block groups transactions under a hash-linked, monotonically numbered
// record. Transactions are stored keyed by their hash digest, which gives
// set semantics; the canonical encoding sorts them by that key so the same
// logical block always hashes identically regardless of map iteration order.

import (
	"fmt"
	"sort"
	"time"
)

// Block is a committed or proposed chain entry. ParentHash is nil iff this
// is the genesis block (id 0).
type Block struct {
	ID         int64          `json:"id"`
	Timestamp  int64          `json:"timestamp"`
	Txs        map[string]*Tx `json:"txs"`
	ParentHash *HashDigest    `json:"parent_hash"`
	Nonce      nonceBytes     `json:"nonce"`
}

// nonceBytes keeps the vestigial proof-of-work nonce in the integer-sequence
// wire shape shared by every binary field.
type nonceBytes []byte

func (n nonceBytes) MarshalJSON() ([]byte, error) {
	return marshalByteSeq(n)
}

func (n *nonceBytes) UnmarshalJSON(data []byte) error {
	raw, err := unmarshalByteSeq(data)
	if err != nil {
		return err
	}
	*n = raw
	return nil
}

// NewBlock constructs a genesis-shaped block holding the given transactions.
func NewBlock(txs ...*Tx) *Block {
	b := &Block{
		ID:        0,
		Timestamp: time.Now().Unix(),
		Txs:       map[string]*Tx{},
		Nonce:     nonceBytes{},
	}
	for _, tx := range txs {
		b.Add(tx)
	}
	return b
}

// NextBlock constructs the successor of previous, linked by parent hash.
func NextBlock(previous *Block, txs ...*Tx) *Block {
	parent := previous.Hash()
	b := &Block{
		ID:         previous.ID + 1,
		Timestamp:  time.Now().Unix(),
		Txs:        map[string]*Tx{},
		ParentHash: &parent,
		Nonce:      nonceBytes{},
	}
	for _, tx := range txs {
		b.Add(tx)
	}
	return b
}

// Add inserts a transaction keyed by its hash; duplicates collapse.
func (b *Block) Add(tx *Tx) {
	if b.Txs == nil {
		b.Txs = map[string]*Tx{}
	}
	b.Txs[tx.Hash().String()] = tx
}

// Bytes is the canonical encoding: id, timestamp, each transaction in hash
// order, the parent hash (empty for genesis), then the nonce.
func (b *Block) Bytes() []byte {
	out := []byte{}
	out = append(out, int64Bytes(b.ID)...)
	out = append(out, int64Bytes(b.Timestamp)...)
	keys := make([]string, 0, len(b.Txs))
	for k := range b.Txs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out = append(out, b.Txs[k].Bytes()...)
	}
	if b.ParentHash != nil {
		out = append(out, b.ParentHash.Bytes()...)
	}
	out = append(out, b.Nonce...)
	return out
}

// Hash digests the canonical bytes.
func (b *Block) Hash() HashDigest {
	return HashOf(b)
}

// Difficulty is the leading-zero count of the block hash. Material only to
// mining, which nothing here drives.
func (b *Block) Difficulty() int {
	return b.Hash().Difficulty()
}

// Less orders blocks by id ascending, ties broken by hash digest.
func (b *Block) Less(other *Block) bool {
	if b.ID != other.ID {
		return b.ID < other.ID
	}
	return b.Hash().Less(other.Hash())
}

// DiffForAddress sums the balance contribution of every transaction in the
// block for addr.
func (b *Block) DiffForAddress(addr Address) int64 {
	var sum int64
	for _, tx := range b.Txs {
		sum += tx.DiffForAddress(addr)
	}
	return sum
}

// String renders the block for operator output.
func (b *Block) String() string {
	return fmt.Sprintf("Block #%d hash: %s", b.ID, b.Hash())
}

package core

import (
	"encoding/json"
	"testing"
)

func TestBlockHashAfterJSONRoundTrip(t *testing.T) {
	w := newTestWallet(t)
	genesis := NewBlock()
	tx, err := w.NewTx(w.Address(), 1234)
	if err != nil {
		t.Fatalf("new tx: %v", err)
	}
	block := NextBlock(genesis, tx)

	hash1 := block.Hash()
	encoded, err := json.Marshal(block)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded Block
	if err := json.Unmarshal(encoded, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Hash() != hash1 {
		t.Fatalf("hash changed across JSON round-trip")
	}
}

func TestBlockHashIndependentOfInsertionOrder(t *testing.T) {
	w := newTestWallet(t)
	x := newSecondTestWallet(t)
	tx1, err := w.NewTx(x.Address(), 1)
	if err != nil {
		t.Fatalf("tx1: %v", err)
	}
	tx2, err := w.NewTx(x.Address(), 2)
	if err != nil {
		t.Fatalf("tx2: %v", err)
	}
	tx3, err := w.NewTx(x.Address(), 3)
	if err != nil {
		t.Fatalf("tx3: %v", err)
	}

	forward := NewBlock(tx1, tx2, tx3)
	backward := NewBlock(tx3, tx2, tx1)
	backward.Timestamp = forward.Timestamp

	if forward.Hash() != backward.Hash() {
		t.Fatalf("same logical block must hash identically regardless of tx insertion order")
	}
}

func TestBlockAddDeduplicates(t *testing.T) {
	w := newTestWallet(t)
	tx, err := w.NewTx(w.Address(), 7)
	if err != nil {
		t.Fatalf("new tx: %v", err)
	}
	b := NewBlock()
	b.Add(tx)
	b.Add(tx)
	if len(b.Txs) != 1 {
		t.Fatalf("txs=%d want 1", len(b.Txs))
	}
}

func TestGenesisShape(t *testing.T) {
	b := NewBlock()
	if b.ID != 0 {
		t.Fatalf("genesis id=%d want 0", b.ID)
	}
	if b.ParentHash != nil {
		t.Fatalf("genesis parent hash must be absent")
	}
}

func TestNextBlockLinksParent(t *testing.T) {
	genesis := NewBlock()
	next := NextBlock(genesis)
	if next.ID != 1 {
		t.Fatalf("id=%d want 1", next.ID)
	}
	if next.ParentHash == nil || *next.ParentHash != genesis.Hash() {
		t.Fatalf("parent hash must link the predecessor")
	}
}

func TestBlockOrdering(t *testing.T) {
	genesis := NewBlock()
	next := NextBlock(genesis)
	if !genesis.Less(next) {
		t.Fatalf("lower id must order first")
	}
	if next.Less(genesis) {
		t.Fatalf("ordering must be asymmetric")
	}
}

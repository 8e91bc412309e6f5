package core

import "testing"

func TestTxPoolDeduplicates(t *testing.T) {
	w := newTestWallet(t)
	tx, err := w.NewTx(w.Address(), 10)
	if err != nil {
		t.Fatalf("tx: %v", err)
	}
	pool := NewTxPool()
	if !pool.Add(tx) {
		t.Fatalf("first add must report new")
	}
	if pool.Add(tx) {
		t.Fatalf("second add must report duplicate")
	}
	if pool.Len() != 1 {
		t.Fatalf("len=%d want 1", pool.Len())
	}
}

func TestTxPoolRemove(t *testing.T) {
	w := newTestWallet(t)
	tx, err := w.NewTx(w.Address(), 10)
	if err != nil {
		t.Fatalf("tx: %v", err)
	}
	pool := NewTxPool()
	pool.Add(tx)
	pool.Remove(tx.Hash())
	if pool.Len() != 0 {
		t.Fatalf("len=%d want 0", pool.Len())
	}
	if len(pool.Snapshot()) != 0 {
		t.Fatalf("snapshot must be empty")
	}
}

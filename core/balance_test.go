package core

import "testing"

func TestBalanceAfterTransfers(t *testing.T) {
	w := newTestWallet(t)
	x := newSecondTestWallet(t)
	y := newSecondTestWallet(t)
	store := tmpChainStore(t)

	genesis, err := NewGenesisBlock(w)
	if err != nil {
		t.Fatalf("genesis: %v", err)
	}
	if err := store.CommitAsGenesis(genesis); err != nil {
		t.Fatalf("commit genesis: %v", err)
	}

	transfer, err := w.NewTx(x.Address(), 400)
	if err != nil {
		t.Fatalf("tx: %v", err)
	}
	if err := store.CommitBlock(NextBlock(genesis, transfer)); err != nil {
		t.Fatalf("commit: %v", err)
	}

	tests := []struct {
		name string
		addr Address
		want int64
	}{
		{"Sender", w.Address(), 999_600},
		{"Receiver", x.Address(), 400},
		{"Unrelated", y.Address(), 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Balance(store, tc.addr)
			if err != nil {
				t.Fatalf("balance: %v", err)
			}
			if got != tc.want {
				t.Fatalf("balance=%d want %d", got, tc.want)
			}
		})
	}
}

func TestBalanceEmptyStore(t *testing.T) {
	store := tmpChainStore(t)
	got, err := Balance(store, newTestWallet(t).Address())
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if got != 0 {
		t.Fatalf("balance=%d want 0", got)
	}
}

func TestGenesisBlockShape(t *testing.T) {
	w := newTestWallet(t)
	genesis, err := NewGenesisBlock(w)
	if err != nil {
		t.Fatalf("genesis: %v", err)
	}
	if genesis.ID != 0 || genesis.ParentHash != nil {
		t.Fatalf("genesis must have id 0 and no parent")
	}
	if len(genesis.Txs) != 1 {
		t.Fatalf("genesis must hold exactly one transaction")
	}
	for _, tx := range genesis.Txs {
		if !tx.IsCoinbase() {
			t.Fatalf("genesis tx sender must be the default address")
		}
		if !tx.Receiver.Equal(w.Address()) {
			t.Fatalf("genesis tx must credit the operator")
		}
	}
}

package core

import (
	"errors"
	"path/filepath"
	"testing"
)

func tmpChainStore(t *testing.T) *ChainStore {
	t.Helper()
	store, err := OpenChainStore(filepath.Join(t.TempDir(), "chain.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testChain(t *testing.T, n int) []*Block {
	t.Helper()
	w := newTestWallet(t)
	coinbase, err := w.NewCoinbaseTx(1_000_000)
	if err != nil {
		t.Fatalf("coinbase: %v", err)
	}
	blocks := []*Block{NewBlock(coinbase)}
	for i := 1; i < n; i++ {
		blocks = append(blocks, NextBlock(blocks[i-1]))
	}
	return blocks
}

func TestChainStoreEmptyLatest(t *testing.T) {
	store := tmpChainStore(t)
	if _, err := store.LatestBlock(); !errors.Is(err, ErrBlockNotFound) {
		t.Fatalf("empty store latest err=%v want ErrBlockNotFound", err)
	}
}

func TestChainStoreCommitContinuity(t *testing.T) {
	store := tmpChainStore(t)
	chain := testChain(t, 3)
	for _, b := range chain {
		if err := store.CommitBlock(b); err != nil {
			t.Fatalf("commit %d: %v", b.ID, err)
		}
	}
	latest, err := store.LatestBlock()
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest.ID != 2 {
		t.Fatalf("latest id=%d want 2", latest.ID)
	}
	for i := 1; i < 3; i++ {
		b, err := store.GetBlock(int64(i))
		if err != nil {
			t.Fatalf("get %d: %v", i, err)
		}
		parent, err := store.GetBlock(int64(i - 1))
		if err != nil {
			t.Fatalf("get %d: %v", i-1, err)
		}
		if b.ParentHash == nil || *b.ParentHash != parent.Hash() {
			t.Fatalf("block %d does not link its predecessor", i)
		}
	}
}

func TestChainStoreCommitOutOfOrderPanics(t *testing.T) {
	store := tmpChainStore(t)
	chain := testChain(t, 1)
	if err := store.CommitBlock(chain[0]); err != nil {
		t.Fatalf("commit genesis: %v", err)
	}

	skipped := NextBlock(chain[0])
	skipped.ID = 3

	defer func() {
		if recover() == nil {
			t.Fatalf("committing id 3 after 0 must panic")
		}
	}()
	_ = store.CommitBlock(skipped)
}

func TestChainStoreCommitWrongParentPanics(t *testing.T) {
	store := tmpChainStore(t)
	chain := testChain(t, 2)
	if err := store.CommitBlock(chain[0]); err != nil {
		t.Fatalf("commit genesis: %v", err)
	}

	wrong := NextBlock(chain[1]) // parent hash of the wrong block
	wrong.ID = 1

	defer func() {
		if recover() == nil {
			t.Fatalf("committing with wrong parent must panic")
		}
	}()
	_ = store.CommitBlock(wrong)
}

func TestChainStoreGetMissing(t *testing.T) {
	store := tmpChainStore(t)
	if _, err := store.GetBlock(42); !errors.Is(err, ErrBlockNotFound) {
		t.Fatalf("err=%v want ErrBlockNotFound", err)
	}
}

func TestChainStoreRecentBlocks(t *testing.T) {
	store := tmpChainStore(t)
	chain := testChain(t, 5)
	for _, b := range chain {
		if err := store.CommitBlock(b); err != nil {
			t.Fatalf("commit %d: %v", b.ID, err)
		}
	}
	recent, err := store.RecentBlocks(3)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("len=%d want 3", len(recent))
	}
	for i, wantID := range []int64{4, 3, 2} {
		if recent[i].ID != wantID {
			t.Fatalf("recent[%d].ID=%d want %d", i, recent[i].ID, wantID)
		}
	}
}

func TestChainStoreCommitAsGenesisClears(t *testing.T) {
	store := tmpChainStore(t)
	chain := testChain(t, 3)
	for _, b := range chain {
		if err := store.CommitBlock(b); err != nil {
			t.Fatalf("commit %d: %v", b.ID, err)
		}
	}

	fresh := testChain(t, 1)[0]
	if err := store.CommitAsGenesis(fresh); err != nil {
		t.Fatalf("commit as genesis: %v", err)
	}
	latest, err := store.LatestBlock()
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest.ID != 0 {
		t.Fatalf("latest id=%d want 0 after genesis reset", latest.ID)
	}
	if _, err := store.GetBlock(2); !errors.Is(err, ErrBlockNotFound) {
		t.Fatalf("old blocks must be gone, err=%v", err)
	}
}

func TestChainStorePersistsAcrossReopen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "chain.db")
	store, err := OpenChainStore(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	chain := testChain(t, 2)
	for _, b := range chain {
		if err := store.CommitBlock(b); err != nil {
			t.Fatalf("commit: %v", err)
		}
	}
	wantHash := chain[1].Hash()
	store.Close()

	reopened, err := OpenChainStore(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	latest, err := reopened.LatestBlock()
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest.Hash() != wantHash {
		t.Fatalf("tip hash changed across reopen")
	}
}

func TestChainStoreWalkOrder(t *testing.T) {
	store := tmpChainStore(t)
	chain := testChain(t, 4)
	for _, b := range chain {
		if err := store.CommitBlock(b); err != nil {
			t.Fatalf("commit: %v", err)
		}
	}
	var ids []int64
	err := store.Walk(func(b *Block) (bool, error) {
		ids = append(ids, b.ID)
		return true, nil
	})
	if err != nil {
		t.Fatalf("walk: %v", err)
	}
	for i, id := range ids {
		if id != int64(i) {
			t.Fatalf("walk order broken: %v", ids)
		}
	}
	if len(ids) != 4 {
		t.Fatalf("walked %d blocks, want 4", len(ids))
	}
}

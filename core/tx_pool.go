package core

import "sync"

// TxPool holds validated transactions awaiting inclusion in a block. The
// hash key gives set semantics; submitting the same transaction twice is a
// no-op.
type TxPool struct {
	mu  sync.Mutex
	txs map[HashDigest]*Tx
}

// NewTxPool returns an empty pool.
func NewTxPool() *TxPool {
	return &TxPool{txs: make(map[HashDigest]*Tx)}
}

// Add admits a transaction. It reports whether the transaction was new.
func (p *TxPool) Add(tx *Tx) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	h := tx.Hash()
	if _, ok := p.txs[h]; ok {
		return false
	}
	p.txs[h] = tx
	return true
}

// Remove drops a transaction, typically after it was committed in a block.
func (p *TxPool) Remove(h HashDigest) {
	p.mu.Lock()
	delete(p.txs, h)
	p.mu.Unlock()
}

// Len returns the number of pending transactions.
func (p *TxPool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.txs)
}

// Snapshot copies the pending set for block assembly.
func (p *TxPool) Snapshot() []*Tx {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*Tx, 0, len(p.txs))
	for _, tx := range p.txs {
		out = append(out, tx)
	}
	return out
}

package core

// Validation of gossiped submissions. Replaces the source's mining loop:
// there is no miner driving the chain forward, but every proposed
// transaction and block still gets verified and acknowledged.

import (
	"context"

	"github.com/sirupsen/logrus"
)

// validatorLoop drains the proposal channels until ctx is done.
func (n *Node) validatorLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case tx := <-n.proposedTxs:
			n.validateProposedTx(ctx, tx)
		case block := <-n.proposedBlocks:
			n.validateProposedBlock(ctx, block)
		}
	}
}

func (n *Node) validateProposedTx(ctx context.Context, tx *Tx) {
	hash := tx.Hash()
	if err := tx.VerifySignature(); err != nil {
		logrus.Warnf("Rejected tx %s: %v", hash, err)
		n.enqueueResponse(ctx, TxErrorResponse(hash))
		return
	}
	if n.pool.Add(tx) {
		logrus.Infof("Validated tx %s, %d pending", hash, n.pool.Len())
	}
	n.enqueueResponse(ctx, AcceptTxResponse(hash))
}

// validateProposedBlock checks that a gossiped block is internally sound:
// every transaction verifies and the id/parent shape is consistent. It does
// not commit; committing is the sync loop's job once a majority corroborates.
func (n *Node) validateProposedBlock(ctx context.Context, block *Block) {
	hash := block.Hash()
	if (block.ParentHash == nil) != (block.ID == 0) {
		logrus.Warnf("Rejected block %s: parent/id mismatch", hash)
		n.enqueueResponse(ctx, BlockErrorResponse(hash))
		return
	}
	for _, tx := range block.Txs {
		if err := tx.VerifySignature(); err != nil {
			logrus.Warnf("Rejected block %s: %v", hash, err)
			n.enqueueResponse(ctx, BlockErrorResponse(hash))
			return
		}
	}
	for _, tx := range block.Txs {
		n.pool.Remove(tx.Hash())
	}
	logrus.Infof("Validated block %s", hash)
	n.enqueueResponse(ctx, AcceptBlockResponse(hash))
}

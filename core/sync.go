package core

// Bootstrap and chain synchronization. Runs as a detached task armed by the
// startup timer or an operator /bootstrap; re-entry is idempotent in effect
// since a later run simply observes the already-committed state.

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
)

// syncTimeout bounds each network collection; a timeout aborts the pending
// collection, not the whole bootstrap session.
const syncTimeout = 10 * time.Second

// genesisSeedAmount is the coinbase credit the chain creator grants itself.
const genesisSeedAmount = 1_000_000

// bootstrap aligns the local chain with the network, or writes genesis when
// the node was started with --init.
func (n *Node) bootstrap(ctx context.Context) error {
	logrus.Info("Bootstrapping..")
	if n.cfg.Init {
		return n.bootstrapInit()
	}
	return n.bootstrapJoin(ctx)
}

// bootstrapInit seeds a brand-new chain. No peers are contacted.
func (n *Node) bootstrapInit() error {
	n.walletMu.RLock()
	genesis, err := NewGenesisBlock(n.wallet)
	n.walletMu.RUnlock()
	if err != nil {
		return err
	}
	if err := n.store.CommitAsGenesis(genesis); err != nil {
		return err
	}
	logrus.Infof("Writing genesis block %s", genesis.Hash())
	return nil
}

// NewGenesisBlock builds the chain root: a genesis block holding a single
// coinbase transaction crediting the operator's wallet with the seed amount.
func NewGenesisBlock(w *Wallet) (*Block, error) {
	tx, err := w.NewCoinbaseTx(genesisSeedAmount)
	if err != nil {
		return nil, err
	}
	return NewBlock(tx), nil
}

// bootstrapJoin discovers the network's latest block through a majority of
// peers and fills every missing block from local+1 upward, re-deriving the
// network tip once the gap closes.
func (n *Node) bootstrapJoin(ctx context.Context) error {
	peers := n.swarm.PeerCount()
	if peers == 0 {
		logrus.Warn("No peers connected, cannot bootstrap")
		return nil
	}
	majority := PeerMajority(peers)
	logrus.Infof("Bootstrapping against %d peers, majority %d", peers, majority)

	for {
		networkLatest, err := n.requestLatest(ctx, majority)
		if err != nil {
			return err
		}
		if networkLatest == nil {
			logrus.Warn("No majority answer for latest block, stopping sync")
			return nil
		}

		local, err := n.store.LatestBlock()
		if err != nil && !errors.Is(err, ErrBlockNotFound) {
			return err
		}

		switch {
		case local != nil && local.Hash() == networkLatest.Hash():
			logrus.Infof("Synchronized at %s", local)
			return nil
		case local != nil && !local.Less(networkLatest):
			// Ahead of the observed majority; never roll back.
			logrus.Infof("Local chain ahead of network (%d > %d), staying", local.ID, networkLatest.ID)
			return nil
		}

		var from int64
		if local != nil {
			from = local.ID + 1
		}
		if err := n.catchUp(ctx, from, networkLatest, majority); err != nil {
			return err
		}
	}
}

// catchUp fetches and commits blocks from id from up to the known network
// tip in order, revalidating parent continuity via the store's commit
// precondition.
func (n *Node) catchUp(ctx context.Context, from int64, networkLatest *Block, majority int) error {
	for id := from; id <= networkLatest.ID; id++ {
		var block *Block
		if id == networkLatest.ID {
			block = networkLatest
		} else {
			fetched, err := n.requestBlock(ctx, id, majority)
			if err != nil {
				return err
			}
			if fetched == nil {
				logrus.Warnf("No majority answer for block %d, stopping sync", id)
				return nil
			}
			block = fetched
		}
		if err := n.store.CommitBlock(block); err != nil {
			return err
		}
	}
	return nil
}

// requestLatest publishes AskLatest and waits for the first latest-block
// answer corroborated by a majority of peers, keyed by the block's own hash.
func (n *Node) requestLatest(ctx context.Context, majority int) (*Block, error) {
	n.enqueueRequest(ctx, AskLatestRequest())

	collectCtx, cancel := context.WithTimeout(ctx, syncTimeout)
	defer cancel()

	agreed := Group(collectCtx, n.networkLatest, majority, func(b *Block) HashDigest {
		return b.Hash()
	})
	select {
	case block, ok := <-agreed:
		if !ok {
			return nil, nil
		}
		return block, nil
	case <-collectCtx.Done():
		return nil, nil
	}
}

// requestBlock publishes AskBlock(id) and collects replies filtered to the
// requested id through the same majority combinator.
func (n *Node) requestBlock(ctx context.Context, id int64, majority int) (*Block, error) {
	n.enqueueRequest(ctx, AskBlockRequest(id))

	collectCtx, cancel := context.WithTimeout(ctx, syncTimeout)
	defer cancel()

	wanted := make(chan *Block)
	go func() {
		defer close(wanted)
		for {
			select {
			case b, ok := <-n.networkBlocks:
				if !ok {
					return
				}
				if b.ID != id {
					continue
				}
				select {
				case wanted <- b:
				case <-collectCtx.Done():
					return
				}
			case <-collectCtx.Done():
				return
			}
		}
	}()

	agreed := Group(collectCtx, wanted, majority, func(b *Block) HashDigest {
		return b.Hash()
	})
	select {
	case block, ok := <-agreed:
		if !ok {
			return nil, nil
		}
		return block, nil
	case <-collectCtx.Done():
		return nil, nil
	}
}

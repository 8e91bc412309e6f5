package core

// Node is the reactor at the heart of the process. It owns the swarm, the
// wallet, the chain store and every channel, multiplexes operator input,
// inbound gossip, outbound publications and background tasks, and never
// exits on a handler error — only on shutdown.

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"bchain-network/pkg/config"
)

// Channel bounds. The proposal channels are bounded so a flood of
// submissions from peers cannot exhaust memory: forwardTx and forwardBlock
// drop a submission with a warning while its channel is full. The
// control-path channels only ever see operator-scale volume.
const (
	proposalBacklog = 1024
	controlBacklog  = 256
)

// Node wires the event loop together.
type Node struct {
	cfg    *config.Config
	wallet *Wallet
	// walletMu is read-biased: every handler reads, nothing writes after
	// startup.
	walletMu sync.RWMutex
	store    *ChainStore
	pool     *TxPool
	swarm    *Swarm

	networkLatest  chan *Block
	networkBlocks  chan *Block
	proposedTxs    chan *Tx
	proposedBlocks chan *Block

	networkRequests  chan *BchainRequest
	networkResponses chan *BchainResponse

	// input carries operator lines; normally stdin, swappable in tests.
	input io.Reader
}

// NewNode assembles a node from its capabilities. The swarm is created here
// so its identity comes from the wallet key.
func NewNode(ctx context.Context, cfg *config.Config, wallet *Wallet, store *ChainStore, input io.Reader) (*Node, error) {
	swarm, err := NewSwarm(ctx, wallet, cfg.Listen, cfg.Net)
	if err != nil {
		return nil, err
	}
	return &Node{
		cfg:              cfg,
		wallet:           wallet,
		store:            store,
		pool:             NewTxPool(),
		swarm:            swarm,
		networkLatest:    make(chan *Block, controlBacklog),
		networkBlocks:    make(chan *Block, controlBacklog),
		proposedTxs:      make(chan *Tx, proposalBacklog),
		proposedBlocks:   make(chan *Block, proposalBacklog),
		networkRequests:  make(chan *BchainRequest, controlBacklog),
		networkResponses: make(chan *BchainResponse, controlBacklog),
		input:            input,
	}, nil
}

// Swarm exposes the transport to the status API.
func (n *Node) Swarm() *Swarm {
	return n.swarm
}

// Store exposes the chain store to the status API.
func (n *Node) Store() *ChainStore {
	return n.store
}

// Run dials startup peers, starts the validator loop, arms the bootstrap
// timer and drives the select loop until ctx is done, operator input ends or
// the swarm's event channel closes. The listener is already bound by NewSwarm.
func (n *Node) Run(ctx context.Context) error {
	n.dialPeers(ctx, n.cfg.Peers)

	go n.validatorLoop(ctx)

	bootstrapTimer := time.After(time.Duration(n.cfg.BootstrapDelay()) * time.Second)
	lines := readLines(ctx, n.input)

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-bootstrapTimer:
			n.spawn("bootstrap", func() error { return n.bootstrap(ctx) })

		case ev, ok := <-n.swarm.Events():
			if !ok {
				return nil
			}
			n.handleSwarmEvent(ctx, ev)

		case line, ok := <-lines:
			if !ok {
				logrus.Info("Operator input closed, shutting down")
				return nil
			}
			n.handleUserCommand(ctx, ParseUserCommand(line))

		case req := <-n.networkRequests:
			n.publishFrame(RequestFrame(req))

		case res := <-n.networkResponses:
			n.publishFrame(ResponseFrame(res))
		}
	}
}

// spawn runs a handler as a detached task. A panic in a handler must not
// kill the event loop; it is logged and the task exits.
func (n *Node) spawn(name string, fn func() error) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logrus.Errorf("%s task panicked: %v", name, r)
			}
		}()
		if err := fn(); err != nil {
			logrus.Errorf("%s task: %v", name, err)
		}
	}()
}

func readLines(ctx context.Context, r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}

func (n *Node) dialPeers(ctx context.Context, peers []string) {
	for _, addr := range peers {
		if err := n.swarm.Dial(ctx, addr); err != nil {
			logrus.Warnf("Dialing %s failed: %v", addr, err)
			continue
		}
		logrus.Infof("Dialed %s", addr)
	}
}

// handleSwarmEvent routes one overlay occurrence.
func (n *Node) handleSwarmEvent(ctx context.Context, ev SwarmEvent) {
	switch {
	case ev.Message != nil:
		var frame Frame
		if err := json.Unmarshal(ev.Message.Data, &frame); err != nil {
			logrus.Warnf("Malformed frame from %s: %v", ev.Message.Source, err)
			return
		}
		n.handleFrame(ctx, &frame)
	case ev.ListenAddr != nil:
		logrus.Infof("Listening on %s/p2p/%s", ev.ListenAddr, n.swarm.ID())
	case ev.PeerConnected != "":
		logrus.Infof("Connected to peer %s", ev.PeerConnected)
	}
}

func (n *Node) handleFrame(ctx context.Context, frame *Frame) {
	switch {
	case frame.Request != nil:
		n.handleRequest(ctx, frame.Request)
	case frame.Response != nil:
		n.handleResponse(ctx, frame.Response)
	default:
		logrus.Warn("Unrecognized frame")
	}
}

// handleRequest implements the inbound request state machine. Handlers that
// touch the store run detached so the loop never waits on a lock.
func (n *Node) handleRequest(ctx context.Context, req *BchainRequest) {
	switch {
	case req.AskLatest:
		n.spawn("respond-latest", func() error {
			block, err := n.store.LatestBlock()
			if errors.Is(err, ErrBlockNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			n.enqueueResponse(ctx, LatestResponse(block))
			return nil
		})
	case req.AskBlock != nil:
		id := *req.AskBlock
		n.spawn("respond-block", func() error {
			block, err := n.store.GetBlock(id)
			if errors.Is(err, ErrBlockNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			n.enqueueResponse(ctx, BlockResponse(block))
			return nil
		})
	case req.SubmitTx != nil:
		n.forwardTx(ctx, req.SubmitTx)
	case req.SubmitBlock != nil:
		n.forwardBlock(ctx, req.SubmitBlock)
	case req.Msg != nil:
		logrus.Infof("%s", *req.Msg)
	default:
		logrus.Warn("Unhandled bchain request")
	}
}

// handleResponse feeds synchronization channels and logs acknowledgements.
func (n *Node) handleResponse(ctx context.Context, res *BchainResponse) {
	switch {
	case res.Latest != nil:
		select {
		case n.networkLatest <- res.Latest:
		case <-ctx.Done():
		}
	case res.Block != nil:
		select {
		case n.networkBlocks <- res.Block:
		case <-ctx.Done():
		}
	case res.AcceptTx != nil:
		logrus.Infof("Peer accepted tx ..%s", res.AcceptTx.Short())
	case res.AcceptBlock != nil:
		logrus.Infof("Peer accepted block ..%s", res.AcceptBlock.Short())
	case res.Error != nil:
		n.logPeerError(res.Error)
	default:
		logrus.Warn("Unhandled bchain response")
	}
}

func (n *Node) logPeerError(e *BchainError) {
	switch {
	case e.Tx != nil:
		logrus.Warnf("Peer rejected tx %s", e.Tx)
	case e.Block != nil:
		logrus.Warnf("Peer rejected block %s", e.Block)
	case e.Generic != nil:
		logrus.Warnf("Peer error: %s", *e.Generic)
	}
}

func (n *Node) forwardTx(ctx context.Context, tx *Tx) {
	select {
	case n.proposedTxs <- tx:
	case <-ctx.Done():
	default:
		logrus.Warn("Proposed tx backlog full, dropping")
	}
}

func (n *Node) forwardBlock(ctx context.Context, b *Block) {
	select {
	case n.proposedBlocks <- b:
	case <-ctx.Done():
	default:
		logrus.Warn("Proposed block backlog full, dropping")
	}
}

// handleUserCommand dispatches one parsed operator line.
func (n *Node) handleUserCommand(ctx context.Context, cmd UserCommand) {
	switch c := cmd.(type) {
	case CmdPeers:
		logrus.Infof("Peers: %d", n.swarm.PeerCount())
	case CmdBlocks:
		n.spawn("blocks", func() error { return n.displayBlocks() })
	case CmdBootstrap:
		n.spawn("bootstrap", func() error { return n.bootstrap(ctx) })
	case CmdDial:
		n.dialPeers(ctx, c.Addrs)
	case CmdMsg:
		n.enqueueRequest(ctx, MsgRequest(c.Text))
	case CmdBalance:
		n.spawn("balance", func() error { return n.displayBalance(c.Address) })
	case CmdTx:
		n.spawn("submit-tx", func() error { return n.submitTx(ctx, c.Recipient, c.Amount) })
	case CmdHelp:
		logrus.Info(HelpText)
	default:
		logrus.Warn("Unrecognized user input")
	}
}

func (n *Node) displayBlocks() error {
	blocks, err := n.store.RecentBlocks(10)
	if err != nil {
		return err
	}
	if len(blocks) == 0 {
		logrus.Info("No blocks yet")
		return nil
	}
	for _, b := range blocks {
		logrus.Infof("%s (%d txs)", b, len(b.Txs))
	}
	return nil
}

func (n *Node) displayBalance(addr *Address) error {
	target := addr
	if target == nil {
		n.walletMu.RLock()
		own := n.wallet.Address()
		n.walletMu.RUnlock()
		target = &own
	}
	balance, err := Balance(n.store, *target)
	if err != nil {
		return err
	}
	logrus.Infof("Balance of %s: %d", target, balance)
	return nil
}

func (n *Node) submitTx(ctx context.Context, recipient Address, amount uint64) error {
	n.walletMu.RLock()
	tx, err := n.wallet.NewTx(recipient, amount)
	n.walletMu.RUnlock()
	if err != nil {
		return err
	}
	n.forwardTx(ctx, tx)
	n.enqueueRequest(ctx, SubmitTxRequest(tx))
	logrus.Infof("Submitted tx %s", tx.Hash())
	return nil
}

func (n *Node) enqueueRequest(ctx context.Context, req *BchainRequest) {
	select {
	case n.networkRequests <- req:
	case <-ctx.Done():
	}
}

func (n *Node) enqueueResponse(ctx context.Context, res *BchainResponse) {
	select {
	case n.networkResponses <- res:
	case <-ctx.Done():
	}
}

// publishFrame serializes and broadcasts a frame. Failure to publish, e.g.
// with no peers yet, is logged and the loop continues; the bootstrap timer
// or an operator /bootstrap retries.
func (n *Node) publishFrame(frame *Frame) {
	data, err := json.Marshal(frame)
	if err != nil {
		logrus.Errorf("Encode frame: %v", err)
		return
	}
	if err := n.swarm.Publish(data); err != nil {
		logrus.Warnf("Publish failed: %v", err)
	}
}

package core

// Swarm wraps a libp2p host and a single gossipsub topic. The event loop
// owns the Swarm exclusively: it drains Events() and issues Publish calls;
// nothing else touches the host.

import (
	"context"
	"fmt"

	"github.com/libp2p/go-libp2p"
	pubsub "github.com/libp2p/go-libp2p-pubsub"
	libp2pcrypto "github.com/libp2p/go-libp2p/core/crypto"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	ma "github.com/multiformats/go-multiaddr"
	"github.com/sirupsen/logrus"
)

// SwarmEvent is one occurrence on the overlay. Exactly one field is set.
type SwarmEvent struct {
	// Message is an inbound gossip payload with its source peer.
	Message *GossipMessage
	// PeerConnected reports a newly connected peer.
	PeerConnected peer.ID
	// ListenAddr reports a bound listen address.
	ListenAddr ma.Multiaddr
}

// GossipMessage is a raw frame received on the topic.
type GossipMessage struct {
	Data   []byte
	Source peer.ID
}

// Swarm is the topic-scoped broadcast bus.
type Swarm struct {
	host   host.Host
	pubsub *pubsub.PubSub
	topic  *pubsub.Topic
	sub    *pubsub.Subscription
	events chan SwarmEvent
	ctx    context.Context
	cancel context.CancelFunc
}

// NewSwarm builds the libp2p host with the wallet's RSA key as peer
// identity, joins the gossip topic and begins listening on listenAddr.
func NewSwarm(ctx context.Context, wallet *Wallet, listenAddr, topicName string) (*Swarm, error) {
	if _, err := ma.NewMultiaddr(listenAddr); err != nil {
		return nil, fmt.Errorf("invalid listen address %s: %w", listenAddr, err)
	}
	identity, _, err := libp2pcrypto.KeyPairFromStdKey(wallet.PrivateKey())
	if err != nil {
		return nil, fmt.Errorf("derive peer identity: %w", err)
	}

	h, err := libp2p.New(
		libp2p.Identity(identity),
		libp2p.ListenAddrStrings(listenAddr),
	)
	if err != nil {
		return nil, fmt.Errorf("create host: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	ps, err := pubsub.NewGossipSub(ctx, h, pubsub.WithMessageSigning(true))
	if err != nil {
		h.Close()
		cancel()
		return nil, fmt.Errorf("create pubsub: %w", err)
	}
	topic, err := ps.Join(topicName)
	if err != nil {
		h.Close()
		cancel()
		return nil, fmt.Errorf("join topic %s: %w", topicName, err)
	}
	sub, err := topic.Subscribe()
	if err != nil {
		h.Close()
		cancel()
		return nil, fmt.Errorf("subscribe %s: %w", topicName, err)
	}

	s := &Swarm{
		host:   h,
		pubsub: ps,
		topic:  topic,
		sub:    sub,
		events: make(chan SwarmEvent, 64),
		ctx:    ctx,
		cancel: cancel,
	}

	h.Network().Notify(&network.NotifyBundle{
		ConnectedF: func(_ network.Network, conn network.Conn) {
			s.emit(SwarmEvent{PeerConnected: conn.RemotePeer()})
		},
	})
	for _, addr := range h.Addrs() {
		s.emit(SwarmEvent{ListenAddr: addr})
	}

	go s.readLoop()
	return s, nil
}

// ID is this node's peer identity.
func (s *Swarm) ID() peer.ID {
	return s.host.ID()
}

// Events yields inbound messages, peer connections and listen addresses.
func (s *Swarm) Events() <-chan SwarmEvent {
	return s.events
}

// Publish broadcasts bytes to every peer subscribed to the topic.
func (s *Swarm) Publish(data []byte) error {
	return s.topic.Publish(s.ctx, data)
}

// Dial initiates a connection to a peer multiaddress.
func (s *Swarm) Dial(ctx context.Context, addr string) error {
	info, err := peer.AddrInfoFromString(addr)
	if err != nil {
		return fmt.Errorf("invalid peer address %s: %w", addr, err)
	}
	if err := s.host.Connect(ctx, *info); err != nil {
		return fmt.Errorf("connect %s: %w", addr, err)
	}
	return nil
}

// PeerCount is the number of connected peers at the moment of the call.
func (s *Swarm) PeerCount() int {
	return len(s.host.Network().Peers())
}

// Close tears the host down; the event channel closes once the read loop
// observes the cancellation.
func (s *Swarm) Close() error {
	s.cancel()
	s.sub.Cancel()
	return s.host.Close()
}

func (s *Swarm) readLoop() {
	defer close(s.events)
	for {
		msg, err := s.sub.Next(s.ctx)
		if err != nil {
			// Subscription cancelled or context done.
			return
		}
		if msg.ReceivedFrom == s.host.ID() {
			continue
		}
		s.emit(SwarmEvent{Message: &GossipMessage{
			Data:   msg.Data,
			Source: msg.ReceivedFrom,
		}})
	}
}

func (s *Swarm) emit(ev SwarmEvent) {
	select {
	case s.events <- ev:
	case <-s.ctx.Done():
	default:
		logrus.Warnf("swarm event dropped, consumer too slow")
	}
}
